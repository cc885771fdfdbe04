package domain

import "fmt"

// UnknownReferenceError is returned when a line or circle commit names a point
// id absent from the model. The mutation is not applied.
type UnknownReferenceError struct {
	PointID string
}

func (e UnknownReferenceError) Error() string {
	return fmt.Sprintf("point %q not found", e.PointID)
}

// DegenerateLineError is returned when a line commit names the same point for
// both endpoints.
type DegenerateLineError struct {
	PointID string
}

func (e DegenerateLineError) Error() string {
	return fmt.Sprintf("line endpoints are the same point %q", e.PointID)
}

// DegenerateCircleError is returned when a circle commit names the same point
// as both center and radius point.
type DegenerateCircleError struct {
	PointID string
}

func (e DegenerateCircleError) Error() string {
	return fmt.Sprintf("circle center and radius point are the same point %q", e.PointID)
}

// StaleAnchorError is returned when a two-step interaction tries to commit
// against an anchor point that no longer exists (for example after a clear).
// The interaction resets to idle; the error never escapes the interaction
// boundary.
type StaleAnchorError struct {
	AnchorID string
}

func (e StaleAnchorError) Error() string {
	return fmt.Sprintf("anchor point %q no longer exists", e.AnchorID)
}

// RemoteUnavailableError wraps any sync-gateway or unlock-check failure. It is
// isolated at the gateway boundary and only flips connectivity state.
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func (e RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the transport error.
func (e RemoteUnavailableError) Unwrap() error { return e.Err }

// SnapshotIntegrityError reports a persisted snapshot that violates the model
// invariants and must not be restored.
type SnapshotIntegrityError struct {
	Reason string
}

func (e SnapshotIntegrityError) Error() string {
	return "snapshot integrity: " + e.Reason
}
