package domain

import "context"

// SpaceArchive is a minimal abstraction over durable snapshot backends. The
// engine saves best-effort after each commit; archive failures are logged and
// never surface to the interaction path.
type SpaceArchive interface {
	// SaveSnapshot stores the latest snapshot for a session, replacing any
	// previous one.
	SaveSnapshot(ctx context.Context, sessionID string, space ConstructionSpace) error
	// LoadLatest returns the most recent snapshot for a session. The boolean
	// reports whether one exists.
	LoadLatest(ctx context.Context, sessionID string) (ConstructionSpace, bool, error)
	// Sessions lists the session ids with stored snapshots, sorted.
	Sessions(ctx context.Context) ([]string, error)
}
