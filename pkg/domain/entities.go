package domain

import "time"

// ElementKind identifies the type of geometric element stored in a
// construction space.
type ElementKind string

// Supported element kinds used in history entries and mirror payloads.
const (
	// KindPoint identifies a point element.
	KindPoint ElementKind = "point"
	// KindLine identifies a line element.
	KindLine ElementKind = "line"
	// KindCircle identifies a circle element.
	KindCircle ElementKind = "circle"
)

// ActionTag identifies the construction action recorded in a history entry.
type ActionTag string

// Canonical construction actions. History is append-only; these tags are the
// only values it may carry.
const (
	// ActionAddPoint records a committed point.
	ActionAddPoint ActionTag = "add_point"
	// ActionCreateLine records a committed line.
	ActionCreateLine ActionTag = "create_line"
	// ActionCreateCircle records a committed circle.
	ActionCreateCircle ActionTag = "create_circle"
	// ActionAddIntersections records intersection points committed as a batch.
	ActionAddIntersections ActionTag = "add_intersections"
)

// Point is an immutable location in the construction space. Points are never
// moved or edited after creation; they are destroyed only by a full clear.
type Point struct {
	ID           string    `json:"id"`
	Position     Position  `json:"position"`
	Label        string    `json:"label,omitempty"`
	Constructed  bool      `json:"constructed,omitempty"`
	Dependencies []string  `json:"dependencies,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Line references two distinct existing points.
type Line struct {
	ID        string    `json:"id"`
	EndpointA string    `json:"endpoint_a"`
	EndpointB string    `json:"endpoint_b"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Circle references a center point and a radius-defining point. Radius is the
// Euclidean distance between the two at creation time; points are immutable,
// so it is cached and never recomputed.
type Circle struct {
	ID          string    `json:"id"`
	Center      string    `json:"center"`
	RadiusPoint string    `json:"radius_point"`
	Radius      float64   `json:"radius"`
	Label       string    `json:"label,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryEntry records one committed construction action and the element ids
// it produced.
type HistoryEntry struct {
	Action     ActionTag `json:"action"`
	ElementIDs []string  `json:"element_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConstructionSpace is a read-only snapshot of the aggregate geometric model
// for one session: every point, line, and circle plus the ordered history.
// Collaborators receive copies and must never mutate the live model through
// them.
type ConstructionSpace struct {
	Points  map[string]Point  `json:"points"`
	Lines   map[string]Line   `json:"lines"`
	Circles map[string]Circle `json:"circles"`
	// PointOrder preserves insertion order for display and for deterministic
	// nearest-point tie-breaking.
	PointOrder []string       `json:"point_order"`
	History    []HistoryEntry `json:"history"`
}

// NewConstructionSpace returns an empty snapshot with initialized maps.
func NewConstructionSpace() ConstructionSpace {
	return ConstructionSpace{
		Points:  make(map[string]Point),
		Lines:   make(map[string]Line),
		Circles: make(map[string]Circle),
	}
}

// Clone returns a deep copy of the snapshot.
func (s ConstructionSpace) Clone() ConstructionSpace {
	out := NewConstructionSpace()
	for id, p := range s.Points {
		cp := p
		cp.Dependencies = append([]string(nil), p.Dependencies...)
		out.Points[id] = cp
	}
	for id, l := range s.Lines {
		out.Lines[id] = l
	}
	for id, c := range s.Circles {
		out.Circles[id] = c
	}
	out.PointOrder = append([]string(nil), s.PointOrder...)
	for _, h := range s.History {
		ch := h
		ch.ElementIDs = append([]string(nil), h.ElementIDs...)
		out.History = append(out.History, ch)
	}
	return out
}

// ElementCount returns the total number of elements in the snapshot.
func (s ConstructionSpace) ElementCount() int {
	return len(s.Points) + len(s.Lines) + len(s.Circles)
}

// LineCount returns the number of lines.
func (s ConstructionSpace) LineCount() int { return len(s.Lines) }

// CircleCount returns the number of circles.
func (s ConstructionSpace) CircleCount() int { return len(s.Circles) }

// ValidateSnapshot checks the structural invariants a persisted snapshot must
// satisfy before it may be restored: every line and circle references existing
// distinct points, the point order covers exactly the point set, and history
// ids resolve to elements (the 1:1 history/element invariant).
func ValidateSnapshot(s ConstructionSpace) error {
	if len(s.PointOrder) != len(s.Points) {
		return SnapshotIntegrityError{Reason: "point order does not cover point set"}
	}
	for _, id := range s.PointOrder {
		if _, ok := s.Points[id]; !ok {
			return SnapshotIntegrityError{Reason: "point order references unknown point " + id}
		}
	}
	for id, l := range s.Lines {
		if l.EndpointA == l.EndpointB {
			return SnapshotIntegrityError{Reason: "line " + id + " is degenerate"}
		}
		if _, ok := s.Points[l.EndpointA]; !ok {
			return SnapshotIntegrityError{Reason: "line " + id + " references unknown point"}
		}
		if _, ok := s.Points[l.EndpointB]; !ok {
			return SnapshotIntegrityError{Reason: "line " + id + " references unknown point"}
		}
	}
	for id, c := range s.Circles {
		if c.Center == c.RadiusPoint {
			return SnapshotIntegrityError{Reason: "circle " + id + " is degenerate"}
		}
		if _, ok := s.Points[c.Center]; !ok {
			return SnapshotIntegrityError{Reason: "circle " + id + " references unknown point"}
		}
		if _, ok := s.Points[c.RadiusPoint]; !ok {
			return SnapshotIntegrityError{Reason: "circle " + id + " references unknown point"}
		}
	}
	counted := 0
	for _, h := range s.History {
		counted += len(h.ElementIDs)
		if err := ValidateStep(s, h); err != nil {
			return err
		}
	}
	if counted != s.ElementCount() {
		return SnapshotIntegrityError{Reason: "history does not account for every element"}
	}
	return nil
}

// ValidateStep checks that a single history entry is consistent with the
// snapshot: the action tag is known and every element id it names resolves to
// an element of the matching kind. Pure check, no mutation.
func ValidateStep(s ConstructionSpace, h HistoryEntry) error {
	for _, id := range h.ElementIDs {
		switch h.Action {
		case ActionAddPoint, ActionAddIntersections:
			if _, ok := s.Points[id]; !ok {
				return SnapshotIntegrityError{Reason: "history references unknown point " + id}
			}
		case ActionCreateLine:
			if _, ok := s.Lines[id]; !ok {
				return SnapshotIntegrityError{Reason: "history references unknown line " + id}
			}
		case ActionCreateCircle:
			if _, ok := s.Circles[id]; !ok {
				return SnapshotIntegrityError{Reason: "history references unknown circle " + id}
			}
		default:
			return SnapshotIntegrityError{Reason: "history carries unknown action " + string(h.Action)}
		}
	}
	return nil
}
