package domain

import (
	"encoding/json"
	"fmt"
)

// ElementPayload is the per-kind wire shape carried by mirror calls and
// element-added events.
type ElementPayload interface {
	// PayloadKind reports which element kind the payload describes.
	PayloadKind() ElementKind
}

// PointPayload is the mirror shape for a point.
type PointPayload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// PayloadKind implements ElementPayload.
func (PointPayload) PayloadKind() ElementKind { return KindPoint }

// LinePayload is the mirror shape for a line.
type LinePayload struct {
	EndpointA string `json:"endpoint_a"`
	EndpointB string `json:"endpoint_b"`
	Label     string `json:"label,omitempty"`
}

// PayloadKind implements ElementPayload.
func (LinePayload) PayloadKind() ElementKind { return KindLine }

// CirclePayload is the mirror shape for a circle.
type CirclePayload struct {
	Center      string `json:"center"`
	RadiusPoint string `json:"radius_point"`
	Label       string `json:"label,omitempty"`
}

// PayloadKind implements ElementPayload.
func (CirclePayload) PayloadKind() ElementKind { return KindCircle }

// PayloadFor builds the wire payload for an element in the given snapshot.
func PayloadFor(space ConstructionSpace, kind ElementKind, id string) (ElementPayload, error) {
	switch kind {
	case KindPoint:
		p, ok := space.Points[id]
		if !ok {
			return nil, UnknownReferenceError{PointID: id}
		}
		return PointPayload{X: p.Position.X, Y: p.Position.Y, Label: p.Label}, nil
	case KindLine:
		l, ok := space.Lines[id]
		if !ok {
			return nil, fmt.Errorf("line %q not found", id)
		}
		return LinePayload{EndpointA: l.EndpointA, EndpointB: l.EndpointB, Label: l.Label}, nil
	case KindCircle:
		c, ok := space.Circles[id]
		if !ok {
			return nil, fmt.Errorf("circle %q not found", id)
		}
		return CirclePayload{Center: c.Center, RadiusPoint: c.RadiusPoint, Label: c.Label}, nil
	default:
		return nil, fmt.Errorf("unknown element kind %q", kind)
	}
}

// MirrorEnvelope is the full remote mirror request: the element payload plus
// the complete current snapshot for server-side reconstruction. Clears carry
// an empty kind and no payload.
type MirrorEnvelope struct {
	Kind    ElementKind       `json:"kind,omitempty"`
	ID      string            `json:"id,omitempty"`
	Payload json.RawMessage   `json:"payload,omitempty"`
	Cleared bool              `json:"cleared,omitempty"`
	Space   ConstructionSpace `json:"construction_space"`
}

// NewMirrorEnvelope builds the envelope for a committed element.
func NewMirrorEnvelope(space ConstructionSpace, kind ElementKind, id string, payload ElementPayload) (MirrorEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return MirrorEnvelope{}, err
	}
	return MirrorEnvelope{Kind: kind, ID: id, Payload: raw, Space: space}, nil
}

// NewClearEnvelope builds the envelope mirroring a full-space clear.
func NewClearEnvelope(space ConstructionSpace) MirrorEnvelope {
	return MirrorEnvelope{Cleared: true, Space: space}
}

// UnlockRequest asks the remote collection service which elements the current
// construction unlocks.
type UnlockRequest struct {
	Space ConstructionSpace `json:"construction_space"`
	Tag   ConstructionTag   `json:"classified_tag"`
}

// UnlockedElement describes one newly unlocked collection entry.
type UnlockedElement struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Rarity   string `json:"rarity,omitempty"`
}

// UnlockResponse lists the elements unlocked by the submitted construction.
type UnlockResponse struct {
	Unlocked []UnlockedElement `json:"unlocked"`
}

// ConstructionTag is the heuristic archetype label assigned by the classifier.
type ConstructionTag string

// Classifier archetypes, ordered from most to least specific.
const (
	TagEquilateralTriangle   ConstructionTag = "equilateral_triangle"
	TagPerpendicularBisector ConstructionTag = "perpendicular_bisector"
	TagCircle                ConstructionTag = "circle"
	TagLineSegment           ConstructionTag = "line_segment"
	TagBasicConstruction     ConstructionTag = "basic_construction"
)
