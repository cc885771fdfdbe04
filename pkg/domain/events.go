package domain

// Event is the closed set of notifications the engine emits to collaborators
// (renderer, presentation layer, connectivity display). Implementations are
// value types; sinks must not retain references into the live model.
type Event interface {
	// EventName returns the stable wire name of the event.
	EventName() string
}

// ElementAdded is emitted after every successful commit.
type ElementAdded struct {
	Kind    ElementKind    `json:"kind"`
	ID      string         `json:"id"`
	Payload ElementPayload `json:"payload"`
}

// EventName implements Event.
func (ElementAdded) EventName() string { return "element_added" }

// ElementsCleared is emitted after a full-space clear. Fixed background
// decoration is the renderer's concern and survives.
type ElementsCleared struct{}

// EventName implements Event.
func (ElementsCleared) EventName() string { return "elements_cleared" }

// Preview describes a transient, uncommitted segment or circle from the
// anchor to the live cursor.
type Preview struct {
	Kind   ElementKind `json:"kind"`
	Anchor Position    `json:"anchor"`
	Cursor Position    `json:"cursor"`
	// Radius is set for circle previews.
	Radius float64 `json:"radius,omitempty"`
}

// PreviewUpdated carries the current preview, or nil when the preview is
// discarded.
type PreviewUpdated struct {
	Preview *Preview `json:"preview"`
}

// EventName implements Event.
func (PreviewUpdated) EventName() string { return "preview_updated" }

// GuidanceMessage surfaces interaction guidance ("click on a point", "pick a
// different point") to the presentation layer.
type GuidanceMessage struct {
	Text string `json:"text"`
}

// EventName implements Event.
func (GuidanceMessage) EventName() string { return "guidance_message" }

// ConnectivityChanged reports sync-gateway availability transitions.
type ConnectivityChanged struct {
	Online bool `json:"online"`
}

// EventName implements Event.
func (ConnectivityChanged) EventName() string { return "connectivity_changed" }

// UnlocksGranted carries newly unlocked collection elements returned by the
// remote unlock check.
type UnlocksGranted struct {
	Elements []UnlockedElement `json:"elements"`
}

// EventName implements Event.
func (UnlocksGranted) EventName() string { return "unlocks_granted" }

// EventSink receives engine events. Publish must not block the interaction
// path and must never mutate the model.
type EventSink interface {
	Publish(event Event)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event)

// Publish implements EventSink.
func (f SinkFunc) Publish(event Event) { f(event) }

// NopSink discards all events.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(Event) {}
