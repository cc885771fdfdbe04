// Package tools implements the tool-driven interaction state machine that
// turns pointer input into construction-space mutations.
package tools

import (
	"errors"
	"fmt"
	"math"
	"time"

	"euclidcore/internal/classify"
	"euclidcore/internal/engine"
	"euclidcore/internal/gateway"
	"euclidcore/internal/observability"
	"euclidcore/pkg/domain"
)

// Tool is the closed set of interaction tools. Exactly one is active at a
// time, selected externally.
type Tool int

// Available tools.
const (
	ToolPoint Tool = iota
	ToolLine
	ToolCircle
	ToolIntersect
	ToolMeasure
)

var toolNames = map[Tool]string{
	ToolPoint:     "point",
	ToolLine:      "line",
	ToolCircle:    "circle",
	ToolIntersect: "intersect",
	ToolMeasure:   "measure",
}

func (t Tool) String() string {
	if name, ok := toolNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// ParseTool resolves a wire tool name.
func ParseTool(name string) (Tool, error) {
	for t, n := range toolNames {
		if n == name {
			return t, nil
		}
	}
	return ToolPoint, fmt.Errorf("unknown tool %q", name)
}

const (
	// DefaultGridSize is the snap grid spacing in canvas units.
	DefaultGridSize = 20.0
	// DefaultSnapTolerance is the maximum distance at which a click lands on
	// an existing point.
	DefaultSnapTolerance = 10.0
)

// Config holds controller wiring. Gateway and Archive are optional; a nil
// classifier falls back to the count heuristic.
type Config struct {
	SessionID     string
	GridSize      float64
	SnapTolerance float64

	Logger  observability.Logger
	Metrics observability.MetricsRecorder
	Sink    domain.EventSink

	Gateway    *gateway.Gateway
	Archive    domain.SpaceArchive
	Classifier func(domain.ConstructionSpace) domain.ConstructionTag
}

// Controller owns the per-session interaction state: the active tool and, for
// two-step tools, the anchor point id. All local errors terminate the current
// interaction step only and are surfaced as guidance; none escape.
type Controller struct {
	cfg   Config
	space *engine.Space

	tool     Tool
	anchorID string
}

// NewController wires a controller around the session's space.
func NewController(space *engine.Space, cfg Config) *Controller {
	if cfg.GridSize <= 0 {
		cfg.GridSize = DefaultGridSize
	}
	if cfg.SnapTolerance <= 0 {
		cfg.SnapTolerance = DefaultSnapTolerance
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NopMetrics{}
	}
	if cfg.Sink == nil {
		cfg.Sink = domain.NopSink{}
	}
	if cfg.Classifier == nil {
		cfg.Classifier = classify.Classify
	}
	return &Controller{cfg: cfg, space: space, tool: ToolPoint}
}

// Space exposes the underlying model.
func (c *Controller) Space() *engine.Space { return c.space }

// ActiveTool returns the currently selected tool.
func (c *Controller) ActiveTool() Tool { return c.tool }

// Anchored reports whether a two-step interaction is in progress.
func (c *Controller) Anchored() bool { return c.anchorID != "" }

// SelectTool switches the active tool. Any in-progress multi-step interaction
// is cancelled, never committed, and the transient preview is discarded.
func (c *Controller) SelectTool(tool Tool) {
	c.tool = tool
	c.resetInteraction()
}

func (c *Controller) resetInteraction() {
	if c.anchorID != "" {
		c.anchorID = ""
	}
	c.cfg.Sink.Publish(domain.PreviewUpdated{Preview: nil})
}

func (c *Controller) guide(text string) {
	c.cfg.Sink.Publish(domain.GuidanceMessage{Text: text})
}

// PointerDown handles a click. Depending on the active tool this commits an
// element, anchors a two-step interaction, or reports a read-only result.
func (c *Controller) PointerDown(pos domain.Position) {
	snapped := domain.SnapToGrid(pos, c.cfg.GridSize)

	switch c.tool {
	case ToolPoint:
		p := c.space.AddPoint(snapped, "")
		c.afterCommit(domain.KindPoint, p.ID, false)
	case ToolLine:
		c.twoStep(snapped, domain.KindLine)
	case ToolCircle:
		c.twoStep(snapped, domain.KindCircle)
	case ToolIntersect:
		c.reportIntersections(snapped)
	case ToolMeasure:
		c.reportMeasure(snapped)
	}
}

// twoStep drives the Idle/Anchored protocol shared by the line and circle
// tools.
func (c *Controller) twoStep(snapped domain.Position, kind domain.ElementKind) {
	target, ok := c.space.NearestPoint(snapped, c.cfg.SnapTolerance)
	if c.anchorID == "" {
		if !ok {
			c.guide(fmt.Sprintf("Click on a point to start a %s.", kind))
			return
		}
		c.anchorID = target.ID
		return
	}

	if !ok || target.ID == c.anchorID {
		c.guide("Pick a different point to finish.")
		return
	}
	c.commitTwoStep(kind, target.ID)
}

func (c *Controller) commitTwoStep(kind domain.ElementKind, targetID string) {
	anchor := c.anchorID
	var (
		id  string
		err error
	)
	switch kind {
	case domain.KindLine:
		var l domain.Line
		l, err = c.space.AddLine(anchor, targetID, "")
		id = l.ID
	case domain.KindCircle:
		var circ domain.Circle
		circ, err = c.space.AddCircle(anchor, targetID, "")
		id = circ.ID
	}
	if err != nil {
		c.handleCommitError(anchor, err)
		return
	}

	c.anchorID = ""
	c.cfg.Sink.Publish(domain.PreviewUpdated{Preview: nil})
	c.afterCommit(kind, id, true)
}

// handleCommitError maps model errors to interaction outcomes. A vanished
// anchor resets to idle; everything else keeps the anchored state and asks
// for another point. Nothing propagates past the interaction boundary.
func (c *Controller) handleCommitError(anchorID string, err error) {
	var unknown domain.UnknownReferenceError
	if errors.As(err, &unknown) && unknown.PointID == anchorID {
		stale := domain.StaleAnchorError{AnchorID: anchorID}
		c.cfg.Logger.Warn("anchor vanished before commit", "err", stale.Error())
		c.resetInteraction()
		c.guide("That starting point is gone. Click a point to start again.")
		return
	}
	c.cfg.Logger.Debug("commit rejected", "err", err.Error())
	c.guide("Pick a different point to finish.")
}

// PointerMove updates the transient preview while a two-step interaction is
// anchored. The preview is never committed to the model.
func (c *Controller) PointerMove(pos domain.Position) {
	if c.anchorID == "" || (c.tool != ToolLine && c.tool != ToolCircle) {
		return
	}
	anchor, ok := c.space.FindPoint(c.anchorID)
	if !ok {
		stale := domain.StaleAnchorError{AnchorID: c.anchorID}
		c.cfg.Logger.Warn("anchor vanished during preview", "err", stale.Error())
		c.resetInteraction()
		c.guide("That starting point is gone. Click a point to start again.")
		return
	}

	preview := &domain.Preview{Anchor: anchor.Position, Cursor: pos}
	if c.tool == ToolCircle {
		preview.Kind = domain.KindCircle
		preview.Radius = domain.Distance(anchor.Position, pos)
	} else {
		preview.Kind = domain.KindLine
	}
	c.cfg.Sink.Publish(domain.PreviewUpdated{Preview: preview})
}

// Clear resets the model to empty, discards history and any in-progress
// interaction, and mirrors the clear.
func (c *Controller) Clear() {
	c.space.Clear()
	c.resetInteraction()
	c.cfg.Sink.Publish(domain.ElementsCleared{})

	snapshot := c.space.Snapshot()
	if c.cfg.Gateway != nil {
		c.cfg.Gateway.Mirror(domain.NewClearEnvelope(snapshot))
	}
	c.archiveSnapshot(snapshot)
}

// afterCommit publishes the element-added event, mirrors the mutation, saves
// the snapshot, and for element-completing actions runs the classifier and
// requests an unlock check.
func (c *Controller) afterCommit(kind domain.ElementKind, id string, completing bool) {
	start := time.Now()
	snapshot := c.space.Snapshot()

	payload, err := domain.PayloadFor(snapshot, kind, id)
	if err != nil {
		c.cfg.Logger.Error("build element payload", "err", err)
		return
	}
	c.cfg.Sink.Publish(domain.ElementAdded{Kind: kind, ID: id, Payload: payload})
	c.cfg.Metrics.ObserveCommit(string(kind), time.Since(start))

	if c.cfg.Gateway != nil {
		env, err := domain.NewMirrorEnvelope(snapshot, kind, id, payload)
		if err != nil {
			c.cfg.Logger.Error("build mirror envelope", "err", err)
		} else {
			c.cfg.Gateway.Mirror(env)
		}
		if completing {
			c.cfg.Gateway.CheckUnlocks(snapshot, c.cfg.Classifier(snapshot))
		}
	}
	c.archiveSnapshot(snapshot)
}

// archiveSnapshot saves best-effort; failures are logged, never surfaced.
func (c *Controller) archiveSnapshot(snapshot domain.ConstructionSpace) {
	if c.cfg.Archive == nil {
		return
	}
	ctx, cancel := archiveContext()
	defer cancel()
	if err := c.cfg.Archive.SaveSnapshot(ctx, c.cfg.SessionID, snapshot); err != nil {
		c.cfg.Logger.Warn("archive snapshot", "session", c.cfg.SessionID, "err", err.Error())
	}
}

// reportMeasure emits a read-only distance report between the snapped click
// and the nearest reference point. No mutation.
func (c *Controller) reportMeasure(snapped domain.Position) {
	nearest, ok := c.space.NearestPoint(snapped, math.Inf(1))
	if !ok {
		c.guide("Nothing to measure yet. Add a point first.")
		return
	}
	d := domain.Distance(snapped, nearest.Position)
	c.guide(fmt.Sprintf("Distance to nearest point: %.2f units.", d))
}
