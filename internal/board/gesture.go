// Package board holds the relationship-graph board logic: the pointer-driven
// edge-creation gesture, radius snapping, view panning, node placement and
// the cascades that follow a removal. Everything here is a pure state
// reducer driven by discrete events, independent of any rendering layer.
package board

import (
	"github.com/andreaspandu8619/mastercreator/internal/models"
)

// SnapRadius is the maximum distance, in board pixels, at which a connection
// gesture locks onto a target node.
const SnapRadius = 36.0

// Point is a position in board or view coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EdgeDraft is a committed connection gesture: the pre-fill for the
// relationship editor.
type EdgeDraft struct {
	FromCharacterID string `json:"fromCharacterId"`
	ToCharacterID   string `json:"toCharacterId"`
}

// Gesture is the edge-creation state machine. It is either idle or
// connecting from one node; a single gesture is live at a time and every
// terminating event resets it unconditionally.
type Gesture struct {
	connecting bool
	fromID     string
	cursor     Point
	snapID     string
}

// Connecting reports whether a gesture is live.
func (g *Gesture) Connecting() bool { return g.connecting }

// FromID returns the source node of the live gesture, or "".
func (g *Gesture) FromID() string { return g.fromID }

// SnapTargetID returns the node currently snapped to, or "".
func (g *Gesture) SnapTargetID() string { return g.snapID }

// Cursor returns the current indicator position in board coordinates. When a
// snap target is set this is locked onto the target's anchor.
func (g *Gesture) Cursor() Point { return g.cursor }

// Press starts a gesture from a node's source anchor. Pressing while a
// gesture is already live is ignored: the interaction surface resolves the
// first gesture before another can begin.
func (g *Gesture) Press(fromID string) bool {
	if g.connecting || fromID == "" {
		return false
	}
	g.connecting = true
	g.fromID = fromID
	g.snapID = ""
	return true
}

// Move updates the live cursor from a view-space position. The pan offset is
// subtracted to obtain board coordinates, then the nearest snappable node is
// resolved; when one is in range the indicator locks onto its anchor.
func (g *Gesture) Move(view, pan Point, nodes []models.BoardNode) {
	if !g.connecting {
		return
	}
	cursor := Point{X: view.X - pan.X, Y: view.Y - pan.Y}
	if id, anchor, ok := SnapTarget(cursor, g.fromID, nodes); ok {
		g.snapID = id
		g.cursor = anchor
		return
	}
	g.snapID = ""
	g.cursor = cursor
}

// Release resolves the gesture. It commits an edge draft only when a snap
// target is set and differs from the source; in every case the gesture
// returns to idle.
func (g *Gesture) Release() (EdgeDraft, bool) {
	draft, ok := EdgeDraft{}, false
	if g.connecting && g.snapID != "" && g.snapID != g.fromID {
		draft = EdgeDraft{FromCharacterID: g.fromID, ToCharacterID: g.snapID}
		ok = true
	}
	g.reset()
	return draft, ok
}

// ReleaseOn resolves the gesture directly on a named target anchor, the
// immediate commit path for releasing on a node rather than via snap hover.
func (g *Gesture) ReleaseOn(targetID string) (EdgeDraft, bool) {
	if !g.connecting || targetID == "" || targetID == g.fromID {
		g.reset()
		return EdgeDraft{}, false
	}
	draft := EdgeDraft{FromCharacterID: g.fromID, ToCharacterID: targetID}
	g.reset()
	return draft, true
}

// Cancel aborts the gesture. Called for abnormal terminations as well
// (window blur, external drag-end); cleanup is unconditional.
func (g *Gesture) Cancel() {
	g.reset()
}

func (g *Gesture) reset() {
	g.connecting = false
	g.fromID = ""
	g.snapID = ""
	g.cursor = Point{}
}

// SnapTarget finds, among all placed nodes other than fromID, the node whose
// target-anchor center lies nearest the cursor within SnapRadius. The
// strictly closest node by squared distance wins; on an exact tie the first
// node in boardNodes order is kept, so the result is deterministic for a
// fixed input.
func SnapTarget(cursor Point, fromID string, nodes []models.BoardNode) (string, Point, bool) {
	const r2 = SnapRadius * SnapRadius
	var (
		bestID   string
		bestAt   Point
		bestDist float64
		found    bool
	)
	for _, n := range nodes {
		if n.CharacterID == fromID || n.CharacterID == "" {
			continue
		}
		anchor := TargetAnchor(n)
		dx := cursor.X - anchor.X
		dy := cursor.Y - anchor.Y
		d := dx*dx + dy*dy
		if d > r2 {
			continue
		}
		if !found || d < bestDist {
			bestID = n.CharacterID
			bestAt = anchor
			bestDist = d
			found = true
		}
	}
	return bestID, bestAt, found
}

// TargetAnchor is the commit point of a node: where an incoming edge lands.
func TargetAnchor(n models.BoardNode) Point {
	return Point{X: n.X, Y: n.Y}
}
