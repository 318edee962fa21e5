package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreaspandu8619/mastercreator/internal/models"
)

func nodes(ns ...models.BoardNode) []models.BoardNode { return ns }

func node(id string, x, y float64) models.BoardNode {
	return models.BoardNode{CharacterID: id, X: x, Y: y}
}

func TestSnapTargetResolution(t *testing.T) {
	ns := nodes(node("a", 0, 0), node("b", 30, 0))

	t.Run("within radius snaps to nearest", func(t *testing.T) {
		id, anchor, ok := SnapTarget(Point{X: 30, Y: 0}, "a", ns)
		require.True(t, ok)
		assert.Equal(t, "b", id)
		assert.Equal(t, Point{X: 30, Y: 0}, anchor)
	})

	t.Run("outside radius resolves nothing", func(t *testing.T) {
		_, _, ok := SnapTarget(Point{X: 100, Y: 0}, "a", ns)
		assert.False(t, ok)
	})

	t.Run("source node is excluded", func(t *testing.T) {
		id, _, ok := SnapTarget(Point{X: 0, Y: 0}, "a", ns)
		require.True(t, ok)
		assert.Equal(t, "b", id)
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		id, _, ok := SnapTarget(Point{X: 30 + SnapRadius, Y: 0}, "a", ns)
		require.True(t, ok)
		assert.Equal(t, "b", id)
	})
}

func TestSnapTargetStrictlyClosestWins(t *testing.T) {
	ns := nodes(node("far", 20, 0), node("near", 10, 0))
	id, _, ok := SnapTarget(Point{X: 8, Y: 0}, "src", ns)
	require.True(t, ok)
	assert.Equal(t, "near", id)
}

func TestSnapTargetTieIsDeterministic(t *testing.T) {
	// Equidistant candidates: the first in boardNodes order wins, every time.
	ns := nodes(node("left", -10, 0), node("right", 10, 0))
	for i := 0; i < 10; i++ {
		id, _, ok := SnapTarget(Point{X: 0, Y: 0}, "src", ns)
		require.True(t, ok)
		assert.Equal(t, "left", id)
	}
}

func TestGestureCommit(t *testing.T) {
	ns := nodes(node("a", 0, 0), node("b", 30, 0))
	var g Gesture

	require.True(t, g.Press("a"))
	assert.True(t, g.Connecting())

	g.Move(Point{X: 28, Y: 2}, Point{}, ns)
	assert.Equal(t, "b", g.SnapTargetID())
	// Indicator locks exactly onto the snapped anchor.
	assert.Equal(t, Point{X: 30, Y: 0}, g.Cursor())

	draft, ok := g.Release()
	require.True(t, ok)
	assert.Equal(t, EdgeDraft{FromCharacterID: "a", ToCharacterID: "b"}, draft)
	assert.False(t, g.Connecting())
}

func TestGestureReleaseWithoutTargetCancels(t *testing.T) {
	ns := nodes(node("a", 0, 0), node("b", 300, 300))
	var g Gesture

	require.True(t, g.Press("a"))
	g.Move(Point{X: 150, Y: 10}, Point{}, ns)
	assert.Empty(t, g.SnapTargetID())
	// Indicator follows the raw cursor when nothing is in range.
	assert.Equal(t, Point{X: 150, Y: 10}, g.Cursor())

	_, ok := g.Release()
	assert.False(t, ok)
	assert.False(t, g.Connecting())
	assert.Empty(t, g.FromID())
}

func TestGesturePanOffsetAppliedToCursor(t *testing.T) {
	// Board panned by (100, 50): the view cursor must be translated back
	// into board coordinates before snapping.
	ns := nodes(node("a", 0, 0), node("b", 30, 0))
	var g Gesture

	require.True(t, g.Press("a"))
	g.Move(Point{X: 130, Y: 50}, Point{X: 100, Y: 50}, ns)
	assert.Equal(t, "b", g.SnapTargetID())
}

func TestGestureReleaseOnTargetAnchor(t *testing.T) {
	var g Gesture
	require.True(t, g.Press("a"))

	draft, ok := g.ReleaseOn("b")
	require.True(t, ok)
	assert.Equal(t, EdgeDraft{FromCharacterID: "a", ToCharacterID: "b"}, draft)

	// Releasing on the source itself never commits.
	require.True(t, g.Press("a"))
	_, ok = g.ReleaseOn("a")
	assert.False(t, ok)
	assert.False(t, g.Connecting())
}

func TestGestureCancelClearsAllState(t *testing.T) {
	ns := nodes(node("a", 0, 0), node("b", 30, 0))
	var g Gesture

	require.True(t, g.Press("a"))
	g.Move(Point{X: 30, Y: 0}, Point{}, ns)
	require.Equal(t, "b", g.SnapTargetID())

	g.Cancel()
	assert.False(t, g.Connecting())
	assert.Empty(t, g.FromID())
	assert.Empty(t, g.SnapTargetID())
	assert.Equal(t, Point{}, g.Cursor())
}

func TestGestureSingleActive(t *testing.T) {
	var g Gesture
	require.True(t, g.Press("a"))
	// A second press while connecting is ignored; the live gesture keeps
	// its source.
	assert.False(t, g.Press("b"))
	assert.Equal(t, "a", g.FromID())
}

func TestGestureMoveWhileIdleIsNoop(t *testing.T) {
	var g Gesture
	g.Move(Point{X: 5, Y: 5}, Point{}, nodes(node("a", 0, 0)))
	assert.False(t, g.Connecting())
	assert.Equal(t, Point{}, g.Cursor())
}
