package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreaspandu8619/mastercreator/internal/models"
)

func story() *models.StoryProject {
	return &models.StoryProject{
		ID:           "s1",
		Title:        "T",
		CharacterIDs: []string{"x", "y", "z"},
		Relationships: []models.StoryRelationship{
			{ID: "r1", FromCharacterID: "x", ToCharacterID: "y"},
			{ID: "r2", FromCharacterID: "z", ToCharacterID: "x"},
			{ID: "r3", FromCharacterID: "y", ToCharacterID: "z"},
		},
		BoardNodes: []models.BoardNode{
			{CharacterID: "x", X: 10, Y: 10},
			{CharacterID: "y", X: 200, Y: 10},
		},
	}
}

func TestPlaceNodeUpserts(t *testing.T) {
	s := story()

	PlaceNode(s, "x", Point{X: 50, Y: 60})
	require.Len(t, s.BoardNodes, 2)
	assert.Equal(t, models.BoardNode{CharacterID: "x", X: 50, Y: 60}, s.BoardNodes[0])

	PlaceNode(s, "z", Point{X: 5, Y: 5})
	require.Len(t, s.BoardNodes, 3)
	assert.Equal(t, "z", s.BoardNodes[2].CharacterID)
}

func TestDetachCharacterCascades(t *testing.T) {
	s := story()

	nodeRemoved, edgesRemoved := DetachCharacter(s, "x")
	assert.True(t, nodeRemoved)
	assert.Equal(t, 2, edgesRemoved)

	// x's node and both relationships touching x are gone.
	_, placed := s.Node("x")
	assert.False(t, placed)
	require.Len(t, s.Relationships, 1)
	assert.Equal(t, "r3", s.Relationships[0].ID)

	// y's own node and its relationship to z are untouched.
	_, placed = s.Node("y")
	assert.True(t, placed)

	// Cast membership is not cascaded; the dangling id is tolerated.
	assert.True(t, s.InCast("x"))
}

func TestDetachCharacterWithoutPlacement(t *testing.T) {
	s := story()

	nodeRemoved, edgesRemoved := DetachCharacter(s, "z")
	assert.False(t, nodeRemoved)
	assert.Equal(t, 2, edgesRemoved)
}

func TestPannerAccumulatesWithoutTouchingNodes(t *testing.T) {
	s := story()
	var p Panner

	p.Start(Point{X: 100, Y: 100})
	p.Move(Point{X: 110, Y: 90})
	p.Move(Point{X: 130, Y: 90})
	p.End()
	assert.Equal(t, Point{X: 30, Y: -10}, p.Offset())

	// A second drag adds to the existing offset.
	p.Start(Point{X: 0, Y: 0})
	p.Move(Point{X: -5, Y: 5})
	p.End()
	assert.Equal(t, Point{X: 25, Y: -5}, p.Offset())

	// Node coordinates are never mutated by panning.
	assert.Equal(t, float64(10), s.BoardNodes[0].X)

	// Moves after End are ignored.
	p.Move(Point{X: 900, Y: 900})
	assert.Equal(t, Point{X: 25, Y: -5}, p.Offset())
}

func TestEdgePath(t *testing.T) {
	from := models.BoardNode{CharacterID: "a", X: 0, Y: 0}
	to := models.BoardNode{CharacterID: "b", X: 400, Y: 100}

	path := EdgePath(from, to, Point{})
	assert.True(t, strings.HasPrefix(path, "M 176.0 36.0 C "), path)
	assert.Contains(t, path, "400.0 136.0")

	// The pan offset translates both endpoints uniformly.
	panned := EdgePath(from, to, Point{X: 10, Y: 20})
	assert.True(t, strings.HasPrefix(panned, "M 186.0 56.0 C "), panned)

	// Pure function: same inputs, same path.
	assert.Equal(t, path, EdgePath(from, to, Point{}))
}
