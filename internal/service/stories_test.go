package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreaspandu8619/mastercreator/internal/models"
	"github.com/andreaspandu8619/mastercreator/internal/store"
	apperrors "github.com/andreaspandu8619/mastercreator/pkg/errors"
)

func newTestStories(t *testing.T, st store.Store) *Stories {
	t.Helper()
	s := NewStories(st, nil, testLogger())
	require.NoError(t, s.Init(context.Background()))
	return s
}

func seedStory(t *testing.T, s *Stories, title string, cast ...string) *models.StoryProject {
	t.Helper()
	raw := map[string]any{"title": title}
	if len(cast) > 0 {
		ids := make([]any, len(cast))
		for i, id := range cast {
			ids[i] = id
		}
		raw["characterIds"] = ids
	}
	p, err := s.Save(context.Background(), raw)
	require.NoError(t, err)
	return p
}

func TestStoriesSaveAndReload(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestStories(t, st)
	p := seedStory(t, s, "The Long Winter", "a", "b")

	reloaded := newTestStories(t, st)
	got, ok := reloaded.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, "The Long Winter", got.Title)
	assert.Equal(t, []string{"a", "b"}, got.CharacterIDs)
}

func TestStoriesSaveRequiresTitle(t *testing.T) {
	s := newTestStories(t, store.NewMemoryStore())
	_, err := s.Save(context.Background(), map[string]any{"scenario": "no title"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.GetErrorCode(err))
}

func TestStoriesCastMembership(t *testing.T) {
	ctx := context.Background()
	s := newTestStories(t, store.NewMemoryStore())
	p := seedStory(t, s, "Cast", "a")

	p2, err := s.AddToCast(ctx, p.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p2.CharacterIDs)

	// Re-adding is a successful no-op.
	p2, err = s.AddToCast(ctx, p.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p2.CharacterIDs)

	p2, err = s.RemoveFromCast(ctx, p.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, p2.CharacterIDs)
}

func TestStoriesRemoveFromCastLeavesGraph(t *testing.T) {
	ctx := context.Background()
	s := newTestStories(t, store.NewMemoryStore())
	p := seedStory(t, s, "Loose Ends", "a", "b")

	_, err := s.PlaceNode(ctx, p.ID, "a", 10, 20)
	require.NoError(t, err)
	_, err = s.AddRelationship(ctx, p.ID, map[string]any{
		"fromCharacterId": "a",
		"toCharacterId":   "b",
	})
	require.NoError(t, err)

	// Cast removal is not a detach: node and edge stay, dangling.
	got, err := s.RemoveFromCast(ctx, p.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.CharacterIDs)
	assert.Len(t, got.BoardNodes, 1)
	assert.Len(t, got.Relationships, 1)
}

func TestStoriesPlaceNodeUpserts(t *testing.T) {
	ctx := context.Background()
	s := newTestStories(t, store.NewMemoryStore())
	p := seedStory(t, s, "Board", "a")

	got, err := s.PlaceNode(ctx, p.ID, "a", 1, 2)
	require.NoError(t, err)
	require.Len(t, got.BoardNodes, 1)

	got, err = s.PlaceNode(ctx, p.ID, "a", 30, 40)
	require.NoError(t, err)
	require.Len(t, got.BoardNodes, 1)
	node, ok := got.Node("a")
	require.True(t, ok)
	assert.Equal(t, 30.0, node.X)
	assert.Equal(t, 40.0, node.Y)
}

func TestStoriesRelationships(t *testing.T) {
	ctx := context.Background()
	s := newTestStories(t, store.NewMemoryStore())
	p := seedStory(t, s, "Edges", "a", "b")

	got, err := s.AddRelationship(ctx, p.ID, map[string]any{
		"fromCharacterId": "a",
		"toCharacterId":   "b",
		"alignment":       "Rival",
		"relationType":    "Adversarial",
		"details":         "old grudge",
	})
	require.NoError(t, err)
	require.Len(t, got.Relationships, 1)
	rel := got.Relationships[0]
	assert.Equal(t, models.AlignmentRival, rel.Alignment)
	assert.NotEmpty(t, rel.ID)

	// Opposite direction is a distinct edge.
	got, err = s.AddRelationship(ctx, p.ID, map[string]any{
		"fromCharacterId": "b",
		"toCharacterId":   "a",
	})
	require.NoError(t, err)
	assert.Len(t, got.Relationships, 2)

	got, err = s.UpdateRelationship(ctx, p.ID, rel.ID, map[string]any{
		"fromCharacterId": "x",
		"toCharacterId":   "y",
		"alignment":       "Allied",
		"details":         "water under the bridge",
	})
	require.NoError(t, err)
	updated := got.Relationships[0]
	// Labels change, endpoints and identity do not.
	assert.Equal(t, models.AlignmentAllied, updated.Alignment)
	assert.Equal(t, "water under the bridge", updated.Details)
	assert.Equal(t, "a", updated.FromCharacterID)
	assert.Equal(t, "b", updated.ToCharacterID)
	assert.Equal(t, rel.ID, updated.ID)

	got, err = s.DeleteRelationship(ctx, p.ID, rel.ID)
	require.NoError(t, err)
	assert.Len(t, got.Relationships, 1)

	_, err = s.DeleteRelationship(ctx, p.ID, rel.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetErrorCode(err))
}

func TestStoriesRejectSelfEdge(t *testing.T) {
	s := newTestStories(t, store.NewMemoryStore())
	p := seedStory(t, s, "Selfie", "a")

	_, err := s.AddRelationship(context.Background(), p.ID, map[string]any{
		"fromCharacterId": "a",
		"toCharacterId":   "a",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.GetErrorCode(err))
}

func TestStoriesDetachCharacter(t *testing.T) {
	ctx := context.Background()
	s := newTestStories(t, store.NewMemoryStore())
	p := seedStory(t, s, "Detach", "a", "b", "c")

	_, err := s.PlaceNode(ctx, p.ID, "a", 0, 0)
	require.NoError(t, err)
	_, err = s.AddRelationship(ctx, p.ID, map[string]any{"fromCharacterId": "a", "toCharacterId": "b"})
	require.NoError(t, err)
	_, err = s.AddRelationship(ctx, p.ID, map[string]any{"fromCharacterId": "c", "toCharacterId": "a"})
	require.NoError(t, err)
	_, err = s.AddRelationship(ctx, p.ID, map[string]any{"fromCharacterId": "b", "toCharacterId": "c"})
	require.NoError(t, err)

	got, err := s.DetachCharacter(ctx, p.ID, "a")
	require.NoError(t, err)
	assert.Empty(t, got.BoardNodes)
	require.Len(t, got.Relationships, 1)
	assert.Equal(t, "b", got.Relationships[0].FromCharacterID)
	// Detaching leaves the cast alone.
	assert.Equal(t, []string{"a", "b", "c"}, got.CharacterIDs)
}

func TestStoriesCascadeCharacterDelete(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := newTestStories(t, st)

	hit := seedStory(t, s, "Has X", "x", "y")
	_, err := s.PlaceNode(ctx, hit.ID, "x", 5, 5)
	require.NoError(t, err)
	_, err = s.AddRelationship(ctx, hit.ID, map[string]any{"fromCharacterId": "x", "toCharacterId": "y"})
	require.NoError(t, err)

	clean := seedStory(t, s, "No X", "y", "z")
	cleanBefore, _ := s.Get(clean.ID)

	touched := s.CascadeCharacterDelete(ctx, "x")
	assert.Equal(t, 1, touched)

	got, ok := s.Get(hit.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"y"}, got.CharacterIDs)
	assert.Empty(t, got.BoardNodes)
	assert.Empty(t, got.Relationships)

	// The untouched story keeps its timestamp.
	cleanAfter, ok := s.Get(clean.ID)
	require.True(t, ok)
	assert.Equal(t, cleanBefore.UpdatedAt, cleanAfter.UpdatedAt)

	reloaded := newTestStories(t, st)
	persisted, ok := reloaded.Get(hit.ID)
	require.True(t, ok)
	assert.Empty(t, persisted.Relationships)
}

func TestStoriesDeleteStory(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	s := newTestStories(t, st)
	p := seedStory(t, s, "Doomed")

	require.NoError(t, s.Delete(ctx, p.ID))
	_, ok := s.Get(p.ID)
	assert.False(t, ok)

	err := s.Delete(ctx, p.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetErrorCode(err))

	reloaded := newTestStories(t, st)
	assert.Empty(t, reloaded.List())
}

func TestStoriesUnknownStory(t *testing.T) {
	s := newTestStories(t, store.NewMemoryStore())
	_, err := s.AddToCast(context.Background(), "ghost", "a")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetErrorCode(err))
}
