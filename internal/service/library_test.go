package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreaspandu8619/mastercreator/internal/store"
	apperrors "github.com/andreaspandu8619/mastercreator/pkg/errors"
	"github.com/andreaspandu8619/mastercreator/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func newTestLibrary(t *testing.T, st store.Store) *Library {
	t.Helper()
	l := NewLibrary(st, nil, testLogger())
	require.NoError(t, l.Init(context.Background()))
	return l
}

// brokenStore fails every write so recoverable-error paths can be exercised.
type brokenStore struct {
	store.Store
}

func (b brokenStore) PutMany(ctx context.Context, recs []store.Record) error {
	return errors.New("disk full")
}

func (b brokenStore) Delete(ctx context.Context, id string) error {
	return errors.New("disk full")
}

func TestLibrarySaveAndList(t *testing.T) {
	ctx := context.Background()
	l := newTestLibrary(t, store.NewMemoryStore())

	first, err := l.Save(ctx, map[string]any{"name": "  Aria "})
	require.NoError(t, err)
	assert.Equal(t, "Aria", first.Name)
	assert.NotEmpty(t, first.ID)

	second, err := l.Save(ctx, map[string]any{"name": "Borin"})
	require.NoError(t, err)

	// Newest-first: Borin saved last, so it leads.
	got := l.List()
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestLibrarySaveRejectsNameless(t *testing.T) {
	l := newTestLibrary(t, store.NewMemoryStore())

	for _, raw := range []any{
		map[string]any{"name": "   "},
		map[string]any{"age": 30},
		"not an object",
		nil,
	} {
		_, err := l.Save(context.Background(), raw)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeValidation, apperrors.GetErrorCode(err))
	}
	assert.Empty(t, l.List())
}

func TestLibrarySaveOverwritesByID(t *testing.T) {
	ctx := context.Background()
	l := newTestLibrary(t, store.NewMemoryStore())

	c, err := l.Save(ctx, map[string]any{"name": "Aria"})
	require.NoError(t, err)

	updated, err := l.Save(ctx, map[string]any{"id": c.ID, "name": "Aria Stormborn"})
	require.NoError(t, err)
	assert.Equal(t, c.ID, updated.ID)

	got := l.List()
	require.Len(t, got, 1)
	assert.Equal(t, "Aria Stormborn", got[0].Name)
}

func TestLibraryDeletePairsStoreRemoval(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	l := newTestLibrary(t, st)

	keep, err := l.Save(ctx, map[string]any{"name": "Keeper"})
	require.NoError(t, err)
	gone, err := l.Save(ctx, map[string]any{"name": "Goner"})
	require.NoError(t, err)

	require.NoError(t, l.Delete(ctx, gone.ID))

	// Another mutation triggers a full sweep; a missing store delete would
	// bring the record back on reload.
	_, err = l.Save(ctx, map[string]any{"id": keep.ID, "name": "Keeper"})
	require.NoError(t, err)

	reloaded := newTestLibrary(t, st)
	got := reloaded.List()
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)
}

func TestLibraryDeleteUnknown(t *testing.T) {
	l := newTestLibrary(t, store.NewMemoryStore())
	err := l.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetErrorCode(err))
}

func TestLibraryImportRejectsNonArray(t *testing.T) {
	l := newTestLibrary(t, store.NewMemoryStore())

	for _, payload := range []string{
		`{"name":"Aria"}`,
		`"hello"`,
		`42`,
		`not json`,
	} {
		_, err := l.ImportJSON(context.Background(), []byte(payload))
		require.Error(t, err, payload)
		assert.Equal(t, apperrors.CodeImportFormat, apperrors.GetErrorCode(err))
	}
	assert.Empty(t, l.List())
}

func TestLibraryImportMergesAndPersists(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	l := newTestLibrary(t, st)

	existing, err := l.Save(ctx, map[string]any{"name": "Old Name"})
	require.NoError(t, err)

	payload := []byte(`[
		{"id":"` + existing.ID + `","name":"New Name","updatedAt":"2020-01-01T00:00:00Z"},
		{"id":"fresh","name":"Fresh","updatedAt":"2026-01-01T00:00:00Z"},
		{"age":12}
	]`)
	n, err := l.ImportJSON(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := l.List()
	require.Len(t, got, 2)
	// The incoming record replaces the existing one even with an older
	// timestamp, and the merged list is sorted newest-first.
	assert.Equal(t, "fresh", got[0].ID)
	assert.Equal(t, existing.ID, got[1].ID)
	assert.Equal(t, "New Name", got[1].Name)

	reloaded := newTestLibrary(t, st)
	assert.Len(t, reloaded.List(), 2)
}

func TestLibraryInitMigratesLegacy(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "characters.legacy.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Aria"},{"name":"   "}]`), 0o644))

	st := store.NewMemoryStore()
	l := NewLibrary(st, store.NewLegacyStore(path), testLogger())
	require.NoError(t, l.Init(ctx))

	got := l.List()
	require.Len(t, got, 1)
	assert.Equal(t, "Aria", got[0].Name)

	// Blob is erased, so a second startup does not re-import.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLibraryIntroWorkflow(t *testing.T) {
	ctx := context.Background()
	l := newTestLibrary(t, store.NewMemoryStore())

	c, err := l.Save(ctx, map[string]any{"name": "Aria"})
	require.NoError(t, err)
	require.Equal(t, []string{""}, c.IntroMessages)
	require.Equal(t, 0, c.SelectedIntroIndex)

	c, err = l.AddIntro(ctx, c.ID, "Well met, traveler.")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "Well met, traveler."}, c.IntroMessages)
	assert.Equal(t, 1, c.SelectedIntroIndex)
	assert.Equal(t, "Well met, traveler.", c.SelectedIntro())

	// Advancing past the end wraps to the first intro.
	c, err = l.AdvanceIntro(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, c.SelectedIntroIndex)

	// Stepping back from the first wraps to the last.
	c, err = l.AdvanceIntro(ctx, c.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.SelectedIntroIndex)

	c, err = l.SelectIntro(ctx, c.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, c.SelectedIntroIndex)
}

func TestLibraryStorageFailureIsRecoverable(t *testing.T) {
	ctx := context.Background()
	l := NewLibrary(brokenStore{store.NewMemoryStore()}, nil, testLogger())
	require.NoError(t, l.Init(ctx))

	// The save still succeeds; the failure only raises the banner note.
	c, err := l.Save(ctx, map[string]any{"name": "Aria"})
	require.NoError(t, err)
	assert.NotEmpty(t, l.StorageNote())

	require.NoError(t, l.Delete(ctx, c.ID))
	assert.Empty(t, l.List())
}
