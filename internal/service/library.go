// Package service owns the in-memory entity collections and orchestrates
// normalization, persistence and import reconciliation. Collections are the
// source of truth while the process runs; every observable mutation is
// followed by a full upsert sweep to the durable store, and removals are
// paired with an explicit store delete. Store failures are recoverable: they
// are logged and surfaced through StorageNote, never returned to block a
// mutation.
package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/andreaspandu8619/mastercreator/internal/models"
	"github.com/andreaspandu8619/mastercreator/internal/normalize"
	"github.com/andreaspandu8619/mastercreator/internal/reconcile"
	"github.com/andreaspandu8619/mastercreator/internal/store"
	apperrors "github.com/andreaspandu8619/mastercreator/pkg/errors"
	"github.com/andreaspandu8619/mastercreator/pkg/logger"
)

// Library manages the character collection.
type Library struct {
	mu     sync.RWMutex
	chars  []models.Character
	note   string
	store  store.Store
	legacy *store.LegacyStore
	log    *logger.Logger
}

// NewLibrary builds a character library over the given store. The legacy
// store may be nil when no pre-migration data can exist.
func NewLibrary(st store.Store, legacy *store.LegacyStore, log *logger.Logger) *Library {
	return &Library{
		chars:  []models.Character{},
		store:  st,
		legacy: legacy,
		log:    log.WithComponent("library"),
	}
}

// Init runs the one-time legacy migration and loads the collection. Until it
// returns, the collection is empty and must be treated as still loading, not
// as no data. A failed migration leaves the legacy blob in place and is
// reported, not fatal.
func (l *Library) Init(ctx context.Context) error {
	if l.legacy != nil {
		n, err := store.Migrate(ctx, l.store, l.legacy, func(raw any) (store.Record, bool) {
			c, ok := normalize.Character(raw)
			if !ok {
				return store.Record{}, false
			}
			return characterRecord(*c)
		})
		if err != nil {
			l.log.LogError(err, "legacy character migration failed")
			l.setNote(err.Error())
		} else if n > 0 {
			l.log.Info("migrated legacy characters", "count", n)
		}
	}

	recs, err := l.store.GetAll(ctx)
	if err != nil {
		l.setNote(err.Error())
		return apperrors.NewReadError(err)
	}

	chars := make([]models.Character, 0, len(recs))
	for _, rec := range recs {
		var raw any
		if err := json.Unmarshal(rec.Payload, &raw); err != nil {
			l.log.Warn("skipping unreadable character record", "id", rec.ID)
			continue
		}
		// Stored payloads are re-normalized defensively; older schema
		// versions surface here too.
		if c, ok := normalize.Character(raw); ok {
			chars = append(chars, *c)
		}
	}
	reconcile.SortByUpdatedAt(chars)

	l.mu.Lock()
	l.chars = chars
	l.mu.Unlock()
	return nil
}

// List returns a copy of the collection, newest-first.
func (l *Library) List() []models.Character {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Character, len(l.chars))
	copy(out, l.chars)
	return out
}

// Get returns one character by id.
func (l *Library) Get(id string) (models.Character, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, c := range l.chars {
		if c.ID == id {
			return c, true
		}
	}
	return models.Character{}, false
}

// Save normalizes raw form state into a character and upserts it. The only
// rejected input is one without a usable name.
func (l *Library) Save(ctx context.Context, raw any) (*models.Character, error) {
	c, ok := normalize.Character(raw)
	if !ok {
		return nil, apperrors.NewValidationError("character name is required")
	}
	c.UpdatedAt = normalize.Now()

	l.mu.Lock()
	l.upsertLocked(*c)
	reconcile.SortByUpdatedAt(l.chars)
	recs := l.recordsLocked()
	l.mu.Unlock()

	l.sweep(ctx, recs)
	return c, nil
}

// Delete removes a character from the collection and from the store. The
// store delete must pair with the in-memory removal: a record missing its
// delete resurrects on the next upsert sweep.
func (l *Library) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	removed := false
	kept := l.chars[:0]
	for _, c := range l.chars {
		if c.ID == id {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	l.chars = kept
	l.mu.Unlock()

	if !removed {
		return apperrors.NewEntityNotFoundError("character", id)
	}
	if err := l.store.Delete(ctx, id); err != nil {
		l.log.LogError(err, "character delete not persisted", "id", id)
		l.setNote(err.Error())
	}
	return nil
}

// ImportJSON merges an imported batch into the collection. The payload must
// be a JSON array; any other top-level shape fails without touching state.
// Incoming records replace existing ones by id unconditionally, and the
// merged batch is persisted.
func (l *Library) ImportJSON(ctx context.Context, data []byte) (int, error) {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, apperrors.NewImportFormatError("import file must be a JSON array of characters")
	}

	incoming := make([]models.Character, 0, len(items))
	for _, it := range items {
		if c, ok := normalize.Character(it); ok {
			incoming = append(incoming, *c)
		}
	}

	l.mu.Lock()
	l.chars = reconcile.Characters(l.chars, incoming)
	recs := l.recordsLocked()
	l.mu.Unlock()

	l.sweep(ctx, recs)
	return len(incoming), nil
}

// AddIntro appends an intro message and selects it.
func (l *Library) AddIntro(ctx context.Context, id, text string) (*models.Character, error) {
	return l.update(ctx, id, func(c *models.Character) error {
		c.IntroMessages = append(c.IntroMessages, text)
		c.SelectedIntroIndex = len(c.IntroMessages) - 1
		return nil
	})
}

// SelectIntro selects an intro message by index, wrapping out-of-range
// values around the list.
func (l *Library) SelectIntro(ctx context.Context, id string, index int) (*models.Character, error) {
	return l.update(ctx, id, func(c *models.Character) error {
		c.SelectedIntroIndex = normalize.ClampIndex(index, len(c.IntroMessages))
		return nil
	})
}

// AdvanceIntro moves the intro selection by delta with wraparound, so
// advancing past the last intro returns to the first.
func (l *Library) AdvanceIntro(ctx context.Context, id string, delta int) (*models.Character, error) {
	return l.update(ctx, id, func(c *models.Character) error {
		c.SelectedIntroIndex = normalize.ClampIndex(c.SelectedIntroIndex+delta, len(c.IntroMessages))
		return nil
	})
}

// StorageNote reports the latest storage failure, or "" when persistence is
// healthy. It backs the persistent non-blocking banner.
func (l *Library) StorageNote() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.note
}

// update applies fn to one character, bumps its timestamp and sweeps.
func (l *Library) update(ctx context.Context, id string, fn func(*models.Character) error) (*models.Character, error) {
	l.mu.Lock()
	var updated *models.Character
	for i := range l.chars {
		if l.chars[i].ID != id {
			continue
		}
		if err := fn(&l.chars[i]); err != nil {
			l.mu.Unlock()
			return nil, err
		}
		l.chars[i].UpdatedAt = normalize.Now()
		cp := l.chars[i]
		updated = &cp
		break
	}
	if updated == nil {
		l.mu.Unlock()
		return nil, apperrors.NewEntityNotFoundError("character", id)
	}
	reconcile.SortByUpdatedAt(l.chars)
	recs := l.recordsLocked()
	l.mu.Unlock()

	l.sweep(ctx, recs)
	return updated, nil
}

func (l *Library) upsertLocked(c models.Character) {
	for i := range l.chars {
		if l.chars[i].ID == c.ID {
			l.chars[i] = c
			return
		}
	}
	l.chars = append(l.chars, c)
}

func (l *Library) recordsLocked() []store.Record {
	recs := make([]store.Record, 0, len(l.chars))
	for _, c := range l.chars {
		if rec, ok := characterRecord(c); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

// sweep writes the whole collection as one upsert batch. Failures set the
// banner note and nothing more; the in-memory state keeps working.
func (l *Library) sweep(ctx context.Context, recs []store.Record) {
	if err := l.store.PutMany(ctx, recs); err != nil {
		l.log.LogError(err, "character sweep not persisted", "count", len(recs))
		l.setNote(err.Error())
		return
	}
	l.setNote("")
}

func (l *Library) setNote(note string) {
	l.mu.Lock()
	l.note = note
	l.mu.Unlock()
}

func characterRecord(c models.Character) (store.Record, bool) {
	payload, err := json.Marshal(c)
	if err != nil {
		return store.Record{}, false
	}
	return store.Record{ID: c.ID, Payload: payload}, true
}
