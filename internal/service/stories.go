package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/andreaspandu8619/mastercreator/internal/board"
	"github.com/andreaspandu8619/mastercreator/internal/models"
	"github.com/andreaspandu8619/mastercreator/internal/normalize"
	"github.com/andreaspandu8619/mastercreator/internal/store"
	apperrors "github.com/andreaspandu8619/mastercreator/pkg/errors"
	"github.com/andreaspandu8619/mastercreator/pkg/logger"
)

// Stories manages the story project collection: cast membership, the
// relationship graph and board node positions. Membership is loose on
// purpose: a character id in a relationship or node is tolerated even when it
// no longer resolves, and cleanup happens through DetachCharacter or the
// cross-story cascade.
type Stories struct {
	mu      sync.RWMutex
	stories []models.StoryProject
	note    string
	store   store.Store
	legacy  *store.LegacyStore
	log     *logger.Logger
}

// NewStories builds a story service over the given store. legacy may be nil.
func NewStories(st store.Store, legacy *store.LegacyStore, log *logger.Logger) *Stories {
	return &Stories{
		stories: []models.StoryProject{},
		store:   st,
		legacy:  legacy,
		log:     log.WithComponent("stories"),
	}
}

// Init migrates legacy data and loads the collection, mirroring
// Library.Init.
func (s *Stories) Init(ctx context.Context) error {
	if s.legacy != nil {
		n, err := store.Migrate(ctx, s.store, s.legacy, func(raw any) (store.Record, bool) {
			p, ok := normalize.Story(raw)
			if !ok {
				return store.Record{}, false
			}
			return storyRecord(*p)
		})
		if err != nil {
			s.log.LogError(err, "legacy story migration failed")
			s.setNote(err.Error())
		} else if n > 0 {
			s.log.Info("migrated legacy stories", "count", n)
		}
	}

	recs, err := s.store.GetAll(ctx)
	if err != nil {
		s.setNote(err.Error())
		return apperrors.NewReadError(err)
	}

	stories := make([]models.StoryProject, 0, len(recs))
	for _, rec := range recs {
		var raw any
		if err := json.Unmarshal(rec.Payload, &raw); err != nil {
			s.log.Warn("skipping unreadable story record", "id", rec.ID)
			continue
		}
		if p, ok := normalize.Story(raw); ok {
			stories = append(stories, *p)
		}
	}

	s.mu.Lock()
	s.stories = stories
	s.mu.Unlock()
	return nil
}

// List returns a copy of all story projects.
func (s *Stories) List() []models.StoryProject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StoryProject, len(s.stories))
	copy(out, s.stories)
	return out
}

// Get returns one story by id.
func (s *Stories) Get(id string) (models.StoryProject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.stories {
		if p.ID == id {
			return p, true
		}
	}
	return models.StoryProject{}, false
}

// Save normalizes raw form state into a story project and upserts it.
func (s *Stories) Save(ctx context.Context, raw any) (*models.StoryProject, error) {
	p, ok := normalize.Story(raw)
	if !ok {
		return nil, apperrors.NewValidationError("story title is required")
	}
	p.UpdatedAt = normalize.Now()

	s.mu.Lock()
	s.upsertLocked(*p)
	recs := s.recordsLocked()
	s.mu.Unlock()

	s.sweep(ctx, recs)
	return p, nil
}

// Delete removes a story project. Deleting a story never touches the
// character library.
func (s *Stories) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	removed := false
	kept := s.stories[:0]
	for _, p := range s.stories {
		if p.ID == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	s.stories = kept
	s.mu.Unlock()

	if !removed {
		return apperrors.NewEntityNotFoundError("story", id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.log.LogError(err, "story delete not persisted", "id", id)
		s.setNote(err.Error())
	}
	return nil
}

// AddToCast adds a character id to the story cast. Adding an id that is
// already present is a no-op that still succeeds.
func (s *Stories) AddToCast(ctx context.Context, storyID, characterID string) (*models.StoryProject, error) {
	return s.update(ctx, storyID, func(p *models.StoryProject) error {
		if p.InCast(characterID) {
			return nil
		}
		p.CharacterIDs = append(p.CharacterIDs, characterID)
		return nil
	})
}

// RemoveFromCast removes a character id from the cast only. Relationships and
// board nodes referencing the id are left as-is; use DetachCharacter to clear
// them too.
func (s *Stories) RemoveFromCast(ctx context.Context, storyID, characterID string) (*models.StoryProject, error) {
	return s.update(ctx, storyID, func(p *models.StoryProject) error {
		kept := p.CharacterIDs[:0]
		for _, id := range p.CharacterIDs {
			if id != characterID {
				kept = append(kept, id)
			}
		}
		p.CharacterIDs = kept
		return nil
	})
}

// PlaceNode records a board position for a character, replacing any previous
// position for the same character.
func (s *Stories) PlaceNode(ctx context.Context, storyID, characterID string, x, y float64) (*models.StoryProject, error) {
	return s.update(ctx, storyID, func(p *models.StoryProject) error {
		board.PlaceNode(p, characterID, board.Point{X: x, Y: y})
		return nil
	})
}

// DetachCharacter removes a character's board node and every relationship
// touching it from one story. The cast entry stays.
func (s *Stories) DetachCharacter(ctx context.Context, storyID, characterID string) (*models.StoryProject, error) {
	return s.update(ctx, storyID, func(p *models.StoryProject) error {
		board.DetachCharacter(p, characterID)
		return nil
	})
}

// AddRelationship creates an edge between two cast members from raw form
// state. Self-edges are rejected.
func (s *Stories) AddRelationship(ctx context.Context, storyID string, raw any) (*models.StoryProject, error) {
	r, ok := normalize.Relationship(raw)
	if !ok {
		return nil, apperrors.NewValidationError("relationship needs both endpoints")
	}
	if r.FromCharacterID == r.ToCharacterID {
		return nil, apperrors.NewValidationError("relationship endpoints must differ")
	}
	return s.update(ctx, storyID, func(p *models.StoryProject) error {
		p.Relationships = append(p.Relationships, *r)
		return nil
	})
}

// UpdateRelationship replaces the labels of an existing edge. Endpoints, id
// and creation time are preserved.
func (s *Stories) UpdateRelationship(ctx context.Context, storyID, relID string, raw any) (*models.StoryProject, error) {
	incoming, ok := normalize.Relationship(raw)
	if !ok {
		return nil, apperrors.NewValidationError("relationship needs both endpoints")
	}
	found := false
	p, err := s.update(ctx, storyID, func(p *models.StoryProject) error {
		for i := range p.Relationships {
			if p.Relationships[i].ID != relID {
				continue
			}
			r := &p.Relationships[i]
			r.Alignment = incoming.Alignment
			r.RelationType = incoming.RelationType
			r.Details = incoming.Details
			found = true
			break
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewEntityNotFoundError("relationship", relID)
	}
	return p, nil
}

// DeleteRelationship removes one edge by id.
func (s *Stories) DeleteRelationship(ctx context.Context, storyID, relID string) (*models.StoryProject, error) {
	found := false
	p, err := s.update(ctx, storyID, func(p *models.StoryProject) error {
		kept := p.Relationships[:0]
		for _, r := range p.Relationships {
			if r.ID == relID {
				found = true
				continue
			}
			kept = append(kept, r)
		}
		p.Relationships = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.NewEntityNotFoundError("relationship", relID)
	}
	return p, nil
}

// CascadeCharacterDelete clears a deleted character out of every story: its
// board node, every relationship touching it, and its cast entry. Only
// stories actually holding a reference get their timestamp bumped.
func (s *Stories) CascadeCharacterDelete(ctx context.Context, characterID string) int {
	s.mu.Lock()
	touched := 0
	for i := range s.stories {
		p := &s.stories[i]
		nodeRemoved, edgesRemoved := board.DetachCharacter(p, characterID)
		inCast := p.InCast(characterID)
		if inCast {
			kept := p.CharacterIDs[:0]
			for _, id := range p.CharacterIDs {
				if id != characterID {
					kept = append(kept, id)
				}
			}
			p.CharacterIDs = kept
		}
		if nodeRemoved || edgesRemoved > 0 || inCast {
			p.UpdatedAt = normalize.Now()
			touched++
		}
	}
	recs := s.recordsLocked()
	s.mu.Unlock()

	if touched > 0 {
		s.sweep(ctx, recs)
	}
	return touched
}

// StorageNote reports the latest storage failure, or "" when healthy.
func (s *Stories) StorageNote() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.note
}

func (s *Stories) update(ctx context.Context, id string, fn func(*models.StoryProject) error) (*models.StoryProject, error) {
	s.mu.Lock()
	var updated *models.StoryProject
	for i := range s.stories {
		if s.stories[i].ID != id {
			continue
		}
		if err := fn(&s.stories[i]); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.stories[i].UpdatedAt = normalize.Now()
		cp := s.stories[i]
		updated = &cp
		break
	}
	if updated == nil {
		s.mu.Unlock()
		return nil, apperrors.NewEntityNotFoundError("story", id)
	}
	recs := s.recordsLocked()
	s.mu.Unlock()

	s.sweep(ctx, recs)
	return updated, nil
}

func (s *Stories) upsertLocked(p models.StoryProject) {
	for i := range s.stories {
		if s.stories[i].ID == p.ID {
			s.stories[i] = p
			return
		}
	}
	s.stories = append(s.stories, p)
}

func (s *Stories) recordsLocked() []store.Record {
	recs := make([]store.Record, 0, len(s.stories))
	for _, p := range s.stories {
		if rec, ok := storyRecord(p); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

func (s *Stories) sweep(ctx context.Context, recs []store.Record) {
	if err := s.store.PutMany(ctx, recs); err != nil {
		s.log.LogError(err, "story sweep not persisted", "count", len(recs))
		s.setNote(err.Error())
		return
	}
	s.setNote("")
}

func (s *Stories) setNote(note string) {
	s.mu.Lock()
	s.note = note
	s.mu.Unlock()
}

func storyRecord(p models.StoryProject) (store.Record, bool) {
	payload, err := json.Marshal(p)
	if err != nil {
		return store.Record{}, false
	}
	return store.Record{ID: p.ID, Payload: payload}, true
}
