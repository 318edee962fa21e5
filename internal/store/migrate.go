package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// NormalizeFunc turns one decoded legacy element into a storable record.
// Elements it rejects are dropped from the migration.
type NormalizeFunc func(raw any) (Record, bool)

// Migrate runs the one-time legacy migration for a collection.
//
// If the primary backend already holds at least one record the migration is a
// no-op: either it already ran, or the store was born post-migration.Otherwise
// the legacy blob is parsed as a JSON array, every element is normalized, the
// survivors are written to the primary backend as one batch, and the blob is
// erased. The whole sequence is idempotent: a failed batch write leaves the
// blob in place for the next startup, and re-running against an erased blob
// does nothing.
func Migrate(ctx context.Context, primary Store, legacy *LegacyStore, fn NormalizeFunc) (int, error) {
	existing, err := primary.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	blob, err := legacy.Load()
	if err != nil {
		return 0, err
	}
	if len(blob) == 0 {
		return 0, nil
	}

	var items []any
	if err := json.Unmarshal(blob, &items); err != nil {
		// Unparseable legacy data is left on disk for manual recovery.
		return 0, fmt.Errorf("parse legacy blob: %w", err)
	}

	recs := make([]Record, 0, len(items))
	for _, it := range items {
		if r, ok := fn(it); ok {
			recs = append(recs, r)
		}
	}
	if len(recs) > 0 {
		if err := primary.PutMany(ctx, recs); err != nil {
			return 0, err
		}
	}
	if err := legacy.Erase(); err != nil {
		return len(recs), err
	}
	return len(recs), nil
}
