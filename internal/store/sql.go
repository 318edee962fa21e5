package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// row is the physical shape of one entity record. Entities are stored as
// opaque JSON payloads so schema evolution stays in the normalizer, not in
// table migrations.
type row struct {
	ID      string    `gorm:"primaryKey;size:64"`
	Payload []byte    `gorm:"not null"`
	SavedAt time.Time `gorm:"index"`
}

// SQLStore is the primary backend: one table per collection, batch writes in
// a single transaction.
type SQLStore struct {
	db    *gorm.DB
	table string
}

// NewSQLStore binds a collection table, creating it if needed.
func NewSQLStore(db *gorm.DB, table string) (*SQLStore, error) {
	if err := db.Table(table).AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("migrate table %s: %w", table, err)
	}
	return &SQLStore{db: db, table: table}, nil
}

func (s *SQLStore) GetAll(ctx context.Context) ([]Record, error) {
	var rows []row
	err := s.db.WithContext(ctx).Table(s.table).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.table, err)
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{ID: r.ID, Payload: r.Payload})
	}
	return out, nil
}

// PutMany upserts the batch in one transaction. A failure on any record rolls
// the whole batch back.
func (s *SQLStore) PutMany(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range recs {
			r := row{ID: rec.ID, Payload: rec.Payload, SavedAt: now}
			err := tx.Table(s.table).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"payload", "saved_at"}),
			}).Create(&r).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Table(s.table).Where("id = ?", id).Delete(&row{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", s.table, id, err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Exec("DELETE FROM " + s.table).Error
	if err != nil {
		return fmt.Errorf("clear %s: %w", s.table, err)
	}
	return nil
}
