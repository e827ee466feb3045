// Package postgres backs the document store with a single JSONB table.
// Compound updates run inside a row-locking transaction so every op in a
// call commits together; subscriptions are poll-driven.
package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"socialite/internal/config"
	"socialite/internal/core"
	"socialite/internal/store"
)

const pollInterval = 500 * time.Millisecond

type documentRow struct {
	Collection string `gorm:"primaryKey"`
	DocID      string `gorm:"primaryKey;column:doc_id"`
	Fields     []byte `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

type Store struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

func New(cfg *config.Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) Init(_ context.Context) error {
	s.logger = slog.Default().With("component", "postgres.Store")

	db, err := gorm.Open(postgres.Open(s.cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	s.db = db

	return s.db.AutoMigrate(&documentRow{})
}

func (s *Store) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Shutdown(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	normalized, err := store.NormalizeFields(fields, time.Now())
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrStore, err)
	}

	id := uuid.NewString()
	err = s.db.WithContext(ctx).Create(&documentRow{
		Collection: collection,
		DocID:      id,
		Fields:     data,
	}).Error
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrStore, err)
	}

	return id, nil
}

func (s *Store) Read(ctx context.Context, collection, id string) (core.Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Document{}, fmt.Errorf("%w: %s/%s", core.ErrNotFound, collection, id)
		}
		return core.Document{}, fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return decodeRow(row)
}

func (s *Store) Update(ctx context.Context, collection, id string, ops ...core.Op) error {
	return s.mutate(ctx, collection, id, false, func(fields map[string]any) (map[string]any, error) {
		return store.ApplyOps(fields, ops, time.Now())
	})
}

func (s *Store) Apply(ctx context.Context, collection, id string, ops ...core.Op) error {
	return s.mutate(ctx, collection, id, true, func(fields map[string]any) (map[string]any, error) {
		return store.ApplyOps(fields, ops, time.Now())
	})
}

func (s *Store) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.mutate(ctx, collection, id, true, func(existing map[string]any) (map[string]any, error) {
		normalized, err := store.NormalizeFields(fields, time.Now())
		if err != nil {
			return nil, err
		}
		for k, v := range normalized {
			existing[k] = v
		}
		return existing, nil
	})
}

func (s *Store) List(ctx context.Context, collection string) ([]core.Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return decodeRows(rows)
}

func (s *Store) QueryRange(ctx context.Context, collection, field, lower, upper string) ([]core.Document, error) {
	expr := fieldExpr(field)

	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Where(expr+" >= ? AND "+expr+" < ?", lower, upper).
		Order(expr).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return decodeRows(rows)
}

func (s *Store) Subscribe(ctx context.Context, collection, orderBy string, descending bool) (core.Subscription, error) {
	done := make(chan struct{})
	sub := store.NewSnapshotSub(func() {
		close(done)
	})

	go s.poll(ctx, sub, done, collection, orderBy, descending)

	return sub, nil
}

func (s *Store) poll(ctx context.Context, sub *store.SnapshotSub, done chan struct{}, collection, orderBy string, descending bool) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var last []byte

	emit := func() {
		docs, err := s.List(ctx, collection)
		if err != nil {
			s.logger.Error("poll failed", "collection", collection, "error", err)
			return
		}
		store.SortDocuments(docs, orderBy, descending)

		fingerprint, err := json.Marshal(docs)
		if err != nil {
			s.logger.Error("poll failed", "collection", collection, "error", err)
			return
		}
		if bytes.Equal(fingerprint, last) {
			return
		}
		last = fingerprint
		sub.Publish(docs)
	}

	emit()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			emit()
		}
	}
}

func (s *Store) mutate(ctx context.Context, collection, id string, upsert bool, mutateFn func(map[string]any) (map[string]any, error)) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND doc_id = ?", collection, id).
			First(&row).Error

		missing := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !missing {
			return err
		}
		if missing {
			if !upsert {
				return fmt.Errorf("%w: %s/%s", core.ErrNotFound, collection, id)
			}
			row = documentRow{Collection: collection, DocID: id, Fields: []byte("{}")}
		}

		fields := map[string]any{}
		if err := json.Unmarshal(row.Fields, &fields); err != nil {
			return err
		}

		updated, err := mutateFn(fields)
		if err != nil {
			return err
		}

		row.Fields, err = json.Marshal(updated)
		if err != nil {
			return err
		}

		if missing {
			return tx.Create(&row).Error
		}
		return tx.Model(&documentRow{}).
			Where("collection = ? AND doc_id = ?", collection, id).
			Update("fields", row.Fields).Error
	})

	if err != nil && !errors.Is(err, core.ErrNotFound) && !errors.Is(err, core.ErrStore) {
		return fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return err
}

// fieldExpr builds the jsonb text-extraction expression for a field
// name. The name lands inside a SQL string literal, so single quotes are
// doubled to keep any caller-supplied name inert.
func fieldExpr(field string) string {
	return fmt.Sprintf("fields->>'%s'", strings.ReplaceAll(field, "'", "''"))
}

func decodeRows(rows []documentRow) ([]core.Document, error) {
	docs := make([]core.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func decodeRow(row documentRow) (core.Document, error) {
	var fields map[string]any
	if err := json.Unmarshal(row.Fields, &fields); err != nil {
		return core.Document{}, fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return core.Document{ID: row.DocID, Fields: fields}, nil
}
