// Package natskv backs the document store with a NATS JetStream KeyValue
// bucket. Documents are JSON values under "<collection>.<id>" keys;
// compound updates are committed with a revision CAS loop so all ops in a
// call land in one Put, and subscriptions are built from KV watchers.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	libnats "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/samber/lo"

	"socialite/internal/config"
	"socialite/internal/core"
	"socialite/internal/store"
)

const (
	bucket = "socialite"

	// casAttempts bounds the compare-and-set retry loop under contention.
	casAttempts = 64
)

type Store struct {
	cfg    *config.Config
	logger *slog.Logger

	conn *libnats.Conn
	js   jetstream.JetStream
	kv   jetstream.KeyValue
}

func New(cfg *config.Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) Init(ctx context.Context) error {
	s.logger = slog.Default().With("component", "natskv.Store")

	conn, err := libnats.Connect(s.cfg.NATSURL)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	s.conn = conn

	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	s.js = js

	if s.cfg.NATSInit {
		s.logger.Info("creating KV bucket", "bucket", bucket)
		s.kv, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucket})
	} else {
		s.kv, err = js.KeyValue(ctx, bucket)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrStore, err)
	}

	return nil
}

func (s *Store) HealthCheck(context.Context) error {
	_, err := s.conn.RTT()
	return err
}

func (s *Store) Shutdown(context.Context) error {
	return s.conn.Drain()
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
	if _, err := s.kv.Create(ctx, key(collection, id), data); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return id, nil
}

func (s *Store) Read(ctx context.Context, collection, id string) (core.Document, error) {
	entry, err := s.kv.Get(ctx, key(collection, id))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return core.Document{}, fmt.Errorf("%w: %s/%s", core.ErrNotFound, collection, id)
		}
		return core.Document{}, fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return decodeEntry(id, entry.Value())
}

func (s *Store) Update(ctx context.Context, collection, id string, ops ...core.Op) error {
	return s.compareAndSet(ctx, collection, id, false, func(fields map[string]any) (map[string]any, error) {
		return store.ApplyOps(fields, ops, time.Now())
	})
}

func (s *Store) Apply(ctx context.Context, collection, id string, ops ...core.Op) error {
	return s.compareAndSet(ctx, collection, id, true, func(fields map[string]any) (map[string]any, error) {
		return store.ApplyOps(fields, ops, time.Now())
	})
}

func (s *Store) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.compareAndSet(ctx, collection, id, true, func(existing map[string]any) (map[string]any, error) {
		normalized, err := store.NormalizeFields(fields, time.Now())
		if err != nil {
			return nil, err
		}
		merged := make(map[string]any, len(existing)+len(normalized))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range normalized {
			merged[k] = v
		}
		return merged, nil
	})
}

func (s *Store) List(ctx context.Context, collection string) ([]core.Document, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", core.ErrStore, err)
	}

	prefix := collection + "."
	var docs []core.Document

	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		entry, err := s.kv.Get(ctx, k)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("%w: %w", core.ErrStore, err)
		}
		doc, err := decodeEntry(strings.TrimPrefix(k, prefix), entry.Value())
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// QueryRange scans the collection client side: a KV bucket has no field
// index to push the range predicate into.
func (s *Store) QueryRange(ctx context.Context, collection, field, lower, upper string) ([]core.Document, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	docs = lo.Filter(docs, func(doc core.Document, _ int) bool {
		value, ok := doc.Fields[field].(string)
		return ok && value >= lower && value < upper
	})
	store.SortDocuments(docs, field, false)

	return docs, nil
}

func (s *Store) Subscribe(ctx context.Context, collection, orderBy string, descending bool) (core.Subscription, error) {
	watcher, err := s.kv.Watch(ctx, collection+".*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStore, err)
	}

	done := make(chan struct{})
	sub := store.NewSnapshotSub(func() {
		close(done)
		watcher.Stop() //nolint:errcheck
	})

	go s.watch(ctx, watcher, sub, done, collection, orderBy, descending)

	return sub, nil
}

func (s *Store) watch(
	ctx context.Context,
	watcher jetstream.KeyWatcher,
	sub *store.SnapshotSub,
	done chan struct{},
	collection, orderBy string,
	descending bool,
) {
	prefix := collection + "."
	docs := map[string]map[string]any{}
	replayed := false

	emit := func() {
		snapshot := lo.MapToSlice(docs, func(id string, fields map[string]any) core.Document {
			return core.Document{ID: id, Fields: fields}
		})
		store.SortDocuments(snapshot, orderBy, descending)
		sub.Publish(snapshot)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				return
			}
			if entry == nil {
				// End of initial replay, first full snapshot is ready.
				replayed = true
				emit()
				continue
			}

			id := strings.TrimPrefix(entry.Key(), prefix)
			switch entry.Operation() {
			case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
				delete(docs, id)
			default:
				var fields map[string]any
				if err := json.Unmarshal(entry.Value(), &fields); err != nil {
					s.logger.Error("skipping undecodable document", "key", entry.Key(), "error", err)
					continue
				}
				docs[id] = fields
			}

			if replayed {
				emit()
			}
		}
	}
}

func (s *Store) compareAndSet(ctx context.Context, collection, id string, upsert bool, mutate func(map[string]any) (map[string]any, error)) error {
	k := key(collection, id)

	for range casAttempts {
		entry, err := s.kv.Get(ctx, k)
		if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("%w: %w", core.ErrStore, err)
		}

		missing := errors.Is(err, jetstream.ErrKeyNotFound)
		if missing && !upsert {
			return fmt.Errorf("%w: %s/%s", core.ErrNotFound, collection, id)
		}

		fields := map[string]any{}
		if !missing {
			if err := json.Unmarshal(entry.Value(), &fields); err != nil {
				return fmt.Errorf("%w: %w", core.ErrStore, err)
			}
		}

		updated, err := mutate(fields)
		if err != nil {
			return err
		}

		data, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrStore, err)
		}

		if missing {
			_, err = s.kv.Create(ctx, k, data)
			if errors.Is(err, jetstream.ErrKeyExists) {
				// Raced with another creator, reload and retry.
				continue
			}
		} else {
			_, err = s.kv.Update(ctx, k, data, entry.Revision())
			if isRevisionMismatch(err) {
				continue
			}
		}
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrStore, err)
		}
		return nil
	}

	return fmt.Errorf("%w: update of %s/%s did not converge after %d attempts", core.ErrStore, collection, id, casAttempts)
}

func isRevisionMismatch(err error) bool {
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

func decodeEntry(id string, value []byte) (core.Document, error) {
	var fields map[string]any
	if err := json.Unmarshal(value, &fields); err != nil {
		return core.Document{}, fmt.Errorf("%w: %w", core.ErrStore, err)
	}
	return core.Document{ID: id, Fields: fields}, nil
}

func key(collection, id string) string {
	return collection + "." + id
}
