// Package memory is an in-process document store backend with the same
// atomicity and notification semantics as the remote backends. It backs
// the test suite and the demo mode of the CLI.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"socialite/internal/core"
	"socialite/internal/store"
)

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	subs        map[string][]*subscription
	lastStamp   time.Time
}

func New() *Store {
	return &Store{
		collections: map[string]map[string]map[string]any{},
		subs:        map[string][]*subscription{},
	}
}

func (s *Store) Create(_ context.Context, collection string, fields map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized, err := store.NormalizeFields(fields, s.nextStamp())
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	s.collection(collection)[id] = normalized
	s.notify(collection)

	return id, nil
}

func (s *Store) Read(_ context.Context, collection, id string) (core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.collection(collection)[id]
	if !ok {
		return core.Document{}, fmt.Errorf("%w: %s/%s", core.ErrNotFound, collection, id)
	}
	return snapshotDocument(id, fields), nil
}

func (s *Store) Update(_ context.Context, collection, id string, ops ...core.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.collection(collection)[id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", core.ErrNotFound, collection, id)
	}
	return s.apply(collection, id, fields, ops)
}

func (s *Store) Apply(_ context.Context, collection, id string, ops ...core.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.collection(collection)[id]
	if !ok {
		fields = map[string]any{}
	}
	return s.apply(collection, id, fields, ops)
}

func (s *Store) Merge(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized, err := store.NormalizeFields(fields, s.nextStamp())
	if err != nil {
		return err
	}

	docs := s.collection(collection)
	existing, ok := docs[id]
	if !ok {
		existing = map[string]any{}
		docs[id] = existing
	}
	for k, v := range normalized {
		existing[k] = v
	}
	s.notify(collection)

	return nil
}

func (s *Store) List(_ context.Context, collection string) ([]core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.MapToSlice(s.collection(collection), snapshotDocument), nil
}

func (s *Store) QueryRange(_ context.Context, collection, field, lower, upper string) ([]core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []core.Document
	for id, fields := range s.collection(collection) {
		value, ok := fields[field].(string)
		if !ok {
			continue
		}
		if value >= lower && value < upper {
			docs = append(docs, snapshotDocument(id, fields))
		}
	}
	store.SortDocuments(docs, field, false)

	return docs, nil
}

func (s *Store) Subscribe(_ context.Context, collection, orderBy string, descending bool) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &subscription{
		orderBy:    orderBy,
		descending: descending,
	}
	sub.SnapshotSub = store.NewSnapshotSub(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs[collection] = lo.Without(s.subs[collection], sub)
	})
	s.subs[collection] = append(s.subs[collection], sub)

	sub.Publish(s.snapshot(collection, orderBy, descending))

	return sub, nil
}

// apply commits ops to one document. ApplyOps works on a copy, so a
// failing op list leaves the document untouched.
func (s *Store) apply(collection, id string, fields map[string]any, ops []core.Op) error {
	updated, err := store.ApplyOps(fields, ops, s.nextStamp())
	if err != nil {
		return err
	}
	s.collection(collection)[id] = updated
	s.notify(collection)

	return nil
}

func (s *Store) collection(name string) map[string]map[string]any {
	docs, ok := s.collections[name]
	if !ok {
		docs = map[string]map[string]any{}
		s.collections[name] = docs
	}
	return docs
}

// nextStamp returns a strictly increasing commit timestamp, so documents
// created back to back never tie on createdAt.
func (s *Store) nextStamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = now
	return now
}

func (s *Store) notify(collection string) {
	for _, sub := range s.subs[collection] {
		sub.Publish(s.snapshot(collection, sub.orderBy, sub.descending))
	}
}

func (s *Store) snapshot(collection, orderBy string, descending bool) []core.Document {
	docs := lo.MapToSlice(s.collection(collection), snapshotDocument)
	store.SortDocuments(docs, orderBy, descending)
	return docs
}

func snapshotDocument(id string, fields map[string]any) core.Document {
	doc := core.Document{ID: id, Fields: map[string]any{}}
	if err := store.Decode(core.Document{Fields: fields}, &doc.Fields); err != nil {
		// Fields are always JSON-normalized, a round trip cannot fail.
		panic(err)
	}
	return doc
}

type subscription struct {
	*store.SnapshotSub
	orderBy    string
	descending bool
}
