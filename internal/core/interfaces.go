package core

import (
	"context"
)

// DocumentStore is the persistence collaborator: per-document atomic field
// operations plus collection-level change notification. There are no
// cross-document transactions.
type DocumentStore interface {
	// Create writes a new document with a store-generated id.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Read returns a document or ErrNotFound.
	Read(ctx context.Context, collection, id string) (Document, error)

	// Update applies ops atomically to an existing document, ErrNotFound
	// if the document is absent.
	Update(ctx context.Context, collection, id string, ops ...Op) error

	// Apply is Update with upsert semantics: a missing document is created
	// empty first. Used for lazily-created profile documents.
	Apply(ctx context.Context, collection, id string, ops ...Op) error

	// Merge sets the given fields on a document, creating it if absent.
	// Fields not named are left untouched.
	Merge(ctx context.Context, collection, id string, fields map[string]any) error

	// List returns every document in a collection, unordered.
	List(ctx context.Context, collection string) ([]Document, error)

	// QueryRange returns documents whose string field value v satisfies
	// lower <= v < upper, ordered by that field.
	QueryRange(ctx context.Context, collection, field, lower, upper string) ([]Document, error)

	// Subscribe delivers full ordered result-set snapshots of a collection,
	// starting with the current state, then once per committed change.
	Subscribe(ctx context.Context, collection, orderBy string, descending bool) (Subscription, error)
}

// Subscription is a live snapshot stream. Unsubscribe is idempotent, safe
// to call at any time including during an in-flight delivery, and
// guarantees no deliveries after it returns.
type Subscription interface {
	C() <-chan []Document
	Unsubscribe()
}

// AuthProvider exposes the current session identity. The zero identity
// means no authenticated user.
type AuthProvider interface {
	Current() Identity
	// OnChange registers a callback invoked on auth state changes and
	// returns an unsubscribe func.
	OnChange(fn func(Identity)) func()
}
