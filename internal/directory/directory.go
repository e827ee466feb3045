// Package directory is prefix search over profile display names.
package directory

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"socialite/internal/core"
)

// upperBoundSuffix is the maximal code point: appending it to the prefix
// turns an ordered range scan into "is a prefix of" semantics.
const upperBoundSuffix = "￿"

type Directory struct {
	Logger *slog.Logger
	Store  core.DocumentStore
}

func (d *Directory) Init(_ context.Context) error {
	d.Logger = d.Logger.With("component", "directory.Directory")
	return nil
}

// SearchByDisplayNamePrefix returns users whose display name starts with
// prefix, case-sensitively. An empty prefix short-circuits to an empty
// result without touching the store: it would otherwise scan the whole
// collection.
func (d *Directory) SearchByDisplayNamePrefix(ctx context.Context, prefix string) ([]core.UserSummary, error) {
	if prefix == "" {
		return nil, nil
	}

	docs, err := d.Store.QueryRange(ctx, core.CollectionProfiles, "displayName", prefix, prefix+upperBoundSuffix)
	if err != nil {
		return nil, err
	}

	return lo.Map(docs, func(doc core.Document, _ int) core.UserSummary {
		name, _ := doc.Fields["displayName"].(string)
		return core.UserSummary{UserID: doc.ID, DisplayName: name}
	}), nil
}
