package directory_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"socialite/internal/core"
	"socialite/internal/directory"
	"socialite/internal/store/memory"
)

// countingStore tracks range scans so tests can assert short-circuits.
type countingStore struct {
	core.DocumentStore

	rangeQueries int
}

func (s *countingStore) QueryRange(ctx context.Context, collection, field, lower, upper string) ([]core.Document, error) {
	s.rangeQueries++
	return s.DocumentStore.QueryRange(ctx, collection, field, lower, upper)
}

func newDirectory(t *testing.T, names ...string) (*directory.Directory, *countingStore) {
	t.Helper()

	ctx := context.Background()
	backend := &countingStore{DocumentStore: memory.New()}

	for _, name := range names {
		require.NoError(t, backend.Merge(ctx, core.CollectionProfiles, "user-"+name, map[string]any{
			"displayName": name,
		}))
	}

	d := &directory.Directory{Logger: slog.Default(), Store: backend}
	require.NoError(t, d.Init(ctx))

	return d, backend
}

func TestSearchByDisplayNamePrefix(t *testing.T) {
	t.Parallel()

	d, _ := newDirectory(t, "Ana", "Andres", "Beatriz", "ana")

	users, err := d.SearchByDisplayNamePrefix(context.Background(), "An")
	require.NoError(t, err)

	names := lo.Map(users, func(u core.UserSummary, _ int) string {
		return u.DisplayName
	})
	// Case-sensitive, ordered by display name; "ana" sorts past the
	// upper bound and Beatriz never matches.
	require.Equal(t, []string{"Ana", "Andres"}, names)
	require.Equal(t, "user-Ana", users[0].UserID)
}

func TestSearchExactNameIsItsOwnPrefix(t *testing.T) {
	t.Parallel()

	d, _ := newDirectory(t, "Ana")

	users, err := d.SearchByDisplayNamePrefix(context.Background(), "Ana")
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestSearchNoMatches(t *testing.T) {
	t.Parallel()

	d, _ := newDirectory(t, "Ana")

	users, err := d.SearchByDisplayNamePrefix(context.Background(), "Zz")
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestSearchEmptyPrefixSkipsTheStore(t *testing.T) {
	t.Parallel()

	d, backend := newDirectory(t, "Ana", "Beatriz")

	users, err := d.SearchByDisplayNamePrefix(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, users)
	require.Zero(t, backend.rangeQueries)
}
