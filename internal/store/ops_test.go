package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"socialite/internal/core"
	"socialite/internal/store"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestApplyOpsSetAddIsIdempotent(t *testing.T) {
	t.Parallel()

	fields := map[string]any{}

	fields, err := store.ApplyOps(fields, []core.Op{core.SetAdd("likedBy", "u1")}, now)
	require.NoError(t, err)
	fields, err = store.ApplyOps(fields, []core.Op{core.SetAdd("likedBy", "u1")}, now)
	require.NoError(t, err)

	require.Equal(t, []any{"u1"}, fields["likedBy"])
}

func TestApplyOpsSetRemove(t *testing.T) {
	t.Parallel()

	fields := map[string]any{"likedBy": []any{"u1", "u2"}}

	fields, err := store.ApplyOps(fields, []core.Op{core.SetRemove("likedBy", "u1")}, now)
	require.NoError(t, err)
	require.Equal(t, []any{"u2"}, fields["likedBy"])

	// Removing an absent member changes nothing.
	fields, err = store.ApplyOps(fields, []core.Op{core.SetRemove("likedBy", "u1")}, now)
	require.NoError(t, err)
	require.Equal(t, []any{"u2"}, fields["likedBy"])
}

func TestApplyOpsIncrementMissingFieldStartsAtZero(t *testing.T) {
	t.Parallel()

	fields, err := store.ApplyOps(map[string]any{}, []core.Op{core.Increment("likesCount", 1)}, now)
	require.NoError(t, err)
	require.Equal(t, float64(1), fields["likesCount"])

	fields, err = store.ApplyOps(fields, []core.Op{core.Increment("likesCount", -1)}, now)
	require.NoError(t, err)
	require.Equal(t, float64(0), fields["likesCount"])
}

func TestApplyOpsAppendKeepsDuplicates(t *testing.T) {
	t.Parallel()

	comment := map[string]any{"text": "hi"}

	fields, err := store.ApplyOps(map[string]any{}, []core.Op{
		core.Append("comments", comment),
		core.Append("comments", comment),
	}, now)
	require.NoError(t, err)
	require.Len(t, fields["comments"], 2)
}

func TestApplyOpsDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	fields := map[string]any{"likedBy": []any{"u1"}, "likesCount": float64(1)}

	_, err := store.ApplyOps(fields, []core.Op{
		core.SetAdd("likedBy", "u2"),
		core.Increment("likesCount", 1),
	}, now)
	require.NoError(t, err)

	require.Equal(t, []any{"u1"}, fields["likedBy"])
	require.Equal(t, float64(1), fields["likesCount"])
}

func TestApplyOpsUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := store.ApplyOps(map[string]any{}, []core.Op{{Kind: "bogus", Field: "x"}}, now)
	require.ErrorIs(t, err, core.ErrStore)
}

func TestNormalizeFieldsResolvesServerTimestamp(t *testing.T) {
	t.Parallel()

	fields, err := store.NormalizeFields(map[string]any{
		"createdAt": store.ServerTimestamp,
		"nested":    []any{map[string]any{"createdAt": store.ServerTimestamp}},
	}, now)
	require.NoError(t, err)

	require.Equal(t, store.FormatTime(now), fields["createdAt"])
	nested := fields["nested"].([]any)[0].(map[string]any)
	require.Equal(t, store.FormatTime(now), nested["createdAt"])
}

func TestFormatTimeOrderMatchesChronology(t *testing.T) {
	t.Parallel()

	// Fixed-width encoding keeps lexicographic and chronological order in
	// agreement even for sub-second differences.
	earlier := store.FormatTime(now.Add(200 * time.Millisecond))
	later := store.FormatTime(now.Add(500 * time.Millisecond))

	require.Less(t, earlier, later)
}

func TestSortDocumentsDescending(t *testing.T) {
	t.Parallel()

	docs := []core.Document{
		{ID: "a", Fields: map[string]any{"createdAt": store.FormatTime(now.Add(1 * time.Second))}},
		{ID: "c", Fields: map[string]any{"createdAt": store.FormatTime(now.Add(3 * time.Second))}},
		{ID: "b", Fields: map[string]any{"createdAt": store.FormatTime(now.Add(2 * time.Second))}},
	}

	store.SortDocuments(docs, "createdAt", true)

	require.Equal(t, "c", docs[0].ID)
	require.Equal(t, "b", docs[1].ID)
	require.Equal(t, "a", docs[2].ID)
}
