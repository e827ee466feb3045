package consistency_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"socialite/internal/consistency"
	"socialite/internal/core"
	"socialite/internal/engagement"
	"socialite/internal/graph"
	"socialite/internal/store/memory"
)

func newAuditor(t *testing.T, backend core.DocumentStore) *consistency.Auditor {
	t.Helper()

	a := &consistency.Auditor{Logger: slog.Default(), Store: backend}
	require.NoError(t, a.Init(context.Background()))

	return a
}

func TestAuditCleanAfterNormalUsage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := memory.New()

	posts := &engagement.Manager{Logger: slog.Default(), Store: backend}
	require.NoError(t, posts.Init(ctx))
	follows := &graph.Manager{Logger: slog.Default(), Store: backend}
	require.NoError(t, follows.Init(ctx))

	alice := core.Identity{UserID: "alice", DisplayName: "Alice"}

	id, err := posts.CreatePost(ctx, alice, "hello")
	require.NoError(t, err)
	_, err = posts.ToggleLike(ctx, id, "bob", nil)
	require.NoError(t, err)
	require.NoError(t, posts.AddComment(ctx, id, alice, "hi bob"))

	_, err = follows.ToggleFollow(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = follows.ToggleFollow(ctx, "bob", "carol")
	require.NoError(t, err)

	report, err := newAuditor(t, backend).Audit(ctx)
	require.NoError(t, err)
	require.True(t, report.OK(), "violations: %v", report.Violations)
	require.Equal(t, 1, report.PostsChecked)
	require.Equal(t, 3, report.ProfilesChecked)
}

func TestAuditDetectsCounterDivergence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := memory.New()

	// Seed a post whose counter disagrees with its membership set, the
	// kind of damage a non-atomic writer would leave behind.
	require.NoError(t, backend.Merge(ctx, core.CollectionPosts, "p1", map[string]any{
		"content":       "broken",
		"likesCount":    2,
		"likedBy":       []string{"bob"},
		"commentsCount": 0,
		"comments":      []any{},
	}))

	report, err := newAuditor(t, backend).Audit(ctx)
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Len(t, report.Violations, 1)
	require.Contains(t, report.Violations[0], "likesCount=2")
}

func TestAuditDetectsAsymmetricFollowEdge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := memory.New()

	// Alice claims to follow Bob, Bob never got the matching follower
	// entry. This is exactly the residue of a lost second half.
	require.NoError(t, backend.Merge(ctx, core.CollectionProfiles, "alice", map[string]any{
		"following": []string{"bob"},
	}))
	require.NoError(t, backend.Merge(ctx, core.CollectionProfiles, "bob", map[string]any{
		"followers": []string{},
	}))

	report, err := newAuditor(t, backend).Audit(ctx)
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Contains(t, report.Violations[0], "asymmetric")
}

func TestCheckPostDetectsDuplicateLikes(t *testing.T) {
	t.Parallel()

	violations := consistency.CheckPost(core.Post{
		ID:         "p1",
		LikesCount: 2,
		LikedBy:    []string{"bob", "bob"},
	})
	require.Len(t, violations, 1)
	require.Contains(t, violations[0], "duplicates")
}

func TestAuditEmptyStore(t *testing.T) {
	t.Parallel()

	report, err := newAuditor(t, memory.New()).Audit(context.Background())
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Zero(t, report.PostsChecked)
	require.Zero(t, report.ProfilesChecked)
}
