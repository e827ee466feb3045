// Package engagement maintains per-post like membership and counters and
// the append-only comment log. Every mutation is one atomic compound
// write, which is what keeps likesCount == |likedBy| and
// commentsCount == |comments| from permanently diverging under
// concurrent writers.
package engagement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"

	"socialite/internal/core"
	"socialite/internal/store"
)

var (
	postsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialite_posts_created_total",
		Help: "The total number of posts created",
	})

	likesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialite_likes_toggled_total",
		Help: "The total number of like toggles",
	}, []string{"action"})

	commentsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialite_comments_added_total",
		Help: "The total number of comments added",
	})
)

type Manager struct {
	Logger *slog.Logger
	Store  core.DocumentStore
}

func (m *Manager) Init(_ context.Context) error {
	m.Logger = m.Logger.With("component", "engagement.Manager")
	return nil
}

// CreatePost publishes a new post with zeroed engagement fields and a
// store-assigned creation timestamp, and returns the generated post id.
func (m *Manager) CreatePost(ctx context.Context, author core.Identity, content string) (string, error) {
	if !author.Authenticated() {
		return "", fmt.Errorf("%w: cannot publish without a signed-in user", core.ErrUnauthenticated)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: post content is empty", core.ErrValidation)
	}

	id, err := m.Store.Create(ctx, core.CollectionPosts, map[string]any{
		"userId":        author.UserID,
		"authorName":    authorName(author),
		"content":       content,
		"createdAt":     store.ServerTimestamp,
		"likesCount":    0,
		"likedBy":       []any{},
		"commentsCount": 0,
		"comments":      []any{},
	})
	if err != nil {
		return "", err
	}

	postsCreated.Inc()
	m.Logger.Debug("post created", "post", id, "author", author.UserID)

	return id, nil
}

// ToggleLike flips userID's membership in the post's like set. The branch
// is decided on the caller-supplied likedBy snapshot, then committed as an
// atomic set-op + counter pair; both halves are safe under a stale
// snapshot because the set op is idempotent and the counter moves with it
// in the same write.
func (m *Manager) ToggleLike(ctx context.Context, postID, userID string, likedBy []string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("%w: cannot like without a signed-in user", core.ErrUnauthenticated)
	}

	if lo.Contains(likedBy, userID) {
		err := m.Store.Update(ctx, core.CollectionPosts, postID,
			core.SetRemove("likedBy", userID),
			core.Increment("likesCount", -1),
		)
		if err != nil {
			return false, err
		}
		likesToggled.WithLabelValues("unlike").Inc()
		return false, nil
	}

	err := m.Store.Update(ctx, core.CollectionPosts, postID,
		core.SetAdd("likedBy", userID),
		core.Increment("likesCount", 1),
	)
	if err != nil {
		return false, err
	}
	likesToggled.WithLabelValues("like").Inc()
	return true, nil
}

// AddComment appends to the post's comment sequence and bumps the counter
// in one compound write. Comments are never individually addressable or
// removable, the sequence only grows.
func (m *Manager) AddComment(ctx context.Context, postID string, author core.Identity, text string) error {
	if !author.Authenticated() {
		return fmt.Errorf("%w: cannot comment without a signed-in user", core.ErrUnauthenticated)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: comment text is empty", core.ErrValidation)
	}

	err := m.Store.Update(ctx, core.CollectionPosts, postID,
		core.Append("comments", map[string]any{
			"userId":     author.UserID,
			"authorName": authorName(author),
			"text":       text,
			"createdAt":  store.ServerTimestamp,
		}),
		core.Increment("commentsCount", 1),
	)
	if err != nil {
		return err
	}

	commentsAdded.Inc()
	return nil
}

// GetPost reads one post.
func (m *Manager) GetPost(ctx context.Context, postID string) (core.Post, error) {
	doc, err := m.Store.Read(ctx, core.CollectionPosts, postID)
	if err != nil {
		return core.Post{}, err
	}
	return store.DecodePost(doc)
}

func authorName(author core.Identity) string {
	if author.DisplayName == "" {
		return "anonymous"
	}
	return author.DisplayName
}
