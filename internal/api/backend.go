package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"socialite/internal/core"
	"socialite/internal/directory"
	"socialite/internal/engagement"
	"socialite/internal/feed"
	"socialite/internal/graph"
)

type Backend struct {
	Logger     *slog.Logger
	Engagement *engagement.Manager
	Graph      *graph.Manager
	Directory  *directory.Directory
	Feed       *feed.Projector
}

func (b *Backend) Init(context.Context) error {
	b.Logger = b.Logger.With("component", "api.Backend")
	return nil
}

func (b *Backend) mount(r chi.Router) {
	r.Get("/v1/feed", b.getFeed)
	r.Get("/v1/feed/ws", b.streamFeed)
	r.Get("/v1/users", b.searchUsers)
	r.Post("/v1/posts", b.createPost)
	r.Post("/v1/posts/{id}/like", b.toggleLike)
	r.Post("/v1/posts/{id}/comments", b.addComment)
	r.Post("/v1/users/{id}/follow", b.toggleFollow)
}

// identity reads the acting user from request headers. Session handling
// proper lives outside the core; the API trusts its front proxy.
func identity(r *http.Request) core.Identity {
	return core.Identity{
		UserID:      r.Header.Get("X-User-Id"),
		DisplayName: r.Header.Get("X-User-Name"),
	}
}

type postView struct {
	ID string `json:"id"`
	core.Post
}

func viewPosts(posts []core.Post) []postView {
	return lo.Map(posts, func(post core.Post, _ int) postView {
		return postView{ID: post.ID, Post: post}
	})
}

func (b *Backend) getFeed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewPosts(b.Feed.CurrentPosts()))
}

func (b *Backend) searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := b.Directory.SearchByDisplayNamePrefix(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (b *Backend) createPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Join(core.ErrValidation, err))
		return
	}

	id, err := b.Engagement.CreatePost(r.Context(), identity(r), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"postId": id})
}

func (b *Backend) toggleLike(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	// The toggle branch is decided on the liker's last observed likedBy
	// snapshot. Clients that track the feed send it; others fall back to
	// a fresh read, which just narrows the same accepted race window.
	var req struct {
		LikedBy []string `json:"likedBy"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.Join(core.ErrValidation, err))
			return
		}
	}
	if req.LikedBy == nil {
		post, err := b.Engagement.GetPost(r.Context(), postID)
		if err != nil {
			writeError(w, err)
			return
		}
		req.LikedBy = post.LikedBy
	}

	liked, err := b.Engagement.ToggleLike(r.Context(), postID, identity(r).UserID, req.LikedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

func (b *Backend) addComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Join(core.ErrValidation, err))
		return
	}

	if err := b.Engagement.AddComment(r.Context(), chi.URLParam(r, "id"), identity(r), req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (b *Backend) toggleFollow(w http.ResponseWriter, r *http.Request) {
	following, err := b.Graph.ToggleFollow(r.Context(), identity(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"following": following})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, core.ErrSelfFollow):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrPartialWrite):
		status = http.StatusConflict
	}

	writeJSON(w, status, map[string]string{"message": err.Error()})
}
