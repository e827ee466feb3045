// Package graph maintains the bidirectional follow relationship between
// profiles. A follow toggle is a dual-document write: two per-document
// atomic set operations, not one cross-document transaction. A failure
// between the halves is surfaced as a PartialWriteError; both halves use
// set semantics, so retrying the failed half converges the pair without
// duplicate side effects.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"

	"socialite/internal/core"
	"socialite/internal/store"
	"socialite/pkg/retry"
)

const (
	compensationAttempts = 3
	compensationBackoff  = 50 * time.Millisecond
)

var (
	followsToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialite_follows_toggled_total",
		Help: "The total number of follow toggles",
	}, []string{"action"})

	partialWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialite_partial_writes_total",
		Help: "The total number of dual-document writes that lost their second half",
	})
)

type Manager struct {
	Logger *slog.Logger
	Store  core.DocumentStore
}

func (m *Manager) Init(_ context.Context) error {
	m.Logger = m.Logger.With("component", "graph.Manager")
	return nil
}

// IsFollowing reports whether observerID's profile lists targetID in its
// following set. An absent profile reads as not following.
func (m *Manager) IsFollowing(ctx context.Context, observerID, targetID string) (bool, error) {
	doc, err := m.Store.Read(ctx, core.CollectionProfiles, observerID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	profile, err := store.DecodeProfile(doc)
	if err != nil {
		return false, err
	}
	return lo.Contains(profile.Following, targetID), nil
}

// ToggleFollow flips the observer→target follow edge on both profile
// documents. The observer's document is written first; if the target's
// write then fails even after an idempotent in-call retry, the error is a
// *core.PartialWriteError naming the half still missing. Callers retry
// that half only, re-toggling would undo the committed observer side.
func (m *Manager) ToggleFollow(ctx context.Context, observerID, targetID string) (bool, error) {
	if observerID == "" {
		return false, fmt.Errorf("%w: cannot follow without a signed-in user", core.ErrUnauthenticated)
	}
	if observerID == targetID {
		return false, core.ErrSelfFollow
	}

	following, err := m.IsFollowing(ctx, observerID, targetID)
	if err != nil {
		return false, err
	}

	var observerOp, targetOp core.Op
	action := "follow"
	if following {
		action = "unfollow"
		observerOp = core.SetRemove("following", targetID)
		targetOp = core.SetRemove("followers", observerID)
	} else {
		observerOp = core.SetAdd("following", targetID)
		targetOp = core.SetAdd("followers", observerID)
	}

	// Profiles are created lazily, so both halves go through the
	// upsert-flavored apply.
	if err := m.Store.Apply(ctx, core.CollectionProfiles, observerID, observerOp); err != nil {
		return following, err
	}

	err = retry.Do(ctx, compensationAttempts, compensationBackoff, func() error {
		return m.Store.Apply(ctx, core.CollectionProfiles, targetID, targetOp)
	})
	if err != nil {
		partialWrites.Inc()
		m.Logger.Warn("follow toggle lost its second half",
			"observer", observerID, "target", targetID, "action", action, "error", err)

		return !following, &core.PartialWriteError{
			Completed: fmt.Sprintf("%s on profiles/%s", action, observerID),
			Failed:    fmt.Sprintf("%s on profiles/%s", action, targetID),
			Err:       err,
		}
	}

	followsToggled.WithLabelValues(action).Inc()
	return !following, nil
}
