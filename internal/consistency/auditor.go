// Package consistency validates the counter-vs-set and follow-symmetry
// invariants across the whole store. It changes nothing; it only reports.
package consistency

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"socialite/internal/core"
	"socialite/internal/store"
)

// Report lists every invariant violation found by an audit.
type Report struct {
	PostsChecked    int
	ProfilesChecked int
	Violations      []string
}

func (r Report) OK() bool {
	return len(r.Violations) == 0
}

type Auditor struct {
	Logger *slog.Logger
	Store  core.DocumentStore
}

func (a *Auditor) Init(_ context.Context) error {
	a.Logger = a.Logger.With("component", "consistency.Auditor")
	return nil
}

// CheckPost validates a single post: counters agree with their membership
// set and sequence, and comments are in chronological order.
func CheckPost(post core.Post) []string {
	var violations []string

	if post.LikesCount != int64(len(post.LikedBy)) {
		violations = append(violations,
			fmt.Sprintf("post %s: likesCount=%d but |likedBy|=%d", post.ID, post.LikesCount, len(post.LikedBy)))
	}
	if post.CommentsCount != int64(len(post.Comments)) {
		violations = append(violations,
			fmt.Sprintf("post %s: commentsCount=%d but |comments|=%d", post.ID, post.CommentsCount, len(post.Comments)))
	}
	if len(lo.Uniq(post.LikedBy)) != len(post.LikedBy) {
		violations = append(violations,
			fmt.Sprintf("post %s: likedBy contains duplicates", post.ID))
	}
	for i := 1; i < len(post.Comments); i++ {
		if post.Comments[i].CreatedAt.Before(post.Comments[i-1].CreatedAt) {
			violations = append(violations,
				fmt.Sprintf("post %s: comment %d is older than comment %d", post.ID, i, i-1))
		}
	}

	return violations
}

// CheckPair validates follow symmetry for an ordered profile pair:
// b ∈ a.following exactly when a ∈ b.followers.
func CheckPair(a, b core.Profile) []string {
	var violations []string

	if lo.Contains(a.Following, b.UserID) != lo.Contains(b.Followers, a.UserID) {
		violations = append(violations,
			fmt.Sprintf("profiles %s/%s: follow edge is asymmetric", a.UserID, b.UserID))
	}
	return violations
}

// Audit scans every post and profile pair and reports all violations.
func (a *Auditor) Audit(ctx context.Context) (Report, error) {
	var report Report

	postDocs, err := a.Store.List(ctx, core.CollectionPosts)
	if err != nil {
		return report, err
	}
	for _, doc := range postDocs {
		post, err := store.DecodePost(doc)
		if err != nil {
			return report, err
		}
		report.PostsChecked++
		report.Violations = append(report.Violations, CheckPost(post)...)
	}

	profileDocs, err := a.Store.List(ctx, core.CollectionProfiles)
	if err != nil {
		return report, err
	}

	profiles := make([]core.Profile, 0, len(profileDocs))
	for _, doc := range profileDocs {
		profile, err := store.DecodeProfile(doc)
		if err != nil {
			return report, err
		}
		profiles = append(profiles, profile)
	}

	report.ProfilesChecked = len(profiles)
	for i, p := range profiles {
		for _, q := range profiles[i+1:] {
			report.Violations = append(report.Violations, CheckPair(p, q)...)
			report.Violations = append(report.Violations, CheckPair(q, p)...)
		}
	}

	return report, nil
}
