package core

import (
	"time"
)

const (
	CollectionPosts    = "posts"
	CollectionProfiles = "profiles"
)

// Identity is the acting user as reported by the authentication provider.
type Identity struct {
	UserID      string
	DisplayName string
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Profile is one user's node in the follow graph. Followers and Following
// are sets of user ids; for any pair (A, B), B is in A's Following exactly
// when A is in B's Followers, except during a reported partial write.
type Profile struct {
	UserID      string   `json:"-"`
	DisplayName string   `json:"displayName"`
	Bio         string   `json:"bio"`
	AvatarURL   string   `json:"avatarURL,omitempty"`
	Followers   []string `json:"followers"`
	Following   []string `json:"following"`
}

// Post is a single publication. AuthorName is a snapshot of the author's
// display name at creation time and is never re-synced.
type Post struct {
	ID            string    `json:"-"`
	AuthorID      string    `json:"userId"`
	AuthorName    string    `json:"authorName"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"createdAt"`
	LikesCount    int64     `json:"likesCount"`
	LikedBy       []string  `json:"likedBy"`
	CommentsCount int64     `json:"commentsCount"`
	Comments      []Comment `json:"comments"`
}

// Comment is embedded in a post's append-only comment sequence. Immutable
// once appended.
type Comment struct {
	AuthorID   string    `json:"userId"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserSummary is a directory search hit.
type UserSummary struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}
