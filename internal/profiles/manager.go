// Package profiles is plain field CRUD on profile documents. Profiles are
// created lazily on first write; there is no explicit creation event.
package profiles

import (
	"context"
	"fmt"
	"log/slog"

	"socialite/internal/core"
	"socialite/internal/store"
)

// Uploader puts an image somewhere public and returns its URL.
type Uploader interface {
	UploadImage(ctx context.Context, path string) (string, error)
}

// Update carries the fields to merge; nil means leave untouched.
type Update struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

type Manager struct {
	Logger   *slog.Logger
	Store    core.DocumentStore
	Uploader Uploader
}

func (m *Manager) Init(_ context.Context) error {
	m.Logger = m.Logger.With("component", "profiles.Manager")
	return nil
}

func (m *Manager) Get(ctx context.Context, userID string) (core.Profile, error) {
	doc, err := m.Store.Read(ctx, core.CollectionProfiles, userID)
	if err != nil {
		return core.Profile{}, err
	}
	return store.DecodeProfile(doc)
}

// Save merges the provided fields into the user's profile document,
// creating it if absent.
func (m *Manager) Save(ctx context.Context, userID string, update Update) error {
	if userID == "" {
		return fmt.Errorf("%w: cannot edit a profile without a signed-in user", core.ErrUnauthenticated)
	}

	fields := map[string]any{}
	if update.DisplayName != nil {
		fields["displayName"] = *update.DisplayName
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if update.AvatarURL != nil {
		fields["avatarURL"] = *update.AvatarURL
	}
	if len(fields) == 0 {
		return nil
	}

	return m.Store.Merge(ctx, core.CollectionProfiles, userID, fields)
}

// SetAvatarFromFile uploads a local image and saves its hosted URL on the
// profile.
func (m *Manager) SetAvatarFromFile(ctx context.Context, userID, path string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: cannot edit a profile without a signed-in user", core.ErrUnauthenticated)
	}
	if m.Uploader == nil {
		return "", fmt.Errorf("%w: no image uploader configured", core.ErrValidation)
	}

	url, err := m.Uploader.UploadImage(ctx, path)
	if err != nil {
		return "", err
	}

	return url, m.Save(ctx, userID, Update{AvatarURL: &url})
}
