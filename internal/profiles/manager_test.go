package profiles_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"socialite/internal/core"
	"socialite/internal/profiles"
	"socialite/internal/store/memory"
)

type fakeUploader struct {
	url  string
	path string
}

func (u *fakeUploader) UploadImage(_ context.Context, path string) (string, error) {
	u.path = path
	return u.url, nil
}

func newManager(t *testing.T, uploader profiles.Uploader) *profiles.Manager {
	t.Helper()

	m := &profiles.Manager{
		Logger:   slog.Default(),
		Store:    memory.New(),
		Uploader: uploader,
	}
	require.NoError(t, m.Init(context.Background()))

	return m
}

func TestSaveCreatesProfileLazily(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)

	require.NoError(t, m.Save(ctx, "alice", profiles.Update{
		DisplayName: lo.ToPtr("Alice"),
		Bio:         lo.ToPtr("hello"),
	}))

	profile, err := m.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", profile.DisplayName)
	require.Equal(t, "hello", profile.Bio)
}

func TestSaveMergesPartialUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)

	require.NoError(t, m.Save(ctx, "alice", profiles.Update{
		DisplayName: lo.ToPtr("Alice"),
		Bio:         lo.ToPtr("hello"),
	}))
	require.NoError(t, m.Save(ctx, "alice", profiles.Update{
		Bio: lo.ToPtr("updated"),
	}))

	profile, err := m.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", profile.DisplayName)
	require.Equal(t, "updated", profile.Bio)
}

func TestSaveEmptyUpdateIsANoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t, nil)

	require.NoError(t, m.Save(ctx, "alice", profiles.Update{}))

	// Nothing to merge, nothing created.
	_, err := m.Get(ctx, "alice")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestSaveUnauthenticated(t *testing.T) {
	t.Parallel()

	err := newManager(t, nil).Save(context.Background(), "", profiles.Update{Bio: lo.ToPtr("x")})
	require.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestSetAvatarFromFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uploader := &fakeUploader{url: "https://cdn.example.com/a.png"}
	m := newManager(t, uploader)

	url, err := m.SetAvatarFromFile(ctx, "alice", "/tmp/a.png")
	require.NoError(t, err)
	require.Equal(t, uploader.url, url)
	require.Equal(t, "/tmp/a.png", uploader.path)

	profile, err := m.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, uploader.url, profile.AvatarURL)
}

func TestSetAvatarWithoutUploader(t *testing.T) {
	t.Parallel()

	_, err := newManager(t, nil).SetAvatarFromFile(context.Background(), "alice", "/tmp/a.png")
	require.ErrorIs(t, err, core.ErrValidation)
}
