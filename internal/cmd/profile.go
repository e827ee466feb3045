package cmd

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"socialite/internal/cmd/flags"
	"socialite/internal/core"
	"socialite/internal/profiles"
)

var profileCmd = &cli.Command{
	Name:  "profile",
	Usage: "Edit the acting user's profile",
	Flags: append(append(storeFlags, actorFlags...),
		flags.CLOUDINARY_CLOUD,
		flags.CLOUDINARY_PRESET,
		&cli.StringFlag{Name: "display-name", Usage: "New display name"},
		&cli.StringFlag{Name: "bio", Usage: "New bio"},
		&cli.StringFlag{Name: "avatar", Usage: "Path to an avatar image to upload"},
	),
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, services, err := baseServices(c)
		if err != nil {
			return err
		}

		editor := &profileEditor{avatarPath: c.String("avatar")}
		if c.IsSet("display-name") {
			name := c.String("display-name")
			editor.update.DisplayName = &name
		}
		if c.IsSet("bio") {
			bio := c.String("bio")
			editor.update.Bio = &bio
		}

		return run(ctx, cfg, append(services, pal.Provide(editor))...)
	},
}

type profileEditor struct {
	Logger   *slog.Logger
	Auth     core.AuthProvider
	Profiles *profiles.Manager

	update     profiles.Update
	avatarPath string
}

func (e *profileEditor) Run(ctx context.Context) error {
	userID := e.Auth.Current().UserID

	if e.avatarPath != "" {
		url, err := e.Profiles.SetAvatarFromFile(ctx, userID, e.avatarPath)
		if err != nil {
			return err
		}
		e.Logger.Info("avatar uploaded", "url", url)
	}

	if err := e.Profiles.Save(ctx, userID, e.update); err != nil {
		return err
	}
	e.Logger.Info("profile saved", "user", userID)
	return nil
}
