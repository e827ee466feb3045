package cmd

import (
	"context"

	"github.com/k0kubun/pp"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"socialite/internal/core"
	"socialite/internal/feed"
)

var tailCmd = &cli.Command{
	Name:  "tail",
	Usage: "Follow the live feed and print every snapshot",
	Flags: storeFlags,
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, services, err := baseServices(c)
		if err != nil {
			return err
		}

		return run(ctx, cfg, append(services,
			pal.Provide(&feed.Projector{}),
			pal.Provide(&tailer{}),
		)...)
	},
}

type tailer struct {
	Feed *feed.Projector
}

func (t *tailer) Run(ctx context.Context) error {
	unsubscribe := t.Feed.OnUpdate(func(posts []core.Post) {
		pp.Printf("%+v\n", lo.Map(posts, func(post core.Post, _ int) string {
			return post.ID + " " + post.AuthorName + ": " + post.Content
		}))
	})
	defer unsubscribe()

	<-ctx.Done()
	return nil
}
