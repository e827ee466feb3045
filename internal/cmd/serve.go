package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"socialite/internal/api"
	"socialite/internal/cmd/flags"
	"socialite/internal/feed"
	"socialite/internal/metrics"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Run the feed service: API server, live feed projector and metrics",
	Flags: append(storeFlags,
		flags.HTTP_ADDR,
		flags.METRICS_ADDR,
		flags.CLOUDINARY_CLOUD,
		flags.CLOUDINARY_PRESET,
	),
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, services, err := baseServices(c)
		if err != nil {
			return err
		}

		return run(ctx, cfg, append(services,
			pal.Provide(&feed.Projector{}),
			pal.Provide(&api.Server{}),
			pal.Provide(&metrics.Server{}),
		)...)
	},
}
