package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"socialite/internal/consistency"
)

var checkCmd = &cli.Command{
	Name:  "check",
	Usage: "Audit the store for counter and follow-graph invariant violations",
	Flags: storeFlags,
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, services, err := baseServices(c)
		if err != nil {
			return err
		}

		return run(ctx, cfg, append(services, pal.Provide(&checker{}))...)
	},
}

type checker struct {
	Logger  *slog.Logger
	Auditor *consistency.Auditor
}

func (c *checker) Run(ctx context.Context) error {
	report, err := c.Auditor.Audit(ctx)
	if err != nil {
		return err
	}

	c.Logger.Info("audit finished",
		"posts", report.PostsChecked,
		"profiles", report.ProfilesChecked,
		"violations", len(report.Violations))

	for _, violation := range report.Violations {
		c.Logger.Error("invariant violated", "violation", violation)
	}
	if !report.OK() {
		return fmt.Errorf("%d invariant violations found", len(report.Violations))
	}
	return nil
}
