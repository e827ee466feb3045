package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"socialite/internal/auth"
	"socialite/internal/cmd/flags"
	"socialite/internal/config"
	"socialite/internal/consistency"
	"socialite/internal/core"
	"socialite/internal/directory"
	"socialite/internal/engagement"
	"socialite/internal/graph"
	"socialite/internal/profiles"
	"socialite/internal/store"
	"socialite/internal/store/memory"
	"socialite/internal/store/natskv"
	"socialite/internal/store/postgres"
	"socialite/pkg/clicfg"
	"socialite/pkg/cloudinary"
)

const VERSION = "0.1.0"

var cmd = &cli.Command{
	Name:    "socialite",
	Usage:   "Socialite is a social feed service",
	Version: VERSION,
	Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
		if err := initLogger(c.String("log-level")); err != nil {
			return ctx, err
		}
		return ctx, nil
	},
	Flags: []cli.Flag{
		flags.LOG_LEVEL,
	},
	Commands: []*cli.Command{
		serveCmd,
		tailCmd,
		checkCmd,
		postCmd,
		likeCmd,
		commentCmd,
		followCmd,
		searchCmd,
		profileCmd,
	},
}

func Run() {
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// storeFlags are shared by every command that talks to the store.
var storeFlags = []cli.Flag{
	flags.STORE,
	flags.NATS_URL,
	flags.NATS_INIT,
	flags.DATABASE_URL,
}

var actorFlags = []cli.Flag{
	flags.AS_USER,
	flags.AS_NAME,
}

// baseServices parses the config and wires the store backend, the auth
// provider and the managers every command builds on.
func baseServices(c *cli.Command) (*config.Config, []pal.ServiceDef, error) {
	cfg := &config.Config{}
	if err := clicfg.ParseFlags(c, cfg); err != nil {
		return nil, nil, err
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, nil, err
	}

	manager := &profiles.Manager{}
	if cfg.CloudinaryCloud != "" {
		manager.Uploader = cloudinary.NewClient(cfg.CloudinaryCloud, cfg.CloudinaryPreset)
	}

	return cfg, []pal.ServiceDef{
		pal.Provide[core.DocumentStore](store.NewInstrumented(backend)),
		pal.Provide[core.AuthProvider](&auth.Static{
			Identity: core.Identity{UserID: cfg.ActorID, DisplayName: cfg.ActorName},
		}),
		pal.Provide(&engagement.Manager{}),
		pal.Provide(&graph.Manager{}),
		pal.Provide(&directory.Directory{}),
		pal.Provide(manager),
		pal.Provide(&consistency.Auditor{}),
	}, nil
}

func newBackend(cfg *config.Config) (core.DocumentStore, error) {
	switch cfg.Store {
	case "", "memory":
		return memory.New(), nil
	case "nats":
		return natskv.New(cfg), nil
	case "postgres":
		return postgres.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store)
	}
}

func run(ctx context.Context, cfg *config.Config, services ...pal.ServiceDef) error {
	services = append(services, pal.Provide(cfg))

	return pal.New(services...).
		InjectSlog().
		InitTimeout(5*time.Second).
		HealthCheckTimeout(1*time.Second).
		ShutdownTimeout(10*time.Second).
		Run(ctx, syscall.SIGINT, syscall.SIGTERM)
}
