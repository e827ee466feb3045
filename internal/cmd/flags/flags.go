package flags

import (
	"fmt"
	"slices"

	libnats "github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

var validStores = []string{"memory", "nats", "postgres"}

var LOG_LEVEL = &cli.StringFlag{
	Name:    "log-level",
	Aliases: []string{"l"},
	Usage:   "The level of the logs",
	Value:   "info",
	Validator: func(value string) error {
		if !slices.Contains(validLogLevels, value) {
			return fmt.Errorf("invalid log level: %s, allowed values are: %s", value, validLogLevels)
		}
		return nil
	},
	Sources: cli.EnvVars("LOG_LEVEL"),
}

var STORE = &cli.StringFlag{
	Name:    "store",
	Aliases: []string{"s"},
	Usage:   "The document store backend",
	Value:   "memory",
	Validator: func(value string) error {
		if !slices.Contains(validStores, value) {
			return fmt.Errorf("invalid store: %s, allowed values are: %s", value, validStores)
		}
		return nil
	},
	Sources: cli.EnvVars("STORE"),
}

var NATS_URL = &cli.StringFlag{
	Name:    "nats-url",
	Aliases: []string{"n"},
	Usage:   "The URL of the NATS server",
	Value:   libnats.DefaultURL,
	Sources: cli.EnvVars("NATS_URL"),
}

var NATS_INIT = &cli.BoolFlag{
	Name:        "nats-init",
	Aliases:     []string{"i"},
	Usage:       "Initialize the NATS server: create the KV bucket",
	DefaultText: "false",
	Value:       false,
	Sources:     cli.EnvVars("NATS_INIT"),
}

var DATABASE_URL = &cli.StringFlag{
	Name:    "database-url",
	Usage:   "The Postgres DSN for the postgres store backend",
	Sources: cli.EnvVars("DATABASE_URL"),
}

var HTTP_ADDR = &cli.StringFlag{
	Name:    "http-addr",
	Usage:   "The listen address of the API server",
	Value:   ":8888",
	Sources: cli.EnvVars("HTTP_ADDR"),
}

var METRICS_ADDR = &cli.StringFlag{
	Name:    "metrics-addr",
	Usage:   "The listen address of the metrics server",
	Value:   ":8080",
	Sources: cli.EnvVars("METRICS_ADDR"),
}

var AS_USER = &cli.StringFlag{
	Name:    "as-user",
	Aliases: []string{"u"},
	Usage:   "The acting user id for mutations",
	Sources: cli.EnvVars("SOCIALITE_USER"),
}

var AS_NAME = &cli.StringFlag{
	Name:    "as-name",
	Usage:   "The acting user's display name",
	Sources: cli.EnvVars("SOCIALITE_NAME"),
}

var CLOUDINARY_CLOUD = &cli.StringFlag{
	Name:    "cloudinary-cloud",
	Usage:   "The Cloudinary cloud name for avatar uploads",
	Sources: cli.EnvVars("CLOUDINARY_CLOUD_NAME"),
}

var CLOUDINARY_PRESET = &cli.StringFlag{
	Name:    "cloudinary-preset",
	Usage:   "The Cloudinary unsigned upload preset",
	Sources: cli.EnvVars("CLOUDINARY_UPLOAD_PRESET"),
}
