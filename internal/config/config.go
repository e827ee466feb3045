package config

type Config struct {
	LogLevel string `flag:"log-level"`

	// Store selects the document store backend: memory, nats or postgres.
	Store       string `flag:"store"`
	NATSURL     string `flag:"nats-url"`
	NATSInit    bool   `flag:"nats-init"`
	DatabaseURL string `flag:"database-url"`

	HTTPAddr    string `flag:"http-addr"`
	MetricsAddr string `flag:"metrics-addr"`

	// Acting identity for CLI mutations, stands in for the session layer.
	ActorID   string `flag:"as-user"`
	ActorName string `flag:"as-name"`

	CloudinaryCloud  string `flag:"cloudinary-cloud"`
	CloudinaryPreset string `flag:"cloudinary-preset"`
}
