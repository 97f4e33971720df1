package config

import "time"

// ServerConfig is the root configuration for memkv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the TCP front end.
type ServerSection struct {
	// Addr is the listen address for the key-value protocol.
	Addr string `koanf:"addr"`

	// ReadTimeout bounds reading a single command.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing a single response.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout bounds the quiet time between commands.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the maximum commands per second per client IP.
	// 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// StorageSection configures the keyspace.
type StorageSection struct {
	// Shards is the shard count of the keyspace map (power of two).
	Shards int `koanf:"shards"`

	// SweepInterval is how often expired entries are reclaimed.
	// 0 disables the sweeper; dead entries then persist until the
	// next write to their key.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	// Level is the log level (debug, info, warn, error).
	Level string `koanf:"level"`

	// Format is the log format (json, text).
	Format string `koanf:"format"`
}
