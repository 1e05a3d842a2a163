package config

import "time"

// Config represents the complete signalhub configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Journal  JournalConfig  `yaml:"journal"`
	Executor ExecutorConfig `yaml:"executor"`
	API      APIConfig      `yaml:"api,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name              string        `yaml:"name"`
	LogLevel          string        `yaml:"log_level"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	LockPath          string        `yaml:"lock_path,omitempty"`
}

// JournalConfig defines emission journal storage settings.
type JournalConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

// ExecutorConfig defines the async task queue settings.
type ExecutorConfig struct {
	QueueSize int `yaml:"queue_size"`
	// StopPolicy is "drain" (run the backlog before shutdown returns) or
	// "discard" (abandon it). Callers must know which guarantee their
	// shutdown path makes.
	StopPolicy string `yaml:"stop_policy"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
	// FeedCapacity sizes the SSE replay ring buffer.
	FeedCapacity int `yaml:"feed_capacity,omitempty"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	// APIKey is the single admin bearer token (full access).
	// Prefer Tokens for scoped access.
	APIKey string     `yaml:"api_key"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken defines a bearer token and its scopes.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

// ChecksumManifest is the parsed .checksums file.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}
