package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults returns a configuration with every field at its default value.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:              "signalhub",
			LogLevel:          "INFO",
			HeartbeatInterval: 30 * time.Second,
		},
		Journal: JournalConfig{
			Path:      defaultStatePath("journal.db"),
			Retention: 7 * 24 * time.Hour,
		},
		Executor: ExecutorConfig{
			QueueSize:  256,
			StopPolicy: "drain",
		},
		API: APIConfig{
			Enabled:      false,
			Listen:       "127.0.0.1:8787",
			FeedCapacity: 256,
		},
	}
}

func defaultStatePath(file string) string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "signalhub", file)
	}
	return filepath.Join(".", file)
}

// Load reads and parses configuration from a file, applies defaults,
// verifies the integrity checksum when present, and validates the result.
func Load(configPath string) (*Config, error) {
	absPath, cfg, err := parse(configPath)
	if err != nil {
		return nil, err
	}

	if err := VerifyConfigIntegrity(absPath); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse reads, parses, and validates a config file without checking the
// integrity checksum. Used by `config lock` to accept intentional edits.
func Parse(configPath string) (*Config, error) {
	_, cfg, err := parse(configPath)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parse(configPath string) (string, *Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		// Directory provided - look for config.yaml inside.
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return "", nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return "", nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return absPath, applyDefaults(cfg), nil
}

// DiscoverConfigPath finds the config file by checking standard locations.
// Priority order: $SIGNALHUB_CONFIG, ~/.config/signalhub/config.yaml,
// /etc/signalhub/config.yaml, ./config.yaml.
func DiscoverConfigPath() (string, error) {
	if p := os.Getenv("SIGNALHUB_CONFIG"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfig := filepath.Join(homeDir, ".config", "signalhub", "config.yaml")
		if _, err := os.Stat(userConfig); err == nil {
			return userConfig, nil
		}
	}

	systemConfig := "/etc/signalhub/config.yaml"
	if _, err := os.Stat(systemConfig); err == nil {
		return systemConfig, nil
	}

	legacyConfig := "./config.yaml"
	if _, err := os.Stat(legacyConfig); err == nil {
		return legacyConfig, nil
	}

	return "", fmt.Errorf("no config found (checked: $SIGNALHUB_CONFIG, ~/.config/signalhub, /etc/signalhub, ./config.yaml)")
}

// applyDefaults backfills zero values that yaml decoding may have cleared.
func applyDefaults(cfg *Config) *Config {
	def := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = def.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = def.Service.LogLevel
	}
	if cfg.Service.HeartbeatInterval <= 0 {
		cfg.Service.HeartbeatInterval = def.Service.HeartbeatInterval
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = def.Journal.Path
	}
	if cfg.Journal.Retention <= 0 {
		cfg.Journal.Retention = def.Journal.Retention
	}
	if cfg.Executor.QueueSize == 0 {
		cfg.Executor.QueueSize = def.Executor.QueueSize
	}
	if cfg.Executor.StopPolicy == "" {
		cfg.Executor.StopPolicy = def.Executor.StopPolicy
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = def.API.Listen
	}
	if cfg.API.FeedCapacity <= 0 {
		cfg.API.FeedCapacity = def.API.FeedCapacity
	}
	return cfg
}

func validate(cfg *Config) error {
	if cfg.Executor.QueueSize < 0 {
		return fmt.Errorf("executor.queue_size must be positive, got %d", cfg.Executor.QueueSize)
	}
	if p := cfg.Executor.StopPolicy; p != "drain" && p != "discard" {
		return fmt.Errorf("executor.stop_policy must be drain or discard, got %q", p)
	}
	if cfg.API.Enabled {
		if cfg.API.Listen == "" {
			return fmt.Errorf("api.listen is required when api.enabled is true")
		}
		if cfg.API.Auth.APIKey == "" && len(cfg.API.Auth.Tokens) == 0 {
			return fmt.Errorf("api.auth requires api_key or at least one token when api.enabled is true")
		}
		for i, t := range cfg.API.Auth.Tokens {
			if t.Token == "" {
				return fmt.Errorf("api.auth.tokens[%d].token is empty", i)
			}
		}
	}
	return nil
}
