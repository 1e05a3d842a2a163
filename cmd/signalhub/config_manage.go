package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattjoyce/signalhub/internal/config"
)

// runConfigLock hashes the current config file and writes the .checksums
// manifest next to it, authorizing the current state.
func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("config lock", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	path, err := resolveConfigPath(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}

	// Refuse to lock a config that does not even parse.
	if _, err := loadIgnoringIntegrity(path); err != nil {
		fmt.Fprintf(os.Stderr, "Refusing to lock invalid config: %v\n", err)
		return 1
	}

	hash, err := config.WriteChecksum(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write checksums: %v\n", err)
		return 1
	}

	fmt.Printf("Locked %s\n", path)
	fmt.Printf("  blake3: %s\n", hash)
	return 0
}

// runConfigCheck validates config syntax, policy, and integrity.
func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("config check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	path, err := resolveConfigPath(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
		return 1
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
		return 1
	}

	fmt.Printf("Config check OK: %s\n", path)
	fmt.Printf("  service:     %s (log level %s)\n", cfg.Service.Name, cfg.Service.LogLevel)
	fmt.Printf("  journal:     %s (retention %s)\n", cfg.Journal.Path, cfg.Journal.Retention)
	fmt.Printf("  executor:    queue %d, stop policy %s\n", cfg.Executor.QueueSize, cfg.Executor.StopPolicy)
	if cfg.API.Enabled {
		fmt.Printf("  api:         %s (%d scoped tokens)\n", cfg.API.Listen, len(cfg.API.Auth.Tokens))
	} else {
		fmt.Printf("  api:         disabled\n")
	}
	return 0
}

// loadIgnoringIntegrity parses and validates the config but skips the
// checksum comparison, so `config lock` can accept intentional edits.
func loadIgnoringIntegrity(path string) (*config.Config, error) {
	manifest, err := config.LoadChecksums(path)
	if err != nil || manifest == nil {
		// No manifest (or an unreadable one): Load already skips integrity.
		return config.Load(path)
	}

	// A manifest exists. Loading would fail on an intentional edit, so parse
	// the raw file through the same defaults/validation path instead.
	return config.Parse(path)
}
