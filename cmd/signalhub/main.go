package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattjoyce/signalhub/internal/api"
	"github.com/mattjoyce/signalhub/internal/auth"
	"github.com/mattjoyce/signalhub/internal/config"
	"github.com/mattjoyce/signalhub/internal/executor"
	"github.com/mattjoyce/signalhub/internal/heartbeat"
	"github.com/mattjoyce/signalhub/internal/hub"
	"github.com/mattjoyce/signalhub/internal/journal"
	"github.com/mattjoyce/signalhub/internal/lock"
	"github.com/mattjoyce/signalhub/internal/log"
	"github.com/mattjoyce/signalhub/internal/storage"
	"github.com/mattjoyce/signalhub/internal/tui/watch"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		os.Exit(runSystemNoun(args))
	case "config":
		os.Exit(runConfigNoun(args))

	// --- ROOT COMMANDS ---
	case "start":
		os.Exit(runStart(args))
	case "watch":
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("signalhub version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`signalhub - In-process signal/slot dispatch engine with an HTTP surface

Usage:
  signalhub <noun> <action> [flags]

Core Resources (Nouns):
  system    Hub lifecycle and health
  config    System configuration and integrity

System Commands:
  system start      Start the hub service in foreground

Config Commands:
  config lock       Authorize current state (update integrity hashes)
  config check      Validate syntax, policy, and integrity

General:
  watch             Live terminal monitor for a running hub
  version           Show version information
  help              Show this help message

Use 'signalhub <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		printSystemNounHelp()
		return boolToCode(len(args) >= 1)
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		return runStart(actionArgs)
	case "help":
		printSystemNounHelp()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		printConfigNounHelp()
		return boolToCode(len(args) >= 1)
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "lock":
		return runConfigLock(actionArgs)
	case "check":
		return runConfigCheck(actionArgs)
	case "help":
		printConfigNounHelp()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func printSystemNounHelp() {
	fmt.Print(`signalhub system - Hub lifecycle

Usage:
  signalhub system start [--config <path>]
`)
}

func printConfigNounHelp() {
	fmt.Print(`signalhub config - Configuration and integrity

Usage:
  signalhub config lock  [--config <path>]   Update integrity hashes
  signalhub config check [--config <path>]   Validate syntax and integrity
`)
}

func isHelpToken(s string) bool {
	switch s {
	case "help", "--help", "-h":
		return true
	}
	return false
}

func boolToCode(ok bool) int {
	if ok {
		return 0
	}
	return 1
}

// resolveConfigPath applies the --config flag or falls back to discovery.
func resolveConfigPath(configPath string) (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	discovered, err := config.DiscoverConfigPath()
	if err != nil {
		return "", err
	}
	fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", discovered)
	return discovered, nil
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
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
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("signalhub starting", "version", version, "config", path)

	pidLockPath := getPIDLockPath(cfg)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.Journal.Path)
	if err != nil {
		logger.Error("failed to open journal database", "path", cfg.Journal.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("journal opened", "path", cfg.Journal.Path)

	jrnl := journal.New(db)
	if pruned, err := jrnl.Prune(ctx, cfg.Journal.Retention); err != nil {
		logger.Warn("journal prune failed", "error", err)
	} else if pruned > 0 {
		logger.Info("journal pruned", "emissions_removed", pruned)
	}

	policy, err := executor.ParsePolicy(cfg.Executor.StopPolicy)
	if err != nil {
		logger.Error("invalid executor config", "error", err)
		return 1
	}
	exec := executor.New(
		executor.WithQueueSize(cfg.Executor.QueueSize),
		executor.WithStopPolicy(policy),
	)
	if err := exec.Start(); err != nil {
		logger.Error("failed to start executor", "error", err)
		return 1
	}

	feed := hub.NewFeed(cfg.API.FeedCapacity)
	h := hub.New(exec, jrnl, feed)

	hb := heartbeat.New(h, cfg.Service.HeartbeatInterval)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)

	hb.Start(ctx)

	if cfg.API.Enabled {
		tokens := make([]auth.TokenConfig, 0, len(cfg.API.Auth.Tokens))
		for _, t := range cfg.API.Auth.Tokens {
			tokens = append(tokens, auth.TokenConfig{
				Token:  t.Token,
				Scopes: t.Scopes,
			})
		}
		apiServer := api.New(api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.Auth.APIKey,
			Tokens: tokens,
		}, h, jrnl, feed, exec.State, log.WithComponent("api"))

		go func() {
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("api server: %w", err)
			}
		}()
	}

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Error("component failed, shutting down", "error", err)
	}

	// Shutdown order: stop producing (heartbeat), stop the HTTP surface,
	// then stop the executor honoring the configured drain/discard policy.
	hb.Stop()
	cancel()
	exec.Stop()
	logger.Info("signalhub stopped", "tasks_executed", exec.Executed(), "stop_policy", string(policy))
	return 0
}

func getPIDLockPath(cfg *config.Config) string {
	if cfg.Service.LockPath != "" {
		return cfg.Service.LockPath
	}
	return filepath.Join(filepath.Dir(cfg.Journal.Path), "signalhub.pid")
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("url", "http://127.0.0.1:8787", "Base URL of the hub API")
	apiKey := fs.String("key", os.Getenv("SIGNALHUB_API_KEY"), "API bearer token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}
	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "An API key is required (--key or $SIGNALHUB_API_KEY)")
		return 1
	}

	p := tea.NewProgram(watch.New(*apiURL, *apiKey))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "watch failed: %v\n", err)
		return 1
	}
	return 0
}
