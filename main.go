// relay - a terminal client for the relay conversation service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/morganforge/relay-tui/internal/api"
	"github.com/morganforge/relay-tui/internal/auth"
	"github.com/morganforge/relay-tui/internal/cache"
	"github.com/morganforge/relay-tui/internal/config"
	"github.com/morganforge/relay-tui/internal/session"
	"github.com/morganforge/relay-tui/internal/ui/chat"
	"github.com/morganforge/relay-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.relay/config.toml)")
	serverURL := flag.String("server", "", "override the server URL")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("relay %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	// Subcommands: login/logout manage the session token, everything else
	// starts the TUI.
	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "login":
			if err := handleLogin(args[1:]); err != nil {
				fatal(err)
			}
			return
		case "logout":
			if err := handleLogout(); err != nil {
				fatal(err)
			}
			return
		default:
			fatal(fmt.Errorf("unknown command: %s", args[0]))
		}
	}

	if err := runTUI(*configPath, *serverURL); err != nil {
		fatal(err)
	}
}

func runTUI(configPath, serverURL string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, logClose, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logClose()

	tokens, err := auth.NewTokenSource(cfg.Server.TokenPath)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.Server.URL, tokens, logger).WithTimeout(cfg.Timeout())

	summaryCache := openCache(logger)
	if summaryCache != nil {
		defer summaryCache.Close()
	}

	engine := session.NewEngine(client, cacheOrNil(summaryCache), cfg.Sync.PageSize, cfg.DedupWindow(), logger)
	view := chat.New(engine, cfg, styles.NewTheme(), logger)

	// Config edits take effect on log level without a restart; everything
	// else applies on next launch.
	watcher := watchConfig(configPath, logger)
	if watcher != nil {
		defer watcher.Close()
	}

	logger.Info().Str("version", Version).Str("server", cfg.Server.URL).Msg("starting relay")

	program := tea.NewProgram(view, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// =============================================================================
// WIRING HELPERS
// =============================================================================

// newLogger opens the log file and returns a zerolog logger writing to it.
// The TUI owns the terminal, so logs never go to stderr.
func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	path := cfg.Log.Path
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		path = filepath.Join(dir, "relay.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return zerolog.Nop(), nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(file).With().Timestamp().Logger()
	return logger, func() { file.Close() }, nil
}

// openCache opens the sidebar summary cache. Failures are logged and the
// program runs without cache priming.
func openCache(logger zerolog.Logger) *cache.SummaryCache {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil
	}
	c, err := cache.Open(filepath.Join(dir, "summaries.db"))
	if err != nil {
		logger.Warn().Err(err).Msg("summary cache unavailable")
		return nil
	}
	return c
}

// cacheOrNil converts a possibly-nil concrete cache into the engine's
// interface without wrapping a typed nil.
func cacheOrNil(c *cache.SummaryCache) session.SummaryCache {
	if c == nil {
		return nil
	}
	return c
}

// watchConfig hot-reloads the log level when the config file changes.
func watchConfig(configPath string, logger zerolog.Logger) *config.Watcher {
	path := configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil
		}
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	watcher, err := config.NewWatcher(path, 0, func(cfg *config.Config) {
		if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
			zerolog.SetGlobalLevel(level)
			logger.Info().Str("level", cfg.Log.Level).Msg("log level reloaded")
		}
	})
	if err != nil {
		logger.Warn().Err(err).Msg("config watcher unavailable")
		return nil
	}
	if err := watcher.Watch(); err != nil {
		watcher.Close()
		return nil
	}
	return watcher
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

// handleLogin stores a session token for later runs.
func handleLogin(args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		fmt.Print("Paste session token: ")
		if _, err := fmt.Scanln(&token); err != nil {
			return fmt.Errorf("no token provided")
		}
	}
	token = strings.TrimSpace(token)

	tokens, err := auth.NewTokenSource("")
	if err != nil {
		return err
	}
	if err := tokens.Save(token); err != nil {
		return err
	}
	fmt.Println("Token saved.")
	return nil
}

// handleLogout removes the stored session token.
func handleLogout() error {
	tokens, err := auth.NewTokenSource("")
	if err != nil {
		return err
	}
	if err := tokens.Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
