// Package main is the entry point for the hookstorm IRC client.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dshills/hookstorm/internal/config"
	"github.com/dshills/hookstorm/internal/irchost"
	"github.com/dshills/hookstorm/internal/logging"
	"github.com/dshills/hookstorm/internal/script"
	"github.com/dshills/hookstorm/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	server     string
	nick       string
	logLevel   string
	offline    bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("hookstorm %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	if opts.server != "" {
		cfg.Server.Addr = opts.server
	}
	if opts.nick != "" {
		cfg.Server.Nick = opts.nick
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.offline {
		cfg.Server.Addr = ""
	}

	log := logging.New(nil, cfg.LogLevel)
	host := irchost.New(cfg, log)
	bridge := script.New(host, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	// Activation runs as the loop's first task so every script callback,
	// including autoload, happens on the event-loop goroutine.
	host.Post(func() {
		if err := bridge.Activate(); err != nil {
			log.Error().Err(err).Msg("scripting bridge failed to activate")
		}
	})

	if cfg.AutoReload {
		watcher, err := startAutoReload(cfg, host, bridge, log)
		if err != nil {
			log.Warn().Err(err).Msg("auto-reload disabled")
		} else {
			defer watcher.Close()
		}
	}

	// Read user input until stdin closes.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			host.HandleInput(scanner.Text())
		}
		cancel()
	}()

	err = host.Run(ctx)
	bridge.Deactivate()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// startAutoReload watches the addon directory and reloads any loaded script
// whose file changes, on the event loop.
func startAutoReload(cfg config.Config, host *irchost.Host, bridge *script.Bridge, log *logging.Logger) (*watch.Watcher, error) {
	dir := cfg.AddonDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return watch.New(dir, script.Extension, func(path string) {
		host.Post(func() {
			if bridge.Reload(path) {
				host.Print("Reloaded " + filepath.Base(path))
			}
		})
	}, log)
}

func parseFlags() (options, bool) {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.server, "server", "", "IRC server address (overrides config)")
	flag.StringVar(&opts.nick, "nick", "", "IRC nick (overrides config)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.offline, "offline", false, "Run without connecting to a server")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Hookstorm - IRC client with Lua scripting\n\n")
		fmt.Fprintf(os.Stderr, "Usage: hookstorm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return opts, showVersion
}
