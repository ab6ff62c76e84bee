// Package irchost implements the native plugin API over an IRC connection.
// All hook dispatch, timer fire, and input handling runs on one event-loop
// goroutine; girc handlers and timers post closures onto that loop, which
// preserves the single-threaded callback model scripts rely on.
package irchost

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/girc"

	"github.com/dshills/hookstorm/internal/config"
	"github.com/dshills/hookstorm/internal/logging"
)

// ClientVersion is reported for CTCP VERSION and Info("version").
const ClientVersion = "1.0"

// Host is the hostapi.Host implementation. Its registries are only touched
// from the event-loop goroutine: hook registration happens inside script
// callbacks, which themselves run on the loop.
type Host struct {
	cfg    config.Config
	log    *logging.Logger
	client *girc.Client
	sink   func(string)

	loop chan func()

	channel string // current conversation context

	registry
	entries
}

// Option configures a Host.
type Option func(*Host)

// WithSink redirects user-visible output away from stdout.
func WithSink(sink func(string)) Option {
	return func(h *Host) {
		h.sink = sink
	}
}

// New creates a Host from configuration. When the server address is empty
// the host runs offline: input and timers work, nothing connects.
func New(cfg config.Config, log *logging.Logger, opts ...Option) *Host {
	h := &Host{
		cfg:  cfg,
		log:  log.Sub("irchost"),
		sink: func(s string) { fmt.Println(s) },
		loop: make(chan func(), 256),
	}
	h.registry.init()
	h.entries.init()
	for _, opt := range opts {
		opt(h)
	}

	if cfg.Server.Addr != "" {
		h.client = girc.New(h.gircConfig())
		h.client.Handlers.Add(girc.CONNECTED, h.onConnected)
		h.client.Handlers.Add(girc.ALL_EVENTS, h.onRawEvent)
	}
	return h
}

func (h *Host) gircConfig() girc.Config {
	cfg := h.cfg.Server
	port := cfg.Port
	if port == 0 {
		if cfg.UseTLS {
			port = 6697
		} else {
			port = 6667
		}
	}

	gc := girc.Config{
		Server:  cfg.Addr,
		Port:    port,
		Nick:    cfg.Nick,
		User:    cfg.Nick,
		Name:    "Hookstorm",
		SSL:     cfg.UseTLS,
		Version: "Hookstorm/" + ClientVersion,
	}
	if cfg.UseTLS {
		gc.TLSConfig = &tls.Config{ServerName: cfg.Addr}
	}
	if cfg.SASL && cfg.Password != "" {
		gc.SASL = &girc.SASLPlain{User: cfg.Nick, Pass: cfg.Password}
	} else if cfg.Password != "" {
		gc.ServerPass = cfg.Password
	}
	return gc
}

// Run drives the event loop until ctx is canceled. The IRC connection, when
// configured, runs concurrently and feeds events into the loop.
func (h *Host) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	if h.client != nil {
		h.log.Info().
			Str("server", h.cfg.Server.Addr).
			Str("nick", h.cfg.Server.Nick).
			Bool("tls", h.cfg.Server.UseTLS).
			Msg("connecting")
		go func() {
			errCh <- h.client.Connect()
		}()
	}

	for {
		select {
		case fn := <-h.loop:
			fn()
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("irc connect: %w", err)
			}
			return nil
		case <-ctx.Done():
			if h.client != nil && h.client.IsConnected() {
				h.client.Quit("bye")
				h.client.Close()
			}
			h.stopTimers()
			return ctx.Err()
		}
	}
}

// Post enqueues fn onto the event loop.
func (h *Host) Post(fn func()) {
	h.loop <- fn
}

// Print writes a line to the user's active context.
func (h *Host) Print(text string) {
	h.sink(text)
}

// Info returns a host info string.
func (h *Host) Info(name string) string {
	switch name {
	case "channel":
		return h.channel
	case "nick":
		if h.client != nil && h.client.IsConnected() {
			return h.client.GetNick()
		}
		return h.cfg.Server.Nick
	case "server":
		return h.cfg.Server.Addr
	case "configdir":
		return h.cfg.ConfigDir
	case "libdirfs":
		if exe, err := os.Executable(); err == nil {
			return filepath.Dir(exe)
		}
		return ""
	case "version":
		return ClientVersion
	default:
		return ""
	}
}

func (h *Host) onConnected(_ *girc.Client, e girc.Event) {
	h.Post(func() {
		h.Print("Connected to " + h.cfg.Server.Addr)
	})
}

// onRawEvent fires for every protocol line girc parses. The event crosses
// onto the loop goroutine before any hook sees it.
func (h *Host) onRawEvent(_ *girc.Client, e girc.Event) {
	h.Post(func() {
		h.handleServerEvent(e)
	})
}

// handleServerEvent runs server hooks for the raw line, then synthesizes the
// text events scripts commonly hook.
func (h *Host) handleServerEvent(e girc.Event) {
	eaten := h.dispatchServer(e)

	if e.Command == girc.PRIVMSG && e.Source != nil && !eaten {
		nick := e.Source.Name
		text := e.Last()
		if e.IsFromChannel() {
			if !h.emitPrint("Channel Message", e.Tags, nick, text) {
				h.Print(fmt.Sprintf("%s <%s> %s", e.Params[0], nick, text))
			}
		} else {
			if !h.emitPrint("Private Message", e.Tags, nick, text) {
				h.Print(fmt.Sprintf("*%s* %s", nick, text))
			}
		}
	}
}

func (h *Host) sendMessage(target, text string) {
	if target == "" {
		h.Print("No conversation is active. /QUERY or /JOIN one first")
		return
	}
	if strings.HasPrefix(target, ">>") {
		// Pseudo-windows never reach the wire.
		return
	}
	if h.client == nil || !h.client.IsConnected() {
		h.Print("Not connected")
		return
	}
	h.client.Cmd.Message(target, text)
	h.Print(fmt.Sprintf("%s <%s> %s", target, h.Info("nick"), text))
}
