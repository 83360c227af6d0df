// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Command seller runs a pizza or burger seller agent.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/auth"
	"github.com/go-a2a/a2a-purchasing/internal/config"
	"github.com/go-a2a/a2a-purchasing/internal/logger"
	"github.com/go-a2a/a2a-purchasing/internal/seller"
	"github.com/go-a2a/a2a-purchasing/internal/telemetry"
	"github.com/go-a2a/a2a-purchasing/push"
	"github.com/go-a2a/a2a-purchasing/server"
	"github.com/go-a2a/a2a-purchasing/server/task"
)

func init() {
	uuid.EnableRandPool()
}

// CLI defines the command-line interface.
type CLI struct {
	Serve ServeCmd `cmd:"" default:"withargs" help:"Start the seller agent."`
	Card  CardCmd  `cmd:"" help:"Print the agent card."`

	Config string   `short:"c" help:"Path to the seller config file." type:"path" required:""`
	Env    []string `help:"Dotenv files loaded before the config is read." default:".env.local,.env"`
}

// ServeCmd starts the seller agent.
type ServeCmd struct {
	Listen string `help:"Override the listen address."`
}

// Run implements the serve command.
func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.Listen = c.Listen
	}

	log, err := logger.Init(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, cfg.Telemetry, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Error("telemetry shutdown", "error", err)
		}
	}()

	profile, err := seller.Lookup(cfg.Agent)
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithLogger(log)}
	if h := tel.MetricsHandler(); h != nil {
		opts = append(opts, server.WithMetricsHandler(h))
	}

	card := profile.Card(cfg.PublicURL, cfg.Auth.Scheme)
	creds, err := cfg.Auth.Credentials()
	if err != nil {
		return err
	}
	gate, err := auth.NewGate(card.Schemes(), creds, auth.WithGateLogger(log))
	if err != nil {
		return err
	}
	opts = append(opts, server.WithGate(gate))

	var sender *push.Sender
	if cfg.Push.Enabled {
		keys, err := push.NewKeyManager()
		if err != nil {
			return err
		}
		sender = push.NewSender(keys, push.WithLogger(log), push.WithDeliveryTimeout(cfg.Push.DeliveryTimeout))
		opts = append(opts, server.WithKeyManager(keys))
	}

	store := task.NewInMemoryStore(task.WithLogger(log))
	desk := profile.NewDesk(seller.WithLogger(log))
	tm := server.NewExecutorTaskManager(store, desk, sender).WithLogger(log)

	srv, err := server.NewServer(card, tm, opts...)
	if err != nil {
		return err
	}

	hs := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("seller agent listening", "agent", profile.Name, "addr", cfg.Listen, "url", cfg.PublicURL)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", "agent", profile.Name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	err = hs.Shutdown(shutdownCtx)
	if sender != nil {
		err = errors.Join(err, sender.Close(shutdownCtx))
	}
	return err
}

// CardCmd prints the agent card the seller would serve.
type CardCmd struct{}

// Run implements the card command.
func (c *CardCmd) Run(cli *CLI) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}
	profile, err := seller.Lookup(cfg.Agent)
	if err != nil {
		return err
	}
	card := profile.Card(cfg.PublicURL, cfg.Auth.Scheme)
	card.Capabilities = a2a.AgentCapabilities{Streaming: true, PushNotifications: cfg.Push.Enabled}
	return writeCard(os.Stdout, card)
}

func (cli *CLI) load() (*config.SellerConfig, error) {
	if err := config.LoadEnvFiles(cli.Env...); err != nil {
		return nil, err
	}
	return config.LoadSeller(cli.Config)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("seller"),
		kong.Description("A2A seller agent for the purchasing concierge demo."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		slog.Error("seller failed", "error", err)
		os.Exit(1)
	}
}
