// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Command concierge is the purchasing concierge: it discovers seller agents
// and routes a conversation to them.
package main

import (
	"cmp"
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
	"github.com/fatih/color"
	"github.com/google/uuid"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/client"
	"github.com/go-a2a/a2a-purchasing/internal/config"
	"github.com/go-a2a/a2a-purchasing/internal/logger"
	"github.com/go-a2a/a2a-purchasing/internal/telemetry"
	"github.com/go-a2a/a2a-purchasing/orchestrator"
	"github.com/go-a2a/a2a-purchasing/push"
)

func init() {
	uuid.EnableRandPool()
}

// CLI defines the command-line interface.
type CLI struct {
	Agents AgentsCmd `cmd:"" help:"List the reachable remote agents."`
	Chat   ChatCmd   `cmd:"" default:"withargs" help:"Talk to the seller agents."`
	Listen ListenCmd `cmd:"" help:"Receive push notifications from a seller agent."`

	Config string   `short:"c" help:"Path to the concierge config file." type:"path" required:""`
	Env    []string `help:"Dotenv files loaded before the config is read." default:".env.local,.env"`
}

// env is the process setup shared by every command.
type env struct {
	cfg *config.ConciergeConfig
	log *slog.Logger
	tel *telemetry.Provider
}

func (cli *CLI) setup(ctx context.Context) (*env, error) {
	if err := config.LoadEnvFiles(cli.Env...); err != nil {
		return nil, err
	}
	cfg, err := config.LoadConcierge(cli.Config)
	if err != nil {
		return nil, err
	}
	log, err := logger.Init(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	tel, err := telemetry.Init(ctx, cfg.Telemetry, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, tel: tel}, nil
}

func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.tel.Shutdown(ctx); err != nil {
		e.log.Error("telemetry shutdown", "error", err)
	}
}

func (e *env) orchestrator(ctx context.Context) (*orchestrator.Orchestrator, error) {
	creds, err := e.cfg.RemoteCredentials()
	if err != nil {
		return nil, err
	}
	hc := &http.Client{Timeout: e.cfg.RequestTimeout}
	return orchestrator.New(ctx, e.cfg.Remotes,
		orchestrator.WithCredentials(creds),
		orchestrator.WithHTTPClient(hc),
		orchestrator.WithLogger(e.log),
		orchestrator.WithClientOptions(
			client.WithInterceptors(client.RetryInterceptor(client.DefaultRetryPolicy)),
		),
		orchestrator.WithTaskCallback(func(t *a2a.Task, card *a2a.AgentCard) {
			e.log.Debug("task update", "agent", card.Name, "task_id", t.ID, "state", t.Status.State)
		}),
	)
}

// AgentsCmd lists remote agents.
type AgentsCmd struct{}

// Run implements the agents command.
func (c *AgentsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	e, err := cli.setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	o, err := e.orchestrator(ctx)
	if err != nil {
		return err
	}
	agents := o.ListRemoteAgents()
	if len(agents) == 0 {
		return errors.New("no remote agent is reachable")
	}
	for _, a := range agents {
		fmt.Printf("%s\t%s\n", color.CyanString(a.Name), a.Description)
	}
	return nil
}

// ChatCmd runs the interactive concierge.
type ChatCmd struct {
	Conversation string `help:"Conversation id; a new one is generated when empty."`
}

// Run implements the chat command.
func (c *ChatCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := cli.setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	o, err := e.orchestrator(ctx)
	if err != nil {
		return err
	}

	conversation := c.Conversation
	if conversation == "" {
		conversation = uuid.NewString()
	}
	sess := orchestrator.NewSessionStore().Get(conversation)
	e.log.Debug("chat started", "conversation_id", conversation, "session_id", sess.SessionID)

	err = newREPL(o, sess, os.Stdout).run(ctx, os.Stdin)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ListenCmd runs a push notification receiver.
type ListenCmd struct {
	Listen  string `help:"Override the receiver listen address."`
	JWKSURL string `name:"jwks-url" help:"Override the JWKS URL of the sending agent."`
}

// Run implements the listen command.
func (c *ListenCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := cli.setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	addr := cmp.Or(c.Listen, e.cfg.Receiver.Listen)
	jwksURL := cmp.Or(c.JWKSURL, e.cfg.Receiver.JWKSURL)
	if jwksURL == "" {
		return errors.New("receiver.jwks_url is required")
	}

	rc := push.NewReceiver(jwksURL, func(ctx context.Context, t *a2a.Task) {
		fmt.Printf("%s %s %s\n", color.HiBlackString(time.Now().Format("15:04:05")), color.CyanString(t.ID), t.Status.State)
		if t.Status.Message != nil {
			for _, line := range a2a.RenderParts(t.Status.Message.Parts) {
				fmt.Println("  " + line)
			}
		}
	}, push.WithReceiverLogger(e.log))

	hs := &http.Server{Addr: addr, Handler: rc, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		e.log.Info("push receiver listening", "addr", addr, "jwks_url", jwksURL)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("concierge"),
		kong.Description("Purchasing concierge routing orders to A2A seller agents."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		slog.Error("concierge failed", "error", err)
		os.Exit(1)
	}
}
