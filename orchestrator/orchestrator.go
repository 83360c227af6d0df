// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator routes conversational turns to remote seller agents.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/auth"
	"github.com/go-a2a/a2a-purchasing/client"
)

const instrumentationName = "github.com/go-a2a/a2a-purchasing/orchestrator"

// AcceptedOutputModes are requested from every remote.
var AcceptedOutputModes = []string{"text", "text/plain"}

// AgentInfo is the public description of a remote agent.
type AgentInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Orchestrator holds one connection per discovered remote agent.
type Orchestrator struct {
	conns map[string]*client.RemoteAgentConnection

	credentials map[string]auth.Credentials
	callback    client.TaskCallback
	hc          *http.Client
	clientOpts  []client.Option
	logger      *slog.Logger
	tracer      trace.Tracer
}

// New discovers the agent card at every address and returns an orchestrator
// routing to the agents that answered.
//
// An unreachable address is logged and left out of the routing table; New
// itself fails only on a canceled ctx.
func New(ctx context.Context, addresses []string, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		conns:  make(map[string]*client.RemoteAgentConnection),
		hc:     http.DefaultClient,
		logger: slog.Default(),
		tracer: otel.GetTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(o)
	}

	ctx, span := o.tracer.Start(ctx, "a2a.orchestrator.discover")
	defer span.End()

	cards := make([]*a2a.AgentCard, len(addresses))
	g, gctx := errgroup.WithContext(ctx)
	for i, address := range addresses {
		g.Go(func() error {
			card, err := client.NewCardResolver(address, o.hc).GetAgentCard(gctx)
			if err != nil {
				err = &a2a.UnreachableRemoteError{Address: address, Err: err}
				o.logger.ErrorContext(gctx, "failed to get agent card", "address", address, "error", err)
				return nil
			}
			cards[i] = card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discover remote agents: %w", err)
	}

	// Registration follows address order so duplicate names resolve the same way every run.
	for i, card := range cards {
		if card == nil {
			continue
		}
		if _, dup := o.conns[card.Name]; dup {
			o.logger.WarnContext(ctx, "duplicate agent name ignored", "agent", card.Name, "address", addresses[i])
			continue
		}
		if !client.SupportsOutputModes(card, AcceptedOutputModes) {
			o.logger.WarnContext(ctx, "remote agent declares no text output mode", "agent", card.Name, "modes", card.DefaultOutputModes)
		}
		clientOpts := append([]client.Option{client.WithHTTPClient(o.hc), client.WithLogger(o.logger)}, o.clientOpts...)
		o.conns[card.Name] = client.NewRemoteAgentConnection(card, addresses[i], o.credentials[card.Name], clientOpts...)
		o.logger.InfoContext(ctx, "remote agent registered", "agent", card.Name, "address", addresses[i])
	}
	span.SetAttributes(attribute.Int("a2a.remote_agents", len(o.conns)))

	return o, nil
}

// ListRemoteAgents returns the registered agents sorted by name.
func (o *Orchestrator) ListRemoteAgents() []AgentInfo {
	names := slices.Sorted(maps.Keys(o.conns))
	out := make([]AgentInfo, 0, len(names))
	for _, name := range names {
		card := o.conns[name].Card()
		out = append(out, AgentInfo{Name: card.Name, Description: card.Description})
	}
	return out
}

// Card returns the agent card of name.
func (o *Orchestrator) Card(name string) (*a2a.AgentCard, bool) {
	conn, ok := o.conns[name]
	if !ok {
		return nil, false
	}
	return conn.Card(), true
}

// Connection returns the connection to name.
func (o *Orchestrator) Connection(name string) (*client.RemoteAgentConnection, bool) {
	conn, ok := o.conns[name]
	return conn, ok
}

// SendTask sends text to agentName as one turn of sess and returns the
// remote's reply flattened to strings: the status message parts first, then
// every artifact part.
//
// An unknown agent fails with [*a2a.UnknownAgentError] and leaves sess
// untouched. A failed call records the agent as active but keeps the task id,
// so the next turn retries cleanly.
func (o *Orchestrator) SendTask(ctx context.Context, agentName, text string, sess *Session) ([]string, error) {
	ctx, span := o.tracer.Start(ctx, "a2a.orchestrator.send_task",
		trace.WithAttributes(attribute.String("a2a.agent", agentName)))
	defer span.End()

	conn, ok := o.conns[agentName]
	if !ok {
		err := &a2a.UnknownAgentError{Name: agentName}
		span.RecordError(err)
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.ActiveAgent = agentName

	taskID := sess.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}
	if sess.SessionID == "" {
		sess.SessionID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("a2a.task_id", taskID))

	metadata := a2a.CloneMetadata(sess.InputMetadata)
	messageID, _ := metadata[a2a.MetadataMessageID].(string)
	if messageID == "" {
		messageID = uuid.NewString()
	}
	metadata = a2a.MergeMetadata(metadata, map[string]any{
		a2a.MetadataConversationID: sess.SessionID,
		a2a.MetadataMessageID:      messageID,
	})

	params := a2a.TaskSendParams{
		ID:        taskID,
		SessionID: sess.SessionID,
		Message: a2a.Message{
			Role:     a2a.RoleUser,
			Parts:    []a2a.Part{a2a.NewTextPart(text)},
			Metadata: metadata,
		},
		AcceptedOutputModes: AcceptedOutputModes,
		Metadata:            map[string]any{a2a.MetadataConversationID: sess.SessionID},
	}

	t, err := conn.SendTask(ctx, params, o.callback)
	if err != nil {
		span.RecordError(err)
		o.logger.ErrorContext(ctx, "send task failed", "agent", agentName, "task_id", taskID, "error", err)
		return nil, fmt.Errorf("send task to %s: %w", agentName, err)
	}

	state := t.Status.State
	sess.Active = !state.IsTerminal()
	sess.Escalate = state == a2a.TaskStateInputRequired
	if sess.Active {
		sess.TaskID = t.ID
	} else {
		sess.TaskID = ""
	}
	if state == a2a.TaskStateCompleted {
		sess.ActiveAgent = ""
	}
	o.logger.InfoContext(ctx, "turn finished", "agent", agentName, "task_id", t.ID, "state", state)

	var out []string
	if t.Status.Message != nil {
		out = append(out, a2a.RenderParts(t.Status.Message.Parts)...)
	}
	for _, a := range t.Artifacts {
		out = append(out, a2a.RenderParts(a.Parts)...)
	}
	return out, nil
}
