// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/auth"
	"github.com/go-a2a/a2a-purchasing/orchestrator"
	"github.com/go-a2a/a2a-purchasing/server"
	"github.com/go-a2a/a2a-purchasing/server/agent_execution"
	"github.com/go-a2a/a2a-purchasing/server/task"
)

type remote struct {
	srv   *httptest.Server
	store *task.InMemoryStore
	creds auth.Credentials
}

func newRemote(t *testing.T, name, scheme, secret string, exec agent_execution.Executor) *remote {
	t.Helper()

	creds, err := auth.ParseCredentials(scheme, secret)
	require.NoError(t, err)
	gate, err := auth.NewGate([]string{scheme}, creds)
	require.NoError(t, err)

	store := task.NewInMemoryStore()
	card := &a2a.AgentCard{
		Name:           name,
		Description:    "Sells food for " + name,
		URL:            "http://localhost/",
		Version:        "1.0.0",
		Authentication: &a2a.AgentAuthentication{Schemes: []string{scheme}},
	}
	s, err := server.NewServer(card, server.NewExecutorTaskManager(store, exec, nil), server.WithGate(gate))
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &remote{srv: srv, store: store, creds: creds}
}

// confirmingSeller asks for confirmation until it receives "yes".
var confirmingSeller = agent_execution.ExecutorFunc(func(ctx context.Context, query, sessionID string) (agent_execution.Result, error) {
	if query == "yes" {
		return agent_execution.Result{IsComplete: true, Content: "order placed: PZ-1"}, nil
	}
	return agent_execution.Result{RequireUserInput: true, Content: "2 margherita, total 24.00 USD. confirm?"}, nil
})

func setup(t *testing.T, opts ...orchestrator.Option) (*orchestrator.Orchestrator, *remote, *remote) {
	t.Helper()
	pizza := newRemote(t, "pizza_seller_agent", "bearer", "secret123", confirmingSeller)
	burger := newRemote(t, "burger_seller_agent", "basic", "burgeruser:burgerpass", agent_execution.EchoExecutor{})

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	opts = append(opts, orchestrator.WithCredentials(map[string]auth.Credentials{
		"pizza_seller_agent":  pizza.creds,
		"burger_seller_agent": burger.creds,
	}))
	o, err := orchestrator.New(context.Background(), []string{pizza.srv.URL, down.URL, burger.srv.URL}, opts...)
	require.NoError(t, err)
	return o, pizza, burger
}

func TestDiscoveryExcludesUnreachable(t *testing.T) {
	o, _, _ := setup(t)

	assert.Equal(t, []orchestrator.AgentInfo{
		{Name: "burger_seller_agent", Description: "Sells food for burger_seller_agent"},
		{Name: "pizza_seller_agent", Description: "Sells food for pizza_seller_agent"},
	}, o.ListRemoteAgents())

	card, ok := o.Card("pizza_seller_agent")
	require.True(t, ok)
	assert.Equal(t, []string{"bearer"}, card.Schemes())
}

func TestDiscoveryExcludesCardsWithoutOneScheme(t *testing.T) {
	serve := func(card *a2a.AgentCard) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.MarshalWrite(w, card)
		}))
		t.Cleanup(srv.Close)
		return srv
	}
	open := serve(&a2a.AgentCard{Name: "open_seller_agent", URL: "http://localhost/"})
	both := serve(&a2a.AgentCard{
		Name:           "both_seller_agent",
		URL:            "http://localhost/",
		Authentication: &a2a.AgentAuthentication{Schemes: []string{"bearer", "basic"}},
	})

	o, err := orchestrator.New(context.Background(), []string{open.URL, both.URL})
	require.NoError(t, err)
	assert.Empty(t, o.ListRemoteAgents())
}

func TestSendTaskConversation(t *testing.T) {
	ctx := context.Background()
	o, pizza, _ := setup(t)
	sess := orchestrator.NewSessionStore().Get("conv-1")

	got, err := o.SendTask(ctx, "pizza_seller_agent", "2 margherita, confirm total", sess)
	require.NoError(t, err)
	assert.Equal(t, []string{"2 margherita, total 24.00 USD. confirm?"}, got)
	assert.True(t, sess.Active)
	assert.True(t, sess.Escalate)
	assert.Equal(t, "pizza_seller_agent", sess.ActiveAgent)
	assert.Equal(t, "pizza_seller_agent", sess.CurrentAgent())
	require.NotEmpty(t, sess.TaskID)
	taskID := sess.TaskID

	got, err = o.SendTask(ctx, "pizza_seller_agent", "yes", sess)
	require.NoError(t, err)
	assert.Equal(t, []string{"order placed: PZ-1"}, got)
	assert.False(t, sess.Active)
	assert.False(t, sess.Escalate)
	assert.Empty(t, sess.ActiveAgent)
	assert.Empty(t, sess.TaskID)
	assert.Empty(t, sess.CurrentAgent())

	stored, err := pizza.store.Get(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, a2a.TaskStateCompleted, stored.Status.State)
	require.Len(t, stored.History, 3, "both turns continue the same task")
	assert.Equal(t, sess.SessionID, stored.SessionID)
}

func TestSendTaskCompletesImmediately(t *testing.T) {
	o, _, _ := setup(t)
	sess := orchestrator.NewSessionStore().Get("conv-1")

	got, err := o.SendTask(context.Background(), "burger_seller_agent", "1 classic cheeseburger", sess)
	require.NoError(t, err)
	assert.Equal(t, []string{"1 classic cheeseburger"}, got)
	assert.False(t, sess.Active)
	assert.False(t, sess.Escalate)
	assert.Empty(t, sess.ActiveAgent)
	assert.Empty(t, sess.TaskID)
}

func TestSendTaskRendersUnsupportedParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.MarshalWrite(w, &a2a.AgentCard{
				Name:           "gift_seller_agent",
				URL:            "http://localhost/",
				Authentication: &a2a.AgentAuthentication{Schemes: []string{"bearer"}},
			})
			return
		}
		body, _ := io.ReadAll(r.Body)
		req, err := a2a.ParseRequest(body)
		if err != nil {
			t.Errorf("ParseRequest failed: %v", err)
			return
		}
		_ = json.MarshalWrite(w, a2a.NewResponse(req.RequestID(), &a2a.Task{
			ID:     "t1",
			Status: a2a.TaskStatus{State: a2a.TaskStateCompleted},
			Artifacts: []a2a.Artifact{{Parts: []a2a.Part{
				a2a.NewTextPart("gift card issued"),
				a2a.NewDataPart(map[string]any{"code": "XYZ"}),
			}}},
		}))
	}))
	defer srv.Close()

	o, err := orchestrator.New(context.Background(), []string{srv.URL})
	require.NoError(t, err)

	got, err := o.SendTask(context.Background(), "gift_seller_agent", "one gift card", orchestrator.NewSessionStore().Get("c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"gift card issued", "unsupported part type: data"}, got)
}

func TestSendTaskOutgoingMetadata(t *testing.T) {
	ctx := context.Background()
	var seen *a2a.Task
	o, pizza, _ := setup(t, orchestrator.WithTaskCallback(func(task *a2a.Task, card *a2a.AgentCard) {
		seen = task
	}))
	sess := orchestrator.NewSessionStore().Get("conv-1")
	sess.InputMetadata = map[string]any{"message_id": "m1", "channel": "cli"}

	_, err := o.SendTask(ctx, "pizza_seller_agent", "2 margherita", sess)
	require.NoError(t, err)

	stored, err := pizza.store.Get(ctx, sess.TaskID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.History)
	assert.Equal(t, map[string]any{
		"message_id":      "m1",
		"channel":         "cli",
		"conversation_id": sess.SessionID,
	}, stored.History[0].Metadata)

	require.NotNil(t, seen)
	assert.Equal(t, map[string]any{"conversation_id": sess.SessionID}, seen.Metadata)
	md := seen.Status.Message.Metadata
	assert.Equal(t, "m1", md["last_message_id"])
	assert.NotEqual(t, "m1", md["message_id"])
	assert.Equal(t, sess.SessionID, md["conversation_id"])
}

func TestSendTaskUnknownAgent(t *testing.T) {
	o, _, _ := setup(t)
	sess := orchestrator.NewSessionStore().Get("conv-1")
	sess.ActiveAgent = "pizza_seller_agent"
	sess.TaskID = "t-open"
	sess.Active = true
	before := snapshot(sess)

	_, err := o.SendTask(context.Background(), "sushi_seller_agent", "1 salmon roll", sess)
	require.ErrorIs(t, err, a2a.ErrUnknownAgent)

	var unknown *a2a.UnknownAgentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "sushi_seller_agent", unknown.Name)
	assert.Equal(t, before, snapshot(sess))
}

func TestSendTaskRemoteFailureKeepsSessionConsistent(t *testing.T) {
	o, pizza, _ := setup(t)
	sess := orchestrator.NewSessionStore().Get("conv-1")
	pizza.srv.Close()

	_, err := o.SendTask(context.Background(), "pizza_seller_agent", "2 margherita", sess)
	require.Error(t, err)
	assert.ErrorIs(t, err, a2a.ErrUnreachableRemote)

	assert.Equal(t, "pizza_seller_agent", sess.ActiveAgent, "the agent is recorded when the call starts")
	assert.Empty(t, sess.TaskID, "no task id is committed for a failed call")
	assert.False(t, sess.Active)
}

type sessionState struct {
	SessionID, ActiveAgent, TaskID string
	Active, Escalate               bool
}

func snapshot(s *orchestrator.Session) sessionState {
	return sessionState{
		SessionID:   s.SessionID,
		ActiveAgent: s.ActiveAgent,
		TaskID:      s.TaskID,
		Active:      s.Active,
		Escalate:    s.Escalate,
	}
}

func TestSessionStore(t *testing.T) {
	store := orchestrator.NewSessionStore()

	a := store.Get("a")
	assert.Same(t, a, store.Get("a"))
	assert.NotEmpty(t, a.SessionID)
	assert.NotEqual(t, a.SessionID, store.Get("b").SessionID)
	assert.Equal(t, 2, store.Len())

	store.Delete("a")
	assert.Equal(t, 1, store.Len())
	assert.NotSame(t, a, store.Get("a"))
}
