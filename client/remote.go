// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/auth"
)

// TaskCallback observes every task returned by a remote.
type TaskCallback func(task *a2a.Task, card *a2a.AgentCard)

// RemoteAgentConnection is the orchestrator's handle on one remote agent.
type RemoteAgentConnection struct {
	card   *a2a.AgentCard
	client *Client
}

// NewRemoteAgentConnection returns a connection to the agent described by
// card, served at url and authenticated with creds.
func NewRemoteAgentConnection(card *a2a.AgentCard, url string, creds auth.Credentials, opts ...Option) *RemoteAgentConnection {
	opts = append(opts, WithCredentials(creds))
	return &RemoteAgentConnection{
		card:   card,
		client: NewClient(url, opts...),
	}
}

// Card returns the agent card of the remote.
func (c *RemoteAgentConnection) Card() *a2a.AgentCard {
	return c.card
}

// Client returns the underlying A2A client.
func (c *RemoteAgentConnection) Client() *Client {
	return c.client
}

// SendTask sends params to the remote and threads conversation metadata
// through the returned task.
//
// The caller's metadata wins conflicts in both the task and its status
// message. The status message id is moved to last_message_id and a new one
// is minted. callback, if set, observes the task before it is returned.
func (c *RemoteAgentConnection) SendTask(ctx context.Context, params a2a.TaskSendParams, callback TaskCallback) (*a2a.Task, error) {
	t, err := c.client.SendTask(ctx, params)
	if err != nil {
		return nil, err
	}

	t.Metadata = a2a.MergeMetadata(t.Metadata, params.Metadata)
	if msg := t.Status.Message; msg != nil {
		msg.Metadata = a2a.MergeMetadata(msg.Metadata, params.Message.Metadata)
		msg.Metadata = a2a.ChainMessageID(msg.Metadata)
	}

	if callback != nil {
		callback(t, c.card)
	}
	return t, nil
}
