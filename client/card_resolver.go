// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	a2a "github.com/go-a2a/a2a-purchasing"
)

// CardResolver fetches the agent card published by a remote agent.
type CardResolver struct {
	hc      *http.Client
	baseURL string
}

// NewCardResolver returns a resolver for the agent at baseURL.
// A nil hc uses [http.DefaultClient].
func NewCardResolver(baseURL string, hc *http.Client) *CardResolver {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &CardResolver{
		hc:      hc,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetAgentCard fetches the card from [a2a.AgentCardWellKnownPath] and validates it.
func (r *CardResolver) GetAgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	targetURL := r.baseURL + a2a.AgentCardWellKnownPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: "fetch agent card from " + targetURL}
	}

	var agentCard a2a.AgentCard
	dec := jsontext.NewDecoder(resp.Body)
	if err := json.UnmarshalDecode(dec, &agentCard, json.DefaultOptionsV2()); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	if err := ValidateAgentCard(&agentCard); err != nil {
		return nil, err
	}

	return &agentCard, nil
}
