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

	a2a "github.com/go-a2a/a2a-samples"
)

// AgentCardPath is where agents publish their card.
const AgentCardPath = "/.well-known/agent.json"

// CardResolver fetches agent cards.
type CardResolver struct {
	baseURL    string
	httpClient *http.Client
}

// NewCardResolver returns a resolver for the agent served at baseURL.
func NewCardResolver(baseURL string, httpClient *http.Client) *CardResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CardResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetAgentCard fetches and validates the agent card.
func (r *CardResolver) GetAgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+AgentCardPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build agent card request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	card := new(a2a.AgentCard)
	if err := json.UnmarshalRead(resp.Body, card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}
	return card, nil
}
