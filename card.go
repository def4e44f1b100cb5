// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import "errors"

// AgentProvider represents the service provider of an agent.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitzero"`
}

// AgentCapabilities describes the optional protocol features an agent supports.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitzero"`
	PushNotifications      bool `json:"pushNotifications,omitzero"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitzero"`
}

// AgentAuthentication names the schemes a client must use against the agent.
type AgentAuthentication struct {
	Schemes     []string `json:"schemes"`
	Credentials string   `json:"credentials,omitzero"`
}

// AgentSkill represents a unit of capability that an agent can perform.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitzero"`
	Tags        []string `json:"tags,omitzero"`
	Examples    []string `json:"examples,omitzero"`
	InputModes  []string `json:"inputModes,omitzero"`
	OutputModes []string `json:"outputModes,omitzero"`
}

// AgentCard conveys key information about an agent, served at /.well-known/agent.json.
type AgentCard struct {
	Name               string               `json:"name"`
	Description        string               `json:"description,omitzero"`
	URL                string               `json:"url"`
	Provider           *AgentProvider       `json:"provider,omitzero"`
	Version            string               `json:"version"`
	DocumentationURL   string               `json:"documentationUrl,omitzero"`
	Capabilities       AgentCapabilities    `json:"capabilities"`
	Authentication     *AgentAuthentication `json:"authentication,omitzero"`
	DefaultInputModes  []string             `json:"defaultInputModes"`
	DefaultOutputModes []string             `json:"defaultOutputModes"`
	Skills             []AgentSkill         `json:"skills"`
}

// Validate checks the fields a client needs to reach the agent.
func (c *AgentCard) Validate() error {
	switch {
	case c.Name == "":
		return errors.New("agent card name cannot be empty")
	case c.URL == "":
		return errors.New("agent card url cannot be empty")
	case c.Version == "":
		return errors.New("agent card version cannot be empty")
	case len(c.Skills) == 0:
		return errors.New("agent card must declare at least one skill")
	}
	return nil
}
