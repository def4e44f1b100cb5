// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package calendar

import (
	a2a "github.com/go-a2a/a2a-samples"
)

// DefaultPort is the port the calendar agent listens on by default.
const DefaultPort = 10000

// Card returns the agent card published at url.
func Card(url string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:        "Calendar Agent",
		Description: "Helps you track and plan your day using your Google Calendar.",
		URL:         url,
		Version:     "1.0.0",
		Capabilities: a2a.AgentCapabilities{
			Streaming:         true,
			PushNotifications: true,
		},
		DefaultInputModes:  SupportedContentTypes,
		DefaultOutputModes: SupportedContentTypes,
		Skills: []a2a.AgentSkill{{
			ID:          "calendar_tracking",
			Name:        "Calendar & Day Planner",
			Description: "Helps you track, view, and summarize your Google Calendar events and daily schedule.",
			Tags:        []string{"calendar", "day planner", "schedule", "events"},
			Examples:    []string{"What are my events today?", "Show my next 10 meetings.", "What's on my calendar tomorrow?"},
		}},
	}
}
