// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package activitytracker

import (
	a2a "github.com/go-a2a/a2a-samples"
)

// DefaultPort is the port the activity tracker listens on by default.
const DefaultPort = 10002

// Card returns the agent card published at url.
func Card(url string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:        "Activity Tracker Agent",
		Description: "This agent helps track your activities and save them to an Excel file.",
		URL:         url,
		Version:     "1.0.0",
		Capabilities: a2a.AgentCapabilities{
			Streaming:         true,
			PushNotifications: true,
		},
		DefaultInputModes:  SupportedContentTypes,
		DefaultOutputModes: SupportedContentTypes,
		Skills: []a2a.AgentSkill{{
			ID:          "track_activity",
			Name:        "Track Activity Tool",
			Description: "Helps with tracking activities and saving them to an Excel file.",
			Tags:        []string{"activity", "tracker", "excel"},
			Examples:    []string{"Can you add a new task for me?", "Save my activities to a file."},
		}},
	}
}
