// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import "fmt"

// Artifact represents an output generated during a task.
//
// When Append is set the artifact extends an earlier one with the same Index.
type Artifact struct {
	Name        string         `json:"name,omitzero"`
	Description string         `json:"description,omitzero"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitzero"`
	Index       int            `json:"index"`
	Append      bool           `json:"append,omitzero"`
	LastChunk   bool           `json:"lastChunk,omitzero"`
}

// NewArtifact returns an artifact at index 0 holding parts.
func NewArtifact(parts ...Part) Artifact {
	return Artifact{Parts: parts}
}

// Validate checks the artifact has at least one valid part.
func (a Artifact) Validate() error {
	if len(a.Parts) == 0 {
		return fmt.Errorf("artifact must have at least one part")
	}
	if a.Index < 0 {
		return fmt.Errorf("artifact index cannot be negative: %d", a.Index)
	}
	for i, p := range a.Parts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("artifact part %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of a.
func (a Artifact) Clone() Artifact {
	c := a
	c.Parts = cloneParts(a.Parts)
	c.Metadata = cloneMap(a.Metadata)
	return c
}
