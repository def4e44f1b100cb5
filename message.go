// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"slices"
	"strings"
)

// PartType discriminates the content held by a [Part].
type PartType string

const (
	// PartTypeText is a plain text part.
	PartTypeText PartType = "text"

	// PartTypeFile is a file part, carried inline as base64 bytes or by URI.
	PartTypeFile PartType = "file"

	// PartTypeData is a structured JSON object part.
	PartTypeData PartType = "data"
)

// FileContent is the payload of a file [Part]. Exactly one of Bytes or URI is set.
type FileContent struct {
	Name     string `json:"name,omitzero"`
	MimeType string `json:"mimeType,omitzero"`
	Bytes    string `json:"bytes,omitzero"`
	URI      string `json:"uri,omitzero"`
}

// Part represents a part of a message or artifact. It can be text, a file, or data.
type Part struct {
	Type     PartType       `json:"type"`
	Text     string         `json:"text,omitzero"`
	File     *FileContent   `json:"file,omitzero"`
	Data     map[string]any `json:"data,omitzero"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// NewTextPart returns a text [Part].
func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// NewDataPart returns a data [Part] holding data.
func NewDataPart(data map[string]any) Part {
	return Part{Type: PartTypeData, Data: data}
}

// NewFilePart returns a file [Part].
func NewFilePart(file FileContent) Part {
	return Part{Type: PartTypeFile, File: &file}
}

// Validate checks the part carries the payload its type names.
func (p Part) Validate() error {
	switch p.Type {
	case PartTypeText:
		return nil
	case PartTypeData:
		if p.Data == nil {
			return fmt.Errorf("data part data cannot be nil")
		}
		return nil
	case PartTypeFile:
		if p.File == nil {
			return fmt.Errorf("file part file cannot be nil")
		}
		if (p.File.Bytes == "") == (p.File.URI == "") {
			return fmt.Errorf("file part must set exactly one of bytes or uri")
		}
		return nil
	default:
		return fmt.Errorf("unknown part type: %q", p.Type)
	}
}

// Clone returns a copy of p that shares no maps or slices with it.
func (p Part) Clone() Part {
	c := p
	if p.File != nil {
		f := *p.File
		c.File = &f
	}
	c.Data = cloneMap(p.Data)
	c.Metadata = cloneMap(p.Metadata)
	return c
}

// Message represents a message in a task, which can be from a user or agent.
type Message struct {
	Role     Role           `json:"role"`
	Parts    []Part         `json:"parts"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// NewAgentTextMessage returns an agent [Message] with a single text part.
func NewAgentTextMessage(text string) *Message {
	return &Message{
		Role:  RoleAgent,
		Parts: []Part{NewTextPart(text)},
	}
}

// Validate checks the role and every part of m.
func (m Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAgent {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("message must have at least one part")
	}
	for i, p := range m.Parts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := &Message{
		Role:     m.Role,
		Parts:    cloneParts(m.Parts),
		Metadata: cloneMap(m.Metadata),
	}
	return c
}

// TextParts returns the text of every text part in parts.
func TextParts(parts []Part) []string {
	var texts []string
	for _, p := range parts {
		if p.Type == PartTypeText {
			texts = append(texts, p.Text)
		}
	}
	return texts
}

// MessageText joins the text parts of m with newlines.
func MessageText(m *Message) string {
	if m == nil {
		return ""
	}
	return strings.Join(TextParts(m.Parts), "\n")
}

func cloneParts(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	c := make([]Part, len(parts))
	for i, p := range parts {
		c[i] = p.Clone()
	}
	return c
}

// cloneMap copies m along with every map and slice nested in it.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		if v == nil {
			return v
		}
		c := make([]any, len(v))
		for i, e := range v {
			c[i] = cloneValue(e)
		}
		return c
	case []string:
		return slices.Clone(v)
	default:
		return v
	}
}
