// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent defines the contract between the task manager and the reasoning
// component that turns a user query into an answer.
package agent

import (
	"context"
	"fmt"
	"iter"

	"github.com/go-json-experiment/json"
)

// Agent answers queries within a conversational session.
type Agent interface {
	// SupportedContentTypes lists the output modes the agent can produce.
	SupportedContentTypes() []string

	// Invoke runs the query to completion and returns the final text answer.
	Invoke(ctx context.Context, query, sessionID string) (string, error)

	// Stream runs the query and yields progress updates followed by at most one
	// completed event. The sequence is single-use and stops at the first error.
	Stream(ctx context.Context, query, sessionID string) iter.Seq2[StreamEvent, error]
}

// StreamEvent is one element of an agent stream.
type StreamEvent struct {
	// Complete marks the event carrying the final answer.
	Complete bool

	// Updates is a human readable progress line for incomplete events.
	Updates string

	// Content is the answer. It is set on complete events and on events that
	// require user input.
	Content Content

	// RequireUserInput reports that the agent cannot continue without the caller.
	RequireUserInput bool
}

// Progress returns an incomplete event carrying msg.
func Progress(msg string) StreamEvent {
	return StreamEvent{Updates: msg}
}

// Done returns the completed event carrying c.
func Done(c Content) StreamEvent {
	return StreamEvent{Complete: true, Content: c}
}

// NeedsInput returns an incomplete event asking the caller for more input.
func NeedsInput(msg string) StreamEvent {
	return StreamEvent{RequireUserInput: true, Content: Text(msg)}
}

// ContentKind discriminates the variants of [Content].
type ContentKind int

const (
	// ContentText is a plain text answer.
	ContentText ContentKind = iota
	// ContentData is a structured answer.
	ContentData
	// ContentResult is structured data the agent extracted from a nested tool
	// result. It asks the caller for more input.
	ContentResult
)

// String returns the name of the kind.
func (k ContentKind) String() string {
	switch k {
	case ContentText:
		return "text"
	case ContentData:
		return "data"
	case ContentResult:
		return "result"
	default:
		return fmt.Sprintf("ContentKind(%d)", int(k))
	}
}

// Content is the answer of an agent. Exactly one of Text or Data is meaningful,
// chosen by Kind.
type Content struct {
	Kind ContentKind
	Text string
	Data map[string]any
}

// Text returns text content.
func Text(s string) Content {
	return Content{Kind: ContentText, Text: s}
}

// Data returns structured content.
func Data(m map[string]any) Content {
	return Content{Kind: ContentData, Data: m}
}

// Result returns nested-result content.
func Result(m map[string]any) Content {
	return Content{Kind: ContentResult, Data: m}
}

// ContentFromMap classifies a structured tool response.
//
// A map holding a JSON-encoded string at response.result becomes [ContentResult]
// with the decoded object; any other map becomes [ContentData] unchanged.
func ContentFromMap(m map[string]any) (Content, error) {
	resp, ok := m["response"].(map[string]any)
	if !ok {
		return Data(m), nil
	}
	raw, ok := resp["result"]
	if !ok {
		return Data(m), nil
	}

	var decoded map[string]any
	switch v := raw.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return Content{}, fmt.Errorf("decode response.result: %w", err)
		}
	case map[string]any:
		decoded = v
	default:
		return Content{}, fmt.Errorf("unexpected response.result type %T", raw)
	}
	return Result(decoded), nil
}
