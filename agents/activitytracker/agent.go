// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package activitytracker implements an agent that records work items through
// Gemini function calling and exports them to an Excel workbook.
package activitytracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/go-a2a/a2a-samples/agent"
)

const (
	// Name is the agent name used in logs and spans.
	Name = "activity_tracker_agent"

	// DefaultModel is the Gemini model used unless configured otherwise.
	DefaultModel = "gemini-1.5-flash"

	// userID owns every session of the agent.
	userID = "remote_agent"

	// maxTurns bounds the model calls spent on one query.
	maxTurns = 8

	progressUpdate = "Processing the activity tracking request..."

	roleUser  = "user"
	roleModel = "model"
)

// SupportedContentTypes are the output modes the agent produces.
var SupportedContentTypes = []string{"text", "text/plain"}

const instruction = `You are an agent that helps me track my activities.

When I tell you about an activity, you should use the ` + "`add_activity`" + ` tool to record it. You'll need the following information:
  1. 'Work Item': What I am working on.
  2. 'Details': Any additional details.
  3. 'Due Date': When I expect to complete it.
  4. 'Progress': The current progress.

When I want to save my activities, you should use the ` + "`save_activities_to_excel`" + ` tool. You will need the file path to save the Excel file.

If any required information is missing, do not call a tool. Answer with a line that starts with "MISSING_INFO:" followed by the missing fields, then ask me for them.

Always be helpful and ask clarifying questions if you need more information.`

// Model generates content. [*genai.Models] satisfies it.
type Model interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ Model = (*genai.Models)(nil)

// NewGeminiModel returns the Gemini API models service authenticated with apiKey.
func NewGeminiModel(ctx context.Context, apiKey string) (Model, error) {
	if apiKey == "" {
		return nil, errors.New("GOOGLE_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client.Models, nil
}

// Agent tracks activities for the callers of one server.
type Agent struct {
	model     Model
	modelName string
	store     ActivityStore
	logger    *slog.Logger
	tracer    trace.Tracer

	mu       sync.Mutex
	sessions map[string][]*genai.Content
}

var _ agent.Agent = (*Agent)(nil)

// Option configures an [Agent].
type Option func(*Agent)

// WithModelName sets the Gemini model. Defaults to [DefaultModel].
func WithModelName(name string) Option {
	return func(a *Agent) {
		if name != "" {
			a.modelName = name
		}
	}
}

// WithStore sets where activities are kept. Defaults to a [MemoryStore].
func WithStore(s ActivityStore) Option {
	return func(a *Agent) {
		a.store = s
	}
}

// WithLogger sets the [*slog.Logger] for the agent.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// New returns an agent answering through m.
func New(m Model, opts ...Option) *Agent {
	a := &Agent{
		model:     m,
		modelName: DefaultModel,
		store:     NewMemoryStore(),
		logger:    slog.Default(),
		tracer:    otel.GetTracerProvider().Tracer("github.com/go-a2a/a2a-samples/agents/activitytracker"),
		sessions:  make(map[string][]*genai.Content),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases the activity store when it holds a connection.
func (a *Agent) Close() error {
	if c, ok := a.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SupportedContentTypes implements [agent.Agent].
func (a *Agent) SupportedContentTypes() []string { return SupportedContentTypes }

// Invoke implements [agent.Agent]. It returns the text of the final model turn.
func (a *Agent) Invoke(ctx context.Context, query, sessionID string) (string, error) {
	res, err := a.run(ctx, query, sessionID, nil)
	if err != nil {
		return "", err
	}
	return res.text, nil
}

// Stream implements [agent.Agent]. Every tool turn yields a progress update; the
// final event carries the model text. When the model ends without text the last
// function response is classified by [agent.ContentFromMap], so an activity form
// asks the caller for input.
func (a *Agent) Stream(ctx context.Context, query, sessionID string) iter.Seq2[agent.StreamEvent, error] {
	return func(yield func(agent.StreamEvent, error) bool) {
		res, err := a.run(ctx, query, sessionID, func() bool {
			return yield(agent.Progress(progressUpdate), nil)
		})
		switch {
		case errors.Is(err, errStopped):
			return
		case err != nil:
			yield(agent.StreamEvent{}, err)
			return
		}
		if res.text == "" && res.lastTool != nil {
			c, err := agent.ContentFromMap(res.lastTool)
			if err != nil {
				yield(agent.StreamEvent{}, err)
				return
			}
			yield(agent.Done(c), nil)
			return
		}
		yield(agent.Done(agent.Text(res.text)), nil)
	}
}

// errStopped reports that the stream consumer went away.
var errStopped = errors.New("stream stopped")

type runResult struct {
	text string
	// lastTool is the last function response as {"id", "name", "response"}.
	lastTool map[string]any
}

func sessionKey(sessionID string) string {
	return userID + "/" + sessionID
}

// history returns a copy of the conversation of sessionID.
func (a *Agent) history(sessionID string) []*genai.Content {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*genai.Content(nil), a.sessions[sessionKey(sessionID)]...)
}

func (a *Agent) saveHistory(sessionID string, contents []*genai.Content) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[sessionKey(sessionID)] = contents
}

// run drives the function calling loop. onToolTurn is called after each turn that
// executed tools; returning false aborts the loop with errStopped.
func (a *Agent) run(ctx context.Context, query, sessionID string, onToolTurn func() bool) (*runResult, error) {
	ctx, span := a.tracer.Start(ctx, "activitytracker.run",
		trace.WithAttributes(attribute.String("a2a.session_id", sessionID)))
	defer span.End()

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
		Tools:             toolDeclarations(),
	}
	contents := append(a.history(sessionID), &genai.Content{
		Role:  roleUser,
		Parts: []*genai.Part{{Text: query}},
	})

	res := &runResult{}
	for turn := range maxTurns {
		resp, err := a.model.GenerateContent(ctx, a.modelName, contents, config)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("generate content: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return nil, errors.New("model returned no candidates")
		}
		reply := resp.Candidates[0].Content
		if reply.Role == "" {
			reply.Role = roleModel
		}
		contents = append(contents, reply)

		var (
			texts     []string
			responses []*genai.Part
		)
		for _, p := range reply.Parts {
			switch {
			case p.FunctionCall != nil:
				out, err := a.callTool(ctx, p.FunctionCall)
				if err != nil {
					span.RecordError(err)
					return nil, fmt.Errorf("tool %s: %w", p.FunctionCall.Name, err)
				}
				res.lastTool = map[string]any{
					"id":       p.FunctionCall.ID,
					"name":     p.FunctionCall.Name,
					"response": out,
				}
				responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       p.FunctionCall.ID,
					Name:     p.FunctionCall.Name,
					Response: out,
				}})
			case p.Text != "":
				texts = append(texts, p.Text)
			}
		}

		if len(responses) == 0 {
			res.text = strings.Join(texts, "\n")
			a.saveHistory(sessionID, contents)
			span.SetAttributes(attribute.Int("activitytracker.turns", turn+1))
			return res, nil
		}
		contents = append(contents, &genai.Content{Role: roleUser, Parts: responses})
		a.logger.DebugContext(ctx, "tool turn finished", "session_id", sessionID, "turn", turn, "calls", len(responses))
		if onToolTurn != nil && !onToolTurn() {
			return nil, errStopped
		}
	}
	return nil, fmt.Errorf("no final answer after %d model turns", maxTurns)
}
