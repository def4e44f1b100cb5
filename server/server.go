// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server hosts an A2A agent over HTTP: JSON-RPC dispatch of the tasks/*
// methods, Server-Sent Events for streaming sends, and the well-known agent card
// and key set endpoints. Task lifecycle lives in [AgentTaskManager].
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-samples"
	"github.com/go-a2a/a2a-samples/internal/observability"
)

// maxRequestBody bounds the size of a JSON-RPC request body.
const maxRequestBody = 4 << 20

// A2AServer implements the A2A protocol server.
type A2AServer struct {
	card        *a2a.AgentCard
	taskManager TaskManager
	endpoint    string
	mux         *http.ServeMux

	jwks    http.Handler
	metrics *observability.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewA2AServer returns a server publishing card and dispatching requests to tm.
func NewA2AServer(card *a2a.AgentCard, tm TaskManager, opts ...Option) (*A2AServer, error) {
	if card == nil {
		return nil, errors.New("agent card is required")
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}
	if tm == nil {
		return nil, errors.New("task manager is required")
	}

	s := &A2AServer{
		card:        card,
		taskManager: tm,
		endpoint:    "/",
		mux:         http.NewServeMux(),
		logger:      slog.Default(),
		tracer:      otel.GetTracerProvider().Tracer("github.com/go-a2a/a2a-samples/server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerHandlers()
	return s, nil
}

// ServeHTTP implements [http.Handler].
func (s *A2AServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// registerHandlers sets up all the HTTP routes for the A2A server.
func (s *A2AServer) registerHandlers() {
	s.mux.HandleFunc("GET /.well-known/agent.json", s.handleAgentCard)
	s.mux.HandleFunc("POST "+s.endpoint, s.handleJSONRPC)
	if s.jwks != nil {
		s.mux.Handle("GET /.well-known/jwks.json", s.jwks)
	}
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// handleAgentCard serves the agent card.
func (s *A2AServer) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, s.card)
}

// handleJSONRPC decodes one JSON-RPC request and routes it by method.
func (s *A2AServer) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, nil, a2a.NewInvalidRequestError(err.Error()))
		return
	}

	var req a2a.JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.logger.WarnContext(ctx, "malformed JSON-RPC payload", "error", err)
		s.writeError(ctx, w, http.StatusBadRequest, nil, a2a.NewJSONParseError())
		s.metrics.ObserveRequest("", a2a.JSONParseErrorCode, time.Since(start))
		return
	}
	if req.JSONRPC != a2a.JSONRPCVersion || req.Method == "" {
		s.writeError(ctx, w, http.StatusBadRequest, req.ID, a2a.NewInvalidRequestError("jsonrpc must be \"2.0\" and method must be set"))
		s.metrics.ObserveRequest(req.Method, a2a.InvalidRequestErrorCode, time.Since(start))
		return
	}

	ctx, span := s.tracer.Start(ctx, "a2a.server."+req.Method,
		trace.WithAttributes(attribute.String("rpc.method", req.Method)))
	defer span.End()

	code := 0
	defer func() { s.metrics.ObserveRequest(req.Method, code, time.Since(start)) }()

	result, err := s.dispatch(ctx, w, &req)
	switch {
	case err != nil:
		rpcErr := a2a.AsJSONRPCError(err)
		code = rpcErr.Code
		span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", code))
		s.writeError(ctx, w, http.StatusOK, req.ID, rpcErr)
	case result != nil:
		s.writeJSON(ctx, w, http.StatusOK, a2a.NewJSONRPCResponse(req.ID, result))
	}
}

// dispatch runs req. A nil result with a nil error means the response has
// already been written, as for streams.
func (s *A2AServer) dispatch(ctx context.Context, w http.ResponseWriter, req *a2a.JSONRPCRequest) (any, error) {
	switch req.Method {
	case a2a.MethodTasksGet:
		var params a2a.TaskQueryParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.taskManager.OnGetTask(ctx, &params)

	case a2a.MethodTasksCancel:
		var params a2a.TaskIDParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.taskManager.OnCancelTask(ctx, &params)

	case a2a.MethodTasksSend:
		var params a2a.TaskSendParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.taskManager.OnSendTask(ctx, &params)

	case a2a.MethodTasksSendSubscribe:
		if !s.card.Capabilities.Streaming {
			return nil, a2a.NewUnsupportedOperationError()
		}
		var params a2a.TaskSendParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return nil, s.stream(ctx, w, func(ctx context.Context) (<-chan *a2a.SendTaskStreamingResponse, error) {
			return s.taskManager.OnSendTaskSubscribe(ctx, &a2a.SendTaskStreamingRequest{
				JSONRPCMessage: req.JSONRPCMessage,
				Method:         req.Method,
				Params:         params,
			})
		})

	case a2a.MethodTasksResubscribe:
		var params a2a.TaskQueryParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return nil, s.stream(ctx, w, func(ctx context.Context) (<-chan *a2a.SendTaskStreamingResponse, error) {
			return s.taskManager.OnResubscribeToTask(ctx, &params)
		})

	case a2a.MethodTasksPushNotificationSet:
		if !s.card.Capabilities.PushNotifications {
			return nil, a2a.NewPushNotificationNotSupportedError()
		}
		var params a2a.TaskPushNotificationConfig
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		if params.ID == "" {
			return nil, a2a.NewInvalidParamsError("task ID cannot be empty")
		}
		if err := params.PushNotificationConfig.Validate(); err != nil {
			return nil, a2a.NewInvalidParamsError(err.Error())
		}
		return s.taskManager.OnSetTaskPushNotification(ctx, &params)

	case a2a.MethodTasksPushNotificationGet:
		if !s.card.Capabilities.PushNotifications {
			return nil, a2a.NewPushNotificationNotSupportedError()
		}
		var params a2a.TaskIDParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.taskManager.OnGetTaskPushNotification(ctx, &params)

	default:
		s.logger.WarnContext(ctx, "unexpected method", "method", req.Method)
		return nil, a2a.NewMethodNotFoundError()
	}
}

// validator is implemented by params with structural checks.
type validator interface {
	Validate() error
}

// decodeParams unmarshals and validates the params of req into v.
func decodeParams(req *a2a.JSONRPCRequest, v any) error {
	if err := req.DecodeParams(v); err != nil {
		return a2a.NewInvalidParamsError(err.Error())
	}
	if val, ok := v.(validator); ok {
		if err := val.Validate(); err != nil {
			return a2a.NewInvalidParamsError(err.Error())
		}
	}
	return nil
}

// stream opens the event channel and pipes it to the client as SSE. Errors raised
// before the first event are returned so they are written as a plain JSON-RPC
// error response.
func (s *A2AServer) stream(ctx context.Context, w http.ResponseWriter, open func(context.Context) (<-chan *a2a.SendTaskStreamingResponse, error)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := open(ctx)
	if err != nil {
		return err
	}
	if err := newEventStream(w).Pipe(ctx, events); err != nil {
		s.logger.InfoContext(ctx, "event stream closed early", "error", err)
	}
	return nil
}

func (s *A2AServer) writeError(ctx context.Context, w http.ResponseWriter, status int, id any, rpcErr *a2a.JSONRPCError) {
	s.writeJSON(ctx, w, status, a2a.NewJSONRPCErrorResponse(id, rpcErr))
}

func (s *A2AServer) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, v); err != nil {
		s.logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
