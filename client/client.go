// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client calls A2A agents over JSON-RPC and receives their push
// notifications.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"

	a2a "github.com/go-a2a/a2a-samples"
)

// Client sends tasks to one agent.
type Client struct {
	url    string
	opts   *options
	invoke Invoker
}

// New returns a client for the JSON-RPC endpoint at url.
func New(url string, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	c := &Client{url: url, opts: o}
	c.invoke = chainInterceptors(o.interceptors, func(ctx context.Context, req *http.Request) (*http.Response, error) {
		return o.httpClient.Do(req.WithContext(ctx))
	})
	return c
}

// NewFromCard returns a client for the endpoint advertised by card.
func NewFromCard(card *a2a.AgentCard, opts ...Option) *Client {
	return New(card.URL, opts...)
}

// rpcRequest is the envelope of every outgoing call.
type rpcRequest struct {
	a2a.JSONRPCMessage

	Method string `json:"method"`
	Params any    `json:"params"`
}

type rpcResponse[T any] struct {
	a2a.JSONRPCMessage

	Result T                 `json:"result,omitzero"`
	Error  *a2a.JSONRPCError `json:"error,omitzero"`
}

// SendTask sends a message and waits for the task to settle.
func (c *Client) SendTask(ctx context.Context, params a2a.TaskSendParams) (*a2a.Task, error) {
	return call[*a2a.Task](ctx, c, a2a.MethodTasksSend, params)
}

// GetTask returns a task with at most params.HistoryLength history messages.
func (c *Client) GetTask(ctx context.Context, params a2a.TaskQueryParams) (*a2a.Task, error) {
	return call[*a2a.Task](ctx, c, a2a.MethodTasksGet, params)
}

// CancelTask asks the agent to cancel a task.
func (c *Client) CancelTask(ctx context.Context, params a2a.TaskIDParams) (*a2a.Task, error) {
	return call[*a2a.Task](ctx, c, a2a.MethodTasksCancel, params)
}

// SetTaskPushNotification registers where the agent posts task updates.
func (c *Client) SetTaskPushNotification(ctx context.Context, params a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	return call[*a2a.TaskPushNotificationConfig](ctx, c, a2a.MethodTasksPushNotificationSet, params)
}

// GetTaskPushNotification returns the push notification config of a task.
func (c *Client) GetTaskPushNotification(ctx context.Context, params a2a.TaskIDParams) (*a2a.TaskPushNotificationConfig, error) {
	return call[*a2a.TaskPushNotificationConfig](ctx, c, a2a.MethodTasksPushNotificationGet, params)
}

// SendTaskSubscribe sends a message and streams the task's status and artifact
// events. The request is made when iteration starts, and the connection is
// released when iteration ends. A JSON-RPC error from the agent ends the
// sequence with that error.
func (c *Client) SendTaskSubscribe(ctx context.Context, params a2a.TaskSendParams) iter.Seq2[a2a.TaskEvent, error] {
	return c.subscribe(ctx, a2a.MethodTasksSendSubscribe, params)
}

// Resubscribe reattaches to the event stream of a task.
func (c *Client) Resubscribe(ctx context.Context, params a2a.TaskQueryParams) iter.Seq2[a2a.TaskEvent, error] {
	return c.subscribe(ctx, a2a.MethodTasksResubscribe, params)
}

func call[T any](ctx context.Context, c *Client, method string, params any) (T, error) {
	var zero T
	resp, err := c.post(ctx, method, params, "application/json")
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	out, err := decodeResponse[T](resp)
	if err != nil {
		return zero, err
	}
	if out.Error != nil {
		return zero, out.Error
	}
	return out.Result, nil
}

func (c *Client) subscribe(ctx context.Context, method string, params any) iter.Seq2[a2a.TaskEvent, error] {
	return func(yield func(a2a.TaskEvent, error) bool) {
		resp, err := c.post(ctx, method, params, "text/event-stream")
		if err != nil {
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
			out, err := decodeResponse[any](resp)
			if err == nil && out.Error != nil {
				err = out.Error
			}
			if err == nil {
				err = fmt.Errorf("%s: expected an event stream", method)
			}
			yield(nil, err)
			return
		}

		for ev, err := range readEvents(resp.Body) {
			if err != nil {
				yield(nil, err)
				return
			}
			if ev.Error != nil {
				yield(nil, ev.Error)
				return
			}
			if ev.Result == nil {
				continue
			}
			if !yield(ev.Result, nil) {
				return
			}
		}
	}
}

func (c *Client) post(ctx context.Context, method string, params any, accept string) (*http.Response, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPCMessage: a2a.NewJSONRPCMessage(uuid.NewString()),
		Method:         method,
		Params:         params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.opts.userAgent)

	resp, err := c.invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return resp, nil
}

// decodeResponse reads a JSON-RPC response. Parse and invalid request errors
// arrive with status 400 and still carry a JSON-RPC body.
func decodeResponse[T any](resp *http.Response) (*rpcResponse[T], error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	out := new(rpcResponse[T])
	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error == nil && resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return out, nil
}
