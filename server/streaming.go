// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-samples"
	"github.com/go-a2a/a2a-samples/internal/pool"
)

// eventStream writes Server-Sent Events frames of the form "data: <json>\n\n".
type eventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// newEventStream sets the SSE headers on w.
func newEventStream(w http.ResponseWriter) *eventStream {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // For Nginx proxy
	w.WriteHeader(http.StatusOK)

	return &eventStream{w: w, rc: http.NewResponseController(w)}
}

// Send writes one frame and flushes it.
func (s *eventStream) Send(resp *a2a.SendTaskStreamingResponse) error {
	buf := pool.Bytes.Get()
	defer pool.Bytes.Put(buf)

	buf.WriteString("data: ")
	if err := json.MarshalWrite(buf, resp); err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	buf.WriteString("\n\n")

	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("flush event: %w", err)
	}
	return nil
}

// Pipe forwards events until the channel closes or ctx is done.
func (s *eventStream) Pipe(ctx context.Context, events <-chan *a2a.SendTaskStreamingResponse) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case resp, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Send(resp); err != nil {
				return err
			}
		}
	}
}
