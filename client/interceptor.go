// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Interceptor wraps the HTTP round trip of every request the client makes.
type Interceptor func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error)

// Invoker represents the next handler in the interceptor chain.
type Invoker func(ctx context.Context, req *http.Request) (*http.Response, error)

// chainInterceptors chains multiple interceptors together. The first
// interceptor is the outermost.
func chainInterceptors(interceptors []Interceptor, invoker Invoker) Invoker {
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		next := invoker
		invoker = func(ctx context.Context, req *http.Request) (*http.Response, error) {
			return interceptor(ctx, req, next)
		}
	}
	return invoker
}

// LoggingInterceptor logs every request with its status and latency.
func LoggingInterceptor(logger *slog.Logger) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		start := time.Now()
		resp, err := invoker(ctx, req)
		if err != nil {
			logger.ErrorContext(ctx, "a2a request failed", "method", req.Method, "url", req.URL.String(), "error", err)
			return nil, err
		}
		logger.DebugContext(ctx, "a2a request", "method", req.Method, "url", req.URL.String(),
			"status", resp.StatusCode, "duration", time.Since(start))
		return resp, nil
	}
}

// HeaderInterceptor sets headers on every request.
func HeaderInterceptor(headers map[string]string) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		return invoker(ctx, req)
	}
}

var retryableStatus = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// RetryInterceptor retries transport errors and retryable statuses with
// exponential backoff.
func RetryInterceptor(cfg RetryConfig) Interceptor {
	return func(ctx context.Context, req *http.Request, invoker Invoker) (*http.Response, error) {
		if cfg.MaxRetries == 0 {
			return invoker(ctx, req)
		}
		b := backoff.NewExponentialBackOff()
		if cfg.InitialDelay > 0 {
			b.InitialInterval = cfg.InitialDelay
		}
		if cfg.MaxDelay > 0 {
			b.MaxInterval = cfg.MaxDelay
		}

		attempt := 0
		return backoff.Retry(ctx, func() (*http.Response, error) {
			r := req
			if attempt > 0 && req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, backoff.Permanent(fmt.Errorf("rewind request body: %w", err))
				}
				r = req.Clone(ctx)
				r.Body = body
			}
			attempt++

			resp, err := invoker(ctx, r)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(retryableStatus, resp.StatusCode) {
				return resp, nil
			}
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
			resp.Body.Close()
			return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		}, backoff.WithBackOff(b), backoff.WithMaxTries(cfg.MaxRetries+1))
	}
}
