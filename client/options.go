// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"log/slog"
	"net/http"
	"time"
)

// RetryConfig configures retries of failed requests.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero disables retries.
	MaxRetries uint

	// InitialDelay is the first backoff interval.
	InitialDelay time.Duration

	// MaxDelay caps the backoff interval.
	MaxDelay time.Duration
}

// DefaultRetryConfig retries transient failures three times.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:   3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     5 * time.Second,
}

type options struct {
	httpClient   *http.Client
	interceptors []Interceptor
	logger       *slog.Logger
	userAgent    string
}

func defaultOptions() *options {
	return &options{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.Default(),
		userAgent:  "a2a-samples-client/1.0",
	}
}

// Option configures a [Client].
type Option func(*options)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithInterceptors appends interceptors to the request chain.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(o *options) {
		o.interceptors = append(o.interceptors, interceptors...)
	}
}

// WithRetry retries requests that fail with a transport error or a retryable
// HTTP status. Streaming requests are only retried until the stream is opened.
func WithRetry(cfg RetryConfig) Option {
	return WithInterceptors(RetryInterceptor(cfg))
}

// WithBearerToken sets the Authorization header of every request.
func WithBearerToken(token string) Option {
	return WithInterceptors(HeaderInterceptor(map[string]string{"Authorization": "Bearer " + token}))
}

// WithLogger sets the [*slog.Logger] for the client.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}
