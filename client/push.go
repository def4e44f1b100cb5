// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-samples"
	"github.com/go-a2a/a2a-samples/auth"
)

// PushHandler receives the task carried by a verified push notification.
type PushHandler func(ctx context.Context, task *a2a.Task) error

// PushListener is the client side endpoint an agent posts task updates to.
//
// A GET carrying a validation token is answered with the token so the agent can
// verify the URL. A POST is verified against the agent's keys when a receiver
// is configured, then decoded and passed to the handler.
type PushListener struct {
	handler  PushHandler
	receiver *auth.PushNotificationReceiverAuth
	logger   *slog.Logger
}

var _ http.Handler = (*PushListener)(nil)

// NewPushListener returns a listener delivering tasks to handler. A nil receiver
// accepts unsigned notifications.
func NewPushListener(handler PushHandler, receiver *auth.PushNotificationReceiverAuth, logger *slog.Logger) *PushListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &PushListener{handler: handler, receiver: receiver, logger: logger}
}

// ServeHTTP implements [http.Handler].
func (l *PushListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		token := r.URL.Query().Get(auth.ValidationTokenParam)
		if token == "" {
			http.Error(w, "missing "+auth.ValidationTokenParam, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, token)

	case http.MethodPost:
		l.receive(w, r)

	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (l *PushListener) receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if l.receiver != nil {
		if err := l.receiver.VerifyPushNotification(r); err != nil {
			l.logger.WarnContext(ctx, "rejected push notification", "error", err)
			http.Error(w, fmt.Sprintf("invalid push notification: %v", err), http.StatusUnauthorized)
			return
		}
	}

	task := new(a2a.Task)
	if err := json.UnmarshalRead(r.Body, task); err != nil {
		http.Error(w, fmt.Sprintf("decode task: %v", err), http.StatusBadRequest)
		return
	}
	l.logger.InfoContext(ctx, "push notification received", "task_id", task.ID, "state", task.Status.State)

	if err := l.handler(ctx, task); err != nil {
		l.logger.ErrorContext(ctx, "handle push notification", "task_id", task.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
