// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"

	a2a "github.com/go-a2a/a2a-samples"
	"github.com/go-a2a/a2a-samples/auth"
)

// PushNotificationSender verifies callback URLs and delivers signed notifications.
type PushNotificationSender interface {
	// VerifyPushNotificationURL reports whether the client controls url.
	VerifyPushNotificationURL(ctx context.Context, url string) bool

	// SendPushNotification POSTs data as JSON to url.
	SendPushNotification(ctx context.Context, url string, data any) error
}

var _ PushNotificationSender = (*auth.PushNotificationSenderAuth)(nil)

// registerPushNotification verifies cfg.URL and only then stores cfg for taskID.
// A failed verification leaves any earlier registration in place.
func (tm *AgentTaskManager) registerPushNotification(ctx context.Context, taskID string, cfg a2a.PushNotificationConfig) (bool, error) {
	if tm.sender == nil || !tm.sender.VerifyPushNotificationURL(ctx, cfg.URL) {
		tm.logger.WarnContext(ctx, "push notification url verification failed", "task_id", taskID, "url", cfg.URL)
		return false, nil
	}
	if err := tm.SetPushNotificationInfo(ctx, taskID, cfg); err != nil {
		return false, err
	}
	tm.logger.InfoContext(ctx, "push notification registered", "task_id", taskID, "url", cfg.URL)
	return true, nil
}

// sendTaskNotification delivers the current task snapshot to the registered URL.
// Delivery failures are logged and never fail the task.
func (tm *AgentTaskManager) sendTaskNotification(ctx context.Context, t *a2a.Task) {
	if tm.sender == nil || !tm.HasPushNotificationInfo(ctx, t.ID) {
		tm.logger.DebugContext(ctx, "no push notification info found", "task_id", t.ID)
		return
	}
	cfg, err := tm.GetPushNotificationInfo(ctx, t.ID)
	if err != nil {
		tm.logger.WarnContext(ctx, "get push notification info", "task_id", t.ID, "error", err)
		return
	}

	tm.logger.InfoContext(ctx, "notifying", "task_id", t.ID, "state", t.Status.State)
	err = tm.sender.SendPushNotification(ctx, cfg.URL, t)
	tm.metrics.PushNotification(err == nil)
	if err != nil {
		tm.logger.WarnContext(ctx, "push notification delivery failed", "task_id", t.ID, "url", cfg.URL, "error", err)
	}
}
