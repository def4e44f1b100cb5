// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"fmt"

	a2a "github.com/go-a2a/a2a-samples"
)

// HTTPError is returned when the agent answers with a status that carries no
// JSON-RPC response.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("a2a: unexpected HTTP status %d: %s", e.StatusCode, e.Body)
}

// IsRPCError reports whether err carries a JSON-RPC error with code.
func IsRPCError(err error, code int) bool {
	var rpcErr *a2a.JSONRPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// IsTaskNotFoundError reports whether the agent did not know the task.
func IsTaskNotFoundError(err error) bool {
	return IsRPCError(err, a2a.TaskNotFoundErrorCode)
}

// IsTaskNotCancelableError reports whether the task could not be canceled.
func IsTaskNotCancelableError(err error) bool {
	return IsRPCError(err, a2a.TaskNotCancelableErrorCode)
}

// IsPushNotificationNotSupportedError reports whether the agent lacks push notifications.
func IsPushNotificationNotSupportedError(err error) bool {
	return IsRPCError(err, a2a.PushNotificationNotSupportedErrorCode)
}

// IsUnsupportedOperationError reports whether the agent rejected the operation.
func IsUnsupportedOperationError(err error) bool {
	return IsRPCError(err, a2a.UnsupportedOperationErrorCode)
}

// IsContentTypeNotSupportedError reports whether the accepted output modes did
// not match the agent's.
func IsContentTypeNotSupportedError(err error) bool {
	return IsRPCError(err, a2a.ContentTypeNotSupportedErrorCode)
}
