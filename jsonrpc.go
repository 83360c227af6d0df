// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
)

// JSONRPCVersion is the only protocol version accepted on the wire.
const JSONRPCVersion = "2.0"

// A2A RPC method names.
const (
	// MethodTasksSend is the method name for sending a task.
	MethodTasksSend = "tasks/send"
	// MethodTasksGet is the method name for getting a task.
	MethodTasksGet = "tasks/get"
	// MethodTasksCancel is the method name for canceling a task.
	MethodTasksCancel = "tasks/cancel"
	// MethodTasksPushNotificationSet is the method name for setting push notification configuration.
	MethodTasksPushNotificationSet = "tasks/pushNotification/set"
	// MethodTasksPushNotificationGet is the method name for getting push notification configuration.
	MethodTasksPushNotificationGet = "tasks/pushNotification/get"
	// MethodTasksSendSubscribe is the method name for sending a task and subscribing to updates.
	MethodTasksSendSubscribe = "tasks/sendSubscribe"
	// MethodTasksResubscribe is the method name for resubscribing to task updates.
	MethodTasksResubscribe = "tasks/resubscribe"
)

// JSONRPCMessage is the base structure for all JSON-RPC 2.0 messages.
type JSONRPCMessage struct {
	// JSONRPC version, always "2.0".
	JSONRPC string `json:"jsonrpc"`
	// ID is a unique identifier for the request/response correlation.
	// It is a string, a number, or null.
	ID any `json:"id"`
}

// NewJSONRPCMessage creates a new [JSONRPCMessage] with the given id.
func NewJSONRPCMessage(id any) JSONRPCMessage {
	return JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
	}
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	// Code is the error code.
	Code int `json:"code"`
	// Message is a short description of the error.
	Message string `json:"message"`
	// Data contains optional additional error details.
	Data any `json:"data,omitempty"`
}

var _ error = (*JSONRPCError)(nil)

// Error implements error.
func (e *JSONRPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("jsonrpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// WithData returns a copy of e carrying data.
func (e *JSONRPCError) WithData(data any) *JSONRPCError {
	c := *e
	c.Data = data
	return &c
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPCMessage

	// Result contains the successful result data.
	// Mutually exclusive with Error.
	Result any `json:"result,omitempty"`
	// Error contains an error object if the request failed.
	// Mutually exclusive with Result.
	Error *JSONRPCError `json:"error,omitempty"`
}

// NewResponse returns a successful [JSONRPCResponse].
func NewResponse(id, result any) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Result:         result,
	}
}

// NewErrorResponse returns a failed [JSONRPCResponse].
func NewErrorResponse(id any, err *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Error:          err,
	}
}

// Standard JSON-RPC 2.0 error codes.
const (
	// JSONParseErrorCode indicates invalid JSON payload.
	JSONParseErrorCode = -32700
	// InvalidRequestErrorCode indicates request payload validation error.
	InvalidRequestErrorCode = -32600
	// MethodNotFoundErrorCode indicates the method does not exist.
	MethodNotFoundErrorCode = -32601
	// InvalidParamsErrorCode indicates invalid method parameters.
	InvalidParamsErrorCode = -32602
	// InternalErrorCode indicates an internal server error.
	InternalErrorCode = -32603
)

// A2A specific error codes.
const (
	// TaskNotFoundErrorCode indicates the specified task ID was not found.
	TaskNotFoundErrorCode = -32001
	// TaskNotCancelableErrorCode indicates the task is in a final state and cannot be canceled.
	TaskNotCancelableErrorCode = -32002
	// PushNotificationNotSupportedErrorCode indicates the agent does not support push notifications.
	PushNotificationNotSupportedErrorCode = -32003
	// UnsupportedOperationErrorCode indicates the requested operation is not supported.
	UnsupportedOperationErrorCode = -32004
	// ContentTypeNotSupportedErrorCode indicates a mismatch in supported content types.
	ContentTypeNotSupportedErrorCode = -32005
)

// IsProtocolError reports whether code describes a malformed call rather than a domain outcome.
func IsProtocolError(code int) bool {
	switch code {
	case JSONParseErrorCode, InvalidRequestErrorCode, MethodNotFoundErrorCode, InvalidParamsErrorCode:
		return true
	default:
		return false
	}
}

// NewJSONParseError creates a new JSONParseError.
func NewJSONParseError() *JSONRPCError {
	return &JSONRPCError{
		Code:    JSONParseErrorCode,
		Message: "Invalid JSON payload",
	}
}

// NewInvalidRequestError creates a new InvalidRequestError.
func NewInvalidRequestError() *JSONRPCError {
	return &JSONRPCError{
		Code:    InvalidRequestErrorCode,
		Message: "Request payload validation error",
	}
}

// NewMethodNotFoundError creates a new MethodNotFoundError.
func NewMethodNotFoundError() *JSONRPCError {
	return &JSONRPCError{
		Code:    MethodNotFoundErrorCode,
		Message: "Method not found",
	}
}

// NewInvalidParamsError creates a new InvalidParamsError.
func NewInvalidParamsError() *JSONRPCError {
	return &JSONRPCError{
		Code:    InvalidParamsErrorCode,
		Message: "Invalid parameters",
	}
}

// NewInternalError creates a new InternalError.
func NewInternalError() *JSONRPCError {
	return &JSONRPCError{
		Code:    InternalErrorCode,
		Message: "Internal error",
	}
}

// NewTaskNotFoundError creates a new TaskNotFoundError.
func NewTaskNotFoundError() *JSONRPCError {
	return &JSONRPCError{
		Code:    TaskNotFoundErrorCode,
		Message: "Task not found",
	}
}

// NewTaskNotCancelableError creates a new TaskNotCancelableError.
func NewTaskNotCancelableError() *JSONRPCError {
	return &JSONRPCError{
		Code:    TaskNotCancelableErrorCode,
		Message: "Task cannot be canceled",
	}
}

// NewPushNotificationNotSupportedError creates a new PushNotificationNotSupportedError.
func NewPushNotificationNotSupportedError() *JSONRPCError {
	return &JSONRPCError{
		Code:    PushNotificationNotSupportedErrorCode,
		Message: "Push Notification is not supported",
	}
}

// NewUnsupportedOperationError creates a new UnsupportedOperationError.
func NewUnsupportedOperationError() *JSONRPCError {
	return &JSONRPCError{
		Code:    UnsupportedOperationErrorCode,
		Message: "This operation is not supported",
	}
}

// NewContentTypeNotSupportedError creates a new ContentTypeNotSupportedError.
func NewContentTypeNotSupportedError() *JSONRPCError {
	return &JSONRPCError{
		Code:    ContentTypeNotSupportedErrorCode,
		Message: "Incompatible content types",
	}
}
