// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
)

// Sentinel errors for [errors.Is] checks across package boundaries.
var (
	ErrRequestDecode       = errors.New("malformed request")
	ErrValidation          = errors.New("invalid request")
	ErrAuth                = errors.New("unauthenticated")
	ErrUnknownAgent        = errors.New("unknown agent")
	ErrUnreachableRemote   = errors.New("remote agent unreachable")
	ErrUnsupportedModality = errors.New("incompatible content types")
	ErrNotFound            = errors.New("not found")
	ErrPushNotSupported    = errors.New("push notification is not supported")
	ErrTaskNotCancelable   = errors.New("task cannot be canceled")
	ErrInvalidTransition   = errors.New("invalid task state transition")
)

// RequestDecodeError reports a request body that is not a well-formed JSON-RPC envelope.
type RequestDecodeError struct {
	Err error
}

// Error returns the error message.
func (e *RequestDecodeError) Error() string {
	return fmt.Sprintf("decode request: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RequestDecodeError) Unwrap() error { return e.Err }

// Is reports whether target is [ErrRequestDecode].
func (e *RequestDecodeError) Is(target error) bool { return target == ErrRequestDecode }

// ValidationError reports a well-formed request that is invalid for the domain.
type ValidationError struct {
	// Field is the offending field, if known.
	Field  string
	Reason string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is reports whether target is [ErrValidation].
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthError reports absent or invalid credentials.
type AuthError struct {
	Reason string
}

// Error returns the error message.
func (e *AuthError) Error() string { return e.Reason }

// Is reports whether target is [ErrAuth].
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// UnknownAgentError reports an orchestrator call addressed to an unregistered remote.
type UnknownAgentError struct {
	Name string
}

// Error returns the error message.
func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("agent %s not found", e.Name)
}

// Is reports whether target is [ErrUnknownAgent].
func (e *UnknownAgentError) Is(target error) bool { return target == ErrUnknownAgent }

// UnreachableRemoteError reports a discovery or connection failure against a remote.
type UnreachableRemoteError struct {
	Address string
	Err     error
}

// Error returns the error message.
func (e *UnreachableRemoteError) Error() string {
	return fmt.Sprintf("remote agent %s unreachable: %v", e.Address, e.Err)
}

// Unwrap returns the underlying error.
func (e *UnreachableRemoteError) Unwrap() error { return e.Err }

// Is reports whether target is [ErrUnreachableRemote].
func (e *UnreachableRemoteError) Is(target error) bool { return target == ErrUnreachableRemote }

// UnsupportedModalityError reports no overlap between requested and supported output types.
type UnsupportedModalityError struct {
	Requested []string
	Supported []string
}

// Error returns the error message.
func (e *UnsupportedModalityError) Error() string {
	return fmt.Sprintf("unsupported output modes %v, supported %v", e.Requested, e.Supported)
}

// Is reports whether target is [ErrUnsupportedModality].
func (e *UnsupportedModalityError) Is(target error) bool { return target == ErrUnsupportedModality }

// NotFoundError reports an operation on an unknown task id.
type NotFoundError struct {
	TaskID string
}

// Error returns the error message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskID)
}

// Is reports whether target is [ErrNotFound].
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ToJSONRPCError maps err onto the JSON-RPC error returned to callers.
//
// Errors outside the taxonomy become a generic internal error; their detail
// is never copied into the envelope.
func ToJSONRPCError(err error) *JSONRPCError {
	if err == nil {
		return nil
	}

	var rpcErr *JSONRPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	switch {
	case errors.Is(err, ErrRequestDecode):
		return NewJSONParseError()
	case errors.Is(err, ErrValidation):
		return NewInvalidParamsError().WithData(err.Error())
	case errors.Is(err, ErrNotFound):
		return NewTaskNotFoundError()
	case errors.Is(err, ErrTaskNotCancelable):
		return NewTaskNotCancelableError()
	case errors.Is(err, ErrInvalidTransition):
		return NewInvalidRequestError().WithData(err.Error())
	case errors.Is(err, ErrPushNotSupported):
		return NewPushNotificationNotSupportedError()
	case errors.Is(err, ErrUnsupportedModality):
		return NewContentTypeNotSupportedError()
	default:
		return NewInternalError()
	}
}
