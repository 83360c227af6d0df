// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Request is the closed set of A2A request variants.
type Request interface {
	// MethodName returns the JSON-RPC method of the request.
	MethodName() string
	// RequestID returns the JSON-RPC id to echo in the response.
	RequestID() any

	isRequest()
}

// JSONRPCRequest represents a JSON-RPC 2.0 request whose params are not decoded yet.
type JSONRPCRequest struct {
	JSONRPCMessage

	// Method identifies the operation to perform.
	Method string `json:"method"`
	// Params contains parameters for the method.
	Params jsontext.Value `json:"params,omitempty"`
}

// SendTaskRequest represents a request to initiate or continue a task.
type SendTaskRequest struct {
	JSONRPCMessage

	// Method is always "tasks/send".
	Method string         `json:"method"`
	Params TaskSendParams `json:"params"`
}

// NewSendTaskRequest creates a new [SendTaskRequest].
func NewSendTaskRequest(id any, params TaskSendParams) *SendTaskRequest {
	return &SendTaskRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksSend,
		Params:         params,
	}
}

// SendTaskStreamingRequest represents a request to send a task and subscribe to updates.
type SendTaskStreamingRequest struct {
	JSONRPCMessage

	// Method is always "tasks/sendSubscribe".
	Method string         `json:"method"`
	Params TaskSendParams `json:"params"`
}

// NewSendTaskStreamingRequest creates a new [SendTaskStreamingRequest].
func NewSendTaskStreamingRequest(id any, params TaskSendParams) *SendTaskStreamingRequest {
	return &SendTaskStreamingRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksSendSubscribe,
		Params:         params,
	}
}

// GetTaskRequest represents a request to retrieve the current state of a task.
type GetTaskRequest struct {
	JSONRPCMessage

	// Method is always "tasks/get".
	Method string          `json:"method"`
	Params TaskQueryParams `json:"params"`
}

// NewGetTaskRequest creates a new [GetTaskRequest].
func NewGetTaskRequest(id any, params TaskQueryParams) *GetTaskRequest {
	return &GetTaskRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksGet,
		Params:         params,
	}
}

// CancelTaskRequest represents a request to cancel a running task.
type CancelTaskRequest struct {
	JSONRPCMessage

	// Method is always "tasks/cancel".
	Method string       `json:"method"`
	Params TaskIDParams `json:"params"`
}

// NewCancelTaskRequest creates a new [CancelTaskRequest].
func NewCancelTaskRequest(id any, params TaskIDParams) *CancelTaskRequest {
	return &CancelTaskRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksCancel,
		Params:         params,
	}
}

// SetTaskPushNotificationRequest represents a request to set push notification configuration.
type SetTaskPushNotificationRequest struct {
	JSONRPCMessage

	// Method is always "tasks/pushNotification/set".
	Method string                     `json:"method"`
	Params TaskPushNotificationConfig `json:"params"`
}

// NewSetTaskPushNotificationRequest creates a new [SetTaskPushNotificationRequest].
func NewSetTaskPushNotificationRequest(id any, params TaskPushNotificationConfig) *SetTaskPushNotificationRequest {
	return &SetTaskPushNotificationRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksPushNotificationSet,
		Params:         params,
	}
}

// GetTaskPushNotificationRequest represents a request to retrieve push notification configuration.
type GetTaskPushNotificationRequest struct {
	JSONRPCMessage

	// Method is always "tasks/pushNotification/get".
	Method string       `json:"method"`
	Params TaskIDParams `json:"params"`
}

// NewGetTaskPushNotificationRequest creates a new [GetTaskPushNotificationRequest].
func NewGetTaskPushNotificationRequest(id any, params TaskIDParams) *GetTaskPushNotificationRequest {
	return &GetTaskPushNotificationRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksPushNotificationGet,
		Params:         params,
	}
}

// TaskResubscriptionRequest represents a request to resubscribe to task updates.
type TaskResubscriptionRequest struct {
	JSONRPCMessage

	// Method is always "tasks/resubscribe".
	Method string          `json:"method"`
	Params TaskQueryParams `json:"params"`
}

// NewTaskResubscriptionRequest creates a new [TaskResubscriptionRequest].
func NewTaskResubscriptionRequest(id any, params TaskQueryParams) *TaskResubscriptionRequest {
	return &TaskResubscriptionRequest{
		JSONRPCMessage: NewJSONRPCMessage(id),
		Method:         MethodTasksResubscribe,
		Params:         params,
	}
}

var (
	_ Request = (*SendTaskRequest)(nil)
	_ Request = (*SendTaskStreamingRequest)(nil)
	_ Request = (*GetTaskRequest)(nil)
	_ Request = (*CancelTaskRequest)(nil)
	_ Request = (*SetTaskPushNotificationRequest)(nil)
	_ Request = (*GetTaskPushNotificationRequest)(nil)
	_ Request = (*TaskResubscriptionRequest)(nil)
)

func (*SendTaskRequest) MethodName() string                { return MethodTasksSend }
func (*SendTaskStreamingRequest) MethodName() string       { return MethodTasksSendSubscribe }
func (*GetTaskRequest) MethodName() string                 { return MethodTasksGet }
func (*CancelTaskRequest) MethodName() string              { return MethodTasksCancel }
func (*SetTaskPushNotificationRequest) MethodName() string { return MethodTasksPushNotificationSet }
func (*GetTaskPushNotificationRequest) MethodName() string { return MethodTasksPushNotificationGet }
func (*TaskResubscriptionRequest) MethodName() string      { return MethodTasksResubscribe }

func (m JSONRPCMessage) RequestID() any { return m.ID }

func (*SendTaskRequest) isRequest()                {}
func (*SendTaskStreamingRequest) isRequest()       {}
func (*GetTaskRequest) isRequest()                 {}
func (*CancelTaskRequest) isRequest()              {}
func (*SetTaskPushNotificationRequest) isRequest() {}
func (*GetTaskPushNotificationRequest) isRequest() {}
func (*TaskResubscriptionRequest) isRequest()      {}

// RejectedRequestError is returned by [ParseRequest] for a body that cannot be routed.
type RejectedRequestError struct {
	// ID is the request id when it could be read, else nil.
	ID any
	// RPC is the error to send back.
	RPC *JSONRPCError
	// Err is the cause.
	Err error
}

// Error returns the error message.
func (e *RejectedRequestError) Error() string {
	return fmt.Sprintf("%s: %v", e.RPC.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *RejectedRequestError) Unwrap() error { return e.Err }

func reject(id any, rpc *JSONRPCError, err error) *RejectedRequestError {
	return &RejectedRequestError{ID: id, RPC: rpc.WithData(err.Error()), Err: err}
}

// ParseRequest decodes one JSON-RPC body into its request variant.
//
// Malformed JSON, a wrong protocol version, an unknown method and params
// that do not decode or validate are all rejected with a [*RejectedRequestError].
func ParseRequest(data []byte) (Request, error) {
	var env JSONRPCRequest
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &RejectedRequestError{RPC: NewJSONParseError(), Err: &RequestDecodeError{Err: err}}
	}

	if env.JSONRPC != JSONRPCVersion {
		return nil, reject(env.ID, NewInvalidRequestError(), &RequestDecodeError{Err: fmt.Errorf("unsupported jsonrpc version %q", env.JSONRPC)})
	}
	if env.Method == "" {
		return nil, reject(env.ID, NewInvalidRequestError(), &RequestDecodeError{Err: errors.New("method is required")})
	}

	var req Request
	switch env.Method {
	case MethodTasksSend:
		r := &SendTaskRequest{JSONRPCMessage: env.JSONRPCMessage, Method: env.Method}
		if err := decodeParams(env.Params, &r.Params); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		if err := validateSendParams(&r.Params); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		req = r
	case MethodTasksSendSubscribe:
		r := &SendTaskStreamingRequest{JSONRPCMessage: env.JSONRPCMessage, Method: env.Method}
		if err := decodeParams(env.Params, &r.Params); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		if err := validateSendParams(&r.Params); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		req = r
	case MethodTasksGet:
		r := &GetTaskRequest{JSONRPCMessage: env.JSONRPCMessage, Method: env.Method}
		if err := decodeParams(env.Params, &r.Params); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		if err := requireID(r.Params.ID); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		req = r
	case MethodTasksCancel:
		r := &CancelTaskRequest{JSONRPCMessage: env.JSONRPCMessage, Method: env.Method}
		if err := decodeParams(env.Params, &r.Params); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		if err := requireID(r.Params.ID); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		req = r
	case MethodTasksPushNotificationSet:
		r := &SetTaskPushNotificationRequest{JSONRPCMessage: env.JSONRPCMessage, Method: env.Method}
		if err := decodeParams(env.Params, &r.Params); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		if err := requireID(r.Params.ID); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		if r.Params.PushNotificationConfig.URL == "" {
			return nil, reject(env.ID, NewInvalidParamsError(), &ValidationError{Field: "pushNotificationConfig.url", Reason: "push notification URL is missing"})
		}
		req = r
	case MethodTasksPushNotificationGet:
		r := &GetTaskPushNotificationRequest{JSONRPCMessage: env.JSONRPCMessage, Method: env.Method}
		if err := decodeParams(env.Params, &r.Params); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		if err := requireID(r.Params.ID); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		req = r
	case MethodTasksResubscribe:
		r := &TaskResubscriptionRequest{JSONRPCMessage: env.JSONRPCMessage, Method: env.Method}
		if err := decodeParams(env.Params, &r.Params); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		if err := requireID(r.Params.ID); err != nil {
			return nil, reject(env.ID, NewInvalidParamsError(), err)
		}
		req = r
	default:
		return nil, reject(env.ID, NewMethodNotFoundError(), fmt.Errorf("method %q", env.Method))
	}

	return req, nil
}

func decodeParams(raw jsontext.Value, v any) error {
	if len(raw) == 0 {
		return &ValidationError{Field: "params", Reason: "params are required"}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &RequestDecodeError{Err: err}
	}
	return nil
}

func requireID(id string) error {
	if id == "" {
		return &ValidationError{Field: "id", Reason: "task id is required"}
	}
	return nil
}

func validateSendParams(p *TaskSendParams) error {
	if err := requireID(p.ID); err != nil {
		return err
	}
	if len(p.Message.Parts) == 0 {
		return &ValidationError{Field: "message.parts", Reason: "message must have at least one part"}
	}
	switch p.Message.Role {
	case RoleUser, RoleAgent:
	default:
		return &ValidationError{Field: "message.role", Reason: fmt.Sprintf("unknown role %q", p.Message.Role)}
	}
	if p.HistoryLength < 0 {
		return &ValidationError{Field: "historyLength", Reason: "must not be negative"}
	}
	return nil
}

// DecodeTaskEvent decodes the result of a streaming response into its event type.
func DecodeTaskEvent(raw jsontext.Value) (TaskEvent, error) {
	var shape struct {
		Status   jsontext.Value `json:"status"`
		Artifact jsontext.Value `json:"artifact"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("decode task event: %w", err)
	}

	switch {
	case len(shape.Status) > 0:
		var ev TaskStatusUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode status event: %w", err)
		}
		return &ev, nil
	case len(shape.Artifact) > 0:
		var ev TaskArtifactUpdateEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode artifact event: %w", err)
		}
		return &ev, nil
	default:
		return nil, fmt.Errorf("decode task event: neither status nor artifact in %s", raw)
	}
}
