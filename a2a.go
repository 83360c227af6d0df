// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a provides the wire types of the Agent-to-Agent (A2A) v0.1 protocol
// used by the purchasing concierge and its remote seller agents.
package a2a

import (
	"slices"
	"time"
)

// Version is the current version of the A2A protocol.
const Version = "0.1.0"

// Well-known discovery paths.
const (
	// AgentCardWellKnownPath is where an agent publishes its [AgentCard].
	AgentCardWellKnownPath = "/.well-known/agent.json"
	// JWKSWellKnownPath is where an agent publishes its push notification signing keys.
	JWKSWellKnownPath = "/.well-known/jwks.json"
)

// TaskState represents the state of a Task.
type TaskState string

const (
	// TaskStateWorking indicates the task is being worked on.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired indicates the agent needs more input from the user.
	TaskStateInputRequired TaskState = "input-required"

	// TaskStateCompleted indicates the task has been completed.
	TaskStateCompleted TaskState = "completed"

	// TaskStateCanceled indicates the task has been canceled.
	TaskStateCanceled TaskState = "canceled"

	// TaskStateFailed indicates the task has failed.
	TaskStateFailed TaskState = "failed"

	// TaskStateUnknown indicates the task state cannot be determined.
	TaskStateUnknown TaskState = "unknown"
)

// IsTerminal reports whether s is a final state. Terminal tasks are never mutated.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateUnknown:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known task states.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateUnknown:
		return true
	default:
		return false
	}
}

// Role identifies the sender of a [Message].
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// AgentAuthentication declares the authentication scheme an agent accepts.
type AgentAuthentication struct {
	Schemes     []string `json:"schemes"`
	Credentials string   `json:"credentials,omitempty"`
}

// AgentCapabilities describes optional protocol features an agent supports.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitzero"`
	PushNotifications      bool `json:"pushNotifications,omitzero"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitzero"`
}

// AgentSkill describes a unit of capability an agent can perform.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// AgentCard represents metadata about an agent, including its capabilities.
//
// A card is fetched once per remote through discovery and treated as immutable afterwards.
type AgentCard struct {
	Name               string               `json:"name"`
	Description        string               `json:"description,omitempty"`
	URL                string               `json:"url"`
	Version            string               `json:"version"`
	DocumentationURL   string               `json:"documentationUrl,omitempty"`
	Authentication     *AgentAuthentication `json:"authentication,omitempty"`
	DefaultInputModes  []string             `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string             `json:"defaultOutputModes,omitempty"`
	Capabilities       AgentCapabilities    `json:"capabilities"`
	Skills             []AgentSkill         `json:"skills,omitempty"`
}

// Schemes returns the declared authentication schemes, or nil when none are declared.
func (c *AgentCard) Schemes() []string {
	if c == nil || c.Authentication == nil {
		return nil
	}
	return c.Authentication.Schemes
}

// Message is a single turn of communication between a user and an agent.
type Message struct {
	Role     Role           `json:"role"`
	Parts    []Part         `json:"parts"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewTextMessage returns a [Message] with a single text part.
func NewTextMessage(role Role, text string) Message {
	return Message{
		Role:  role,
		Parts: []Part{NewTextPart(text)},
	}
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.Parts = cloneParts(m.Parts)
	c.Metadata = CloneMetadata(m.Metadata)
	return &c
}

// Artifact represents an output generated during a task.
type Artifact struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Index       int            `json:"index"`
	Append      bool           `json:"append,omitzero"`
	LastChunk   bool           `json:"lastChunk,omitzero"`
}

// Clone returns a deep copy of a.
func (a Artifact) Clone() Artifact {
	a.Parts = cloneParts(a.Parts)
	a.Metadata = CloneMetadata(a.Metadata)
	return a
}

// TaskStatus is the state of a task at a point in time.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Task represents a unit of work in the A2A protocol.
type Task struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId,omitempty"`
	Status    TaskStatus     `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	History   []Message      `json:"history,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Status.Message = t.Status.Message.Clone()
	if t.Artifacts != nil {
		c.Artifacts = make([]Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			c.Artifacts[i] = a.Clone()
		}
	}
	if t.History != nil {
		c.History = make([]Message, len(t.History))
		for i := range t.History {
			c.History[i] = *t.History[i].Clone()
		}
	}
	c.Metadata = CloneMetadata(t.Metadata)
	return &c
}

// PushNotificationConfig is where and how an agent delivers task updates out of band.
type PushNotificationConfig struct {
	URL            string               `json:"url"`
	Token          string               `json:"token,omitempty"`
	Authentication *AgentAuthentication `json:"authentication,omitempty"`
}

// TaskPushNotificationConfig binds a [PushNotificationConfig] to a task.
type TaskPushNotificationConfig struct {
	ID                     string                 `json:"id"`
	PushNotificationConfig PushNotificationConfig `json:"pushNotificationConfig"`
}

// TaskSendParams are the parameters of tasks/send and tasks/sendSubscribe.
type TaskSendParams struct {
	ID                  string                  `json:"id"`
	SessionID           string                  `json:"sessionId,omitempty"`
	Message             Message                 `json:"message"`
	AcceptedOutputModes []string                `json:"acceptedOutputModes,omitempty"`
	PushNotification    *PushNotificationConfig `json:"pushNotification,omitempty"`
	HistoryLength       int                     `json:"historyLength,omitzero"`
	Metadata            map[string]any          `json:"metadata,omitempty"`
}

// AcceptsAny reports whether the requested output modes overlap with supported.
// An empty request accepts anything.
func (p *TaskSendParams) AcceptsAny(supported []string) bool {
	if len(p.AcceptedOutputModes) == 0 {
		return true
	}
	for _, mode := range p.AcceptedOutputModes {
		if slices.Contains(supported, mode) {
			return true
		}
	}
	return false
}

// TaskQueryParams are the parameters of tasks/get and tasks/resubscribe.
type TaskQueryParams struct {
	ID            string         `json:"id"`
	HistoryLength int            `json:"historyLength,omitzero"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// TaskIDParams are the parameters of tasks/cancel and tasks/pushNotification/get.
type TaskIDParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskStatusUpdateEvent is streamed when a task's status changes.
type TaskStatusUpdateEvent struct {
	ID       string         `json:"id"`
	Status   TaskStatus     `json:"status"`
	Final    bool           `json:"final"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskArtifactUpdateEvent is streamed when a task produces an artifact.
type TaskArtifactUpdateEvent struct {
	ID       string         `json:"id"`
	Artifact Artifact       `json:"artifact"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskEvent is either a [*TaskStatusUpdateEvent] or a [*TaskArtifactUpdateEvent].
type TaskEvent interface {
	// TaskID returns the task ID that this event is for.
	TaskID() string
	// IsFinal reports whether no further events follow for the task.
	IsFinal() bool
}

var (
	_ TaskEvent = (*TaskStatusUpdateEvent)(nil)
	_ TaskEvent = (*TaskArtifactUpdateEvent)(nil)
)

// TaskID implements [TaskEvent].
func (e *TaskStatusUpdateEvent) TaskID() string { return e.ID }

// IsFinal implements [TaskEvent].
func (e *TaskStatusUpdateEvent) IsFinal() bool { return e.Final }

// TaskID implements [TaskEvent].
func (e *TaskArtifactUpdateEvent) TaskID() string { return e.ID }

// IsFinal implements [TaskEvent].
func (e *TaskArtifactUpdateEvent) IsFinal() bool { return false }
