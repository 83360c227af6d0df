// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"sync"

	"github.com/google/uuid"
)

// Session is the routing state of one conversation.
//
// A Session is mutated only by [Orchestrator.SendTask], which serializes the
// turns of a session.
type Session struct {
	mu sync.Mutex

	// ConversationID is the harness key of the conversation.
	ConversationID string
	// SessionID is sent with every task of the conversation.
	SessionID string
	// Active reports whether the last task is still open.
	Active bool
	// ActiveAgent is the remote the conversation is talking to, or empty.
	ActiveAgent string
	// TaskID is the open task continued by the next turn, or empty.
	TaskID string
	// InputMetadata is carried into the metadata of every outgoing message.
	InputMetadata map[string]any
	// Escalate asks the harness to put the remote's question to the human.
	Escalate bool
}

// CurrentAgent returns the agent the next turn should go to, or empty when
// no task is open.
func (s *Session) CurrentAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Active {
		return ""
	}
	return s.ActiveAgent
}

// SessionStore owns the sessions of a harness, keyed by conversation id.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore returns an empty [SessionStore].
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns the session of conversationID, creating it on first use.
func (s *SessionStore) Get(conversationID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[conversationID]
	if !ok {
		sess = &Session{
			ConversationID: conversationID,
			SessionID:      uuid.NewString(),
		}
		s.sessions[conversationID] = sess
	}
	return sess
}

// Delete forgets conversationID.
func (s *SessionStore) Delete(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, conversationID)
}

// Len returns the number of sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}
