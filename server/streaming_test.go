// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/server"
)

func TestStreamKeepsUnknownPartMembers(t *testing.T) {
	var part a2a.Part
	if err := json.Unmarshal([]byte(`{"type":"image","url":"https://x/y.png","alt":"pic"}`), &part); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	rec := httptest.NewRecorder()
	stream, err := server.NewStream(rec, "req-1")
	if err != nil {
		t.Fatalf("NewStream failed: %v", err)
	}
	ev := &a2a.TaskStatusUpdateEvent{
		ID: "t1",
		Status: a2a.TaskStatus{
			State:   a2a.TaskStateWorking,
			Message: &a2a.Message{Role: a2a.RoleAgent, Parts: []a2a.Part{part}},
		},
	}
	if err := stream.Send(ev); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	body := rec.Body.String()
	for _, want := range []string{`"type":"image"`, `"url":"https://x/y.png"`, `"alt":"pic"`} {
		if !strings.Contains(body, want) {
			t.Errorf("event %s lacks %s", body, want)
		}
	}
}
