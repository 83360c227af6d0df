// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package sse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecoder(t *testing.T) {
	stream := strings.Join([]string{
		": keep-alive",
		"data: {\"a\":1}",
		"",
		"event: status",
		"id: 7",
		"retry: 1500",
		"data: line one",
		"data: line two",
		"",
		"",
		"data: unterminated",
	}, "\n")

	dec := NewDecoder(strings.NewReader(stream))
	var got []Event
	for {
		ev, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		got = append(got, *ev)
	}

	want := []Event{
		{Data: `{"a":1}`},
		{Type: "status", ID: "7", Retry: 1500, Data: "line one\nline two"},
		{Data: "unterminated"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
