// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a_test

import (
	"testing"

	gocmp "github.com/google/go-cmp/cmp"

	a2a "github.com/go-a2a/a2a-purchasing"
)

func TestMergeMetadata(t *testing.T) {
	tests := map[string]struct {
		target map[string]any
		source map[string]any
		want   map[string]any
	}{
		"source wins on conflict": {
			target: map[string]any{"conversation_id": "remote", "order": "o1"},
			source: map[string]any{"conversation_id": "local"},
			want:   map[string]any{"conversation_id": "local", "order": "o1"},
		},
		"union keeps every key": {
			target: map[string]any{"a": 1},
			source: map[string]any{"b": 2},
			want:   map[string]any{"a": 1, "b": 2},
		},
		"nil target copies source": {
			target: nil,
			source: map[string]any{"conversation_id": "c1"},
			want:   map[string]any{"conversation_id": "c1"},
		},
		"empty source leaves target": {
			target: map[string]any{"a": 1},
			source: nil,
			want:   map[string]any{"a": 1},
		},
		"both empty": {
			target: nil,
			source: nil,
			want:   nil,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := a2a.MergeMetadata(tt.target, tt.source)
			if diff := gocmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MergeMetadata mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeMetadataIdempotent(t *testing.T) {
	source := map[string]any{"conversation_id": "c1", "message_id": "m1"}
	once := a2a.MergeMetadata(map[string]any{"x": "y"}, source)
	snapshot := a2a.CloneMetadata(once)
	twice := a2a.MergeMetadata(once, source)
	if diff := gocmp.Diff(snapshot, twice); diff != "" {
		t.Errorf("second merge changed the result (-want +got):\n%s", diff)
	}
}

func TestMergeMetadataDoesNotAliasSource(t *testing.T) {
	source := map[string]any{"conversation_id": "c1"}
	got := a2a.MergeMetadata(nil, source)
	got["conversation_id"] = "changed"
	if source["conversation_id"] != "c1" {
		t.Error("MergeMetadata(nil, source) aliased source")
	}
}

func TestChainMessageID(t *testing.T) {
	t.Run("prior id is kept", func(t *testing.T) {
		md := a2a.ChainMessageID(map[string]any{a2a.MetadataMessageID: "m1"})
		if got := md[a2a.MetadataLastMessageID]; got != "m1" {
			t.Errorf("last_message_id = %v, want m1", got)
		}
		if got := md[a2a.MetadataMessageID]; got == "m1" || got == "" {
			t.Errorf("message_id = %v, want a fresh id", got)
		}
	})

	t.Run("no prior id", func(t *testing.T) {
		md := a2a.ChainMessageID(nil)
		if _, ok := md[a2a.MetadataLastMessageID]; ok {
			t.Error("last_message_id set without a prior id")
		}
		if md[a2a.MetadataMessageID] == "" {
			t.Error("message_id not assigned")
		}
	})
}
