// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"maps"

	"github.com/google/uuid"
)

// Well-known metadata keys.
const (
	MetadataConversationID = "conversation_id"
	MetadataMessageID      = "message_id"
	MetadataLastMessageID  = "last_message_id"
)

// MergeMetadata merges source into target and returns the result.
//
// The merge is a union: no key of target is deleted, and on conflict the
// value from source wins. When target is nil a copy of source is returned.
// target is modified in place when non-nil.
func MergeMetadata(target, source map[string]any) map[string]any {
	if len(source) == 0 {
		return target
	}
	if target == nil {
		return maps.Clone(source)
	}
	maps.Copy(target, source)
	return target
}

// ChainMessageID assigns a fresh message id to metadata, keeping any
// previous id under [MetadataLastMessageID]. It returns the updated map.
func ChainMessageID(metadata map[string]any) map[string]any {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	if prev, ok := metadata[MetadataMessageID]; ok {
		metadata[MetadataLastMessageID] = prev
	}
	metadata[MetadataMessageID] = uuid.NewString()
	return metadata
}

// CloneMetadata returns a shallow copy of m, or nil.
func CloneMetadata(m map[string]any) map[string]any {
	return maps.Clone(m)
}
