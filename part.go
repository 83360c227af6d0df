// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"bytes"
	"maps"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// PartType is the discriminator of a [Part].
type PartType string

const (
	PartTypeText PartType = "text"
	PartTypeFile PartType = "file"
	PartTypeData PartType = "data"
)

// FileContent is the payload of a file part. Exactly one of Bytes or URI is set.
type FileContent struct {
	Name     string `json:"name,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// Part is a tagged union of message and artifact content.
//
// Only [PartTypeText] carries meaning to the protocol layer. Parts with any
// other tag, including tags unknown to this package, keep their Type and
// every other member on the wire and render as an explicit unsupported marker.
type Part struct {
	Type     PartType       `json:"type"`
	Text     string         `json:"text,omitempty"`
	File     *FileContent   `json:"file,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	// Unknown holds members this package does not model, as a JSON object.
	Unknown jsontext.Value `json:",unknown"`
}

// MarshalJSON encodes p with its unknown members inlined. Encoders that do
// not understand the unknown-member tag go through this method too.
func (p Part) MarshalJSON() ([]byte, error) {
	type part Part
	return json.Marshal(part(p))
}

// NewTextPart returns a text [Part].
func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// NewFilePart returns a file [Part].
func NewFilePart(file FileContent) Part {
	return Part{Type: PartTypeFile, File: &file}
}

// NewDataPart returns a structured data [Part].
func NewDataPart(data map[string]any) Part {
	return Part{Type: PartTypeData, Data: data}
}

// Render returns the caller-facing string form of p.
func (p Part) Render() string {
	switch p.Type {
	case PartTypeText:
		return p.Text
	case PartTypeFile, PartTypeData:
		return UnsupportedPart(p.Type)
	default:
		return UnsupportedPart(p.Type)
	}
}

// UnsupportedPart is the marker emitted in place of a part this layer cannot render.
func UnsupportedPart(t PartType) string {
	return "unsupported part type: " + string(t)
}

// RenderParts renders every part in order. Nothing is dropped.
func RenderParts(parts []Part) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.Render())
	}
	return out
}

// FirstText returns the text of the first part and whether that part is text.
func FirstText(parts []Part) (string, bool) {
	if len(parts) == 0 || parts[0].Type != PartTypeText {
		return "", false
	}
	return parts[0].Text, true
}

func cloneParts(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	out := slices.Clone(parts)
	for i := range out {
		if out[i].File != nil {
			f := *out[i].File
			out[i].File = &f
		}
		out[i].Data = maps.Clone(out[i].Data)
		out[i].Metadata = CloneMetadata(out[i].Metadata)
		out[i].Unknown = bytes.Clone(out[i].Unknown)
	}
	return out
}
