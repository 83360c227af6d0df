// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package sse decodes server-sent event streams.
package sse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxEventSize bounds a single data line.
const maxEventSize = 1 << 20

// Event represents a Server-Sent Event.
type Event struct {
	Type  string
	Data  string
	ID    string
	Retry int
}

// Decoder decodes Server-Sent Events from an io.Reader.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder creates a new SSE decoder.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &Decoder{scanner: scanner}
}

// Decode returns the next event in the stream, or [io.EOF] once the stream ends.
func (d *Decoder) Decode() (*Event, error) {
	event := &Event{}
	var data []string

	for d.scanner.Scan() {
		line := d.scanner.Text()

		// Empty line dispatches the event
		if line == "" {
			if len(data) > 0 || event.Type != "" {
				event.Data = strings.Join(data, "\n")
				return event, nil
			}
			continue
		}

		// Comments
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event.Type = value
		case "data":
			data = append(data, value)
		case "id":
			event.ID = value
		case "retry":
			if retry, err := strconv.Atoi(value); err == nil {
				event.Retry = retry
			}
		}
	}

	if err := d.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event stream: %w", err)
	}

	// Stream closed without a trailing blank line
	if len(data) > 0 || event.Type != "" {
		event.Data = strings.Join(data, "\n")
		return event, nil
	}

	return nil, io.EOF
}
