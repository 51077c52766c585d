// Copyright 2025 The A2A Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sse provides Server-Sent Events (SSE) framing for A2A streams.
package sse

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"net/http"
)

const (
	// ContentEventStream is the MIME type for Server-Sent Events.
	ContentEventStream = "text/event-stream"

	// DoneSentinel is the data frame some agents send to mark the end of a stream.
	DoneSentinel = "[DONE]"

	sseIDPrefix   = "id:"
	sseDataPrefix = "data:"

	// MaxSSETokenSize is the maximum size for SSE data lines (10MB).
	// The default bufio.Scanner buffer of 64KB is insufficient for large payloads
	MaxSSETokenSize = 10 * 1024 * 1024 // 10MB
)

// IsDone reports whether a data frame is the end-of-stream sentinel.
func IsDone(data []byte) bool {
	return string(bytes.TrimSpace(data)) == DoneSentinel
}

// ParseDataStream returns an iterator over the data blocks in an SSE stream.
// Consecutive data lines of one event are joined with a newline and the event
// is dispatched on a blank line or at the end of the body.
func ParseDataStream(body io.Reader) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		scanner := bufio.NewScanner(body)
		buf := make([]byte, 0, bufio.MaxScanTokenSize)
		scanner.Buffer(buf, MaxSSETokenSize)
		// Check for "data:" prefix (without space) to support both "data: foo" and "data:foo"
		prefixBytes := []byte(sseDataPrefix)

		var event []byte
		pending := false
		for scanner.Scan() {
			lineBytes := scanner.Bytes()
			if len(lineBytes) == 0 {
				if pending {
					if !yield(event, nil) {
						return
					}
					event, pending = nil, false
				}
				continue
			}
			if bytes.HasPrefix(lineBytes, prefixBytes) {
				data := lineBytes[len(prefixBytes):]
				if len(data) > 0 && data[0] == ' ' {
					data = data[1:]
				}
				if pending {
					event = append(event, '\n')
				}
				event = append(event, data...)
				pending = true
			}
			// Ignore comments, ids and other SSE fields
		}
		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("SSE stream error: %w", err))
			return
		}
		if pending {
			yield(event, nil)
		}
	}
}

// Writer writes SSE frames to an http.ResponseWriter. Fake agents in tests use it.
type Writer struct {
	writer  http.ResponseWriter
	flusher http.Flusher
}

// NewWriter creates a new [Writer].
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}
	return &Writer{writer: w, flusher: flusher}, nil
}

// WriteHeaders writes the standard SSE headers.
func (w *Writer) WriteHeaders() {
	header := w.writer.Header()
	header.Set("Content-Type", ContentEventStream)
	header.Set("Cache-Control", "no-cache")
	w.writer.WriteHeader(http.StatusOK)
}

// WriteData writes a single data frame.
func (w *Writer) WriteData(id string, data []byte) error {
	if id != "" {
		if _, err := fmt.Fprintf(w.writer, "%s %s\n", sseIDPrefix, id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w.writer, "%s %s\n\n", sseDataPrefix, data); err != nil {
		return err
	}
	w.flusher.Flush()
	return nil
}

// WriteDone writes the end-of-stream sentinel.
func (w *Writer) WriteDone() error {
	return w.WriteData("", []byte(DoneSentinel))
}
