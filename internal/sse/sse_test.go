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

package sse

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDataStream(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "with and without space",
			body: "data: {\"a\":1}\n\ndata:{\"b\":2}\n\n",
			want: []string{`{"a":1}`, `{"b":2}`},
		},
		{
			name: "ignores comments and ids",
			body: ": keep-alive\n\nid: 1\nevent: message\ndata: x\n\n",
			want: []string{"x"},
		},
		{
			name: "joins multi-line data",
			body: "data: line1\ndata: line2\n\n",
			want: []string{"line1\nline2"},
		},
		{
			name: "flushes last event without blank line",
			body: "data: first\n\ndata: [DONE]",
			want: []string{"first", "[DONE]"},
		},
		{
			name: "empty body",
			body: "",
			want: nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for data, err := range ParseDataStream(strings.NewReader(tc.body)) {
				if err != nil {
					t.Fatalf("ParseDataStream() error = %v", err)
				}
				got = append(got, string(data))
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("ParseDataStream() wrong frames (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDataStream_StopsOnBreak(t *testing.T) {
	count := 0
	for range ParseDataStream(strings.NewReader("data: 1\n\ndata: 2\n\ndata: 3\n\n")) {
		count++
		break
	}
	if count != 1 {
		t.Fatalf("got %d frames after break, want 1", count)
	}
}

func TestIsDone(t *testing.T) {
	if !IsDone([]byte(" [DONE] ")) {
		t.Fatal("IsDone([DONE]) = false")
	}
	if IsDone([]byte(`{"done":true}`)) {
		t.Fatal("IsDone(json) = true")
	}
}

func TestWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	w.WriteHeaders()
	if err := w.WriteData("7", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("WriteData() error = %v", err)
	}
	if err := w.WriteDone(); err != nil {
		t.Fatalf("WriteDone() error = %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != ContentEventStream {
		t.Fatalf("Content-Type = %q, want %q", got, ContentEventStream)
	}
	want := "id: 7\ndata: {\"x\":1}\n\ndata: [DONE]\n\n"
	if got := rec.Body.String(); got != want {
		t.Fatalf("body = %q, want %q", got, want)
	}
}
