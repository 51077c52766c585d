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

package a2aclient

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/a2aproject/a2a-tck-go/a2a"
)

func TestServiceParams(t *testing.T) {
	tests := []struct {
		name     string
		initial  ServiceParams
		key      string
		vals     []string
		expected []string
	}{
		{
			name:     "case insensitive key storage",
			initial:  make(ServiceParams),
			key:      "Key",
			vals:     []string{"value"},
			expected: []string{"value"},
		},
		{
			name:     "multiple values",
			initial:  make(ServiceParams),
			key:      "Multi",
			vals:     []string{"v1", "v2", "v3"},
			expected: []string{"v1", "v2", "v3"},
		},
		{
			name:     "duplicates are skipped",
			initial:  ServiceParams{"dup": {"v1"}},
			key:      "DUP",
			vals:     []string{"v1", "v2"},
			expected: []string{"v1", "v2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.initial.Append(tt.key, tt.vals...)
			if got := tt.initial.Get(tt.key); !slices.Equal(got, tt.expected) {
				t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestServiceParams_Merge(t *testing.T) {
	defaults := ServiceParams{"x-a": {"default"}, "x-b": {"kept"}}
	params := ServiceParams{}
	params.Append("X-A", "override")

	merged := params.merge(defaults)
	if got := merged.Get("x-a"); !slices.Equal(got, []string{"override"}) {
		t.Errorf("merged x-a = %v, want override", got)
	}
	if got := merged.Get("x-b"); !slices.Equal(got, []string{"kept"}) {
		t.Errorf("merged x-b = %v, want kept", got)
	}
	if got := defaults.Get("x-a"); !slices.Equal(got, []string{"default"}) {
		t.Errorf("defaults were modified: %v", got)
	}
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("call failed: %w", &TransportError{
		Transport: a2a.TransportGRPC,
		Message:   "agent returned an error",
		Payload:   a2a.NewErrorPayload(a2a.CodeTaskNotCancelable),
		Err:       cause,
	})

	te, ok := AsTransportError(err)
	if !ok {
		t.Fatalf("AsTransportError(%v) = false", err)
	}
	if te.Transport != a2a.TransportGRPC {
		t.Errorf("got transport %s, want grpc", te.Transport)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if !errors.Is(err, a2a.ErrTaskNotCancelable) {
		t.Error("errors.Is(err, ErrTaskNotCancelable) = false")
	}
	if code, ok := ErrorCode(err); !ok || code != a2a.CodeTaskNotCancelable {
		t.Errorf("ErrorCode() = %d, %v", code, ok)
	}
	want := "GRPC transport error: agent returned an error (code -32002: Task cannot be canceled): connection refused"
	if got := te.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if got := cfg.StreamingTimeout(); got != time.Minute {
		t.Errorf("StreamingTimeout() = %v, want 1m", got)
	}

	def := DefaultConfig()
	if def.Retry.MaxRetries != 3 || !slices.Contains(def.Retry.Statuses, 503) {
		t.Errorf("DefaultConfig().Retry = %+v", def.Retry)
	}
}

func TestSupportedMethods(t *testing.T) {
	jsonrpc := SupportedMethods(a2a.TransportJSONRPC)
	if slices.Contains(jsonrpc, "ListTasks") {
		t.Errorf("JSON-RPC supported methods %v contain ListTasks", jsonrpc)
	}
	rest := SupportedMethods(a2a.TransportREST)
	if !slices.Contains(rest, "ListTasks") || !slices.Contains(rest, "GetAgentCard") {
		t.Errorf("REST supported methods %v miss ListTasks or GetAgentCard", rest)
	}
}
