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

package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
)

func TestNormalizeResponse(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want any
	}{
		{
			name: "json-rpc envelope",
			in: map[string]any{
				"jsonrpc": "2.0",
				"id":      "tck-1",
				"result":  map[string]any{"id": "task-1", "kind": "task", "timestamp": "now"},
			},
			want: map[string]any{"id": "task-1", "kind": "task"},
		},
		{
			name: "bare result keeps its id",
			in:   map[string]any{"id": "task-1", "_headers": map[string]any{}, "requestId": "r", "_metadata": 1},
			want: map[string]any{"id": "task-1"},
		},
		{
			name: "scalar result",
			in:   map[string]any{"result": true},
			want: map[string]any{"value": true},
		},
		{
			name: "transport error",
			in: &a2aclient.TransportError{
				Transport: a2a.TransportGRPC,
				Message:   "agent returned a gRPC error",
				Payload:   a2a.NewErrorPayload(a2a.CodeTaskNotFound),
			},
			want: map[string]any{"error": map[string]any{"code": a2a.CodeTaskNotFound, "message": a2a.CanonicalMessage(a2a.CodeTaskNotFound)}},
		},
		{
			name: "config list",
			in:   []map[string]any{{"taskId": "t"}},
			want: []any{map[string]any{"taskId": "t"}},
		},
		{
			name: "nil",
			in:   nil,
			want: map[string]any{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, NormalizeResponse(tc.in)); diff != "" {
				t.Errorf("NormalizeResponse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateResponseEquivalence(t *testing.T) {
	task := func(state string, parts ...any) map[string]any {
		return map[string]any{
			"id":      "task-1",
			"kind":    "task",
			"status":  map[string]any{"state": state},
			"history": parts,
		}
	}

	t.Run("single transport", func(t *testing.T) {
		got := ValidateResponseEquivalence(map[a2a.TransportType]any{a2a.TransportREST: task("completed")}, "tasks/get")
		if !got.Equivalent || got.Message != "Only one transport available, equivalence not applicable" {
			t.Errorf("ValidateResponseEquivalence() = %+v", got)
		}
	})

	t.Run("equivalent", func(t *testing.T) {
		got := ValidateResponseEquivalence(map[a2a.TransportType]any{
			a2a.TransportREST:    task("completed", "a"),
			a2a.TransportGRPC:    task("completed", "a"),
			a2a.TransportJSONRPC: map[string]any{"jsonrpc": "2.0", "id": "tck-1", "result": task("completed", "a")},
		}, "tasks/get")
		if !got.Equivalent || got.ReferenceTransport != a2a.TransportJSONRPC || got.TransportCount != 3 {
			t.Errorf("ValidateResponseEquivalence() = %+v", got)
		}
	})

	t.Run("differences", func(t *testing.T) {
		rest := task("working", "a", "b")
		delete(rest, "kind")
		rest["extra"] = 1
		grpcTask := task("failed", "x")
		grpcTask["id"] = 7

		got := ValidateResponseEquivalence(map[a2a.TransportType]any{
			a2a.TransportJSONRPC: task("completed", "a"),
			a2a.TransportGRPC:    grpcTask,
			a2a.TransportREST:    rest,
		}, "tasks/get")
		want := map[string][]string{
			"jsonrpc_vs_grpc": {
				"Key 'history': Index 0: Value mismatch: jsonrpc=a, grpc=x",
				"Key 'id': Response type mismatch: jsonrpc=string, grpc=number",
				"Key 'status': Key 'state': Value mismatch: jsonrpc=completed, grpc=failed",
			},
			"jsonrpc_vs_rest": {
				"Key 'kind' missing in rest response",
				"Key 'extra' missing in jsonrpc response",
				"Key 'history': List length mismatch: jsonrpc=1, rest=2",
				"Key 'status': Key 'state': Value mismatch: jsonrpc=completed, rest=working",
			},
		}
		if got.Equivalent {
			t.Fatal("ValidateResponseEquivalence() equivalent = true, want false")
		}
		if diff := cmp.Diff(want, got.Differences); diff != "" {
			t.Errorf("differences mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("numbers compare by value", func(t *testing.T) {
		got := ValidateResponseEquivalence(map[a2a.TransportType]any{
			a2a.TransportJSONRPC: map[string]any{"n": 3},
			a2a.TransportREST:    map[string]any{"n": 3.0},
		}, "x")
		if !got.Equivalent {
			t.Errorf("ValidateResponseEquivalence() differences = %v", got.Differences)
		}
	})

	t.Run("errors", func(t *testing.T) {
		notFound := func(tt a2a.TransportType) error {
			return &a2aclient.TransportError{Transport: tt, Payload: a2a.NewErrorPayload(a2a.CodeTaskNotFound)}
		}
		got := ValidateResponseEquivalence(map[a2a.TransportType]any{
			a2a.TransportJSONRPC: notFound(a2a.TransportJSONRPC),
			a2a.TransportREST:    notFound(a2a.TransportREST),
		}, "tasks/get")
		if !got.Equivalent {
			t.Errorf("ValidateResponseEquivalence() differences = %v", got.Differences)
		}
	})
}

func TestCompareCoreFields(t *testing.T) {
	responses := map[a2a.TransportType]map[string]any{
		a2a.TransportJSONRPC: {"id": "task-1", "status": map[string]any{"state": "completed", "timestamp": "t1"}, "history": []any{}},
		a2a.TransportREST:    {"id": "task-1", "status": map[string]any{"state": "completed", "timestamp": "t2"}},
	}
	if got := CompareCoreFields(responses); !got.Equivalent {
		t.Errorf("CompareCoreFields() differences = %v", got.Differences)
	}

	responses[a2a.TransportREST]["status"] = map[string]any{"state": "working"}
	got := CompareCoreFields(responses)
	want := map[string][]string{"jsonrpc_vs_rest": {"Key 'status.state': Value mismatch: jsonrpc=completed, rest=working"}}
	if diff := cmp.Diff(want, got.Differences); diff != "" {
		t.Errorf("CompareCoreFields() differences mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateErrorEquivalence(t *testing.T) {
	withCode := func(tt a2a.TransportType, code int) error {
		return &a2aclient.TransportError{Transport: tt, Payload: a2a.NewErrorPayload(code)}
	}
	taskNotFound := a2a.CodeTaskNotFound

	testCases := []struct {
		name       string
		errs       map[a2a.TransportType]error
		wantCode   *int
		wantIssues []string
	}{
		{
			name: "same code",
			errs: map[a2a.TransportType]error{
				a2a.TransportJSONRPC: withCode(a2a.TransportJSONRPC, a2a.CodeTaskNotFound),
				a2a.TransportGRPC:    withCode(a2a.TransportGRPC, a2a.CodeTaskNotFound),
			},
			wantCode:   &taskNotFound,
			wantIssues: []string{},
		},
		{
			name: "divergent codes",
			errs: map[a2a.TransportType]error{
				a2a.TransportJSONRPC: withCode(a2a.TransportJSONRPC, a2a.CodeTaskNotFound),
				a2a.TransportREST:    withCode(a2a.TransportREST, a2a.CodeInternalError),
			},
			wantCode: &taskNotFound,
			wantIssues: []string{
				"rest: got error code -32603, want -32001",
				"Error code mismatch: jsonrpc=-32001, rest=-32603",
			},
		},
		{
			name: "success and foreign errors",
			errs: map[a2a.TransportType]error{
				a2a.TransportJSONRPC: nil,
				a2a.TransportGRPC:    errors.New("boom"),
				a2a.TransportREST:    &a2aclient.TransportError{Transport: a2a.TransportREST, Message: "connection refused"},
			},
			wantIssues: []string{
				"jsonrpc: expected an error, got success",
				"grpc: error is not a transport error: boom",
				"rest: error carries no A2A error code: REST transport error: connection refused",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateErrorEquivalence(tc.errs, tc.wantCode)
			if diff := cmp.Diff(tc.wantIssues, got.Issues); diff != "" {
				t.Errorf("issues mismatch (-want +got):\n%s", diff)
			}
			if got.Equivalent != (len(tc.wantIssues) == 0) {
				t.Errorf("Equivalent = %v with issues %v", got.Equivalent, got.Issues)
			}
		})
	}
}

type probeClient struct {
	a2aclient.Transport
	transport a2a.TransportType
}

func (c *probeClient) Type() a2a.TransportType { return c.transport }

func TestProbe(t *testing.T) {
	clients := map[a2a.TransportType]a2aclient.Transport{
		a2a.TransportJSONRPC: &probeClient{transport: a2a.TransportJSONRPC},
		a2a.TransportGRPC:    &probeClient{transport: a2a.TransportGRPC},
		a2a.TransportREST:    &probeClient{transport: a2a.TransportREST},
	}
	failure := &a2aclient.TransportError{Transport: a2a.TransportGRPC, Payload: a2a.NewErrorPayload(a2a.CodeUnsupportedOperation)}

	got := Probe(t.Context(), clients, func(ctx context.Context, c a2aclient.Transport) (any, error) {
		if c.Type() == a2a.TransportGRPC {
			return nil, failure
		}
		return map[string]any{"transport": string(c.Type())}, nil
	})

	wantResponses := map[a2a.TransportType]any{
		a2a.TransportJSONRPC: map[string]any{"transport": "jsonrpc"},
		a2a.TransportREST:    map[string]any{"transport": "rest"},
	}
	if diff := cmp.Diff(wantResponses, got.Responses); diff != "" {
		t.Errorf("responses mismatch (-want +got):\n%s", diff)
	}
	if len(got.Errors) != 1 || got.Errors[a2a.TransportGRPC] != failure {
		t.Errorf("errors = %v, want the gRPC failure", got.Errors)
	}
	if outcomes := got.Outcomes(); len(outcomes) != 3 {
		t.Errorf("Outcomes() = %v, want 3 entries", outcomes)
	}
}
