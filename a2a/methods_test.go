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

package a2a

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSupportsMethod(t *testing.T) {
	tests := []struct {
		transport TransportType
		op        Operation
		want      bool
	}{
		{transport: TransportJSONRPC, op: OpSendMessage, want: true},
		{transport: TransportJSONRPC, op: OpListTasks, want: false},
		{transport: TransportGRPC, op: OpListTasks, want: true},
		{transport: TransportREST, op: OpListTasks, want: true},
		{transport: TransportREST, op: OpDeletePushConfig, want: true},
		{transport: TransportGRPC, op: OpGetAuthenticatedExtendedCard, want: true},
		{transport: TransportJSONRPC, op: Operation("no_such_op"), want: false},
		{transport: TransportType("smtp"), op: OpSendMessage, want: false},
	}
	for _, tc := range tests {
		t.Run(string(tc.transport)+"/"+string(tc.op), func(t *testing.T) {
			if got := SupportsMethod(tc.transport, tc.op); got != tc.want {
				t.Fatalf("SupportsMethod(%s, %s) = %v, want %v", tc.transport, tc.op, got, tc.want)
			}
		})
	}
}

func TestMethodMapping_Lookup(t *testing.T) {
	m, ok := LookupMethod(OpListTasks)
	if !ok {
		t.Fatal("LookupMethod(list_tasks) not found")
	}
	got := map[TransportType]string{
		TransportJSONRPC: m.Name(TransportJSONRPC),
		TransportGRPC:    m.Name(TransportGRPC),
		TransportREST:    m.Name(TransportREST),
	}
	want := map[TransportType]string{
		TransportJSONRPC: "tasks/list",
		TransportGRPC:    "ListTask",
		TransportREST:    "GET /v1/tasks",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("wrong names (-want +got):\n%s", diff)
	}
	if m.AppliesTo(TransportJSONRPC) {
		t.Fatal("list_tasks must not apply to JSON-RPC")
	}

	verb, path := MustLookupMethod(OpDeletePushConfig).RESTRoute()
	if verb != "DELETE" || path != "/v1/tasks/{id}/pushNotificationConfigs/{configId}" {
		t.Fatalf("RESTRoute() = %q %q", verb, path)
	}
}

func TestMethods_ReturnsCopy(t *testing.T) {
	methods := Methods()
	methods[0].JSONRPC = "mutated"
	if MustLookupMethod(OpSendMessage).JSONRPC != "message/send" {
		t.Fatal("Methods() exposed the canonical table")
	}
}

func TestParseTransportType(t *testing.T) {
	tests := []struct {
		in      string
		want    TransportType
		wantErr bool
	}{
		{in: "JSONRPC", want: TransportJSONRPC},
		{in: " json-rpc-2.0 ", want: TransportJSONRPC},
		{in: "GRPC", want: TransportGRPC},
		{in: "grpc-web", want: TransportGRPC},
		{in: "HTTP+JSON", want: TransportREST},
		{in: "RESTful", want: TransportREST},
		{in: "websocket", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseTransportType(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTransportType(%q) error = nil, want error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseTransportType(%q) = (%q, %v), want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestParseTransportList(t *testing.T) {
	got := ParseTransportList("rest, grpc,bogus,http, jsonrpc")
	want := []TransportType{TransportREST, TransportGRPC, TransportJSONRPC}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseTransportList() wrong result (-want +got):\n%s", diff)
	}
}

func TestListTasksRequest_Validate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		req     ListTasksRequest
		wantErr bool
	}{
		{name: "empty", req: ListTasksRequest{}},
		{name: "max page size", req: ListTasksRequest{PageSize: 100}},
		{name: "page size too large", req: ListTasksRequest{PageSize: 101}, wantErr: true},
		{name: "negative page size", req: ListTasksRequest{PageSize: -5}, wantErr: true},
		{name: "unknown state", req: ListTasksRequest{Status: "done"}, wantErr: true},
		{name: "negative history", req: ListTasksRequest{HistoryLength: &negative}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
