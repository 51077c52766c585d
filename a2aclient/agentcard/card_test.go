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

package agentcard

import (
	"testing"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/google/go-cmp/cmp"
)

func multiTransportCard() map[string]any {
	return map[string]any{
		"name":               "multi",
		"url":                "http://agent/jsonrpc",
		"preferredTransport": "JSONRPC",
		"protocolVersion":    "0.3.0",
		"additionalInterfaces": []any{
			map[string]any{"transport": "GRPC", "url": "grpc://agent:50051"},
			map[string]any{"type": "HTTP+JSON", "endpoint": "http://agent/rest"},
			map[string]any{"transport": "JSONRPC", "url": "http://agent/jsonrpc"},
		},
		"capabilities": map[string]any{"streaming": true},
	}
}

func TestSupportedTransports(t *testing.T) {
	card := multiTransportCard()

	want := []a2a.TransportType{a2a.TransportJSONRPC, a2a.TransportGRPC, a2a.TransportREST}
	if diff := cmp.Diff(want, SupportedTransports(card)); diff != "" {
		t.Fatalf("SupportedTransports() wrong result (-want +got):\n%s", diff)
	}

	wantEndpoints := map[a2a.TransportType]string{
		a2a.TransportJSONRPC: "http://agent/jsonrpc",
		a2a.TransportGRPC:    "grpc://agent:50051",
		a2a.TransportREST:    "http://agent/rest",
	}
	if diff := cmp.Diff(wantEndpoints, Endpoints(card)); diff != "" {
		t.Fatalf("Endpoints() wrong result (-want +got):\n%s", diff)
	}

	if got, ok := PreferredTransport(card); !ok || got != a2a.TransportJSONRPC {
		t.Fatalf("PreferredTransport() = %v, %v", got, ok)
	}
	if issues := ValidateTransportConsistency(card); len(issues) != 0 {
		t.Fatalf("ValidateTransportConsistency() = %v, want none", issues)
	}
}

func TestPreferredTransport_Default(t *testing.T) {
	card := map[string]any{"url": "http://agent/"}
	if got, ok := PreferredTransport(card); !ok || got != a2a.TransportJSONRPC {
		t.Fatalf("PreferredTransport() = %v, %v; want jsonrpc", got, ok)
	}
	if diff := cmp.Diff(map[a2a.TransportType]string{a2a.TransportJSONRPC: "http://agent/"}, Endpoints(card)); diff != "" {
		t.Fatalf("Endpoints() wrong result (-want +got):\n%s", diff)
	}
}

func TestEndpoints_RootEndpointIsJSONRPC(t *testing.T) {
	card := map[string]any{"endpoint": "http://agent/rpc", "url": "http://agent/", "preferredTransport": "GRPC"}
	got := Endpoints(card)
	if got[a2a.TransportJSONRPC] != "http://agent/rpc" {
		t.Fatalf("Endpoints() = %v, want JSON-RPC endpoint", got)
	}
	if _, ok := got[a2a.TransportGRPC]; ok {
		t.Fatalf("Endpoints() = %v, root url must not be assigned when endpoint is present", got)
	}
}

func TestValidateTransportConsistency(t *testing.T) {
	tests := []struct {
		name string
		card map[string]any
		want []string
	}{
		{
			name: "unknown preferred transport",
			card: map[string]any{"preferredTransport": "SOAP", "url": "http://agent"},
			want: []string{
				`unknown preferredTransport "SOAP"`,
				"no supported transports declared in Agent Card",
			},
		},
		{
			name: "missing endpoint",
			card: map[string]any{
				"url":                  "http://agent",
				"additionalInterfaces": []any{map[string]any{"transport": "GRPC"}},
			},
			want: []string{"transport GRPC declared but no endpoint provided"},
		},
		{
			name: "unknown interface",
			card: map[string]any{
				"url":                  "http://agent",
				"additionalInterfaces": []any{map[string]any{"transport": "carrier-pigeon", "url": "coo://"}},
			},
			want: []string{"unknown transport type in additionalInterfaces: carrier-pigeon"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, ValidateTransportConsistency(tc.card)); diff != "" {
				t.Fatalf("ValidateTransportConsistency() wrong result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckProtocolVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{version: "0.3.0"},
		{version: "0.3.7"},
		{version: "v0.3.1"},
		{version: "0.2.5", wantErr: true},
		{version: "1.0.0", wantErr: true},
		{version: "latest", wantErr: true},
		{version: "", wantErr: true},
	}
	for _, tc := range tests {
		if err := CheckProtocolVersion(tc.version); (err != nil) != tc.wantErr {
			t.Errorf("CheckProtocolVersion(%q) error = %v, wantErr %v", tc.version, err, tc.wantErr)
		}
	}
}

func TestCapabilities(t *testing.T) {
	card := multiTransportCard()
	if !Streaming(card) {
		t.Error("Streaming() = false, want true")
	}
	if PushNotifications(card) {
		t.Error("PushNotifications() = true, want false")
	}
	if SupportsAuthenticatedExtendedCard(card) {
		t.Error("SupportsAuthenticatedExtendedCard() = true, want false")
	}
}

func TestSecurity(t *testing.T) {
	card := map[string]any{
		"securitySchemes": map[string]any{
			"bearer": map[string]any{"type": "http", "scheme": "bearer"},
		},
		"security": []any{map[string]any{"bearer": []any{"read"}}},
	}
	wantSchemes := map[a2a.SecuritySchemeName]map[string]any{
		"bearer": {"type": "http", "scheme": "bearer"},
	}
	if diff := cmp.Diff(wantSchemes, SecuritySchemes(card)); diff != "" {
		t.Fatalf("SecuritySchemes() wrong result (-want +got):\n%s", diff)
	}
	wantSecurity := []a2a.SecurityRequirements{{"bearer": {"read"}}}
	if diff := cmp.Diff(wantSecurity, Security(card)); diff != "" {
		t.Fatalf("Security() wrong result (-want +got):\n%s", diff)
	}
}
