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

const (
	// WellKnownAgentCardPath is where agents publish their public card.
	WellKnownAgentCardPath = "/.well-known/agent-card.json"
	// LegacyAgentCardPath is the pre-0.3 location, tried when the current one is absent.
	LegacyAgentCardPath = "/.well-known/agent.json"
)

// TransportProtocol is the transport name an Agent Card uses in
// preferredTransport and additionalInterfaces.
type TransportProtocol string

const (
	// TransportProtocolJSONRPC defines the JSON-RPC transport protocol.
	TransportProtocolJSONRPC TransportProtocol = "JSONRPC"
	// TransportProtocolGRPC defines the gRPC transport protocol.
	TransportProtocolGRPC TransportProtocol = "GRPC"
	// TransportProtocolHTTPJSON defines the HTTP+JSON transport protocol.
	TransportProtocolHTTPJSON TransportProtocol = "HTTP+JSON"
)

// Protocol returns the canonical Agent Card name of t.
func (t TransportType) Protocol() TransportProtocol {
	switch t {
	case TransportGRPC:
		return TransportProtocolGRPC
	case TransportREST:
		return TransportProtocolHTTPJSON
	default:
		return TransportProtocolJSONRPC
	}
}
