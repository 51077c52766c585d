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
	"fmt"
	"strings"
)

// ProtocolVersion is the version of the A2A protocol the kit validates against.
const ProtocolVersion = "0.3.0"

// TransportType identifies one of the wire protocols an A2A agent may expose.
type TransportType string

const (
	TransportJSONRPC TransportType = "jsonrpc"
	TransportGRPC    TransportType = "grpc"
	TransportREST    TransportType = "rest"
)

// AllTransports returns every transport in the fixed order used for reports
// and reference selection.
func AllTransports() []TransportType {
	return []TransportType{TransportJSONRPC, TransportGRPC, TransportREST}
}

// Label returns the upper-case name used in error messages.
func (t TransportType) Label() string {
	switch t {
	case TransportJSONRPC:
		return "JSONRPC"
	case TransportGRPC:
		return "GRPC"
	case TransportREST:
		return "REST"
	}
	return strings.ToUpper(string(t))
}

// Valid reports whether t is one of the known transports.
func (t TransportType) Valid() bool {
	switch t {
	case TransportJSONRPC, TransportGRPC, TransportREST:
		return true
	}
	return false
}

var transportAliases = map[string]TransportType{
	"jsonrpc":      TransportJSONRPC,
	"json-rpc":     TransportJSONRPC,
	"jsonrpc2.0":   TransportJSONRPC,
	"json-rpc-2.0": TransportJSONRPC,
	"rpc":          TransportJSONRPC,
	"grpc":         TransportGRPC,
	"grpc-web":     TransportGRPC,
	"protobuf":     TransportGRPC,
	"rest":         TransportREST,
	"http":         TransportREST,
	"http+json":    TransportREST,
	"restful":      TransportREST,
	"http-json":    TransportREST,
}

// ParseTransportType maps an Agent Card or configuration transport name to a
// TransportType. Matching ignores case and surrounding whitespace.
func ParseTransportType(name string) (TransportType, error) {
	if t, ok := transportAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown transport type %q", name)
}

// ParseTransportList parses a comma separated list, silently skipping
// unknown and duplicate entries.
func ParseTransportList(list string) []TransportType {
	var result []TransportType
	seen := map[TransportType]bool{}
	for _, part := range strings.Split(list, ",") {
		t, err := ParseTransportType(part)
		if err != nil || seen[t] {
			continue
		}
		seen[t] = true
		result = append(result, t)
	}
	return result
}
