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
	"fmt"
	"slices"
	"strings"

	"github.com/a2aproject/a2a-tck-go/a2a"
)

// Strategy decides which transport [Manager.SelectedClient] returns.
type Strategy string

const (
	// StrategyAgentPreferred selects the card's preferred transport.
	StrategyAgentPreferred Strategy = "agent_preferred"
	StrategyPreferJSONRPC  Strategy = "prefer_jsonrpc"
	StrategyPreferGRPC     Strategy = "prefer_grpc"
	StrategyPreferREST     Strategy = "prefer_rest"
	// StrategyAllSupported is meant for runs that exercise every transport.
	// For single selection it behaves like StrategyAgentPreferred.
	StrategyAllSupported Strategy = "all_supported"
)

// Strategies lists the known strategies.
func Strategies() []Strategy {
	return []Strategy{StrategyAgentPreferred, StrategyPreferJSONRPC, StrategyPreferGRPC, StrategyPreferREST, StrategyAllSupported}
}

// ParseStrategy parses a strategy name, ignoring case.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if slices.Contains(Strategies(), s) {
		return s, nil
	}
	return "", fmt.Errorf("unknown transport selection strategy %q", name)
}

// Select picks a transport among supported, which must be in manifest
// order. preferred is the card's preferred transport. Every strategy falls
// back to the first supported transport; ok is false only when supported is
// empty.
func (s Strategy) Select(supported []a2a.TransportType, preferred a2a.TransportType) (a2a.TransportType, bool) {
	if len(supported) == 0 {
		return "", false
	}
	var want a2a.TransportType
	switch s {
	case StrategyAgentPreferred, StrategyAllSupported:
		want = preferred
	case StrategyPreferJSONRPC:
		want = a2a.TransportJSONRPC
	case StrategyPreferGRPC:
		want = a2a.TransportGRPC
	case StrategyPreferREST:
		want = a2a.TransportREST
	}
	if want != "" && slices.Contains(supported, want) {
		return want, true
	}
	return supported[0], true
}
