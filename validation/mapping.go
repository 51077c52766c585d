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

// Package validation checks A2A transport clients and agent responses for
// conformance: method naming and coverage against the mapping table,
// per-transport compliance checklists, cross-transport functional
// equivalence and error code classification.
//
// Validators report non-compliance in their result values and never as
// errors.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
	"github.com/a2aproject/a2a-tck-go/internal/pathtemplate"
)

var (
	jsonrpcMethodRe = regexp.MustCompile(`^[a-z][a-zA-Z]*(/[a-zA-Z][a-zA-Z]*)+$`)
	grpcMethodRe    = regexp.MustCompile(`^[A-Z][a-zA-Z]*$`)
)

// NamingResult is the outcome of a naming convention check.
type NamingResult struct {
	Transport  a2a.TransportType `json:"transport"`
	Convention string            `json:"naming_convention"`
	Compliant  bool              `json:"compliant"`
	Valid      []string          `json:"valid_methods"`
	Issues     []string          `json:"issues"`
}

// Convention describes the naming rule enforced for t.
func Convention(t a2a.TransportType) string {
	switch t {
	case a2a.TransportJSONRPC:
		return "category/action"
	case a2a.TransportGRPC:
		return "PascalCase compound words"
	case a2a.TransportREST:
		return "/v1/{resource}[/{id}][:{action}]"
	}
	return ""
}

// ValidateMethodNaming checks one wire name against the convention of t.
// REST names may carry a leading HTTP verb. Every returned issue names the
// offending string.
func ValidateMethodNaming(t a2a.TransportType, name string) []string {
	switch t {
	case a2a.TransportJSONRPC:
		if !jsonrpcMethodRe.MatchString(name) {
			return []string{fmt.Sprintf("JSON-RPC method %q does not follow the category/action pattern", name)}
		}
	case a2a.TransportGRPC:
		if !grpcMethodRe.MatchString(name) {
			return []string{fmt.Sprintf("gRPC method %q is not PascalCase", name)}
		}
	case a2a.TransportREST:
		path := name
		if verb, rest, ok := strings.Cut(name, " "); ok && verb == strings.ToUpper(verb) {
			path = rest
		}
		if !strings.HasPrefix(path, "/v1/") {
			return []string{fmt.Sprintf("REST endpoint %q must start with /v1/", name)}
		}
		if err := pathtemplate.Check(path); err != nil {
			return []string{fmt.Sprintf("REST endpoint %q does not follow the resource pattern: %v", name, err)}
		}
	default:
		return []string{fmt.Sprintf("unknown transport type %q for method %q", t, name)}
	}
	return nil
}

// ValidateClientNaming checks every wire name the client uses. Clients that
// do not implement [a2aclient.WireNamer] are checked against the table.
func ValidateClientNaming(client a2aclient.Transport) NamingResult {
	t := client.Type()
	names := a2aclient.WireMethodNames(t)
	if wn, ok := client.(a2aclient.WireNamer); ok {
		names = wn.WireMethods()
	}
	result := NamingResult{Transport: t, Convention: Convention(t), Valid: []string{}, Issues: []string{}}
	for _, op := range sortedOperations(names) {
		name := names[op]
		if issues := ValidateMethodNaming(t, name); len(issues) > 0 {
			result.Issues = append(result.Issues, issues...)
			continue
		}
		result.Valid = append(result.Valid, name)
	}
	result.Compliant = len(result.Issues) == 0
	return result
}

// sortedOperations orders the keys of names by the mapping table, unknown
// operations last in lexical order.
func sortedOperations(names map[a2a.Operation]string) []a2a.Operation {
	var ops, extra []a2a.Operation
	for _, m := range a2a.Methods() {
		if _, ok := names[m.Operation]; ok {
			ops = append(ops, m.Operation)
		}
	}
	for op := range names {
		if _, known := a2a.LookupMethod(op); !known {
			extra = append(extra, op)
		}
	}
	slices.Sort(extra)
	return append(ops, extra...)
}

// MethodCoverage reports which transports expose one operation.
type MethodCoverage struct {
	Available         []a2a.TransportType `json:"available_transports"`
	Missing           []a2a.TransportType `json:"missing_transports"`
	TransportSpecific bool                `json:"transport_specific"`
}

// MappingResult is the outcome of [ValidateMethodMapping].
type MappingResult struct {
	Compliant bool                              `json:"compliant"`
	Issues    []string                          `json:"issues"`
	Coverage  map[a2a.Operation]*MethodCoverage `json:"method_coverage,omitempty"`
	Message   string                            `json:"message,omitempty"`
}

type methodSupporter interface {
	SupportsMethod(op a2a.Operation) bool
}

// ValidateMethodMapping checks that every client exposes the Go method of
// each table row applicable to its transport, and that its SupportsMethod
// agrees. Rows that do not apply to a transport mark the operation as
// transport specific instead of reporting it missing.
func ValidateMethodMapping(clients map[a2a.TransportType]any) MappingResult {
	result := MappingResult{Issues: []string{}, Coverage: map[a2a.Operation]*MethodCoverage{}}
	transports := orderedTransports(clients)

	for _, m := range a2a.Methods() {
		cov := &MethodCoverage{Available: []a2a.TransportType{}, Missing: []a2a.TransportType{}}
		result.Coverage[m.Operation] = cov
		for _, t := range transports {
			if !m.AppliesTo(t) {
				cov.TransportSpecific = true
				continue
			}
			if hasOperation(clients[t], m.Operation) {
				cov.Available = append(cov.Available, t)
				continue
			}
			cov.Missing = append(cov.Missing, t)
			result.Issues = append(result.Issues, fmt.Sprintf("Method %s missing in %s transport", m.Operation, t))
		}
	}
	result.Compliant = len(result.Issues) == 0
	return result
}

// hasOperation reports whether client has the Go method implementing op and,
// when it can tell, claims to support it.
func hasOperation(client any, op a2a.Operation) bool {
	if client == nil {
		return false
	}
	if !reflect.ValueOf(client).MethodByName(clientMethod(op)).IsValid() {
		return false
	}
	if s, ok := client.(methodSupporter); ok {
		return s.SupportsMethod(op)
	}
	return true
}

func clientMethod(op a2a.Operation) string {
	if m, ok := a2a.LookupMethod(op); ok {
		return m.ClientMethod
	}
	if op == a2a.OpGetAgentCard {
		return "GetAgentCard"
	}
	return ""
}

// orderedTransports returns the keys of m in the canonical transport order.
func orderedTransports[V any](m map[a2a.TransportType]V) []a2a.TransportType {
	var out []a2a.TransportType
	for _, t := range a2a.AllTransports() {
		if _, ok := m[t]; ok {
			out = append(out, t)
		}
	}
	var unknown []a2a.TransportType
	for t := range m {
		if !t.Valid() {
			unknown = append(unknown, t)
		}
	}
	slices.Sort(unknown)
	return append(out, unknown...)
}
