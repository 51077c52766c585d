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
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
	"github.com/a2aproject/a2a-tck-go/log"
)

// Fields that differ between transports without changing the meaning of a
// response.
var transportSpecificFields = []string{"_metadata", "_headers", "requestId", "timestamp"}

// NormalizeResponse prepares a response for cross-transport comparison.
// JSON-RPC envelopes are unwrapped, transport specific top-level fields are
// dropped and errors become {"error": {"code", "message"}} objects.
func NormalizeResponse(v any) any {
	switch r := v.(type) {
	case nil:
		return map[string]any{}
	case error:
		return normalizeError(r)
	case []map[string]any:
		out := make([]any, len(r))
		for i, m := range r {
			out[i] = m
		}
		return out
	case map[string]any:
		if result, ok := r["result"]; ok {
			if m, ok := result.(map[string]any); ok {
				return stripFields(m, false)
			}
			return map[string]any{"value": result}
		}
		_, envelope := r["jsonrpc"]
		return stripFields(r, envelope)
	}
	return v
}

func stripFields(m map[string]any, envelope bool) map[string]any {
	out := maps.Clone(m)
	delete(out, "jsonrpc")
	if envelope {
		delete(out, "id")
	}
	for _, f := range transportSpecificFields {
		delete(out, f)
	}
	return out
}

func normalizeError(err error) map[string]any {
	obj := map[string]any{}
	if te, ok := a2aclient.AsTransportError(err); ok && te.Payload != nil {
		obj["code"] = te.Payload.Code
		obj["message"] = te.Payload.Message
	} else if code, ok := a2aclient.ErrorCode(err); ok {
		obj["code"] = code
		obj["message"] = err.Error()
	} else {
		obj["message"] = err.Error()
	}
	return map[string]any{"error": obj}
}

// EquivalenceResult is the outcome of a cross-transport comparison.
// Differences are keyed "<reference>_vs_<other>".
type EquivalenceResult struct {
	Equivalent         bool                `json:"equivalent"`
	Method             string              `json:"method,omitempty"`
	ReferenceTransport a2a.TransportType   `json:"reference_transport,omitempty"`
	TransportCount     int                 `json:"transport_count"`
	Differences        map[string][]string `json:"differences"`
	Message            string              `json:"message,omitempty"`
}

// ValidateResponseEquivalence compares the normalized response of every
// transport with the reference, the first transport in canonical order.
func ValidateResponseEquivalence(responses map[a2a.TransportType]any, method string) EquivalenceResult {
	result := EquivalenceResult{
		Equivalent:     true,
		Method:         method,
		TransportCount: len(responses),
		Differences:    map[string][]string{},
	}
	if len(responses) < 2 {
		result.Message = "Only one transport available, equivalence not applicable"
		return result
	}

	transports := orderedTransports(responses)
	ref := transports[0]
	result.ReferenceTransport = ref
	refResp := NormalizeResponse(responses[ref])
	for _, t := range transports[1:] {
		diffs := compare(refResp, NormalizeResponse(responses[t]), string(ref), string(t))
		if len(diffs) > 0 {
			result.Equivalent = false
			result.Differences[fmt.Sprintf("%s_vs_%s", ref, t)] = diffs
		}
	}
	return result
}

// CompareCoreFields compares only the given dotted field paths of each
// response, by default the task id and status.state.
func CompareCoreFields(responses map[a2a.TransportType]map[string]any, fields ...string) EquivalenceResult {
	if len(fields) == 0 {
		fields = []string{"id", "status.state"}
	}
	projected := make(map[a2a.TransportType]any, len(responses))
	for t, resp := range responses {
		core := map[string]any{}
		for _, f := range fields {
			if v, ok := lookupPath(NormalizeResponse(resp), f); ok {
				core[f] = v
			}
		}
		projected[t] = core
	}
	return ValidateResponseEquivalence(projected, "core fields")
}

func lookupPath(v any, path string) (any, bool) {
	for _, key := range strings.Split(path, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		if v, ok = m[key]; !ok {
			return nil, false
		}
	}
	return v, true
}

func compare(a, b any, aName, bName string) []string {
	ta, tb := typeName(a), typeName(b)
	if ta != tb {
		return []string{fmt.Sprintf("Response type mismatch: %s=%s, %s=%s", aName, ta, bName, tb)}
	}
	switch av := a.(type) {
	case map[string]any:
		return compareMaps(av, b.(map[string]any), aName, bName)
	case []any:
		return compareLists(av, b.([]any), aName, bName)
	}
	if !scalarEqual(a, b) {
		return []string{fmt.Sprintf("Value mismatch: %s=%v, %s=%v", aName, a, bName, b)}
	}
	return nil
}

func compareMaps(a, b map[string]any, aName, bName string) []string {
	var diffs []string
	for _, k := range slices.Sorted(maps.Keys(a)) {
		if _, ok := b[k]; !ok {
			diffs = append(diffs, fmt.Sprintf("Key '%s' missing in %s response", k, bName))
		}
	}
	for _, k := range slices.Sorted(maps.Keys(b)) {
		if _, ok := a[k]; !ok {
			diffs = append(diffs, fmt.Sprintf("Key '%s' missing in %s response", k, aName))
		}
	}
	for _, k := range slices.Sorted(maps.Keys(a)) {
		bv, ok := b[k]
		if !ok {
			continue
		}
		for _, sub := range compare(a[k], bv, aName, bName) {
			diffs = append(diffs, fmt.Sprintf("Key '%s': %s", k, sub))
		}
	}
	return diffs
}

func compareLists(a, b []any, aName, bName string) []string {
	if len(a) != len(b) {
		return []string{fmt.Sprintf("List length mismatch: %s=%d, %s=%d", aName, len(a), bName, len(b))}
	}
	var diffs []string
	for i := range a {
		for _, sub := range compare(a[i], b[i], aName, bName) {
			diffs = append(diffs, fmt.Sprintf("Index %d: %s", i, sub))
		}
	}
	return diffs
}

// typeName names JSON value types. All numeric kinds are "number".
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func scalarEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, _ := toFloat(b)
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// ErrorEquivalenceResult is the outcome of [ValidateErrorEquivalence].
type ErrorEquivalenceResult struct {
	Equivalent bool                      `json:"equivalent"`
	Codes      map[a2a.TransportType]int `json:"codes"`
	Issues     []string                  `json:"issues"`
}

// ValidateErrorEquivalence checks that every transport failed with the same
// A2A error code, and with wantCode when it is set.
func ValidateErrorEquivalence(errs map[a2a.TransportType]error, wantCode *int) ErrorEquivalenceResult {
	result := ErrorEquivalenceResult{Codes: map[a2a.TransportType]int{}, Issues: []string{}}
	var ref a2a.TransportType
	for _, t := range orderedTransports(errs) {
		err := errs[t]
		if err == nil {
			result.Issues = append(result.Issues, fmt.Sprintf("%s: expected an error, got success", t))
			continue
		}
		if _, ok := a2aclient.AsTransportError(err); !ok {
			result.Issues = append(result.Issues, fmt.Sprintf("%s: error is not a transport error: %v", t, err))
			continue
		}
		code, ok := a2aclient.ErrorCode(err)
		if !ok {
			result.Issues = append(result.Issues, fmt.Sprintf("%s: error carries no A2A error code: %v", t, err))
			continue
		}
		result.Codes[t] = code
		if wantCode != nil && code != *wantCode {
			result.Issues = append(result.Issues, fmt.Sprintf("%s: got error code %d, want %d", t, code, *wantCode))
		}
		if ref == "" {
			ref = t
		} else if refCode := result.Codes[ref]; refCode != code {
			result.Issues = append(result.Issues, fmt.Sprintf("Error code mismatch: %s=%d, %s=%d", ref, refCode, t, code))
		}
	}
	result.Equivalent = len(result.Issues) == 0
	return result
}

// ProbeResult holds the outcome of a [Probe], keyed by transport.
type ProbeResult struct {
	Responses map[a2a.TransportType]any
	Errors    map[a2a.TransportType]error
}

// Outcomes merges responses and errors, ready for
// [ValidateResponseEquivalence].
func (r ProbeResult) Outcomes() map[a2a.TransportType]any {
	out := make(map[a2a.TransportType]any, len(r.Responses)+len(r.Errors))
	for t, v := range r.Responses {
		out[t] = v
	}
	for t, err := range r.Errors {
		out[t] = err
	}
	return out
}

// Probe runs call against every client concurrently. Each client is used by
// exactly one goroutine. A failing call does not cancel the others.
func Probe(ctx context.Context, clients map[a2a.TransportType]a2aclient.Transport, call func(context.Context, a2aclient.Transport) (any, error)) ProbeResult {
	result := ProbeResult{
		Responses: map[a2a.TransportType]any{},
		Errors:    map[a2a.TransportType]error{},
	}
	var mu sync.Mutex
	var group errgroup.Group
	for t, client := range clients {
		group.Go(func() error {
			resp, err := call(ctx, client)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Debug(ctx, "probe call failed", "transport", t, "error", err)
				result.Errors[t] = err
				return nil
			}
			result.Responses[t] = resp
			return nil
		})
	}
	_ = group.Wait()
	return result
}
