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
	"encoding/json"
	"fmt"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
)

// Error categories of transports that do not use JSON-RPC codes on the wire.
const (
	ErrorCategoryGRPCStatus a2a.ErrorCategory = "grpc_status"
	ErrorCategoryHTTPStatus a2a.ErrorCategory = "http_status"
)

// ErrorCodeResult is the outcome of [ValidateErrorCode].
type ErrorCodeResult struct {
	Valid    bool              `json:"valid"`
	Code     *int              `json:"error_code"`
	Category a2a.ErrorCategory `json:"error_category,omitempty"`
	Issues   []string          `json:"issues"`
}

// ValidateErrorCode checks an error response of transport t. JSON-RPC errors
// must carry a code and a message, and the code must fall in a defined
// range. gRPC and REST errors are categorized by their transport.
func ValidateErrorCode(payload map[string]any, t a2a.TransportType) ErrorCodeResult {
	result := ErrorCodeResult{Issues: []string{}}
	switch t {
	case a2a.TransportJSONRPC:
		validateJSONRPCError(payload, &result)
	case a2a.TransportGRPC:
		result.Category = ErrorCategoryGRPCStatus
		result.Code = payloadCode(payload)
	case a2a.TransportREST:
		result.Category = ErrorCategoryHTTPStatus
		result.Code = payloadCode(payload)
	default:
		result.Issues = append(result.Issues, fmt.Sprintf("Unknown transport type: %s", t))
	}
	result.Valid = len(result.Issues) == 0
	return result
}

func validateJSONRPCError(payload map[string]any, result *ErrorCodeResult) {
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		result.Issues = append(result.Issues, "Missing 'error' field in JSON-RPC error response")
		return
	}
	rawCode, ok := errObj["code"]
	if !ok {
		result.Issues = append(result.Issues, "Missing 'code' field in JSON-RPC error")
		return
	}
	code, ok := asInt(rawCode)
	if !ok {
		result.Issues = append(result.Issues, fmt.Sprintf("Error code is not an integer: %v", rawCode))
		return
	}
	result.Code = &code
	result.Category = a2a.ClassifyErrorCode(code)
	if result.Category == a2a.ErrorCategoryInvalid {
		result.Issues = append(result.Issues, fmt.Sprintf("Invalid error code: %d", code))
	}
	if _, ok := errObj["message"]; !ok {
		result.Issues = append(result.Issues, "Missing 'message' field in JSON-RPC error")
	}
}

// payloadCode finds a code either at the top level or inside "error".
func payloadCode(payload map[string]any) *int {
	raw, ok := payload["code"]
	if !ok {
		if errObj, isMap := payload["error"].(map[string]any); isMap {
			raw, ok = errObj["code"]
		}
	}
	if !ok {
		return nil
	}
	if code, ok := asInt(raw); ok {
		return &code
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	if f, ok := toFloat(v); ok && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}

// ValidateTransportError classifies the protocol error carried by err. Errors
// without a payload are reported as such.
func ValidateTransportError(err error) ErrorCodeResult {
	te, ok := a2aclient.AsTransportError(err)
	if !ok {
		return ErrorCodeResult{Issues: []string{fmt.Sprintf("not a transport error: %v", err)}}
	}
	if te.Payload == nil {
		return ErrorCodeResult{Issues: []string{fmt.Sprintf("%s error carries no protocol error: %s", te.Transport, te.Message)}}
	}
	payload := map[string]any{"error": te.Payload.ToMap()}
	if te.Transport == a2a.TransportJSONRPC {
		return ValidateErrorCode(payload, te.Transport)
	}
	// Codes of other transports were mapped to the JSON-RPC space by the
	// client, so the ranges still apply.
	result := ValidateErrorCode(payload, a2a.TransportJSONRPC)
	switch te.Transport {
	case a2a.TransportGRPC:
		result.Category = ErrorCategoryGRPCStatus
	case a2a.TransportREST:
		result.Category = ErrorCategoryHTTPStatus
	}
	return result
}
