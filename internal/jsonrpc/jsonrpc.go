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

// Package jsonrpc provides the JSON-RPC 2.0 envelope used to talk to A2A agents.
package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/google/uuid"
)

// JSON-RPC 2.0 protocol constants
const (
	Version = "2.0"

	// HTTP headers
	ContentJSON = "application/json"

	// RequestIDPrefix marks request ids generated by the kit.
	RequestIDPrefix = "tck-"
)

// ErrMalformedResponse is returned when a response is neither a result nor an error envelope.
var ErrMalformedResponse = errors.New("malformed JSON-RPC response")

// Error represents a JSON-RPC 2.0 error object. Data is kept verbatim.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface for jsonrpcError.
func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("jsonrpc error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// ToPayload converts the error object to a transport-neutral [a2a.ErrorPayload].
func (e *Error) ToPayload() *a2a.ErrorPayload {
	msg := e.Message
	if len(msg) == 0 {
		msg = a2a.CanonicalMessage(e.Code)
	}
	return &a2a.ErrorPayload{Code: e.Code, Message: msg, Data: e.Data}
}

// NewRequestID returns a unique request id carrying the kit prefix.
func NewRequestID() string {
	return RequestIDPrefix + uuid.NewString()
}

// IsValidID checks if the given ID is valid for a JSON-RPC request.
func IsValidID(id any) bool {
	if id == nil {
		return true
	}
	switch id.(type) {
	case string, float64:
		return true
	default:
		return false
	}
}

// ServerRequest is a request as seen by the receiving side. Agents under test
// are faked with it.
type ServerRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id"`
}

// ClientRequest represents a JSON-RPC 2.0 client request.
type ClientRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      string `json:"id"`
}

// NewClientRequest creates a request with a fresh id.
func NewClientRequest(method string, params any) ClientRequest {
	return ClientRequest{JSONRPC: Version, Method: method, Params: params, ID: NewRequestID()}
}

// ClientResponse represents a JSON-RPC 2.0 client response. Agents may echo
// numeric ids, so ID is untyped.
type ClientResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// DecodeResponse parses a response envelope. An envelope carrying neither
// a result nor an error is rejected with ErrMalformedResponse.
func DecodeResponse(data []byte) (*ClientResponse, error) {
	var resp ClientResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode JSON-RPC response: %w", err)
	}
	if resp.Error == nil && len(resp.Result) == 0 {
		return nil, ErrMalformedResponse
	}
	return &resp, nil
}

// DecodeResult unmarshals the result of resp into a generic JSON value.
func DecodeResult(resp *ClientResponse) (any, error) {
	var result any
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to decode JSON-RPC result: %w", err)
	}
	return result, nil
}
