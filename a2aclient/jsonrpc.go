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
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/internal/jsonrpc"
	"github.com/a2aproject/a2a-tck-go/internal/pbconv"
	"github.com/a2aproject/a2a-tck-go/log"
)

const jsonrpcUserAgent = "A2A-TCK-JSONRPC-Client/" + a2a.ProtocolVersion

// WithJSONRPCTransport returns a Manager option that creates JSON-RPC clients
// on top of client. The Manager registers a JSON-RPC factory by default; the
// option replaces the HTTP client it uses.
func WithJSONRPCTransport(client *http.Client) ManagerOption {
	return WithTransportFactory(
		a2a.TransportJSONRPC,
		TransportFactoryFn(func(ctx context.Context, endpoint string, cfg Config) (Transport, error) {
			return NewJSONRPCTransport(endpoint, client, cfg), nil
		}),
	)
}

// JSONRPCTransport implements Transport using JSON-RPC 2.0 over HTTP.
// Results are returned exactly as the agent sent them.
type JSONRPCTransport struct {
	h *httpTransport
}

var (
	_ Transport = (*JSONRPCTransport)(nil)
	_ WireNamer = (*JSONRPCTransport)(nil)
)

// NewJSONRPCTransport creates a JSON-RPC client for the endpoint url. A nil
// client is replaced by a default one. Timeouts come from cfg, not from the
// HTTP client.
func NewJSONRPCTransport(url string, client *http.Client, cfg Config) *JSONRPCTransport {
	return &JSONRPCTransport{h: newHTTPTransport(a2a.TransportJSONRPC, url, client, cfg, jsonrpcUserAgent)}
}

func (t *JSONRPCTransport) marshalRequest(op a2a.Operation, payload any) ([]byte, error) {
	req := jsonrpc.NewClientRequest(a2a.MustLookupMethod(op).JSONRPC, payload)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, t.h.newError("failed to marshal request", err)
	}
	return body, nil
}

// call sends a unary request and returns the raw result.
func (t *JSONRPCTransport) call(ctx context.Context, op a2a.Operation, params ServiceParams, payload any) (json.RawMessage, error) {
	body, err := t.marshalRequest(op, payload)
	if err != nil {
		return nil, err
	}
	res, err := t.h.roundTrip(ctx, http.MethodPost, t.h.url, body, params)
	if err != nil {
		return nil, err
	}
	return t.decodeEnvelope(res.status, res.body)
}

// decodeEnvelope extracts the result of a response. Error objects are
// honoured whatever the HTTP status.
func (t *JSONRPCTransport) decodeEnvelope(status int, body []byte) (json.RawMessage, error) {
	resp, err := jsonrpc.DecodeResponse(body)
	if err != nil {
		te := t.h.newError("invalid JSON-RPC response", err)
		if status < 200 || status >= 300 {
			te = &TransportError{Transport: a2a.TransportJSONRPC, Message: statusMessage(status, body)}
		}
		te.StatusCode = status
		return nil, te
	}
	if resp.Error != nil {
		return nil, &TransportError{
			Transport:  a2a.TransportJSONRPC,
			Message:    "agent returned a JSON-RPC error",
			StatusCode: status,
			Payload:    resp.Error.ToPayload(),
		}
	}
	return resp.Result, nil
}

func (t *JSONRPCTransport) callObject(ctx context.Context, op a2a.Operation, params ServiceParams, payload any) (map[string]any, error) {
	result, err := t.call(ctx, op, params, payload)
	if err != nil {
		return nil, err
	}
	return t.decodeObject(result)
}

func (t *JSONRPCTransport) decodeObject(result json.RawMessage) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(result, &obj); err != nil || obj == nil {
		return nil, t.h.newError(fmt.Sprintf("result is not a JSON object: %s", truncate(result)), err)
	}
	return obj, nil
}

// stream sends a streaming request and yields the result of every event.
func (t *JSONRPCTransport) stream(ctx context.Context, op a2a.Operation, params ServiceParams, payload any) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		body, err := t.marshalRequest(op, payload)
		if err != nil {
			yield(nil, err)
			return
		}
		resp, closeStream, err := t.h.openStream(ctx, http.MethodPost, t.h.url, body, params)
		if err != nil {
			yield(nil, err)
			return
		}
		defer closeStream()

		if resp.StatusCode != http.StatusOK || !isEventStream(resp.Header.Get("Content-Type")) {
			data := readAll(resp)
			// Agents refusing to stream answer with a plain JSON-RPC error.
			if _, err := t.decodeEnvelope(resp.StatusCode, data); err != nil {
				if te, ok := AsTransportError(err); ok && (te.Payload != nil || resp.StatusCode != http.StatusOK) {
					yield(nil, err)
					return
				}
			}
			yield(nil, &TransportError{
				Transport:  a2a.TransportJSONRPC,
				Message:    fmt.Sprintf("expected %s response, got %q", "text/event-stream", resp.Header.Get("Content-Type")),
				StatusCode: resp.StatusCode,
			})
			return
		}

		for frame, err := range t.h.frames(ctx, resp.Body) {
			if err != nil {
				yield(nil, err)
				return
			}
			if rawErr, ok := frame["error"]; ok && rawErr != nil {
				yield(nil, t.frameError(rawErr))
				return
			}
			result, ok := frame["result"].(map[string]any)
			if !ok {
				log.Warn(ctx, "skipping stream frame without result", "transport", a2a.TransportJSONRPC)
				continue
			}
			if !yield(result, nil) {
				return
			}
		}
	}
}

func (t *JSONRPCTransport) frameError(raw any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return t.h.newError("invalid error in stream", err)
	}
	var rpcErr jsonrpc.Error
	if err := json.Unmarshal(data, &rpcErr); err != nil {
		return t.h.newError("invalid error in stream", err)
	}
	return &TransportError{
		Transport: a2a.TransportJSONRPC,
		Message:   "agent returned a JSON-RPC error in stream",
		Payload:   rpcErr.ToPayload(),
	}
}

// SendMessage implements [Transport].
func (t *JSONRPCTransport) SendMessage(ctx context.Context, params ServiceParams, req *a2a.SendMessageRequest) (map[string]any, error) {
	return t.callObject(ctx, a2a.OpSendMessage, params, req.Params())
}

// SendStreamingMessage implements [Transport].
func (t *JSONRPCTransport) SendStreamingMessage(ctx context.Context, params ServiceParams, req *a2a.SendMessageRequest) iter.Seq2[map[string]any, error] {
	return t.stream(ctx, a2a.OpSendStreamingMessage, params, req.Params())
}

// GetTask implements [Transport].
func (t *JSONRPCTransport) GetTask(ctx context.Context, params ServiceParams, req *a2a.GetTaskRequest) (map[string]any, error) {
	return t.callObject(ctx, a2a.OpGetTask, params, req.Params())
}

// CancelTask implements [Transport].
func (t *JSONRPCTransport) CancelTask(ctx context.Context, params ServiceParams, req *a2a.TaskIDRequest) (map[string]any, error) {
	return t.callObject(ctx, a2a.OpCancelTask, params, req.Params())
}

// ResubscribeTask implements [Transport].
func (t *JSONRPCTransport) ResubscribeTask(ctx context.Context, params ServiceParams, req *a2a.TaskIDRequest) iter.Seq2[map[string]any, error] {
	return t.stream(ctx, a2a.OpResubscribeTask, params, req.Params())
}

// ListTasks implements [Transport]. JSON-RPC defines no listing method, so
// the call fails with a method-not-found error without reaching the agent.
func (t *JSONRPCTransport) ListTasks(ctx context.Context, params ServiceParams, req *a2a.ListTasksRequest) (map[string]any, error) {
	return nil, &TransportError{
		Transport: a2a.TransportJSONRPC,
		Message:   "tasks/list is not defined for JSON-RPC",
		Payload:   a2a.NewErrorPayload(a2a.CodeMethodNotFound),
	}
}

// SetTaskPushConfig implements [Transport].
func (t *JSONRPCTransport) SetTaskPushConfig(ctx context.Context, params ServiceParams, req *a2a.SetPushConfigRequest) (map[string]any, error) {
	return t.callObject(ctx, a2a.OpSetPushConfig, params, req.Params())
}

// GetTaskPushConfig implements [Transport].
func (t *JSONRPCTransport) GetTaskPushConfig(ctx context.Context, params ServiceParams, req *a2a.PushConfigRequest) (map[string]any, error) {
	return t.callObject(ctx, a2a.OpGetPushConfig, params, req.Params())
}

// ListTaskPushConfigs implements [Transport].
func (t *JSONRPCTransport) ListTaskPushConfigs(ctx context.Context, params ServiceParams, req *a2a.TaskIDRequest) ([]map[string]any, error) {
	result, err := t.call(ctx, a2a.OpListPushConfigs, params, req.Params())
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(result, &v); err != nil {
		return nil, t.h.newError("failed to decode push config list", err)
	}
	return pbconv.NormalizePushConfigList(v, req.ID), nil
}

// DeleteTaskPushConfig implements [Transport].
func (t *JSONRPCTransport) DeleteTaskPushConfig(ctx context.Context, params ServiceParams, req *a2a.PushConfigRequest) error {
	_, err := t.call(ctx, a2a.OpDeletePushConfig, params, req.Params())
	return err
}

// GetAuthenticatedExtendedCard implements [Transport].
func (t *JSONRPCTransport) GetAuthenticatedExtendedCard(ctx context.Context, params ServiceParams) (map[string]any, error) {
	return t.callObject(ctx, a2a.OpGetAuthenticatedExtendedCard, params, nil)
}

// GetAgentCard implements [Transport]. The public card is fetched from the
// well-known location of the endpoint's host.
func (t *JSONRPCTransport) GetAgentCard(ctx context.Context, params ServiceParams) (map[string]any, error) {
	return t.h.getAgentCard(ctx, params)
}

// RawSend posts body to the endpoint as is and returns the HTTP status and
// response body. Only failures to complete the exchange are errors.
func (t *JSONRPCTransport) RawSend(ctx context.Context, body []byte) (int, []byte, error) {
	log.Info(ctx, "sending raw data", "url", t.h.url, "bytes", len(body))
	res, err := t.h.roundTrip(ctx, http.MethodPost, t.h.url, body, nil)
	if err != nil {
		return 0, nil, err
	}
	return res.status, res.body, nil
}

// SendRawJSONRPC posts request, which need not be a valid JSON-RPC request,
// and returns the decoded response envelope whatever the HTTP status.
func (t *JSONRPCTransport) SendRawJSONRPC(ctx context.Context, request map[string]any) (map[string]any, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, t.h.newError("failed to marshal request", err)
	}
	status, respBody, err := t.RawSend(ctx, body)
	if err != nil {
		return nil, err
	}
	var envelope map[string]any
	if err := json.Unmarshal(respBody, &envelope); err != nil || envelope == nil {
		te := t.h.newError("response is not a JSON object: "+truncate(respBody), err)
		te.StatusCode = status
		return nil, te
	}
	return envelope, nil
}

// WireMethods implements [WireNamer].
func (t *JSONRPCTransport) WireMethods() map[a2a.Operation]string {
	return WireMethodNames(a2a.TransportJSONRPC)
}

// Type implements [Transport].
func (t *JSONRPCTransport) Type() a2a.TransportType { return a2a.TransportJSONRPC }

// URL implements [Transport].
func (t *JSONRPCTransport) URL() string { return t.h.url }

// SupportsMethod implements [Transport].
func (t *JSONRPCTransport) SupportsMethod(op a2a.Operation) bool {
	return a2a.SupportsMethod(a2a.TransportJSONRPC, op)
}

// Info implements [Transport].
func (t *JSONRPCTransport) Info() map[string]any {
	info := t.h.info()
	info["supported_methods"] = SupportedMethods(a2a.TransportJSONRPC)
	info["supports_streaming"] = true
	info["supports_bidirectional"] = false
	info["streaming_mechanism"] = "Server-Sent Events (SSE)"
	return info
}

// Features implements [Transport].
func (t *JSONRPCTransport) Features() []string {
	return []string{FeatureSSEStreaming, FeatureJSONRPCErrorCodes, FeatureRawRequests}
}

// Close implements [Transport].
func (t *JSONRPCTransport) Close() error {
	t.h.client.CloseIdleConnections()
	return nil
}
