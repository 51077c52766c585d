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
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/internal/pbconv"
	"github.com/a2aproject/a2a-tck-go/internal/rest"
	"github.com/a2aproject/a2a-tck-go/log"
)

const restUserAgent = "A2A-TCK-REST-Client/" + a2a.ProtocolVersion

// WithRESTTransport returns a Manager option that creates HTTP+JSON clients
// on top of client.
func WithRESTTransport(client *http.Client) ManagerOption {
	return WithTransportFactory(
		a2a.TransportREST,
		TransportFactoryFn(func(ctx context.Context, endpoint string, cfg Config) (Transport, error) {
			return NewRESTTransport(endpoint, client, cfg), nil
		}),
	)
}

// RESTTransport implements Transport using the HTTP+JSON binding. Requests
// are sent in protobuf JSON and responses are normalized to A2A JSON.
type RESTTransport struct {
	h *httpTransport
}

var (
	_ Transport = (*RESTTransport)(nil)
	_ WireNamer = (*RESTTransport)(nil)
)

// NewRESTTransport creates a REST client for the base URL url. Routes from
// the method table are appended to it.
func NewRESTTransport(url string, client *http.Client, cfg Config) *RESTTransport {
	return &RESTTransport{h: newHTTPTransport(a2a.TransportREST, strings.TrimRight(url, "/"), client, cfg, restUserAgent)}
}

func (t *RESTTransport) target(op a2a.Operation, vars map[string]string, query url.Values) (string, string, error) {
	verb, path, err := rest.Route(op, vars)
	if err != nil {
		return "", "", t.h.newError("failed to build request path", err)
	}
	target := t.h.url + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return verb, target, nil
}

// do performs a unary call and returns the decoded JSON body, nil for an
// empty body.
func (t *RESTTransport) do(ctx context.Context, op a2a.Operation, params ServiceParams, vars map[string]string, query url.Values, payload any) (any, error) {
	verb, target, err := t.target(op, vars, query)
	if err != nil {
		return nil, err
	}
	var body []byte
	if payload != nil {
		if body, err = json.Marshal(payload); err != nil {
			return nil, t.h.newError("failed to marshal request", err)
		}
	}
	res, err := t.h.roundTrip(ctx, verb, target, body, params)
	if err != nil {
		return nil, err
	}
	if res.status < 200 || res.status >= 300 {
		log.Warn(ctx, "REST request failed", "url", target, "status", res.status)
		return nil, &TransportError{
			Transport:  a2a.TransportREST,
			Message:    statusMessage(res.status, res.body),
			StatusCode: res.status,
			Payload:    rest.ToErrorPayload(res.status, res.contentType, res.body),
		}
	}
	if len(strings.TrimSpace(string(res.body))) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(res.body, &v); err != nil {
		te := t.h.newError("failed to decode response: "+truncate(res.body), err)
		te.StatusCode = res.status
		return nil, te
	}
	return v, nil
}

func (t *RESTTransport) doObject(ctx context.Context, op a2a.Operation, params ServiceParams, vars map[string]string, query url.Values, payload any) (map[string]any, error) {
	v, err := t.do(ctx, op, params, vars, query, payload)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, t.h.newError(fmt.Sprintf("response is not a JSON object: %T", v), nil)
	}
	return obj, nil
}

func (t *RESTTransport) stream(ctx context.Context, op a2a.Operation, params ServiceParams, vars map[string]string, payload any) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		verb, target, err := t.target(op, vars, nil)
		if err != nil {
			yield(nil, err)
			return
		}
		body, err := json.Marshal(payload)
		if err != nil {
			yield(nil, t.h.newError("failed to marshal request", err))
			return
		}
		resp, closeStream, err := t.h.openStream(ctx, verb, target, body, params)
		if err != nil {
			yield(nil, err)
			return
		}
		defer closeStream()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			data := readAll(resp)
			yield(nil, &TransportError{
				Transport:  a2a.TransportREST,
				Message:    statusMessage(resp.StatusCode, data),
				StatusCode: resp.StatusCode,
				Payload:    rest.ToErrorPayload(resp.StatusCode, resp.Header.Get("Content-Type"), data),
			})
			return
		}
		if ct := resp.Header.Get("Content-Type"); !isEventStream(ct) {
			yield(nil, &TransportError{
				Transport:  a2a.TransportREST,
				Message:    fmt.Sprintf("expected %s response, got %q", "text/event-stream", ct),
				StatusCode: resp.StatusCode,
			})
			return
		}

		for frame, err := range t.h.frames(ctx, resp.Body) {
			if err != nil {
				yield(nil, err)
				return
			}
			if perr, ok := frame["error"].(map[string]any); ok {
				yield(nil, t.frameError(perr))
				return
			}
			if !yield(pbconv.NormalizeResult(frame), nil) {
				return
			}
		}
	}
}

func (t *RESTTransport) frameError(obj map[string]any) error {
	payload := &a2a.ErrorPayload{Code: a2a.CodeInternalError, Data: obj}
	if code, ok := obj["code"].(float64); ok {
		payload.Code = int(code)
	}
	payload.Message, _ = obj["message"].(string)
	if payload.Message == "" {
		payload.Message = a2a.CanonicalMessage(payload.Code)
	}
	return &TransportError{Transport: a2a.TransportREST, Message: "agent returned an error in stream", Payload: payload}
}

func sendBody(req *a2a.SendMessageRequest) map[string]any {
	body := map[string]any{"message": pbconv.ToProtoJSONMessage(req.Message, pbconv.RESTPartsField)}
	if len(req.Configuration) > 0 {
		body["configuration"] = pbconv.ToProtoJSONConfiguration(req.Configuration)
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}
	return body
}

func invalidParams(err error) error {
	p := a2a.NewErrorPayload(a2a.CodeInvalidParams)
	p.Data = err.Error()
	return &TransportError{Transport: a2a.TransportREST, Message: "request rejected before sending", Payload: p, Err: err}
}

// SendMessage implements [Transport].
func (t *RESTTransport) SendMessage(ctx context.Context, params ServiceParams, req *a2a.SendMessageRequest) (map[string]any, error) {
	obj, err := t.doObject(ctx, a2a.OpSendMessage, params, nil, nil, sendBody(req))
	if err != nil {
		return nil, err
	}
	return pbconv.NormalizeResult(obj), nil
}

// SendStreamingMessage implements [Transport].
func (t *RESTTransport) SendStreamingMessage(ctx context.Context, params ServiceParams, req *a2a.SendMessageRequest) iter.Seq2[map[string]any, error] {
	return t.stream(ctx, a2a.OpSendStreamingMessage, params, nil, sendBody(req))
}

// GetTask implements [Transport].
func (t *RESTTransport) GetTask(ctx context.Context, params ServiceParams, req *a2a.GetTaskRequest) (map[string]any, error) {
	query := url.Values{}
	if req.HistoryLength != nil {
		query.Set("historyLength", strconv.Itoa(*req.HistoryLength))
	}
	obj, err := t.doObject(ctx, a2a.OpGetTask, params, map[string]string{"id": req.ID}, query, nil)
	if err != nil {
		return nil, err
	}
	return pbconv.NormalizeTask(unwrap(obj, "task")), nil
}

// CancelTask implements [Transport].
func (t *RESTTransport) CancelTask(ctx context.Context, params ServiceParams, req *a2a.TaskIDRequest) (map[string]any, error) {
	body := map[string]any{"name": pbconv.MakeTaskName(req.ID)}
	obj, err := t.doObject(ctx, a2a.OpCancelTask, params, map[string]string{"id": req.ID}, nil, body)
	if err != nil {
		return nil, err
	}
	return pbconv.NormalizeTask(unwrap(obj, "task")), nil
}

// ResubscribeTask implements [Transport].
func (t *RESTTransport) ResubscribeTask(ctx context.Context, params ServiceParams, req *a2a.TaskIDRequest) iter.Seq2[map[string]any, error] {
	body := map[string]any{"name": pbconv.MakeTaskName(req.ID)}
	return t.stream(ctx, a2a.OpResubscribeTask, params, map[string]string{"id": req.ID}, body)
}

// ListTasks implements [Transport]. Filters a conforming agent would refuse
// are rejected without a network call.
func (t *RESTTransport) ListTasks(ctx context.Context, params ServiceParams, req *a2a.ListTasksRequest) (map[string]any, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidParams(err)
	}
	query := url.Values{}
	if req.ContextID != "" {
		query.Set("contextId", req.ContextID)
	}
	if req.Status != "" {
		query.Set("status", string(req.Status))
	}
	if req.PageSize != 0 {
		query.Set("pageSize", strconv.Itoa(req.PageSize))
	}
	if req.PageToken != "" {
		query.Set("pageToken", req.PageToken)
	}
	if req.HistoryLength != nil {
		query.Set("historyLength", strconv.Itoa(*req.HistoryLength))
	}
	if !req.LastUpdatedAfter.IsZero() {
		query.Set("lastUpdatedAfter", req.LastUpdatedAfter.UTC().Format(time.RFC3339))
	}
	if req.IncludeArtifacts {
		query.Set("includeArtifacts", "true")
	}
	obj, err := t.doObject(ctx, a2a.OpListTasks, params, nil, query, nil)
	if err != nil {
		return nil, err
	}
	return pbconv.NormalizeListTasks(obj), nil
}

// SetTaskPushConfig implements [Transport].
func (t *RESTTransport) SetTaskPushConfig(ctx context.Context, params ServiceParams, req *a2a.SetPushConfigRequest) (map[string]any, error) {
	obj, err := t.doObject(ctx, a2a.OpSetPushConfig, params, map[string]string{"id": req.TaskID}, nil, pbconv.ToProtoJSONSetPushConfig(req))
	if err != nil {
		return nil, err
	}
	return pbconv.NormalizePushConfig(obj, req.TaskID), nil
}

// GetTaskPushConfig implements [Transport].
func (t *RESTTransport) GetTaskPushConfig(ctx context.Context, params ServiceParams, req *a2a.PushConfigRequest) (map[string]any, error) {
	vars := map[string]string{"id": req.TaskID, "configId": req.ConfigID}
	obj, err := t.doObject(ctx, a2a.OpGetPushConfig, params, vars, nil, nil)
	if err != nil {
		return nil, err
	}
	return pbconv.NormalizePushConfig(obj, req.TaskID), nil
}

// ListTaskPushConfigs implements [Transport].
func (t *RESTTransport) ListTaskPushConfigs(ctx context.Context, params ServiceParams, req *a2a.TaskIDRequest) ([]map[string]any, error) {
	v, err := t.do(ctx, a2a.OpListPushConfigs, params, map[string]string{"id": req.ID}, nil, nil)
	if err != nil {
		return nil, err
	}
	return pbconv.NormalizePushConfigList(v, req.ID), nil
}

// DeleteTaskPushConfig implements [Transport].
func (t *RESTTransport) DeleteTaskPushConfig(ctx context.Context, params ServiceParams, req *a2a.PushConfigRequest) error {
	vars := map[string]string{"id": req.TaskID, "configId": req.ConfigID}
	_, err := t.do(ctx, a2a.OpDeletePushConfig, params, vars, nil, nil)
	return err
}

// GetAuthenticatedExtendedCard implements [Transport].
func (t *RESTTransport) GetAuthenticatedExtendedCard(ctx context.Context, params ServiceParams) (map[string]any, error) {
	return t.doObject(ctx, a2a.OpGetAuthenticatedExtendedCard, params, nil, nil, nil)
}

// GetAgentCard implements [Transport].
func (t *RESTTransport) GetAgentCard(ctx context.Context, params ServiceParams) (map[string]any, error) {
	return t.h.getAgentCard(ctx, params)
}

// WireMethods implements [WireNamer].
func (t *RESTTransport) WireMethods() map[a2a.Operation]string {
	return WireMethodNames(a2a.TransportREST)
}

// Type implements [Transport].
func (t *RESTTransport) Type() a2a.TransportType { return a2a.TransportREST }

// URL implements [Transport].
func (t *RESTTransport) URL() string { return t.h.url }

// SupportsMethod implements [Transport].
func (t *RESTTransport) SupportsMethod(op a2a.Operation) bool {
	return a2a.SupportsMethod(a2a.TransportREST, op)
}

// Info implements [Transport].
func (t *RESTTransport) Info() map[string]any {
	info := t.h.info()
	info["base_url"] = t.h.url
	info["supported_methods"] = SupportedMethods(a2a.TransportREST)
	info["supports_streaming"] = true
	info["supports_bidirectional"] = false
	info["streaming_mechanism"] = "Server-Sent Events (SSE)"
	return info
}

// Features implements [Transport].
func (t *RESTTransport) Features() []string {
	return []string{FeatureHTTPStatusCodes, FeatureRESTURLPatterns, FeatureSSEStreaming, FeatureTaskListing}
}

// Close implements [Transport].
func (t *RESTTransport) Close() error {
	t.h.client.CloseIdleConnections()
	return nil
}

// unwrap returns obj[key] when the response wraps its payload, obj otherwise.
func unwrap(obj map[string]any, key string) map[string]any {
	if inner, ok := obj[key].(map[string]any); ok && len(obj) == 1 {
		return inner
	}
	return obj
}
