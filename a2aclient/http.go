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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"mime"
	"net/http"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient/agentcard"
	"github.com/a2aproject/a2a-tck-go/internal/sse"
	"github.com/a2aproject/a2a-tck-go/log"
)

// maxErrorBody bounds how much of an error response is quoted in messages.
const maxErrorBody = 512

// httpTransport holds what the JSON-RPC and REST clients share.
type httpTransport struct {
	ttype     a2a.TransportType
	url       string
	client    *http.Client
	cfg       Config
	userAgent string
}

func newHTTPTransport(ttype a2a.TransportType, url string, client *http.Client, cfg Config, userAgent string) *httpTransport {
	cfg = cfg.WithDefaults()
	if cfg.UserAgent != "" {
		userAgent = cfg.UserAgent
	}
	return &httpTransport{
		ttype:     ttype,
		url:       url,
		client:    newHTTPClient(client, cfg),
		cfg:       cfg,
		userAgent: userAgent,
	}
}

func (h *httpTransport) newError(msg string, err error) *TransportError {
	if errors.Is(err, context.DeadlineExceeded) {
		msg += ": request timed out"
	}
	return &TransportError{Transport: h.ttype, Message: msg, Err: err}
}

func (h *httpTransport) newRequest(ctx context.Context, method, target string, body []byte, params ServiceParams) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, h.newError("failed to create HTTP request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	for k, vals := range params.merge(h.cfg.params()) {
		req.Header.Del(k)
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

type httpResult struct {
	status      int
	contentType string
	body        []byte
}

// roundTrip performs a unary call bounded by the configured timeout and
// returns the full response regardless of its status.
func (h *httpTransport) roundTrip(ctx context.Context, method, target string, body []byte, params ServiceParams) (*httpResult, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	req, err := h.newRequest(ctx, method, target, body, params)
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "sending request", "transport", h.ttype, "method", method, "url", target)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, h.newError("failed to send HTTP request", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Error(ctx, "failed to close http response body", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, h.newError("failed to read HTTP response", err)
	}
	return &httpResult{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type"), body: data}, nil
}

// openStream starts a streaming call. The returned close function releases
// the body and the streaming deadline and must always be called.
func (h *httpTransport) openStream(ctx context.Context, method, target string, body []byte, params ServiceParams) (*http.Response, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.StreamingTimeout())

	req, err := h.newRequest(ctx, method, target, body, params)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Accept", sse.ContentEventStream)
	req.Header.Set("Cache-Control", "no-cache")
	log.Debug(ctx, "opening stream", "transport", h.ttype, "method", method, "url", target)

	resp, err := h.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, h.newError("failed to send HTTP request", err)
	}
	closeFn := func() {
		if err := resp.Body.Close(); err != nil {
			log.Error(ctx, "failed to close http response body", err)
		}
		cancel()
	}
	return resp, closeFn, nil
}

// readAll drains a rejected stream response for error reporting.
func readAll(resp *http.Response) []byte {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return data
}

func isEventStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == sse.ContentEventStream
}

// frames yields the JSON objects of an SSE body until the body ends or a
// [DONE] frame arrives. Frames that are not JSON objects are logged and skipped.
func (h *httpTransport) frames(ctx context.Context, body io.Reader) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for data, err := range sse.ParseDataStream(body) {
			if err != nil {
				yield(nil, h.newError("failed to read event stream", err))
				return
			}
			if sse.IsDone(data) {
				return
			}
			var frame map[string]any
			if err := json.Unmarshal(data, &frame); err != nil || frame == nil {
				log.Warn(ctx, "skipping malformed stream frame", "transport", h.ttype, "data", truncate(data))
				continue
			}
			if !yield(frame, nil) {
				return
			}
		}
	}
}

func (h *httpTransport) getAgentCard(ctx context.Context, params ServiceParams) (map[string]any, error) {
	var opts []agentcard.ResolveOption
	for k, vals := range params.merge(h.cfg.params()) {
		for _, v := range vals {
			opts = append(opts, agentcard.WithRequestHeader(k, v))
		}
	}
	card, err := agentcard.NewResolver(h.client).Resolve(ctx, h.url, opts...)
	if err != nil {
		te := h.newError("failed to fetch agent card", err)
		var notOK *agentcard.ErrStatusNotOK
		if errors.As(err, &notOK) {
			te.StatusCode = notOK.StatusCode
		}
		return nil, te
	}
	return card, nil
}

func (h *httpTransport) info() map[string]any {
	return map[string]any{
		"transport_type": string(h.ttype),
		"url":            h.url,
		"timeout":        h.cfg.Timeout.String(),
		"user_agent":     h.userAgent,
		"max_retries":    h.cfg.Retry.MaxRetries,
	}
}

func truncate(data []byte) string {
	if len(data) > maxErrorBody {
		return string(data[:maxErrorBody]) + "..."
	}
	return string(data)
}

func statusMessage(status int, body []byte) string {
	return fmt.Sprintf("HTTP %d: %s", status, truncate(body))
}
