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

// Package agentcard fetches Agent Cards and extracts the transport and
// capability declarations the kit relies on.
//
// Cards are kept as decoded JSON objects rather than typed structs: the
// agent under test is untrusted, and validators need to see every field it
// published, including the malformed ones.
package agentcard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/log"
)

const defaultAgentCardPath = a2a.WellKnownAgentCardPath

const defaultRequestTimeout = 10 * time.Second

// DefaultResolver uses a client with a 10 second timeout.
var DefaultResolver = NewResolver(nil)

// ErrStatusNotOK is returned when a card location answers with a non-200 status.
type ErrStatusNotOK struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *ErrStatusNotOK) Error() string {
	return fmt.Sprintf("agent card request to %s failed: %s", e.URL, e.Status)
}

// Resolver fetches Agent Cards over HTTP.
type Resolver struct {
	// Client is used for card requests. A client with a 10 second timeout is used when nil.
	Client *http.Client
}

// NewResolver creates a Resolver using client, or a default client when client is nil.
func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Resolver{Client: client}
}

type resolveRequest struct {
	path    string
	headers http.Header
}

// ResolveOption customizes a single Resolve call.
type ResolveOption func(*resolveRequest)

// WithPath fetches the card from path instead of the well-known locations.
func WithPath(path string) ResolveOption {
	return func(r *resolveRequest) {
		r.path = path
	}
}

// WithRequestHeader adds a header to the card request.
func WithRequestHeader(key, value string) ResolveOption {
	return func(r *resolveRequest) {
		r.headers.Add(key, value)
	}
}

// Resolve fetches the card of the agent served at baseURL. Only the scheme and
// host of baseURL are used. Without WithPath the current well-known location is
// tried first, then the legacy one.
func (r *Resolver) Resolve(ctx context.Context, baseURL string, opts ...ResolveOption) (map[string]any, error) {
	req := &resolveRequest{headers: http.Header{}}
	for _, opt := range opts {
		opt(req)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid agent URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("agent URL %q must be absolute", baseURL)
	}
	origin := u.Scheme + "://" + u.Host

	paths := []string{defaultAgentCardPath, a2a.LegacyAgentCardPath}
	if req.path != "" {
		paths = []string{"/" + strings.TrimPrefix(req.path, "/")}
	}

	var errs []error
	for _, p := range paths {
		card, err := r.fetch(ctx, origin+p, req.headers)
		if err == nil {
			log.Info(ctx, "fetched agent card", "url", origin+p)
			return card, nil
		}
		log.Info(ctx, "agent card not available", "url", origin+p, "error", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func (r *Resolver) fetch(ctx context.Context, cardURL string, headers http.Header) (map[string]any, error) {
	client := r.Client
	if client == nil {
		client = DefaultResolver.Client
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent card request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, vals := range headers {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("agent card request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Error(ctx, "failed to close agent card response body", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &ErrStatusNotOK{StatusCode: resp.StatusCode, Status: resp.Status, URL: cardURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent card: %w", err)
	}
	var card map[string]any
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("failed to decode agent card from %s: %w", cardURL, err)
	}
	if card == nil {
		return nil, fmt.Errorf("agent card at %s is not a JSON object", cardURL)
	}
	return card, nil
}
