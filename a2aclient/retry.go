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
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/a2aproject/a2a-tck-go/internal/sse"
	"github.com/a2aproject/a2a-tck-go/log"
	"golang.org/x/time/rate"
)

// RetryPolicy controls how HTTP requests are retried.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one. Zero disables retries.
	MaxRetries int
	// Statuses lists the HTTP statuses that trigger a retry.
	Statuses []int
	// Backoff is the delay before the first retry. It doubles on every retry.
	Backoff time.Duration
	// RequestsPerSecond throttles outgoing requests when positive.
	RequestsPerSecond float64
	// Burst is the limiter burst size. It defaults to 1.
	Burst int
}

// DefaultRetryPolicy retries three times on 429 and 5xx gateway statuses.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		Statuses: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		Backoff: time.Second,
	}
}

type retryTransport struct {
	next    http.RoundTripper
	policy  RetryPolicy
	limiter *rate.Limiter
}

// NewRetryTransport wraps next with retries and rate limiting per policy.
// Streaming requests and requests whose body cannot be replayed are sent once.
func NewRetryTransport(next http.RoundTripper, policy RetryPolicy) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	t := &retryTransport{next: next, policy: policy}
	if policy.RequestsPerSecond > 0 {
		burst := max(policy.Burst, 1)
		t.limiter = rate.NewLimiter(rate.Limit(policy.RequestsPerSecond), burst)
	}
	return t
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if !t.retryable(req) {
		return t.next.RoundTrip(req)
	}

	delay := t.policy.Backoff
	for attempt := 0; ; attempt++ {
		attemptReq := req
		if attempt > 0 {
			attemptReq = req.Clone(ctx)
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				attemptReq.Body = body
			}
		}

		resp, err := t.next.RoundTrip(attemptReq)
		if err != nil || attempt >= t.policy.MaxRetries || !slices.Contains(t.policy.Statuses, resp.StatusCode) {
			return resp, err
		}

		log.Debug(ctx, "retrying request", "url", req.URL.String(), "status", resp.StatusCode, "attempt", attempt+1)
		_, _ = io.Copy(io.Discard, resp.Body)
		if err := resp.Body.Close(); err != nil {
			log.Error(ctx, "failed to close http response body", err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func (t *retryTransport) retryable(req *http.Request) bool {
	if t.policy.MaxRetries <= 0 {
		return false
	}
	if strings.Contains(req.Header.Get("Accept"), sse.ContentEventStream) {
		return false
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodDelete, http.MethodPut:
		return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	case http.MethodPost:
		return req.GetBody != nil
	}
	return false
}
