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
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/a2aproject/a2a-tck-go/internal/sse"
)

func fastRetries(n int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: n,
		Statuses:   []int{http.StatusServiceUnavailable},
		Backoff:    time.Millisecond,
	}
}

func TestRetryTransport(t *testing.T) {
	testCases := []struct {
		name         string
		method       string
		body         []byte
		accept       string
		failures     int32
		policy       RetryPolicy
		wantStatus   int
		wantAttempts int32
	}{
		{
			name:         "get recovers",
			method:       http.MethodGet,
			failures:     2,
			policy:       fastRetries(3),
			wantStatus:   http.StatusOK,
			wantAttempts: 3,
		},
		{
			name:         "post with replayable body recovers",
			method:       http.MethodPost,
			body:         []byte(`{"a":1}`),
			failures:     1,
			policy:       fastRetries(3),
			wantStatus:   http.StatusOK,
			wantAttempts: 2,
		},
		{
			name:         "retries exhausted",
			method:       http.MethodGet,
			failures:     10,
			policy:       fastRetries(2),
			wantStatus:   http.StatusServiceUnavailable,
			wantAttempts: 3,
		},
		{
			name:         "streams are not retried",
			method:       http.MethodPost,
			body:         []byte(`{}`),
			accept:       sse.ContentEventStream,
			failures:     1,
			policy:       fastRetries(3),
			wantStatus:   http.StatusServiceUnavailable,
			wantAttempts: 1,
		},
		{
			name:         "retries disabled",
			method:       http.MethodGet,
			failures:     1,
			policy:       RetryPolicy{},
			wantStatus:   http.StatusServiceUnavailable,
			wantAttempts: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := attempts.Add(1)
				body, _ := io.ReadAll(r.Body)
				if !bytes.Equal(body, tc.body) {
					t.Errorf("attempt %d got body %q, want %q", n, body, tc.body)
				}
				if n <= tc.failures {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := &http.Client{Transport: NewRetryTransport(nil, tc.policy)}
			var reader io.Reader
			if tc.body != nil {
				reader = bytes.NewReader(tc.body)
			}
			req, err := http.NewRequestWithContext(t.Context(), tc.method, server.URL, reader)
			if err != nil {
				t.Fatalf("NewRequest() error = %v", err)
			}
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			_ = resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Errorf("got status %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if got := attempts.Load(); got != tc.wantAttempts {
				t.Errorf("got %d attempts, want %d", got, tc.wantAttempts)
			}
		})
	}
}

func TestRetryTransport_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := &http.Client{Transport: NewRetryTransport(nil, RetryPolicy{RequestsPerSecond: 20, Burst: 1})}
	start := time.Now()
	for range 3 {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		_ = resp.Body.Close()
	}
	// Two waits of 50ms at 20 requests per second.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 requests took %v, want rate limiting", elapsed)
	}
}
