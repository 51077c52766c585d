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

// Package a2aclient provides multi-transport clients for testing A2A agents
// and the [Manager] that discovers which transports an agent serves.
package a2aclient

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/a2aproject/a2a-tck-go/a2a"
)

// Transport is a protocol client for one transport of an agent under test.
// Results are A2A JSON objects regardless of the wire format, so that the
// same assertions apply to every transport.
type Transport interface {
	// SendMessage calls the 'message/send' protocol method.
	SendMessage(context.Context, ServiceParams, *a2a.SendMessageRequest) (map[string]any, error)

	// SendStreamingMessage calls the 'message/stream' protocol method.
	SendStreamingMessage(context.Context, ServiceParams, *a2a.SendMessageRequest) iter.Seq2[map[string]any, error]

	// GetTask calls the 'tasks/get' protocol method.
	GetTask(context.Context, ServiceParams, *a2a.GetTaskRequest) (map[string]any, error)

	// CancelTask calls the 'tasks/cancel' protocol method.
	CancelTask(context.Context, ServiceParams, *a2a.TaskIDRequest) (map[string]any, error)

	// ResubscribeTask calls the 'tasks/resubscribe' protocol method.
	ResubscribeTask(context.Context, ServiceParams, *a2a.TaskIDRequest) iter.Seq2[map[string]any, error]

	// ListTasks lists tasks. It is not defined for JSON-RPC.
	ListTasks(context.Context, ServiceParams, *a2a.ListTasksRequest) (map[string]any, error)

	// SetTaskPushConfig creates or replaces a push notification config.
	SetTaskPushConfig(context.Context, ServiceParams, *a2a.SetPushConfigRequest) (map[string]any, error)

	// GetTaskPushConfig fetches a push notification config.
	GetTaskPushConfig(context.Context, ServiceParams, *a2a.PushConfigRequest) (map[string]any, error)

	// ListTaskPushConfigs lists the push notification configs of a task. The
	// result is never nil.
	ListTaskPushConfigs(context.Context, ServiceParams, *a2a.TaskIDRequest) ([]map[string]any, error)

	// DeleteTaskPushConfig deletes a push notification config.
	DeleteTaskPushConfig(context.Context, ServiceParams, *a2a.PushConfigRequest) error

	// GetAuthenticatedExtendedCard fetches the authenticated extended Agent Card.
	GetAuthenticatedExtendedCard(context.Context, ServiceParams) (map[string]any, error)

	// GetAgentCard fetches the public Agent Card.
	GetAgentCard(context.Context, ServiceParams) (map[string]any, error)

	// Type returns the transport type of the client.
	Type() a2a.TransportType

	// URL returns the endpoint the client talks to.
	URL() string

	// SupportsMethod reports whether op is defined for the transport.
	SupportsMethod(op a2a.Operation) bool

	// Info describes the client for reports.
	Info() map[string]any

	// Features lists the optional transport features the client implements.
	Features() []string

	// Close releases connections held by the client.
	Close() error
}

// WireNamer is implemented by transports able to report the wire method
// names they use, keyed by operation.
type WireNamer interface {
	WireMethods() map[a2a.Operation]string
}

// TransportFactory creates a client for an endpoint.
type TransportFactory interface {
	Create(ctx context.Context, endpoint string, cfg Config) (Transport, error)
}

// TransportFactoryFn implements TransportFactory.
type TransportFactoryFn func(ctx context.Context, endpoint string, cfg Config) (Transport, error)

func (fn TransportFactoryFn) Create(ctx context.Context, endpoint string, cfg Config) (Transport, error) {
	return fn(ctx, endpoint, cfg)
}

// ServiceParams holds horizontally applicable context or parameters with case-insensitive keys.
// HTTP transports send them as headers, gRPC as metadata.
type ServiceParams map[string][]string

// Get performs case-insensitive lookup or the provided key. Returns nil if value is not present.
func (m ServiceParams) Get(key string) []string {
	return m[strings.ToLower(key)]
}

// Append appends the provided values to the list of values associated with the key.
// Duplicates values will not be added. Key matching is case-insensitive.
func (m ServiceParams) Append(key string, vals ...string) {
	result := m.Get(key)
	for _, v := range vals {
		if slices.Contains(result, v) {
			continue
		}
		result = append(result, v)
	}
	m[strings.ToLower(key)] = result
}

// merge returns defaults overlaid with m. Keys of m replace the defaults.
func (m ServiceParams) merge(defaults ServiceParams) ServiceParams {
	out := make(ServiceParams, len(m)+len(defaults))
	for k, v := range defaults {
		out[strings.ToLower(k)] = slices.Clone(v)
	}
	for k, v := range m {
		out[strings.ToLower(k)] = slices.Clone(v)
	}
	return out
}

// TransportError is returned for every failed call: connection and timeout
// failures, unexpected HTTP statuses, undecodable responses, and errors
// reported by the agent. In the last case Payload holds the A2A error.
type TransportError struct {
	// Transport is the transport the call was made on.
	Transport a2a.TransportType
	// Message describes the failure.
	Message string
	// StatusCode is the HTTP status when one was received.
	StatusCode int
	// Payload is the protocol error reported by the agent, if any.
	Payload *a2a.ErrorPayload
	// Err is the underlying cause, if any.
	Err error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s transport error: %s", e.Transport.Label(), e.Message)
	if e.Payload != nil {
		fmt.Fprintf(&b, " (code %d: %s)", e.Payload.Code, e.Payload.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the cause and the payload, so errors.Is matches
// a2a sentinels like [a2a.ErrTaskNotFound].
func (e *TransportError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Payload != nil {
		errs = append(errs, e.Payload)
	}
	return errs
}

// AsTransportError finds the first TransportError in err's chain.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	ok := errors.As(err, &te)
	return te, ok
}

// ErrorCode returns the A2A error code carried by err, if any.
func ErrorCode(err error) (int, bool) {
	var p *a2a.ErrorPayload
	if errors.As(err, &p) {
		return p.Code, true
	}
	return 0, false
}

// Config holds per-transport client settings.
type Config struct {
	// Timeout bounds unary calls.
	Timeout time.Duration
	// StreamingMultiplier scales Timeout for streaming calls.
	StreamingMultiplier float64
	// Retry controls HTTP retries.
	Retry RetryPolicy
	// Headers are sent with every request.
	Headers map[string]string
	// UserAgent overrides the transport's default User-Agent.
	UserAgent string
}

const (
	defaultTimeout             = 30 * time.Second
	defaultStreamingMultiplier = 2
)

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		Timeout:             defaultTimeout,
		StreamingMultiplier: defaultStreamingMultiplier,
		Retry:               DefaultRetryPolicy(),
	}
}

// StreamingTimeout returns the deadline applied to streaming calls.
func (c Config) StreamingTimeout() time.Duration {
	return time.Duration(float64(c.Timeout) * c.StreamingMultiplier)
}

// WithDefaults fills unset timeouts with their defaults.
func (c Config) WithDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.StreamingMultiplier <= 0 {
		c.StreamingMultiplier = defaultStreamingMultiplier
	}
	return c
}

func (c Config) params() ServiceParams {
	p := ServiceParams{}
	for k, v := range c.Headers {
		p.Append(k, v)
	}
	return p
}

// newHTTPClient builds the client HTTP transports use: retries and rate
// limiting per cfg on top of base.
func newHTTPClient(base *http.Client, cfg Config) *http.Client {
	client := &http.Client{}
	if base != nil {
		*client = *base
	}
	client.Transport = NewRetryTransport(client.Transport, cfg.Retry)
	return client
}

// Transport features reported by [Transport.Features]. The names are those
// of the compliance checklists.
const (
	FeatureSSEStreaming           = "sse_streaming"
	FeatureJSONRPCErrorCodes      = "json_rpc_error_codes"
	FeatureProtobufSerialization  = "protobuf_serialization"
	FeatureGRPCStreaming          = "grpc_streaming"
	FeatureGRPCMetadata           = "grpc_metadata"
	FeatureBidirectionalStreaming = "bidirectional_streaming"
	FeatureHTTPStatusCodes        = "http_status_codes"
	FeatureRESTURLPatterns        = "rest_url_patterns"
	FeatureHTTPCaching            = "http_caching"
	FeatureConditionalRequests    = "conditional_requests"

	// Features beyond the checklists.
	FeatureRawRequests = "raw_requests"
	FeatureTaskListing = "task_listing"
)

// WireMethodNames returns the wire name of every operation defined for t.
func WireMethodNames(t a2a.TransportType) map[a2a.Operation]string {
	out := map[a2a.Operation]string{}
	for _, m := range a2a.Methods() {
		if m.AppliesTo(t) {
			out[m.Operation] = m.Name(t)
		}
	}
	return out
}

// SupportedMethods lists the client methods a transport of type t implements.
func SupportedMethods(t a2a.TransportType) []string {
	var out []string
	for _, m := range a2a.Methods() {
		if m.AppliesTo(t) {
			out = append(out, m.ClientMethod)
		}
	}
	return append(out, "GetAgentCard")
}
