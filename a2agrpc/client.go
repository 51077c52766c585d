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

// Package a2agrpc provides the gRPC client transport used to test agents
// that serve the A2A gRPC binding.
package a2agrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/a2aproject/a2a-go/a2apb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
	"github.com/a2aproject/a2a-tck-go/internal/grpcutil"
	"github.com/a2aproject/a2a-tck-go/internal/pbconv"
	"github.com/a2aproject/a2a-tck-go/log"
)

const userAgent = "A2A-TCK-gRPC-Client/" + a2a.ProtocolVersion

// WithGRPCTransport returns a Manager option that creates gRPC clients. opts
// are applied after the defaults derived from the endpoint URL.
func WithGRPCTransport(opts ...grpc.DialOption) a2aclient.ManagerOption {
	return a2aclient.WithTransportFactory(
		a2a.TransportGRPC,
		a2aclient.TransportFactoryFn(func(ctx context.Context, endpoint string, cfg a2aclient.Config) (a2aclient.Transport, error) {
			return NewGRPCTransport(endpoint, cfg, opts...)
		}),
	)
}

// GRPCTransport implements [a2aclient.Transport] on top of an
// [a2apb.A2AServiceClient]. Responses are converted to A2A JSON objects.
type GRPCTransport struct {
	endpoint string
	useTLS   bool
	cfg      a2aclient.Config

	// dial is nil when the connection is managed by the caller.
	dial func() (*grpc.ClientConn, error)

	mu     sync.Mutex
	client a2apb.A2AServiceClient
	conn   *grpc.ClientConn
}

var (
	_ a2aclient.Transport = (*GRPCTransport)(nil)
	_ a2aclient.WireNamer = (*GRPCTransport)(nil)
)

// NewGRPCTransport dials endpoint, a grpc://, grpcs://, http:// or https://
// URL or a bare host:port. TLS is used for the secure schemes.
func NewGRPCTransport(endpoint string, cfg a2aclient.Config, opts ...grpc.DialOption) (*GRPCTransport, error) {
	target, err := grpcutil.ParseTarget(endpoint)
	if err != nil {
		return nil, err
	}
	creds := insecure.NewCredentials()
	if target.TLS {
		creds = credentials.NewTLS(nil)
	}
	ua := userAgent
	if cfg.UserAgent != "" {
		ua = cfg.UserAgent
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithUserAgent(ua),
	}, opts...)

	t := &GRPCTransport{
		endpoint: endpoint,
		useTLS:   target.TLS,
		cfg:      cfg.WithDefaults(),
		dial: func() (*grpc.ClientConn, error) {
			return grpc.NewClient(target.Address, dialOpts...)
		},
	}
	if _, err := t.service(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewGRPCTransportFromClient creates a transport whose connection is managed
// by the caller. Close is a no-op.
func NewGRPCTransportFromClient(client a2apb.A2AServiceClient, endpoint string, cfg a2aclient.Config) *GRPCTransport {
	return &GRPCTransport{
		client:   client,
		endpoint: endpoint,
		cfg:      cfg.WithDefaults(),
	}
}

// service returns the service client, creating the connection again after
// Close.
func (t *GRPCTransport) service() (a2apb.A2AServiceClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return t.client, nil
	}
	if t.dial == nil {
		return nil, t.newError("client is closed", nil)
	}
	conn, err := t.dial()
	if err != nil {
		return nil, t.newError("failed to create gRPC client for "+t.endpoint, err)
	}
	t.conn = conn
	t.client = a2apb.NewA2AServiceClient(conn)
	return t.client, nil
}

// callContext applies the configured headers, params and deadline.
func (t *GRPCTransport) callContext(ctx context.Context, params a2aclient.ServiceParams, timeout time.Duration) (context.Context, context.CancelFunc) {
	md := map[string][]string{}
	for k, v := range t.cfg.Headers {
		md[k] = []string{v}
	}
	for k, v := range params {
		md[k] = v
	}
	ctx = grpcutil.WithOutgoingMetadata(ctx, md)
	return context.WithTimeout(ctx, timeout)
}

func (t *GRPCTransport) unary(ctx context.Context, params a2aclient.ServiceParams) (context.Context, context.CancelFunc) {
	return t.callContext(ctx, params, t.cfg.Timeout)
}

func (t *GRPCTransport) newError(msg string, err error) *a2aclient.TransportError {
	return &a2aclient.TransportError{Transport: a2a.TransportGRPC, Message: msg, Err: err}
}

// fromGRPCError wraps a failed call. Status errors that map to A2A errors
// carry a Payload, deadline expiry wraps context.DeadlineExceeded.
func (t *GRPCTransport) fromGRPCError(err error) error {
	if payload, ok := grpcutil.ToErrorPayload(err); ok {
		te := t.newError("agent returned a gRPC error", err)
		te.Payload = payload
		return te
	}
	switch grpcutil.StatusCode(err) {
	case codes.DeadlineExceeded:
		return t.newError("request timed out", fmt.Errorf("%w: %w", context.DeadlineExceeded, err))
	case codes.Canceled:
		return t.newError("request canceled", fmt.Errorf("%w: %w", context.Canceled, err))
	case codes.Unavailable:
		return t.newError("agent unavailable", err)
	}
	return t.newError("gRPC call failed", err)
}

func (t *GRPCTransport) conversionError(err error) error {
	return t.newError("failed to convert response", err)
}

// SendMessage implements [a2aclient.Transport].
func (t *GRPCTransport) SendMessage(ctx context.Context, params a2aclient.ServiceParams, req *a2a.SendMessageRequest) (map[string]any, error) {
	pbReq, err := pbconv.ToProtoSendMessageRequest(req)
	if err != nil {
		return nil, t.newError("failed to convert request", err)
	}
	ctx, cancel := t.unary(ctx, params)
	defer cancel()

	client, err := t.service()
	if err != nil {
		return nil, err
	}
	pbResp, err := client.SendMessage(ctx, pbReq)
	if err != nil {
		return nil, t.fromGRPCError(err)
	}
	result, err := pbconv.FromProtoSendMessageResponse(pbResp)
	if err != nil {
		return nil, t.conversionError(err)
	}
	return result, nil
}

// SendStreamingMessage implements [a2aclient.Transport].
func (t *GRPCTransport) SendStreamingMessage(ctx context.Context, params a2aclient.ServiceParams, req *a2a.SendMessageRequest) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		pbReq, err := pbconv.ToProtoSendMessageRequest(req)
		if err != nil {
			yield(nil, t.newError("failed to convert request", err))
			return
		}
		ctx, cancel := t.callContext(ctx, params, t.cfg.StreamingTimeout())
		defer cancel()

		client, err := t.service()
		if err != nil {
			yield(nil, err)
			return
		}
		stream, err := client.SendStreamingMessage(ctx, pbReq)
		if err != nil {
			yield(nil, t.fromGRPCError(err))
			return
		}
		t.drainEventStream(ctx, stream, yield)
	}
}

func (t *GRPCTransport) drainEventStream(ctx context.Context, stream grpc.ServerStreamingClient[a2apb.StreamResponse], yield func(map[string]any, error) bool) {
	for {
		pResp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(nil, t.fromGRPCError(err))
			return
		}
		event, err := pbconv.FromProtoStreamResponse(pResp)
		if err != nil {
			log.Warn(ctx, "failed to convert stream response", "error", err)
			yield(nil, t.conversionError(err))
			return
		}
		if !yield(event, nil) {
			return
		}
	}
}

// GetTask implements [a2aclient.Transport].
func (t *GRPCTransport) GetTask(ctx context.Context, params a2aclient.ServiceParams, req *a2a.GetTaskRequest) (map[string]any, error) {
	ctx, cancel := t.unary(ctx, params)
	defer cancel()

	client, err := t.service()
	if err != nil {
		return nil, err
	}
	pbTask, err := client.GetTask(ctx, pbconv.ToProtoGetTaskRequest(req))
	if err != nil {
		return nil, t.fromGRPCError(err)
	}
	task, err := pbconv.FromProtoTask(pbTask)
	if err != nil {
		return nil, t.conversionError(err)
	}
	return task, nil
}

// CancelTask implements [a2aclient.Transport].
func (t *GRPCTransport) CancelTask(ctx context.Context, params a2aclient.ServiceParams, req *a2a.TaskIDRequest) (map[string]any, error) {
	ctx, cancel := t.unary(ctx, params)
	defer cancel()

	client, err := t.service()
	if err != nil {
		return nil, err
	}
	pbTask, err := client.CancelTask(ctx, pbconv.ToProtoCancelTaskRequest(req))
	if err != nil {
		return nil, t.fromGRPCError(err)
	}
	task, err := pbconv.FromProtoTask(pbTask)
	if err != nil {
		return nil, t.conversionError(err)
	}
	return task, nil
}

// ResubscribeTask implements [a2aclient.Transport] with the TaskSubscription RPC.
func (t *GRPCTransport) ResubscribeTask(ctx context.Context, params a2aclient.ServiceParams, req *a2a.TaskIDRequest) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		ctx, cancel := t.callContext(ctx, params, t.cfg.StreamingTimeout())
		defer cancel()

		client, err := t.service()
		if err != nil {
			yield(nil, err)
			return
		}
		stream, err := client.TaskSubscription(ctx, pbconv.ToProtoTaskSubscriptionRequest(req))
		if err != nil {
			yield(nil, t.fromGRPCError(err))
			return
		}
		t.drainEventStream(ctx, stream, yield)
	}
}

// ListTasks implements [a2aclient.Transport]. Invalid filters are rejected
// with an invalid params error before any call is made.
func (t *GRPCTransport) ListTasks(ctx context.Context, params a2aclient.ServiceParams, req *a2a.ListTasksRequest) (map[string]any, error) {
	if err := req.Validate(); err != nil {
		p := a2a.NewErrorPayload(a2a.CodeInvalidParams)
		p.Data = err.Error()
		te := t.newError("request rejected before sending", err)
		te.Payload = p
		return nil, te
	}
	ctx, cancel := t.unary(ctx, params)
	defer cancel()

	client, err := t.service()
	if err != nil {
		return nil, err
	}
	pbResp, err := client.ListTasks(ctx, pbconv.ToProtoListTasksRequest(req))
	if err != nil {
		return nil, t.fromGRPCError(err)
	}
	resp, err := pbconv.FromProtoListTasksResponse(pbResp)
	if err != nil {
		return nil, t.conversionError(err)
	}
	return resp, nil
}

// SetTaskPushConfig implements [a2aclient.Transport].
func (t *GRPCTransport) SetTaskPushConfig(ctx context.Context, params a2aclient.ServiceParams, req *a2a.SetPushConfigRequest) (map[string]any, error) {
	ctx, cancel := t.unary(ctx, params)
	defer cancel()

	client, err := t.service()
	if err != nil {
		return nil, err
	}
	pbConfig, err := client.CreateTaskPushNotificationConfig(ctx, pbconv.ToProtoCreateTaskPushConfigRequest(req))
	if err != nil {
		return nil, t.fromGRPCError(err)
	}
	config, err := pbconv.FromProtoTaskPushConfig(pbConfig, req.TaskID)
	if err != nil {
		return nil, t.conversionError(err)
	}
	return config, nil
}

// GetTaskPushConfig implements [a2aclient.Transport].
func (t *GRPCTransport) GetTaskPushConfig(ctx context.Context, params a2aclient.ServiceParams, req *a2a.PushConfigRequest) (map[string]any, error) {
	ctx, cancel := t.unary(ctx, params)
	defer cancel()

	client, err := t.service()
	if err != nil {
		return nil, err
	}
	pbConfig, err := client.GetTaskPushNotificationConfig(ctx, pbconv.ToProtoGetTaskPushConfigRequest(req))
	if err != nil {
		return nil, t.fromGRPCError(err)
	}
	config, err := pbconv.FromProtoTaskPushConfig(pbConfig, req.TaskID)
	if err != nil {
		return nil, t.conversionError(err)
	}
	return config, nil
}

// ListTaskPushConfigs implements [a2aclient.Transport].
func (t *GRPCTransport) ListTaskPushConfigs(ctx context.Context, params a2aclient.ServiceParams, req *a2a.TaskIDRequest) ([]map[string]any, error) {
	ctx, cancel := t.unary(ctx, params)
	defer cancel()

	client, err := t.service()
	if err != nil {
		return nil, err
	}
	pbResp, err := client.ListTaskPushNotificationConfig(ctx, pbconv.ToProtoListTaskPushConfigRequest(req.ID))
	if err != nil {
		return nil, t.fromGRPCError(err)
	}
	configs, err := pbconv.FromProtoListTaskPushConfigResponse(pbResp, req.ID)
	if err != nil {
		return nil, t.conversionError(err)
	}
	return configs, nil
}

// DeleteTaskPushConfig implements [a2aclient.Transport].
func (t *GRPCTransport) DeleteTaskPushConfig(ctx context.Context, params a2aclient.ServiceParams, req *a2a.PushConfigRequest) error {
	ctx, cancel := t.unary(ctx, params)
	defer cancel()

	client, err := t.service()
	if err != nil {
		return err
	}
	if _, err := client.DeleteTaskPushNotificationConfig(ctx, pbconv.ToProtoDeleteTaskPushConfigRequest(req)); err != nil {
		return t.fromGRPCError(err)
	}
	return nil
}

// GetAuthenticatedExtendedCard implements [a2aclient.Transport]. The gRPC
// binding serves the extended card from GetAgentCard when the call is
// authenticated.
func (t *GRPCTransport) GetAuthenticatedExtendedCard(ctx context.Context, params a2aclient.ServiceParams) (map[string]any, error) {
	return t.GetAgentCard(ctx, params)
}

// GetAgentCard implements [a2aclient.Transport].
func (t *GRPCTransport) GetAgentCard(ctx context.Context, params a2aclient.ServiceParams) (map[string]any, error) {
	ctx, cancel := t.unary(ctx, params)
	defer cancel()

	client, err := t.service()
	if err != nil {
		return nil, err
	}
	pbCard, err := client.GetAgentCard(ctx, &a2apb.GetAgentCardRequest{})
	if err != nil {
		return nil, t.fromGRPCError(err)
	}
	card, err := pbconv.FromProtoAgentCard(pbCard)
	if err != nil {
		return nil, t.conversionError(err)
	}
	return card, nil
}

// Type implements [a2aclient.Transport].
func (t *GRPCTransport) Type() a2a.TransportType {
	return a2a.TransportGRPC
}

// URL implements [a2aclient.Transport].
func (t *GRPCTransport) URL() string {
	return t.endpoint
}

// SupportsMethod implements [a2aclient.Transport].
func (t *GRPCTransport) SupportsMethod(op a2a.Operation) bool {
	return a2a.SupportsMethod(a2a.TransportGRPC, op)
}

// WireMethods implements [a2aclient.WireNamer].
func (t *GRPCTransport) WireMethods() map[a2a.Operation]string {
	return a2aclient.WireMethodNames(a2a.TransportGRPC)
}

// Info implements [a2aclient.Transport].
func (t *GRPCTransport) Info() map[string]any {
	return map[string]any{
		"transport_type":         string(a2a.TransportGRPC),
		"target":                 t.endpoint,
		"use_tls":                t.useTLS,
		"timeout":                t.cfg.Timeout.Seconds(),
		"supports_streaming":     true,
		"supports_bidirectional": false,
		"supported_methods":      a2aclient.SupportedMethods(a2a.TransportGRPC),
	}
}

// Features implements [a2aclient.Transport].
func (t *GRPCTransport) Features() []string {
	return []string{
		a2aclient.FeatureProtobufSerialization,
		a2aclient.FeatureGRPCStreaming,
		a2aclient.FeatureGRPCMetadata,
		a2aclient.FeatureTaskListing,
	}
}

// Close implements [a2aclient.Transport]. It is idempotent and a later call
// dials again. Connections owned by the caller are left open.
func (t *GRPCTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.client = nil
	return err
}
