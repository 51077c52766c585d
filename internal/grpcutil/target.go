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

package grpcutil

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Target is a dial target derived from an endpoint URL.
type Target struct {
	// Address is host:port.
	Address string
	// TLS is true for grpcs:// and https:// endpoints.
	TLS bool
}

// ParseTarget derives a dial target from grpc://, grpcs://, http:// or https://
// URLs. A missing port defaults to 443 with TLS and 80 without. A bare
// host:port is accepted as a plaintext target.
func ParseTarget(endpoint string) (Target, error) {
	if !strings.Contains(endpoint, "://") {
		if _, _, err := net.SplitHostPort(endpoint); err != nil {
			return Target{}, fmt.Errorf("invalid gRPC target %q: %w", endpoint, err)
		}
		return Target{Address: endpoint}, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return Target{}, fmt.Errorf("invalid gRPC endpoint %q: %w", endpoint, err)
	}
	var useTLS bool
	switch strings.ToLower(u.Scheme) {
	case "grpcs", "https":
		useTLS = true
	case "grpc", "http":
	default:
		return Target{}, fmt.Errorf("unsupported gRPC endpoint scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return Target{}, fmt.Errorf("gRPC endpoint %q has no host", endpoint)
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if useTLS {
			port = "443"
		}
	}
	return Target{Address: net.JoinHostPort(host, port), TLS: useTLS}, nil
}

// WithOutgoingMetadata appends params to the outgoing gRPC metadata of ctx.
// Keys are lower-cased as gRPC requires.
func WithOutgoingMetadata(ctx context.Context, params map[string][]string) context.Context {
	if len(params) == 0 {
		return ctx
	}
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		md = metadata.MD{}
	} else {
		md = md.Copy()
	}
	for k, vals := range params {
		md.Append(strings.ToLower(k), vals...)
	}
	return metadata.NewOutgoingContext(ctx, md)
}
