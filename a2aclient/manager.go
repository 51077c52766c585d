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
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient/agentcard"
	"github.com/a2aproject/a2a-tck-go/log"
)

// ErrTransportNotSupported is wrapped by the [ManagerError] returned when a
// client is requested for a transport the agent does not serve.
var ErrTransportNotSupported = errors.New("transport not supported by agent")

// ErrNoTransports is wrapped when discovery leaves no usable transport.
var ErrNoTransports = errors.New("no supported transports")

// ManagerError reports a problem with the kit's view of the agent rather
// than with a call: discovery failures, card inconsistencies, unsupported
// transports and client construction failures.
type ManagerError struct {
	// Op is the manager operation that failed.
	Op string
	// Transport is set when the failure concerns one transport.
	Transport a2a.TransportType
	// Issues lists Agent Card consistency problems.
	Issues []string
	Err    error
}

func (e *ManagerError) Error() string {
	var b strings.Builder
	b.WriteString("transport manager: ")
	b.WriteString(e.Op)
	if e.Transport != "" {
		fmt.Fprintf(&b, " %s", e.Transport)
	}
	if len(e.Issues) > 0 {
		fmt.Fprintf(&b, ": Agent Card transport validation failed: %s", strings.Join(e.Issues, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ManagerError) Unwrap() error { return e.Err }

// CardResolver fetches the Agent Card of an agent.
type CardResolver interface {
	Resolve(ctx context.Context, baseURL string, opts ...agentcard.ResolveOption) (map[string]any, error)
}

// ManagerOption configures a [Manager].
type ManagerOption func(m *Manager)

// WithStrategy sets the strategy used by [Manager.SelectedClient].
func WithStrategy(s Strategy) ManagerOption {
	return func(m *Manager) { m.strategy = s }
}

// WithRequiredTransports restricts the manager to the listed transports.
// Transports the agent declares outside the list are ignored.
func WithRequiredTransports(ts ...a2a.TransportType) ManagerOption {
	return func(m *Manager) { m.required = slices.Clone(ts) }
}

// WithDisabledTransports removes the listed transports from the supported set.
func WithDisabledTransports(ts ...a2a.TransportType) ManagerOption {
	return func(m *Manager) { m.disabled = append(m.disabled, ts...) }
}

// WithClientConfig sets the configuration passed to every transport factory.
func WithClientConfig(cfg Config) ManagerOption {
	return func(m *Manager) { m.cfg = cfg }
}

// WithTransportConfig overrides the client configuration for transport t.
func WithTransportConfig(t a2a.TransportType, cfg Config) ManagerOption {
	return func(m *Manager) { m.transportCfg[t] = cfg }
}

// WithHTTPClient sets the HTTP client used to fetch the card and by the
// default JSON-RPC and REST factories.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) { m.httpClient = client }
}

// WithTransportFactory registers the factory used to create clients of type t.
func WithTransportFactory(t a2a.TransportType, f TransportFactory) ManagerOption {
	return func(m *Manager) { m.factories[t] = f }
}

// WithCardResolver replaces the Agent Card resolver.
func WithCardResolver(r CardResolver) ManagerOption {
	return func(m *Manager) { m.resolver = r }
}

// WithCredentials sets the credentials resolved against the card's security
// requirements. The resulting headers are sent by every client.
func WithCredentials(svc CredentialsService) ManagerOption {
	return func(m *Manager) { m.credentials = svc }
}

// discovery is the state derived from the Agent Card. It is replaced as a
// whole and never mutated.
type discovery struct {
	card        map[string]any
	supported   []a2a.TransportType
	preferred   a2a.TransportType
	endpoints   map[a2a.TransportType]string
	authHeaders ServiceParams
}

// Manager discovers the transports an agent serves from its Agent Card and
// hands out one cached client per transport. It is safe for concurrent use.
type Manager struct {
	sutURL       string
	strategy     Strategy
	required     []a2a.TransportType
	disabled     []a2a.TransportType
	cfg          Config
	transportCfg map[a2a.TransportType]Config
	httpClient   *http.Client
	factories    map[a2a.TransportType]TransportFactory
	resolver     CardResolver
	credentials  CredentialsService

	mu      sync.Mutex
	state   *discovery
	clients map[a2a.TransportType]Transport
}

// NewManager creates a manager for the agent at sutURL. Discovery happens on
// first use or on an explicit [Manager.Discover] call.
func NewManager(sutURL string, opts ...ManagerOption) *Manager {
	m := &Manager{
		sutURL:       sutURL,
		strategy:     StrategyAgentPreferred,
		cfg:          DefaultConfig(),
		factories:    make(map[a2a.TransportType]TransportFactory),
		transportCfg: make(map[a2a.TransportType]Config),
		clients:      make(map[a2a.TransportType]Transport),
	}
	for _, o := range opts {
		o(m)
	}
	if m.resolver == nil {
		m.resolver = agentcard.NewResolver(m.httpClient)
	}
	log.Info(context.Background(), "transport manager initialized", "sut", sutURL, "strategy", m.strategy)
	return m
}

// Discover fetches and validates the Agent Card. It is a no-op once
// discovery succeeded unless force is set, in which case cached clients
// are closed and the card is fetched again.
func (m *Manager) Discover(ctx context.Context, force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.discoverLocked(ctx, force)
}

func (m *Manager) discoverLocked(ctx context.Context, force bool) error {
	if m.state != nil && !force {
		return nil
	}
	log.Info(ctx, "discovering transports", "sut", m.sutURL)

	card, err := m.resolver.Resolve(ctx, m.sutURL)
	if err != nil {
		return &ManagerError{Op: "discover", Err: fmt.Errorf("failed to fetch Agent Card: %w", err)}
	}
	if issues := agentcard.ValidateTransportConsistency(card); len(issues) > 0 {
		return &ManagerError{Op: "discover", Issues: issues}
	}

	endpoints := agentcard.Endpoints(card)
	var supported []a2a.TransportType
	for _, t := range agentcard.SupportedTransports(card) {
		if m.required != nil && !slices.Contains(m.required, t) {
			continue
		}
		if slices.Contains(m.disabled, t) {
			continue
		}
		supported = append(supported, t)
	}
	if len(supported) == 0 {
		return &ManagerError{Op: "discover", Err: ErrNoTransports}
	}
	maps.DeleteFunc(endpoints, func(t a2a.TransportType, _ string) bool {
		return !slices.Contains(supported, t)
	})

	if v := agentcard.ProtocolVersion(card); v != "" {
		if err := agentcard.CheckProtocolVersion(v); err != nil {
			log.Warn(ctx, "agent protocol version may be incompatible", "error", err)
		}
	}

	preferred, _ := agentcard.PreferredTransport(card)
	state := &discovery{
		card:        card,
		supported:   supported,
		preferred:   preferred,
		endpoints:   endpoints,
		authHeaders: AuthHeaders(ctx, card, m.credentials),
	}
	if m.state != nil {
		m.closeClientsLocked(ctx)
	}
	m.state = state
	log.Info(ctx, "discovered transports", "transports", supported, "endpoints", endpoints)
	return nil
}

func (m *Manager) discovered(ctx context.Context) (*discovery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.discoverLocked(ctx, false); err != nil {
		return nil, err
	}
	return m.state, nil
}

// Card returns the discovered Agent Card.
func (m *Manager) Card(ctx context.Context) (map[string]any, error) {
	d, err := m.discovered(ctx)
	if err != nil {
		return nil, err
	}
	return d.card, nil
}

// SupportedTransports returns the usable transports in manifest order.
func (m *Manager) SupportedTransports(ctx context.Context) ([]a2a.TransportType, error) {
	d, err := m.discovered(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(d.supported), nil
}

// PreferredTransport returns the transport the card prefers, which may lie
// outside the usable set when transports are restricted.
func (m *Manager) PreferredTransport(ctx context.Context) (a2a.TransportType, error) {
	d, err := m.discovered(ctx)
	if err != nil {
		return "", err
	}
	return d.preferred, nil
}

// SupportsTransport reports whether t is usable. Discovery failures report false.
func (m *Manager) SupportsTransport(ctx context.Context, t a2a.TransportType) bool {
	d, err := m.discovered(ctx)
	return err == nil && slices.Contains(d.supported, t)
}

// Endpoints returns the endpoint of every usable transport.
func (m *Manager) Endpoints(ctx context.Context) (map[a2a.TransportType]string, error) {
	d, err := m.discovered(ctx)
	if err != nil {
		return nil, err
	}
	return maps.Clone(d.endpoints), nil
}

// IsMultiTransport reports whether more than one transport is usable.
// Discovery failures report false.
func (m *Manager) IsMultiTransport(ctx context.Context) bool {
	d, err := m.discovered(ctx)
	return err == nil && len(d.supported) > 1
}

// Client returns the cached client of t, creating it on first use.
func (m *Manager) Client(ctx context.Context, t a2a.TransportType) (Transport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.discoverLocked(ctx, false); err != nil {
		return nil, err
	}
	return m.clientLocked(ctx, t)
}

func (m *Manager) clientLocked(ctx context.Context, t a2a.TransportType) (Transport, error) {
	if c, ok := m.clients[t]; ok {
		return c, nil
	}
	if !slices.Contains(m.state.supported, t) {
		return nil, &ManagerError{Op: "client", Transport: t, Err: ErrTransportNotSupported}
	}
	factory := m.factory(t)
	if factory == nil {
		return nil, &ManagerError{Op: "client", Transport: t, Err: fmt.Errorf("no client factory registered for %s", t)}
	}
	c, err := factory.Create(ctx, m.state.endpoints[t], m.clientConfig(t))
	if err != nil {
		return nil, &ManagerError{Op: "client", Transport: t, Err: err}
	}
	m.clients[t] = c
	log.Debug(ctx, "created transport client", "transport", t, "url", c.URL())
	return c, nil
}

func (m *Manager) factory(t a2a.TransportType) TransportFactory {
	if f, ok := m.factories[t]; ok {
		return f
	}
	switch t {
	case a2a.TransportJSONRPC:
		return TransportFactoryFn(func(ctx context.Context, endpoint string, cfg Config) (Transport, error) {
			return NewJSONRPCTransport(endpoint, m.httpClient, cfg), nil
		})
	case a2a.TransportREST:
		return TransportFactoryFn(func(ctx context.Context, endpoint string, cfg Config) (Transport, error) {
			return NewRESTTransport(endpoint, m.httpClient, cfg), nil
		})
	}
	return nil
}

// clientConfig returns the configuration of t with the resolved auth
// headers added. Explicitly configured headers win.
func (m *Manager) clientConfig(t a2a.TransportType) Config {
	cfg := m.cfg
	if tc, ok := m.transportCfg[t]; ok {
		cfg = tc
	}
	headers := make(map[string]string, len(cfg.Headers)+len(m.state.authHeaders))
	for k, v := range m.state.authHeaders {
		headers[k] = strings.Join(v, ", ")
	}
	maps.Copy(headers, cfg.Headers)
	cfg.Headers = headers
	return cfg
}

// SelectedClient returns the client chosen by the configured strategy.
func (m *Manager) SelectedClient(ctx context.Context) (Transport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.discoverLocked(ctx, false); err != nil {
		return nil, err
	}
	t, ok := m.strategy.Select(m.state.supported, m.state.preferred)
	if !ok {
		return nil, &ManagerError{Op: "select", Err: ErrNoTransports}
	}
	log.Debug(ctx, "selected transport", "transport", t, "strategy", m.strategy)
	return m.clientLocked(ctx, t)
}

// AllClients returns a client for every usable transport. It fails if any
// client cannot be created.
func (m *Manager) AllClients(ctx context.Context) (map[a2a.TransportType]Transport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.discoverLocked(ctx, false); err != nil {
		return nil, err
	}
	out := make(map[a2a.TransportType]Transport, len(m.state.supported))
	for _, t := range m.state.supported {
		c, err := m.clientLocked(ctx, t)
		if err != nil {
			return nil, err
		}
		out[t] = c
	}
	return out, nil
}

// Info summarizes the discovery results.
func (m *Manager) Info(ctx context.Context) map[string]any {
	d, err := m.discovered(ctx)
	if err != nil {
		return map[string]any{"error": "Transport discovery failed", "detail": err.Error()}
	}
	supported := make([]string, len(d.supported))
	for i, t := range d.supported {
		supported[i] = string(t)
	}
	endpoints := make(map[string]any, len(d.endpoints))
	for t, ep := range d.endpoints {
		endpoints[string(t)] = ep
	}
	return map[string]any{
		"sut_base_url":         m.sutURL,
		"supported_transports": supported,
		"preferred_transport":  string(d.preferred),
		"transport_endpoints":  endpoints,
		"is_multi_transport":   len(d.supported) > 1,
		"selection_strategy":   string(m.strategy),
		"discovery_completed":  true,
	}
}

// ClearClientCache drops the cached clients without closing them.
func (m *Manager) ClearClientCache(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.clients)
	clear(m.clients)
	log.Info(ctx, "cleared transport client cache", "clients", n)
}

// Close closes every cached client. A failing client does not stop the
// others from being closed; all failures are returned joined.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeClientsLocked(context.Background())
}

func (m *Manager) closeClientsLocked(ctx context.Context) error {
	var errs []error
	for t, c := range m.clients {
		if err := c.Close(); err != nil {
			log.Error(ctx, "failed to close transport client", err, "transport", t)
			errs = append(errs, fmt.Errorf("%s: %w", t, err))
		}
	}
	clear(m.clients)
	return errors.Join(errs...)
}
