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

// Package config loads the kit's settings from defaults, an optional YAML
// file, .env files, the environment and command line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
)

// Environment variables read by [Config.ApplyEnv].
const (
	EnvConfigFile           = "A2A_TCK_CONFIG"
	EnvSUTURL               = "SUT_URL"
	EnvStrategy             = "A2A_TRANSPORT_STRATEGY"
	EnvPreferredTransport   = "A2A_PREFERRED_TRANSPORT"
	EnvDisabledTransports   = "A2A_DISABLED_TRANSPORTS"
	EnvRequiredTransports   = "A2A_REQUIRED_TRANSPORTS"
	EnvEnableEquivalence    = "A2A_ENABLE_EQUIVALENCE_TESTING"
	EnvTimeout              = "TCK_TIMEOUT"
	EnvStreamingTimeout     = "TCK_STREAMING_TIMEOUT"
	EnvLogLevel             = "TCK_LOG_LEVEL"
	EnvAuthToken            = "A2A_AUTH_TOKEN"
	EnvAPIKey               = "A2A_API_KEY"
	transportEnvPrefix      = "A2A_"
	streamingTimeoutScaling = 2
)

// Per-transport setting keys, set in YAML under transports.<name> or with
// A2A_<TRANSPORT>_<KEY> variables.
const (
	KeyTimeout    = "timeout"
	KeyMaxRetries = "max_retries"
	KeyUserAgent  = "user_agent"
)

// Test scopes.
const (
	ScopeCore = "core"
	ScopeAll  = "all"
)

// Duration is a time.Duration read from YAML either as a Go duration string
// or as a number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := parseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Auth holds the credentials offered to the agent's security schemes.
type Auth struct {
	BearerToken string `yaml:"bearer_token,omitempty"`
	APIKey      string `yaml:"api_key,omitempty"`
}

// Config holds the settings of a kit run.
type Config struct {
	SUTURL             string              `yaml:"sut_url"`
	Strategy           a2aclient.Strategy  `yaml:"transport_strategy"`
	PreferredTransport a2a.TransportType   `yaml:"preferred_transport,omitempty"`
	DisabledTransports []a2a.TransportType `yaml:"disabled_transports,omitempty"`
	// RequiredTransports restricts the run to the listed transports when
	// not empty.
	RequiredTransports  []a2a.TransportType `yaml:"required_transports,omitempty"`
	EnableEquivalence   bool                `yaml:"enable_equivalence_testing"`
	Timeout             Duration            `yaml:"timeout"`
	StreamingMultiplier float64             `yaml:"streaming_multiplier"`
	// StreamingTimeout, when set, is the base of the streaming deadline,
	// which is twice its value.
	StreamingTimeout Duration `yaml:"streaming_timeout,omitempty"`
	TestScope        string   `yaml:"test_scope"`
	LogLevel         string   `yaml:"log_level"`
	Auth             Auth     `yaml:"auth,omitempty"`
	// Transports holds per-transport settings keyed by KeyTimeout,
	// KeyMaxRetries and KeyUserAgent.
	Transports  map[a2a.TransportType]map[string]string `yaml:"transports,omitempty"`
	MetricsFile string                                  `yaml:"metrics_file,omitempty"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	client := a2aclient.DefaultConfig()
	return &Config{
		Strategy:            a2aclient.StrategyAgentPreferred,
		EnableEquivalence:   true,
		Timeout:             Duration(client.Timeout),
		StreamingMultiplier: client.StreamingMultiplier,
		TestScope:           ScopeCore,
		LogLevel:            "info",
		Transports:          map[a2a.TransportType]map[string]string{},
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// the file named by A2A_TCK_CONFIG when path is empty), .env files and the
// environment. Flags are applied by the caller afterwards.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	LoadDotEnv(path)

	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.Environ()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the settings of a YAML file.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.canonicalize()
	return nil
}

// ApplyEnv overlays the settings found in environ, a list of KEY=value
// entries as returned by os.Environ.
func (c *Config) ApplyEnv(environ []string) error {
	var errs []error
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || value == "" {
			continue
		}
		switch key {
		case EnvSUTURL:
			c.SUTURL = value
		case EnvStrategy:
			c.Strategy = a2aclient.Strategy(strings.ToLower(strings.TrimSpace(value)))
		case EnvPreferredTransport:
			c.PreferredTransport = a2a.TransportType(value)
		case EnvDisabledTransports:
			c.DisabledTransports = a2a.ParseTransportList(value)
		case EnvRequiredTransports:
			c.RequiredTransports = a2a.ParseTransportList(value)
		case EnvEnableEquivalence:
			c.EnableEquivalence = parseBool(value)
		case EnvTimeout:
			d, err := parseDuration(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			c.Timeout = Duration(d)
		case EnvStreamingTimeout:
			d, err := parseDuration(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			c.StreamingTimeout = Duration(d)
		case EnvLogLevel:
			c.LogLevel = strings.ToLower(value)
		case EnvAuthToken:
			c.Auth.BearerToken = value
		case EnvAPIKey:
			c.Auth.APIKey = value
		default:
			c.applyTransportEnv(key, value)
		}
	}
	c.canonicalize()
	return errors.Join(errs...)
}

func (c *Config) applyTransportEnv(key, value string) {
	for _, t := range a2a.AllTransports() {
		prefix := transportEnvPrefix + strings.ToUpper(string(t)) + "_"
		name, ok := strings.CutPrefix(key, prefix)
		if !ok || name == "" {
			continue
		}
		c.SetTransportOption(t, strings.ToLower(name), value)
		return
	}
}

// SetTransportOption sets a per-transport setting.
func (c *Config) SetTransportOption(t a2a.TransportType, key, value string) {
	if c.Transports == nil {
		c.Transports = map[a2a.TransportType]map[string]string{}
	}
	if c.Transports[t] == nil {
		c.Transports[t] = map[string]string{}
	}
	c.Transports[t][key] = value
}

// canonicalize rewrites transport aliases like "HTTP+JSON" to transport
// types. Unknown names are left for Validate to report.
func (c *Config) canonicalize() {
	if t, err := a2a.ParseTransportType(string(c.PreferredTransport)); err == nil {
		c.PreferredTransport = t
	}
	for _, list := range [][]a2a.TransportType{c.DisabledTransports, c.RequiredTransports} {
		for i, name := range list {
			if t, err := a2a.ParseTransportType(string(name)); err == nil {
				list[i] = t
			}
		}
	}
	for name, settings := range c.Transports {
		t, err := a2a.ParseTransportType(string(name))
		if err != nil || t == name {
			continue
		}
		delete(c.Transports, name)
		c.Transports[t] = settings
	}
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SUTURL) == "" {
		errs = append(errs, errors.New("SUT URL is not configured: set --sut-url or SUT_URL"))
	}
	if _, err := a2aclient.ParseStrategy(string(c.Strategy)); err != nil {
		errs = append(errs, fmt.Errorf("invalid transport selection strategy %q, valid options: %v", c.Strategy, a2aclient.Strategies()))
	}
	if c.PreferredTransport != "" && !c.PreferredTransport.Valid() {
		errs = append(errs, fmt.Errorf("unknown preferred transport %q", c.PreferredTransport))
	}
	for _, t := range slices.Concat(c.DisabledTransports, c.RequiredTransports) {
		if !t.Valid() {
			errs = append(errs, fmt.Errorf("unknown transport %q", t))
		}
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", time.Duration(c.Timeout)))
	}
	if c.StreamingMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("streaming multiplier must be positive, got %v", c.StreamingMultiplier))
	}
	if c.TestScope != ScopeCore && c.TestScope != ScopeAll {
		errs = append(errs, fmt.Errorf("invalid test scope %q, valid options: %s, %s", c.TestScope, ScopeCore, ScopeAll))
	}
	for t, settings := range c.Transports {
		if !t.Valid() {
			errs = append(errs, fmt.Errorf("settings for unknown transport %q", t))
			continue
		}
		if v, ok := settings[KeyTimeout]; ok {
			if d, err := parseDuration(v); err != nil || d <= 0 {
				errs = append(errs, fmt.Errorf("%s %s: invalid value %q", t, KeyTimeout, v))
			}
		}
		if v, ok := settings[KeyMaxRetries]; ok {
			if n, err := strconv.Atoi(v); err != nil || n < 0 {
				errs = append(errs, fmt.Errorf("%s %s: invalid value %q", t, KeyMaxRetries, v))
			}
		}
	}
	return errors.Join(errs...)
}

// ClientConfig returns the client settings of transport t. Invalid
// per-transport values are ignored; Validate reports them.
func (c *Config) ClientConfig(t a2a.TransportType) a2aclient.Config {
	cfg := a2aclient.DefaultConfig()
	cfg.Timeout = time.Duration(c.Timeout)
	cfg.StreamingMultiplier = c.StreamingMultiplier

	settings := c.Transports[t]
	if d, err := parseDuration(settings[KeyTimeout]); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(settings[KeyMaxRetries]); err == nil && n >= 0 {
		cfg.Retry.MaxRetries = n
	}
	if ua := settings[KeyUserAgent]; ua != "" {
		cfg.UserAgent = ua
	}
	cfg = cfg.WithDefaults()
	if c.StreamingTimeout > 0 {
		cfg.StreamingMultiplier = streamingTimeoutScaling * float64(c.StreamingTimeout) / float64(cfg.Timeout)
	}
	return cfg
}

// Credentials returns the configured credentials, or nil when there are none.
func (c *Config) Credentials() a2aclient.CredentialsService {
	if c.Auth.BearerToken == "" && c.Auth.APIKey == "" {
		return nil
	}
	return &a2aclient.StaticCredentials{BearerToken: c.Auth.BearerToken, APIKey: c.Auth.APIKey}
}

// SelectionStrategy returns the strategy used to pick a single transport.
// A configured preferred transport replaces the Agent Card's preference.
func (c *Config) SelectionStrategy() a2aclient.Strategy {
	if c.Strategy != a2aclient.StrategyAgentPreferred {
		return c.Strategy
	}
	switch c.PreferredTransport {
	case a2a.TransportJSONRPC:
		return a2aclient.StrategyPreferJSONRPC
	case a2a.TransportGRPC:
		return a2aclient.StrategyPreferGRPC
	case a2a.TransportREST:
		return a2aclient.StrategyPreferREST
	}
	return c.Strategy
}

// ManagerOptions returns the transport manager options matching c.
func (c *Config) ManagerOptions() []a2aclient.ManagerOption {
	opts := []a2aclient.ManagerOption{
		a2aclient.WithStrategy(c.SelectionStrategy()),
		a2aclient.WithClientConfig(c.ClientConfig("")),
	}
	for _, t := range a2a.AllTransports() {
		opts = append(opts, a2aclient.WithTransportConfig(t, c.ClientConfig(t)))
	}
	if len(c.DisabledTransports) > 0 {
		opts = append(opts, a2aclient.WithDisabledTransports(c.DisabledTransports...))
	}
	if len(c.RequiredTransports) > 0 {
		opts = append(opts, a2aclient.WithRequiredTransports(c.RequiredTransports...))
	}
	if creds := c.Credentials(); creds != nil {
		opts = append(opts, a2aclient.WithCredentials(creds))
	}
	return opts
}

// parseDuration accepts Go durations ("1m30s") and plain seconds ("2.5").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
