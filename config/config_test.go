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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Strategy != a2aclient.StrategyAgentPreferred || !cfg.EnableEquivalence || cfg.TestScope != ScopeCore {
		t.Errorf("Default() = %+v", cfg)
	}
	if time.Duration(cfg.Timeout) != 30*time.Second || cfg.StreamingMultiplier != 2 {
		t.Errorf("Default() timeouts = %v x%v", time.Duration(cfg.Timeout), cfg.StreamingMultiplier)
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SUT URL is not configured") {
		t.Errorf("Validate() error = %v, want missing SUT URL", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv([]string{
		"SUT_URL=http://agent.test",
		"A2A_TRANSPORT_STRATEGY=Prefer_REST",
		"A2A_PREFERRED_TRANSPORT=GRPC",
		"A2A_DISABLED_TRANSPORTS=grpc, bogus",
		"A2A_REQUIRED_TRANSPORTS=JSONRPC,HTTP+JSON",
		"A2A_ENABLE_EQUIVALENCE_TESTING=off",
		"TCK_TIMEOUT=12.5",
		"TCK_STREAMING_TIMEOUT=1m",
		"TCK_LOG_LEVEL=DEBUG",
		"A2A_AUTH_TOKEN=jwt",
		"A2A_API_KEY=",
		"A2A_GRPC_TIMEOUT=5",
		"A2A_REST_USER_AGENT=probe/1.0",
		"A2A_REST_MAX_RETRIES=0",
		"HOME=/root",
	})
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	want := &Config{
		SUTURL:              "http://agent.test",
		Strategy:            a2aclient.StrategyPreferREST,
		PreferredTransport:  a2a.TransportGRPC,
		DisabledTransports:  []a2a.TransportType{a2a.TransportGRPC},
		RequiredTransports:  []a2a.TransportType{a2a.TransportJSONRPC, a2a.TransportREST},
		EnableEquivalence:   false,
		Timeout:             Duration(12500 * time.Millisecond),
		StreamingMultiplier: 2,
		StreamingTimeout:    Duration(time.Minute),
		TestScope:           ScopeCore,
		LogLevel:            "debug",
		Auth:                Auth{BearerToken: "jwt"},
		Transports: map[a2a.TransportType]map[string]string{
			a2a.TransportGRPC: {KeyTimeout: "5"},
			a2a.TransportREST: {KeyUserAgent: "probe/1.0", KeyMaxRetries: "0"},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("ApplyEnv() mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestApplyEnv_InvalidDuration(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv([]string{"TCK_TIMEOUT=soon", "SUT_URL=http://agent.test"})
	if err == nil || !strings.Contains(err.Error(), "TCK_TIMEOUT") {
		t.Errorf("ApplyEnv() error = %v, want TCK_TIMEOUT error", err)
	}
	if cfg.SUTURL != "http://agent.test" {
		t.Errorf("SUTURL = %q, other variables must still apply", cfg.SUTURL)
	}
}

func TestEquivalenceFlag(t *testing.T) {
	for value, want := range map[string]bool{"true": true, "1": true, "YES": true, "on": true, "false": false, "0": false, "maybe": false} {
		cfg := &Config{}
		if err := cfg.ApplyEnv([]string{EnvEnableEquivalence + "=" + value}); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}
		if cfg.EnableEquivalence != want {
			t.Errorf("%s=%s gives %v, want %v", EnvEnableEquivalence, value, cfg.EnableEquivalence, want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tck.yaml", `
sut_url: http://agent.test
transport_strategy: prefer_grpc
preferred_transport: HTTP+JSON
disabled_transports: [JSONRPC]
enable_equivalence_testing: false
timeout: 10s
streaming_multiplier: 3
test_scope: all
auth:
  api_key: secret
transports:
  GRPC:
    timeout: 2
    max_retries: 1
metrics_file: metrics.prom
`)
	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	want := &Config{
		SUTURL:              "http://agent.test",
		Strategy:            a2aclient.StrategyPreferGRPC,
		PreferredTransport:  a2a.TransportREST,
		DisabledTransports:  []a2a.TransportType{a2a.TransportJSONRPC},
		EnableEquivalence:   false,
		Timeout:             Duration(10 * time.Second),
		StreamingMultiplier: 3,
		TestScope:           ScopeAll,
		LogLevel:            "info",
		Auth:                Auth{APIKey: "secret"},
		Transports: map[a2a.TransportType]map[string]string{
			a2a.TransportGRPC: {KeyTimeout: "2", KeyMaxRetries: "1"},
		},
		MetricsFile: "metrics.prom",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if err := Default().LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFile(missing) error = nil")
	}
	bad := writeFile(t, dir, "bad.yaml", "timeout: whenever\n")
	if err := Default().LoadFile(bad); err == nil {
		t.Error("LoadFile(bad duration) error = nil")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tck.yaml", "sut_url: http://from-file\ntransport_strategy: prefer_rest\n")
	writeFile(t, dir, ".env", "A2A_JSONRPC_USER_AGENT=dotenv-agent\nSUT_URL=http://from-dotenv\n")
	t.Cleanup(func() { _ = os.Unsetenv("A2A_JSONRPC_USER_AGENT") })
	t.Setenv(EnvSUTURL, "http://from-env")
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SUTURL != "http://from-env" {
		t.Errorf("SUTURL = %q, want the environment to win", cfg.SUTURL)
	}
	if cfg.Strategy != a2aclient.StrategyPreferREST {
		t.Errorf("Strategy = %q, want the file value", cfg.Strategy)
	}
	if got := cfg.Transports[a2a.TransportJSONRPC][KeyUserAgent]; got != "dotenv-agent" {
		t.Errorf("jsonrpc user_agent = %q, want the .env value", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.SUTURL = "http://agent.test"
	cfg.Strategy = "fastest"
	cfg.PreferredTransport = "carrier-pigeon"
	cfg.RequiredTransports = []a2a.TransportType{"smoke"}
	cfg.Timeout = 0
	cfg.TestScope = "some"
	cfg.Transports = map[a2a.TransportType]map[string]string{
		a2a.TransportREST: {KeyTimeout: "-1", KeyMaxRetries: "many"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{
		`invalid transport selection strategy "fastest"`,
		`unknown preferred transport "carrier-pigeon"`,
		`unknown transport "smoke"`,
		"timeout must be positive",
		`invalid test scope "some"`,
		`rest timeout: invalid value "-1"`,
		`rest max_retries: invalid value "many"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, want it to contain %q", err, want)
		}
	}
}

func TestClientConfig(t *testing.T) {
	cfg := Default()
	cfg.Timeout = Duration(10 * time.Second)
	cfg.Transports = map[a2a.TransportType]map[string]string{
		a2a.TransportGRPC: {KeyTimeout: "4s", KeyMaxRetries: "0", KeyUserAgent: "probe"},
	}

	rest := cfg.ClientConfig(a2a.TransportREST)
	if rest.Timeout != 10*time.Second || rest.StreamingTimeout() != 20*time.Second || rest.Retry.MaxRetries != 3 {
		t.Errorf("ClientConfig(rest) = %+v", rest)
	}

	grpc := cfg.ClientConfig(a2a.TransportGRPC)
	if grpc.Timeout != 4*time.Second || grpc.Retry.MaxRetries != 0 || grpc.UserAgent != "probe" {
		t.Errorf("ClientConfig(grpc) = %+v", grpc)
	}

	cfg.StreamingTimeout = Duration(15 * time.Second)
	if got := cfg.ClientConfig(a2a.TransportJSONRPC).StreamingTimeout(); got != 30*time.Second {
		t.Errorf("StreamingTimeout() = %v, want twice the streaming base", got)
	}
}

func TestSelectionStrategy(t *testing.T) {
	testCases := []struct {
		strategy  a2aclient.Strategy
		preferred a2a.TransportType
		want      a2aclient.Strategy
	}{
		{a2aclient.StrategyAgentPreferred, "", a2aclient.StrategyAgentPreferred},
		{a2aclient.StrategyAgentPreferred, a2a.TransportGRPC, a2aclient.StrategyPreferGRPC},
		{a2aclient.StrategyAgentPreferred, a2a.TransportREST, a2aclient.StrategyPreferREST},
		{a2aclient.StrategyPreferJSONRPC, a2a.TransportGRPC, a2aclient.StrategyPreferJSONRPC},
		{a2aclient.StrategyAllSupported, a2a.TransportJSONRPC, a2aclient.StrategyAllSupported},
	}
	for _, tc := range testCases {
		cfg := &Config{Strategy: tc.strategy, PreferredTransport: tc.preferred}
		if got := cfg.SelectionStrategy(); got != tc.want {
			t.Errorf("SelectionStrategy(%s, %q) = %s, want %s", tc.strategy, tc.preferred, got, tc.want)
		}
	}
}

func TestCredentials(t *testing.T) {
	cfg := Default()
	if cfg.Credentials() != nil {
		t.Error("Credentials() != nil without secrets")
	}
	cfg.Auth.BearerToken = "jwt"
	want := &a2aclient.StaticCredentials{BearerToken: "jwt"}
	if diff := cmp.Diff(want, cfg.Credentials()); diff != "" {
		t.Errorf("Credentials() mismatch (-want +got):\n%s", diff)
	}
	if got := len(cfg.ManagerOptions()); got != 6 {
		t.Errorf("ManagerOptions() has %d options, want 6", got)
	}
}
