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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
	"github.com/a2aproject/a2a-tck-go/a2agrpc"
	"github.com/a2aproject/a2a-tck-go/config"
	"github.com/a2aproject/a2a-tck-go/log"
)

// app holds the state shared by the commands of one invocation.
type app struct {
	out        io.Writer
	cfg        *config.Config
	configPath string
	logLevel   string
	logFormat  string
	strict     bool
	flags      flagValues

	// managerOpts are appended to the options derived from the configuration.
	managerOpts []a2aclient.ManagerOption
}

// flagValues are the configuration overrides given on the command line.
// Only flags set explicitly override the configuration.
type flagValues struct {
	sutURL        string
	strategy      string
	preferred     string
	disabled      []string
	required      []string
	timeout       time.Duration
	scope         string
	metricsFile   string
	noEquivalence bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:   "a2a-tck",
		Short: "A2A protocol v" + a2a.ProtocolVersion + " transport compatibility kit",
		Long: "a2a-tck discovers the transports an A2A agent declares in its Agent Card, " +
			"checks each transport client against the protocol's method mapping and " +
			"compares the agent's answers across JSON-RPC, gRPC and REST.",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file (default: $"+config.EnvConfigFile+")")
	pf.StringVar(&a.flags.sutURL, "sut-url", "", "base URL of the agent under test (default: $"+config.EnvSUTURL+")")
	pf.StringVar(&a.flags.strategy, "transport-strategy", "", "transport selection strategy: "+strategyNames())
	pf.StringVar(&a.flags.preferred, "preferred-transport", "", "transport preferred over the Agent Card's choice")
	pf.StringSliceVar(&a.flags.disabled, "disable-transport", nil, "transports to leave untested")
	pf.StringSliceVar(&a.flags.required, "require-transport", nil, "restrict testing to these transports")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "timeout of unary calls (default 30s)")
	pf.StringVar(&a.flags.scope, "test-scope", "", "test scope: core or all")
	pf.BoolVar(&a.flags.noEquivalence, "no-equivalence", false, "skip cross-transport equivalence checks")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus metrics of the run to this file")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (default: $"+config.EnvLogLevel+" or info)")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")
	pf.BoolVar(&a.strict, "strict", false, "exit with status 1 when the agent is not compliant")

	root.AddCommand(
		newDiscoverCmd(a),
		newValidateCmd(a),
		newEquivalenceCmd(a),
		newRunCmd(a),
		newVersionCmd(a),
	)
	return root
}

func strategyNames() string {
	var names []string
	for _, s := range a2aclient.Strategies() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd.Flags(), cfg)

	level := a.logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logger, err := newLogger(cmd.ErrOrStderr(), level, a.logFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	cmd.SetContext(log.AttachLogger(cmd.Context(), logger))

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

func (a *app) applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("sut-url") {
		cfg.SUTURL = a.flags.sutURL
	}
	if flags.Changed("transport-strategy") {
		cfg.Strategy = a2aclient.Strategy(strings.ToLower(a.flags.strategy))
	}
	if flags.Changed("preferred-transport") {
		cfg.PreferredTransport = parseTransport(a.flags.preferred)
	}
	if flags.Changed("disable-transport") {
		cfg.DisabledTransports = parseTransports(a.flags.disabled)
	}
	if flags.Changed("require-transport") {
		cfg.RequiredTransports = parseTransports(a.flags.required)
	}
	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration(a.flags.timeout)
	}
	if flags.Changed("test-scope") {
		cfg.TestScope = a.flags.scope
	}
	if flags.Changed("no-equivalence") {
		cfg.EnableEquivalence = !a.flags.noEquivalence
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = a.flags.metricsFile
	}
}

// parseTransport returns the transport named by s, or s unchanged so that
// validation reports it.
func parseTransport(s string) a2a.TransportType {
	if t, err := a2a.ParseTransportType(s); err == nil {
		return t
	}
	return a2a.TransportType(s)
}

func parseTransports(list []string) []a2a.TransportType {
	out := make([]a2a.TransportType, 0, len(list))
	for _, s := range list {
		out = append(out, parseTransport(s))
	}
	return out
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", format)
}

func (a *app) newManager() *a2aclient.Manager {
	opts := append(a.cfg.ManagerOptions(), a2agrpc.WithGRPCTransport())
	return a2aclient.NewManager(a.cfg.SUTURL, append(opts, a.managerOpts...)...)
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// errNotCompliant is returned in strict mode when a check failed.
type errNotCompliant struct {
	what string
}

func (e *errNotCompliant) Error() string {
	return e.what + ": agent is not compliant"
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of the kit and of the protocol it tests",
		// The version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.out, "a2a-tck %s (A2A protocol v%s)\n", version, a2a.ProtocolVersion)
			return err
		},
	}
}

const version = "0.3.0"
