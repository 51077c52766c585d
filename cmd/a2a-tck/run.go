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
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
	"github.com/a2aproject/a2a-tck-go/a2aclient/agentcard"
	"github.com/a2aproject/a2a-tck-go/adapter"
	"github.com/a2aproject/a2a-tck-go/config"
	"github.com/a2aproject/a2a-tck-go/log"
)

// runReport is the output of the run command.
type runReport struct {
	Results []adapter.Result        `json:"results"`
	Summary map[adapter.Outcome]int `json:"summary"`
}

func newRunCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the core operations against the selected transport and check the answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := a.newManager()
			defer func() { _ = m.Close() }()

			clients, err := a.runClients(ctx, m, all)
			if err != nil {
				return err
			}
			card, err := m.Card(ctx)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			metrics, err := adapter.NewMetrics(registry)
			if err != nil {
				return err
			}
			schemas := adapter.NewSchemaValidator()

			var results []adapter.Result
			for _, t := range a2a.AllTransports() {
				client, ok := clients[t]
				if !ok {
					continue
				}
				ad := adapter.New(client, adapter.WithMetrics(metrics), adapter.WithSchemaValidator(schemas))
				results = append(results, runCore(ctx, ad, a.cfg.TestScope, agentcard.Streaming(card))...)
			}
			for _, r := range results {
				log.Info(ctx, r.String())
			}

			if a.cfg.MetricsFile != "" {
				if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, registry); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
			}
			summary := adapter.Summarize(results)
			if err := a.writeJSON(runReport{Results: results, Summary: summary}); err != nil {
				return err
			}
			if a.strict && summary[adapter.OutcomeFail]+summary[adapter.OutcomeError] > 0 {
				return &errNotCompliant{what: "core operations"}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "run on every transport the agent supports")
	return cmd
}

func (a *app) runClients(ctx context.Context, m *a2aclient.Manager, all bool) (map[a2a.TransportType]a2aclient.Transport, error) {
	if all || a.cfg.SelectionStrategy() == a2aclient.StrategyAllSupported {
		return m.AllClients(ctx)
	}
	client, err := m.SelectedClient(ctx)
	if err != nil {
		return nil, err
	}
	return map[a2a.TransportType]a2aclient.Transport{client.Type(): client}, nil
}

// runCore sends a message and follows up on the task it creates.
func runCore(ctx context.Context, ad *adapter.Adapter, scope string, streaming bool) []adapter.Result {
	base := adapter.Context{TestName: string(ad.Transport())}
	results := ad.RunScenarios(ctx, base, []adapter.Scenario{
		{Name: "agent_card", Type: a2a.OpGetAgentCard},
		{Name: "send_message", Type: a2a.OpSendMessage},
	})

	var next []adapter.Scenario
	send := results[len(results)-1]
	if id, ok := send.Response["id"].(string); ok && send.Response["kind"] == a2a.KindTask {
		next = append(next, adapter.Scenario{Name: "get_task", Type: a2a.OpGetTask, TaskID: id})
		if scope == config.ScopeAll {
			history := 1
			next = append(next, adapter.Scenario{Name: "get_task_history", Type: a2a.OpGetTask, TaskID: id, HistoryLength: &history})
		}
		status, _ := send.Response["status"].(map[string]any)
		if state, _ := status["state"].(string); !a2a.TaskState(state).Terminal() {
			next = append(next, adapter.Scenario{Name: "cancel_task", Type: a2a.OpCancelTask, TaskID: id})
		}
	}
	if streaming {
		next = append(next, adapter.Scenario{Name: "send_streaming_message", Type: a2a.OpSendStreamingMessage})
	}
	return append(results, ad.RunScenarios(ctx, base, next)...)
}
