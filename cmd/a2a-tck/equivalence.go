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

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
	"github.com/a2aproject/a2a-tck-go/log"
	"github.com/a2aproject/a2a-tck-go/validation"
)

// equivalenceReport is the output of the equivalence command.
type equivalenceReport struct {
	Equivalent   bool                               `json:"equivalent"`
	Skipped      bool                               `json:"skipped,omitempty"`
	Message      string                             `json:"message,omitempty"`
	AgentCard    *validation.EquivalenceResult      `json:"agent_card,omitempty"`
	SendMessage  *validation.EquivalenceResult      `json:"send_message,omitempty"`
	TaskNotFound *validation.ErrorEquivalenceResult `json:"task_not_found,omitempty"`
}

func newEquivalenceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "equivalence",
		Short: "Compare the agent's answers to the same requests across transports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !a.cfg.EnableEquivalence {
				return a.writeJSON(equivalenceReport{
					Equivalent: true,
					Skipped:    true,
					Message:    "transport equivalence testing is disabled",
				})
			}

			m := a.newManager()
			defer func() { _ = m.Close() }()
			clients, err := m.AllClients(ctx)
			if err != nil {
				return err
			}
			report := checkEquivalence(ctx, clients)
			log.Info(ctx, "equivalence check finished", "equivalent", report.Equivalent, "transports", len(clients))
			if err := a.writeJSON(report); err != nil {
				return err
			}
			if a.strict && !report.Equivalent {
				return &errNotCompliant{what: "transport equivalence"}
			}
			return nil
		},
	}
}

func checkEquivalence(ctx context.Context, clients map[a2a.TransportType]a2aclient.Transport) equivalenceReport {
	cards := validation.Probe(ctx, clients, func(ctx context.Context, c a2aclient.Transport) (any, error) {
		return c.GetAgentCard(ctx, nil)
	})
	cardResult := validation.CompareCoreFields(objects(cards), "name", "version", "protocolVersion", "capabilities.streaming")
	cardResult.Method = string(a2a.OpGetAgentCard)

	sent := validation.Probe(ctx, clients, func(ctx context.Context, c a2aclient.Transport) (any, error) {
		return c.SendMessage(ctx, nil, &a2a.SendMessageRequest{Message: a2a.NewTextMessage("Hello from the A2A TCK")})
	})
	sendResult := validation.CompareCoreFields(objects(sent), "kind", "role")
	sendResult.Method = string(a2a.OpSendMessage)

	missingID := "tck-missing-" + uuid.NewString()
	lookups := validation.Probe(ctx, clients, func(ctx context.Context, c a2aclient.Transport) (any, error) {
		return c.GetTask(ctx, nil, &a2a.GetTaskRequest{ID: missingID})
	})
	errs := make(map[a2a.TransportType]error, len(clients))
	for t := range clients {
		errs[t] = lookups.Errors[t]
	}
	code := a2a.CodeTaskNotFound
	notFound := validation.ValidateErrorEquivalence(errs, &code)

	for t, err := range cards.Errors {
		cardResult.Equivalent = false
		cardResult.Differences[string(t)] = []string{err.Error()}
	}
	for t, err := range sent.Errors {
		sendResult.Equivalent = false
		sendResult.Differences[string(t)] = []string{err.Error()}
	}
	return equivalenceReport{
		Equivalent:   cardResult.Equivalent && sendResult.Equivalent && notFound.Equivalent,
		AgentCard:    &cardResult,
		SendMessage:  &sendResult,
		TaskNotFound: &notFound,
	}
}

// objects keeps the successful object responses of a probe.
func objects(r validation.ProbeResult) map[a2a.TransportType]map[string]any {
	out := make(map[a2a.TransportType]map[string]any, len(r.Responses))
	for t, v := range r.Responses {
		if m, ok := v.(map[string]any); ok {
			out[t] = m
		}
	}
	return out
}
