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

package adapter

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/a2aproject/a2a-tck-go/a2a"
)

// Scenario is one step of a suite run by [Adapter.RunScenarios].
type Scenario struct {
	Name string `yaml:"name" json:"name"`
	// Type is the operation to run.
	Type          a2a.Operation  `yaml:"type" json:"type"`
	Message       map[string]any `yaml:"message,omitempty" json:"message,omitempty"`
	TaskID        string         `yaml:"task_id,omitempty" json:"task_id,omitempty"`
	HistoryLength *int           `yaml:"history_length,omitempty" json:"history_length,omitempty"`
	SpecReference string         `yaml:"spec_reference,omitempty" json:"spec_reference,omitempty"`
	Timeout       time.Duration  `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// RunScenarios runs scenarios in order. Each result is named
// "<base test name>::<scenario name>" and inherits unset fields from base.
func (a *Adapter) RunScenarios(ctx context.Context, base Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		tc := Context{
			TestName:      base.TestName + "::" + s.Name,
			SpecReference: base.SpecReference,
			Headers:       maps.Clone(base.Headers),
			Timeout:       base.Timeout,
			Metadata:      maps.Clone(base.Metadata),
		}
		if s.Name == "" {
			tc.TestName = base.TestName + "::unnamed"
		}
		if s.SpecReference != "" {
			tc.SpecReference = s.SpecReference
		}
		if s.Timeout > 0 {
			tc.Timeout = s.Timeout
		}

		var res Result
		switch s.Type {
		case a2a.OpSendMessage:
			res = a.SendMessage(ctx, tc, s.message())
		case a2a.OpSendStreamingMessage:
			res = a.SendStreamingMessage(ctx, tc, s.message())
		case a2a.OpGetTask:
			res = a.GetTask(ctx, tc, s.TaskID, s.HistoryLength)
		case a2a.OpCancelTask:
			res = a.CancelTask(ctx, tc, s.TaskID)
		case a2a.OpGetAgentCard:
			res = a.GetAgentCard(ctx, tc)
		default:
			res = Result{
				Outcome:       OutcomeSkip,
				TestName:      tc.TestName,
				Transport:     a.client.Type(),
				SpecReference: tc.SpecReference,
				ErrorMessage:  fmt.Sprintf("Unknown scenario type: %s", s.Type),
				Metadata:      tc.Metadata,
			}
		}
		results = append(results, res)
	}
	return results
}

func (s Scenario) message() map[string]any {
	if s.Message != nil {
		return s.Message
	}
	return a2a.NewTextMessage("Hello from the A2A TCK")
}

// Summarize counts results per outcome.
func Summarize(results []Result) map[Outcome]int {
	counts := map[Outcome]int{OutcomePass: 0, OutcomeFail: 0, OutcomeSkip: 0, OutcomeError: 0}
	for _, r := range results {
		counts[r.Outcome]++
	}
	return counts
}
