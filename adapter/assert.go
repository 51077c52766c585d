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
	"fmt"
	"strings"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
	"github.com/a2aproject/a2a-tck-go/a2aclient/agentcard"
)

// AssertValidTask returns the problems found in a task object. An empty
// result means the task passed every check.
func AssertValidTask(task map[string]any) []string {
	var failures []string
	for _, field := range []string{"id", "contextId"} {
		if s, ok := task[field].(string); !ok || s == "" {
			failures = append(failures, fmt.Sprintf("Missing required field '%s' in task response", field))
		}
	}
	if kind, ok := task["kind"]; ok && kind != a2a.KindTask {
		failures = append(failures, fmt.Sprintf("Unexpected kind %v in task response", kind))
	}
	status, ok := task["status"].(map[string]any)
	if !ok {
		return append(failures, "Missing required field 'status' in task response")
	}
	state, _ := status["state"].(string)
	if !a2a.TaskState(state).Valid() {
		failures = append(failures, fmt.Sprintf("Invalid task state '%s', must be one of %v", state, a2a.TaskStates()))
	}
	return failures
}

// AssertValidAgentCard returns the problems found in an Agent Card.
func AssertValidAgentCard(card map[string]any) []string {
	var failures []string
	for _, field := range []string{"name", "url", "version"} {
		if s, ok := card[field].(string); !ok || s == "" {
			failures = append(failures, fmt.Sprintf("Missing required field '%s' in agent card", field))
		}
	}
	if _, ok := card["capabilities"].(map[string]any); !ok {
		failures = append(failures, "Missing required field 'capabilities' in agent card")
	}
	if _, ok := card["skills"].([]any); !ok {
		failures = append(failures, "Missing required field 'skills' in agent card")
	}
	if url, ok := card["url"].(string); ok && url != "" && !hasAnyPrefix(url, "http://", "https://", "grpc://", "grpcs://") {
		failures = append(failures, fmt.Sprintf("Invalid endpoint format: %s", url))
	}
	if v := agentcard.ProtocolVersion(card); v != "" {
		if err := agentcard.CheckProtocolVersion(v); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return append(failures, agentcard.ValidateTransportConsistency(card)...)
}

// AssertTransportError returns the problems found in an error reported by a
// client of transport t.
func AssertTransportError(err error, t a2a.TransportType) []string {
	te, ok := a2aclient.AsTransportError(err)
	if !ok {
		return []string{fmt.Sprintf("Expected TransportError, got %T", err)}
	}
	var failures []string
	if te.Transport != t {
		failures = append(failures, fmt.Sprintf("Error transport type %s doesn't match adapter %s", te.Transport, t))
	}
	if strings.TrimSpace(te.Message) == "" && te.Payload == nil {
		failures = append(failures, "Transport error has empty message")
	}
	return failures
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
