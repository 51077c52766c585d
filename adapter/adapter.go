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

// Package adapter runs A2A operations against an agent through any transport
// client and turns each call into a test [Result]. The same checks apply to
// every transport, so results can be compared across them.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
	"github.com/a2aproject/a2a-tck-go/log"
)

// Outcome is the verdict of one test run.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeSkip Outcome = "skip"
	// OutcomeError means the call could not be completed, as opposed to
	// the agent answering incorrectly.
	OutcomeError Outcome = "error"
)

// Context describes a single test run.
type Context struct {
	TestName      string
	SpecReference string
	// Headers are sent as service params with the call.
	Headers map[string]string
	// Timeout bounds the call when positive. The client timeout applies otherwise.
	Timeout  time.Duration
	Metadata map[string]any
}

// Result is the outcome of a test run.
type Result struct {
	Outcome          Outcome           `json:"outcome"`
	TestName         string            `json:"test_name"`
	Transport        a2a.TransportType `json:"transport_type"`
	SpecReference    string            `json:"spec_reference,omitempty"`
	Duration         time.Duration     `json:"-"`
	Response         map[string]any    `json:"sut_response,omitempty"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	AssertionsPassed int               `json:"assertions_passed"`
	AssertionsTotal  int               `json:"assertions_total"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
}

// SuccessRate returns the share of passed assertions. Without assertions it
// is 1 for a passing result and 0 otherwise.
func (r Result) SuccessRate() float64 {
	if r.AssertionsTotal == 0 {
		if r.Outcome == OutcomePass {
			return 1
		}
		return 0
	}
	return float64(r.AssertionsPassed) / float64(r.AssertionsTotal)
}

func (r Result) String() string {
	status := strings.ToUpper(string(r.Outcome))
	if r.Duration > 0 {
		status += fmt.Sprintf(" (%.1fms)", durationMillis(r.Duration))
	}
	if r.AssertionsTotal > 0 {
		status += fmt.Sprintf(" [%d/%d assertions]", r.AssertionsPassed, r.AssertionsTotal)
	}
	return fmt.Sprintf("%s [%s]: %s", r.TestName, r.Transport.Label(), status)
}

// MarshalJSON adds duration_ms and success_rate to the encoded result.
func (r Result) MarshalJSON() ([]byte, error) {
	type result Result
	return json.Marshal(struct {
		result
		DurationMS  float64 `json:"duration_ms"`
		SuccessRate float64 `json:"success_rate"`
	}{result(r), durationMillis(r.Duration), r.SuccessRate()})
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Adapter runs test operations through a transport client.
type Adapter struct {
	client  a2aclient.Transport
	metrics *Metrics
	schemas *SchemaValidator
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithMetrics records every operation in m.
func WithMetrics(m *Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// WithSchemaValidator replaces the default schema validator, which lets
// adapters of different transports share compiled schemas.
func WithSchemaValidator(sv *SchemaValidator) Option {
	return func(a *Adapter) {
		a.schemas = sv
	}
}

// New creates an adapter for client.
func New(client a2aclient.Transport, opts ...Option) *Adapter {
	a := &Adapter{client: client}
	for _, o := range opts {
		o(a)
	}
	if a.schemas == nil {
		a.schemas = NewSchemaValidator()
	}
	return a
}

// Transport returns the transport type of the underlying client.
func (a *Adapter) Transport() a2a.TransportType {
	return a.client.Type()
}

// Info describes the adapter for reports.
func (a *Adapter) Info() map[string]any {
	info := map[string]any{
		"transport_type":     string(a.client.Type()),
		"sut_endpoint":       a.client.URL(),
		"supports_streaming": a.client.SupportsMethod(a2a.OpSendStreamingMessage),
	}
	var ops []string
	for _, op := range []a2a.Operation{
		a2a.OpSendMessage, a2a.OpSendStreamingMessage, a2a.OpGetTask, a2a.OpCancelTask,
		a2a.OpGetAgentCard, a2a.OpGetAuthenticatedExtendedCard, a2a.OpListTasks,
	} {
		if a.client.SupportsMethod(op) {
			ops = append(ops, string(op))
		}
	}
	info["supported_methods"] = ops
	return info
}

func (a *Adapter) String() string {
	return fmt.Sprintf("Adapter(%s, %s)", a.client.Type(), a.client.URL())
}

// SendMessage sends msg and checks that the agent answers with a valid task
// or message.
func (a *Adapter) SendMessage(ctx context.Context, tc Context, msg map[string]any) Result {
	return a.run(ctx, tc, a2a.OpSendMessage, func(ctx context.Context, params a2aclient.ServiceParams, as *assertions) (map[string]any, error) {
		resp, err := a.client.SendMessage(ctx, params, &a2a.SendMessageRequest{Message: msg})
		if err != nil {
			return nil, err
		}
		switch resp["kind"] {
		case a2a.KindTask:
			as.expect(AssertValidTask(resp))
			as.expect(a.validate(SchemaTask, resp))
		case a2a.KindMessage:
			as.expect(a.validate(SchemaMessage, resp))
		default:
			as.check(false, "Response kind %v is neither task nor message", resp["kind"])
		}
		return resp, nil
	})
}

// SendStreamingMessage streams msg, collecting every event until the agent
// ends the stream, and checks that the stream terminates properly.
func (a *Adapter) SendStreamingMessage(ctx context.Context, tc Context, msg map[string]any) Result {
	return a.run(ctx, tc, a2a.OpSendStreamingMessage, func(ctx context.Context, params a2aclient.ServiceParams, as *assertions) (map[string]any, error) {
		var events []any
		taskIDs := map[string]bool{}
		final := false
		for event, err := range a.client.SendStreamingMessage(ctx, params, &a2a.SendMessageRequest{Message: msg}) {
			if err != nil {
				return streamResponse(events), err
			}
			events = append(events, event)
			as.expect(a.validate(SchemaStreamEvent, event))
			if id := eventTaskID(event); id != "" {
				taskIDs[id] = true
			}
			final = isFinalEvent(event)
		}
		as.check(len(events) > 0, "Stream produced no events")
		as.check(len(taskIDs) <= 1, "Stream events refer to %d different tasks", len(taskIDs))
		as.check(len(events) == 0 || final, "Stream ended without a final event")
		return streamResponse(events), nil
	})
}

// GetTask fetches a task and checks that it is the requested one.
func (a *Adapter) GetTask(ctx context.Context, tc Context, taskID string, historyLength *int) Result {
	return a.run(ctx, tc, a2a.OpGetTask, func(ctx context.Context, params a2aclient.ServiceParams, as *assertions) (map[string]any, error) {
		task, err := a.client.GetTask(ctx, params, &a2a.GetTaskRequest{ID: taskID, HistoryLength: historyLength})
		if err != nil {
			return nil, err
		}
		as.expect(AssertValidTask(task))
		as.expect(a.validate(SchemaTask, task))
		as.check(task["id"] == taskID, "Task id %v does not match requested %q", task["id"], taskID)
		if historyLength != nil {
			history, _ := task["history"].([]any)
			as.check(len(history) <= *historyLength, "History has %d messages, want at most %d", len(history), *historyLength)
		}
		return task, nil
	})
}

// CancelTask cancels a task and checks that it ends in the canceled state.
func (a *Adapter) CancelTask(ctx context.Context, tc Context, taskID string) Result {
	return a.run(ctx, tc, a2a.OpCancelTask, func(ctx context.Context, params a2aclient.ServiceParams, as *assertions) (map[string]any, error) {
		task, err := a.client.CancelTask(ctx, params, &a2a.TaskIDRequest{ID: taskID})
		if err != nil {
			return nil, err
		}
		as.expect(AssertValidTask(task))
		as.expect(a.validate(SchemaTask, task))
		as.check(task["id"] == taskID, "Task id %v does not match requested %q", task["id"], taskID)
		state := stateOf(task)
		as.check(state == a2a.TaskStateCanceled, "Task state after cancel is %q, want %q", state, a2a.TaskStateCanceled)
		return task, nil
	})
}

// GetAgentCard fetches the public Agent Card and checks its content.
func (a *Adapter) GetAgentCard(ctx context.Context, tc Context) Result {
	return a.run(ctx, tc, a2a.OpGetAgentCard, func(ctx context.Context, params a2aclient.ServiceParams, as *assertions) (map[string]any, error) {
		card, err := a.client.GetAgentCard(ctx, params)
		if err != nil {
			return nil, err
		}
		as.expect(AssertValidAgentCard(card))
		as.expect(a.validate(SchemaAgentCard, card))
		return card, nil
	})
}

type operation func(ctx context.Context, params a2aclient.ServiceParams, as *assertions) (map[string]any, error)

func (a *Adapter) run(ctx context.Context, tc Context, op a2a.Operation, call operation) Result {
	res := Result{
		TestName:      tc.TestName,
		Transport:     a.client.Type(),
		SpecReference: tc.SpecReference,
		Metadata:      maps.Clone(tc.Metadata),
	}
	if res.Metadata == nil {
		res.Metadata = map[string]any{}
	}
	if _, ok := res.Metadata["start_time"]; !ok {
		res.Metadata["start_time"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	ctx = log.With(ctx, "transport", string(res.Transport), "operation", string(op), "test", tc.TestName)

	if !a.client.SupportsMethod(op) {
		res.Outcome = OutcomeSkip
		res.ErrorMessage = fmt.Sprintf("%s is not supported by the %s transport", op, res.Transport.Label())
		a.finish(ctx, op, res)
		return res
	}

	if tc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tc.Timeout)
		defer cancel()
	}
	params := a2aclient.ServiceParams{}
	for k, v := range tc.Headers {
		params.Append(k, v)
	}

	as := &assertions{}
	start := time.Now()
	resp, err := call(ctx, params, as)
	res.Duration = time.Since(start)
	res.Response = resp
	res.AssertionsPassed, res.AssertionsTotal = as.passed, as.total

	switch {
	case err != nil:
		res.Outcome = outcomeOf(err)
		res.ErrorMessage = err.Error()
	case len(as.failures) > 0:
		res.Outcome = OutcomeFail
		res.ErrorMessage = strings.Join(as.failures, "; ")
	default:
		res.Outcome = OutcomePass
	}
	a.finish(ctx, op, res)
	return res
}

func (a *Adapter) finish(ctx context.Context, op a2a.Operation, res Result) {
	a.metrics.observe(res.Transport, op, res.Outcome, res.Duration)
	log.Debug(ctx, "operation finished", "outcome", string(res.Outcome), "duration", res.Duration)
}

// outcomeOf maps a call error to an outcome. A protocol error reported by
// the agent fails the test unless it declares the operation unsupported.
func outcomeOf(err error) Outcome {
	code, ok := a2aclient.ErrorCode(err)
	if !ok {
		return OutcomeError
	}
	if code == a2a.CodeUnsupportedOperation || code == a2a.CodeMethodNotFound {
		return OutcomeSkip
	}
	return OutcomeFail
}

func (a *Adapter) validate(schema Schema, value any) []string {
	issues, err := a.schemas.Validate(schema, value)
	if err != nil {
		return []string{err.Error()}
	}
	return issues
}

type assertions struct {
	passed   int
	total    int
	failures []string
}

func (as *assertions) check(ok bool, format string, args ...any) {
	as.total++
	if ok {
		as.passed++
		return
	}
	as.failures = append(as.failures, fmt.Sprintf(format, args...))
}

// expect counts failures as one assertion which passes when it is empty.
func (as *assertions) expect(failures []string) {
	as.total++
	if len(failures) == 0 {
		as.passed++
		return
	}
	as.failures = append(as.failures, failures...)
}

func streamResponse(events []any) map[string]any {
	if events == nil {
		events = []any{}
	}
	return map[string]any{"events": events, "eventCount": len(events)}
}

func stateOf(obj map[string]any) a2a.TaskState {
	status, _ := obj["status"].(map[string]any)
	state, _ := status["state"].(string)
	return a2a.TaskState(state)
}

func eventTaskID(event map[string]any) string {
	key := "taskId"
	if event["kind"] == a2a.KindTask {
		key = "id"
	}
	id, _ := event[key].(string)
	return id
}

// isFinalEvent reports whether event may be the last one of a stream.
func isFinalEvent(event map[string]any) bool {
	switch event["kind"] {
	case a2a.KindMessage:
		return true
	case a2a.KindStatusUpdate:
		if final, _ := event["final"].(bool); final {
			return true
		}
	case a2a.KindTask:
	default:
		return false
	}
	state := stateOf(event)
	return state.Terminal() || state == a2a.TaskStateInputRequired || state == a2a.TaskStateAuthRequired
}
