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

package a2a

import "strings"

// Operation is the transport-neutral name of a protocol operation.
type Operation string

const (
	OpSendMessage                  Operation = "send_message"
	OpSendStreamingMessage         Operation = "send_streaming_message"
	OpGetTask                      Operation = "get_task"
	OpListTasks                    Operation = "list_tasks"
	OpCancelTask                   Operation = "cancel_task"
	OpResubscribeTask              Operation = "resubscribe_task"
	OpSetPushConfig                Operation = "set_push_notification_config"
	OpGetPushConfig                Operation = "get_push_notification_config"
	OpListPushConfigs              Operation = "list_push_notification_configs"
	OpDeletePushConfig             Operation = "delete_push_notification_config"
	OpGetAuthenticatedExtendedCard Operation = "get_authenticated_extended_card"

	// OpGetAgentCard fetches the public card. It is not an RPC on JSON-RPC
	// and so has no row in the mapping table.
	OpGetAgentCard Operation = "get_agent_card"
)

// Applicability tells which transports define an operation.
type Applicability string

const (
	AppliesAll          Applicability = "all"
	AppliesGRPCRESTOnly Applicability = "grpc_rest_only"
)

// MethodMapping is one row of the canonical operation table. JSONRPC and GRPC
// hold method names, REST holds "VERB /v1/path" with {placeholders}, and
// ClientMethod is the Go method implementing the operation on a client.
type MethodMapping struct {
	Operation    Operation     `json:"operation"`
	JSONRPC      string        `json:"jsonrpc"`
	GRPC         string        `json:"grpc"`
	REST         string        `json:"rest"`
	ClientMethod string        `json:"client_method"`
	Description  string        `json:"description"`
	Applies      Applicability `json:"applies"`
}

var methodTable = []MethodMapping{
	{OpSendMessage, "message/send", "SendMessage", "POST /v1/message:send", "SendMessage", "Send a message to the agent", AppliesAll},
	{OpSendStreamingMessage, "message/stream", "SendStreamingMessage", "POST /v1/message:stream", "SendStreamingMessage", "Send a message and stream task updates", AppliesAll},
	{OpGetTask, "tasks/get", "GetTask", "GET /v1/tasks/{id}", "GetTask", "Retrieve a task by id", AppliesAll},
	{OpListTasks, "tasks/list", "ListTask", "GET /v1/tasks", "ListTasks", "List tasks with optional filters", AppliesGRPCRESTOnly},
	{OpCancelTask, "tasks/cancel", "CancelTask", "POST /v1/tasks/{id}:cancel", "CancelTask", "Request cancellation of a task", AppliesAll},
	{OpResubscribeTask, "tasks/resubscribe", "TaskSubscription", "POST /v1/tasks/{id}:subscribe", "ResubscribeTask", "Resume streaming updates of a task", AppliesAll},
	{OpSetPushConfig, "tasks/pushNotificationConfig/set", "CreateTaskPushNotification", "POST /v1/tasks/{id}/pushNotificationConfigs", "SetTaskPushConfig", "Create a push notification config", AppliesAll},
	{OpGetPushConfig, "tasks/pushNotificationConfig/get", "GetTaskPushNotification", "GET /v1/tasks/{id}/pushNotificationConfigs/{configId}", "GetTaskPushConfig", "Retrieve a push notification config", AppliesAll},
	{OpListPushConfigs, "tasks/pushNotificationConfig/list", "ListTaskPushNotification", "GET /v1/tasks/{id}/pushNotificationConfigs", "ListTaskPushConfigs", "List push notification configs of a task", AppliesAll},
	{OpDeletePushConfig, "tasks/pushNotificationConfig/delete", "DeleteTaskPushNotification", "DELETE /v1/tasks/{id}/pushNotificationConfigs/{configId}", "DeleteTaskPushConfig", "Delete a push notification config", AppliesAll},
	{OpGetAuthenticatedExtendedCard, "agent/getAuthenticatedExtendedCard", "GetAgentCard", "GET /v1/card", "GetAuthenticatedExtendedCard", "Retrieve the authenticated extended agent card", AppliesAll},
}

// Methods returns a copy of the canonical method mapping table.
func Methods() []MethodMapping {
	out := make([]MethodMapping, len(methodTable))
	copy(out, methodTable)
	return out
}

// LookupMethod returns the table row of op.
func LookupMethod(op Operation) (MethodMapping, bool) {
	for _, m := range methodTable {
		if m.Operation == op {
			return m, true
		}
	}
	return MethodMapping{}, false
}

// MustLookupMethod is LookupMethod for operations known to be in the table.
func MustLookupMethod(op Operation) MethodMapping {
	m, ok := LookupMethod(op)
	if !ok {
		panic("a2a: no method mapping for " + string(op))
	}
	return m
}

// AppliesTo reports whether the operation is defined for t.
func (m MethodMapping) AppliesTo(t TransportType) bool {
	if m.Applies == AppliesGRPCRESTOnly {
		return t == TransportGRPC || t == TransportREST
	}
	return t.Valid()
}

// Name returns the wire name of the operation on t.
func (m MethodMapping) Name(t TransportType) string {
	switch t {
	case TransportJSONRPC:
		return m.JSONRPC
	case TransportGRPC:
		return m.GRPC
	case TransportREST:
		return m.REST
	}
	return ""
}

// RESTRoute splits the REST column into its HTTP verb and path template.
func (m MethodMapping) RESTRoute() (verb, path string) {
	verb, path, found := strings.Cut(m.REST, " ")
	if !found {
		return "", m.REST
	}
	return verb, path
}

// SupportsMethod reports whether a client of transport t implements op.
// It is a pure function of the transport type.
func SupportsMethod(t TransportType, op Operation) bool {
	if op == OpGetAgentCard {
		return t.Valid()
	}
	m, ok := LookupMethod(op)
	return ok && m.AppliesTo(t)
}
