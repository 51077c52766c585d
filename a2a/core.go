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

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskState is the A2A JSON token describing the lifecycle state of a task.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateFailed        TaskState = "failed"
	TaskStateRejected      TaskState = "rejected"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateUnknown       TaskState = "unknown"
)

// TaskStates returns every state token defined by the protocol.
func TaskStates() []TaskState {
	return []TaskState{
		TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired, TaskStateCompleted,
		TaskStateCanceled, TaskStateFailed, TaskStateRejected, TaskStateAuthRequired, TaskStateUnknown,
	}
}

// Valid reports whether ts is a state token defined by the protocol.
func (ts TaskState) Valid() bool {
	for _, s := range TaskStates() {
		if s == ts {
			return true
		}
	}
	return false
}

// Terminal returns true for states in which a Task becomes immutable.
func (ts TaskState) Terminal() bool {
	return ts == TaskStateCompleted ||
		ts == TaskStateCanceled ||
		ts == TaskStateFailed ||
		ts == TaskStateRejected
}

// MessageRole identifies the sender of a message.
type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleAgent MessageRole = "agent"
)

// Values of the "kind" discriminator on protocol objects.
const (
	KindTask           = "task"
	KindMessage        = "message"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
	KindText           = "text"
	KindFile           = "file"
	KindData           = "data"
)

// NewMessageID generates a random message identifier.
func NewMessageID() string {
	return uuid.NewString()
}

// NewTextMessage builds a user message with a single text part in A2A JSON shape.
func NewTextMessage(text string) map[string]any {
	return map[string]any{
		"kind":      KindMessage,
		"messageId": NewMessageID(),
		"role":      string(MessageRoleUser),
		"parts": []any{
			map[string]any{"kind": KindText, "text": text},
		},
	}
}

// SendMessageRequest carries the parameters of message/send and message/stream.
// Message is kept in A2A JSON shape so that arbitrary payloads can be probed.
type SendMessageRequest struct {
	Message       map[string]any
	Configuration map[string]any
	Metadata      map[string]any
}

// Params returns the JSON-RPC params object.
func (r *SendMessageRequest) Params() map[string]any {
	params := map[string]any{"message": r.Message}
	if len(r.Configuration) > 0 {
		params["configuration"] = r.Configuration
	}
	if len(r.Metadata) > 0 {
		params["metadata"] = r.Metadata
	}
	return params
}

// GetTaskRequest carries the parameters of tasks/get.
type GetTaskRequest struct {
	ID string
	// HistoryLength limits the number of history messages returned when set.
	HistoryLength *int
	Metadata      map[string]any
}

// Params returns the JSON-RPC params object.
func (r *GetTaskRequest) Params() map[string]any {
	params := map[string]any{"id": r.ID}
	if r.HistoryLength != nil {
		params["historyLength"] = *r.HistoryLength
	}
	if len(r.Metadata) > 0 {
		params["metadata"] = r.Metadata
	}
	return params
}

// TaskIDRequest carries the parameters of tasks/cancel, tasks/resubscribe and
// tasks/pushNotificationConfig/list.
type TaskIDRequest struct {
	ID       string
	Metadata map[string]any
}

// Params returns the JSON-RPC params object.
func (r *TaskIDRequest) Params() map[string]any {
	params := map[string]any{"id": r.ID}
	if len(r.Metadata) > 0 {
		params["metadata"] = r.Metadata
	}
	return params
}

// ListTasksRequest carries the filters of the task listing operation.
type ListTasksRequest struct {
	ContextID string
	Status    TaskState
	// PageSize must be within 1..100 when set.
	PageSize         int
	PageToken        string
	HistoryLength    *int
	LastUpdatedAfter time.Time
	IncludeArtifacts bool
}

// Validate rejects filters a conforming server would refuse.
func (r *ListTasksRequest) Validate() error {
	if r.PageSize != 0 && (r.PageSize < 1 || r.PageSize > 100) {
		return fmt.Errorf("page size must be between 1 and 100, got %d: %w", r.PageSize, ErrInvalidParams)
	}
	if r.Status != "" && !r.Status.Valid() {
		return fmt.Errorf("unknown task state %q: %w", r.Status, ErrInvalidParams)
	}
	if r.HistoryLength != nil && *r.HistoryLength < 0 {
		return fmt.Errorf("history length must be non-negative: %w", ErrInvalidParams)
	}
	return nil
}

// Params returns the JSON-RPC params object.
func (r *ListTasksRequest) Params() map[string]any {
	params := map[string]any{}
	if r.ContextID != "" {
		params["contextId"] = r.ContextID
	}
	if r.Status != "" {
		params["status"] = string(r.Status)
	}
	if r.PageSize != 0 {
		params["pageSize"] = r.PageSize
	}
	if r.PageToken != "" {
		params["pageToken"] = r.PageToken
	}
	if r.HistoryLength != nil {
		params["historyLength"] = *r.HistoryLength
	}
	if !r.LastUpdatedAfter.IsZero() {
		params["lastUpdatedAfter"] = r.LastUpdatedAfter.UTC().Format(time.RFC3339)
	}
	if r.IncludeArtifacts {
		params["includeArtifacts"] = true
	}
	return params
}
