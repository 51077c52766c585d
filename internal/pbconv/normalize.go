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

package pbconv

import (
	"strings"

	"github.com/a2aproject/a2a-tck-go/a2a"
)

// Normalization accepts both protobuf JSON (snake_case or lowerCamel names,
// enum names, oneof wrappers) and A2A JSON, and always produces A2A JSON.
// Fields it does not know are carried over untouched, so that validators
// still see whatever the agent sent.

// NormalizeResult converts a send or stream result into A2A JSON. Results
// wrapped as {"task": ...}, {"message": ...}, {"msg": ...}, {"statusUpdate": ...}
// or {"artifactUpdate": ...} are unwrapped.
func NormalizeResult(v map[string]any) map[string]any {
	if v == nil {
		return nil
	}
	if kind, ok := v["kind"].(string); ok {
		switch kind {
		case a2a.KindTask:
			return NormalizeTask(v)
		case a2a.KindMessage:
			return NormalizeMessage(v)
		case a2a.KindStatusUpdate:
			return NormalizeStatusUpdate(v)
		case a2a.KindArtifactUpdate:
			return NormalizeArtifactUpdate(v)
		}
		return v
	}
	if inner, ok := firstMap(v, "task"); ok {
		return NormalizeTask(inner)
	}
	if inner, ok := firstMap(v, "message", "msg"); ok {
		return NormalizeMessage(inner)
	}
	if inner, ok := firstMap(v, "statusUpdate", "status_update"); ok {
		return NormalizeStatusUpdate(inner)
	}
	if inner, ok := firstMap(v, "artifactUpdate", "artifact_update"); ok {
		return NormalizeArtifactUpdate(inner)
	}
	if _, hasID := v["id"]; hasID {
		if _, hasStatus := v["status"]; hasStatus {
			return NormalizeTask(v)
		}
	}
	if _, ok := first(v, "messageId", "message_id"); ok {
		return NormalizeMessage(v)
	}
	return v
}

// NormalizeTask converts a task into A2A JSON.
func NormalizeTask(t map[string]any) map[string]any {
	out := carryOver(t, "context_id", "status", "artifacts", "history")
	out["kind"] = a2a.KindTask
	setRenamed(out, t, "contextId", "contextId", "context_id")
	if status, ok := t["status"].(map[string]any); ok {
		out["status"] = NormalizeStatus(status)
	}
	if artifacts, ok := t["artifacts"].([]any); ok {
		out["artifacts"] = mapEach(artifacts, NormalizeArtifact)
	}
	if history, ok := t["history"].([]any); ok {
		out["history"] = mapEach(history, NormalizeMessage)
	}
	return out
}

// NormalizeStatus converts a task status into A2A JSON.
func NormalizeStatus(s map[string]any) map[string]any {
	out := carryOver(s, "state", "update", "message")
	if state, ok := s["state"].(string); ok {
		out["state"] = string(NormalizeTaskState(state))
	}
	if msg, ok := firstMap(s, "message", "update"); ok {
		out["message"] = NormalizeMessage(msg)
	}
	return out
}

// NormalizeTaskState maps protobuf enum names (TASK_STATE_CANCELLED) and A2A
// tokens to A2A tokens. Unrecognized values are returned lower-cased.
func NormalizeTaskState(state string) a2a.TaskState {
	s := strings.ToLower(state)
	s = strings.TrimPrefix(s, "task_state_")
	s = strings.ReplaceAll(s, "_", "-")
	switch s {
	case "cancelled":
		return a2a.TaskStateCanceled
	case "unspecified":
		return a2a.TaskStateUnknown
	}
	return a2a.TaskState(s)
}

// NormalizeMessage converts a message into A2A JSON.
func NormalizeMessage(m map[string]any) map[string]any {
	out := carryOver(m, "message_id", "context_id", "task_id", "reference_task_ids", "content", "parts", "role")
	out["kind"] = a2a.KindMessage
	setRenamed(out, m, "messageId", "messageId", "message_id")
	setRenamed(out, m, "contextId", "contextId", "context_id")
	setRenamed(out, m, "taskId", "taskId", "task_id")
	setRenamed(out, m, "referenceTaskIds", "referenceTaskIds", "reference_task_ids")
	if role, ok := m["role"].(string); ok {
		out["role"] = normalizeRole(role)
	}
	if parts, ok := firstSlice(m, "parts", "content"); ok {
		out["parts"] = mapEach(parts, NormalizePart)
	}
	return out
}

// NormalizePart converts a message or artifact part into A2A JSON.
func NormalizePart(p map[string]any) map[string]any {
	if _, ok := p["kind"]; ok {
		return p
	}
	out := map[string]any{}
	if meta, ok := p["metadata"]; ok {
		out["metadata"] = meta
	}
	switch {
	case p["text"] != nil:
		out["kind"] = a2a.KindText
		out["text"] = p["text"]
	case p["file"] != nil:
		out["kind"] = a2a.KindFile
		file, _ := p["file"].(map[string]any)
		aFile := map[string]any{}
		setRenamed(aFile, file, "uri", "fileWithUri", "file_with_uri", "uri")
		setRenamed(aFile, file, "bytes", "fileWithBytes", "file_with_bytes", "bytes")
		setRenamed(aFile, file, "mimeType", "mimeType", "mime_type")
		setRenamed(aFile, file, "name", "name")
		out["file"] = aFile
	case p["data"] != nil:
		out["kind"] = a2a.KindData
		if inner, ok := p["data"].(map[string]any); ok {
			if wrapped, ok := inner["data"]; ok && len(inner) == 1 {
				out["data"] = wrapped
				break
			}
		}
		out["data"] = p["data"]
	default:
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}

// NormalizeArtifact converts an artifact into A2A JSON.
func NormalizeArtifact(a map[string]any) map[string]any {
	out := carryOver(a, "artifact_id", "parts", "content")
	setRenamed(out, a, "artifactId", "artifactId", "artifact_id")
	if parts, ok := firstSlice(a, "parts", "content"); ok {
		out["parts"] = mapEach(parts, NormalizePart)
	}
	return out
}

// NormalizeStatusUpdate converts a task status update event into A2A JSON.
func NormalizeStatusUpdate(e map[string]any) map[string]any {
	out := carryOver(e, "task_id", "context_id", "status")
	out["kind"] = a2a.KindStatusUpdate
	setRenamed(out, e, "taskId", "taskId", "task_id")
	setRenamed(out, e, "contextId", "contextId", "context_id")
	if status, ok := e["status"].(map[string]any); ok {
		out["status"] = NormalizeStatus(status)
	}
	return out
}

// NormalizeArtifactUpdate converts a task artifact update event into A2A JSON.
func NormalizeArtifactUpdate(e map[string]any) map[string]any {
	out := carryOver(e, "task_id", "context_id", "artifact", "last_chunk")
	out["kind"] = a2a.KindArtifactUpdate
	setRenamed(out, e, "taskId", "taskId", "task_id")
	setRenamed(out, e, "contextId", "contextId", "context_id")
	setRenamed(out, e, "lastChunk", "lastChunk", "last_chunk")
	if artifact, ok := e["artifact"].(map[string]any); ok {
		out["artifact"] = NormalizeArtifact(artifact)
	}
	return out
}

// NormalizeListTasks converts a task listing into A2A JSON.
func NormalizeListTasks(v map[string]any) map[string]any {
	out := carryOver(v, "tasks", "next_page_token", "total_size", "page_size")
	setRenamed(out, v, "nextPageToken", "nextPageToken", "next_page_token")
	setRenamed(out, v, "totalSize", "totalSize", "total_size")
	setRenamed(out, v, "pageSize", "pageSize", "page_size")
	tasks := []any{}
	if list, ok := v["tasks"].([]any); ok {
		tasks = mapEach(list, NormalizeTask)
	}
	out["tasks"] = tasks
	return out
}

// NormalizePushConfig converts a task push notification config into A2A JSON:
// {"taskId": ..., "pushNotificationConfig": {...}}. taskID fills in the task
// when the response does not carry a resource name.
func NormalizePushConfig(v map[string]any, taskID string) map[string]any {
	out := carryOver(v, "name", "push_notification_config", "pushNotificationConfig", "task_id")
	if name, ok := v["name"].(string); ok {
		if id, err := ExtractTaskID(name); err == nil {
			taskID = id
		}
	}
	setRenamed(out, v, "taskId", "taskId", "task_id")
	if _, ok := out["taskId"]; !ok && taskID != "" {
		out["taskId"] = taskID
	}
	if pc, ok := firstMap(v, "pushNotificationConfig", "push_notification_config"); ok {
		out["pushNotificationConfig"] = pc
	} else if _, ok := v["url"]; ok {
		// Bare configs are wrapped to the canonical shape.
		out = map[string]any{"taskId": taskID, "pushNotificationConfig": v}
	}
	return out
}

// NormalizePushConfigList converts a push config listing, given either as
// {"configs": [...]} or as a bare array. The result is never nil.
func NormalizePushConfigList(v any, taskID string) []map[string]any {
	var list []any
	switch t := v.(type) {
	case []any:
		list = t
	case map[string]any:
		list, _ = t["configs"].([]any)
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, NormalizePushConfig(m, taskID))
		}
	}
	return out
}

func normalizeRole(role string) string {
	switch strings.ToUpper(role) {
	case "ROLE_AGENT", "AGENT":
		return string(a2a.MessageRoleAgent)
	case "ROLE_USER", "ROLE_UNSPECIFIED", "USER":
		return string(a2a.MessageRoleUser)
	}
	return role
}

// carryOver copies src without the listed keys, which the caller converts.
func carryOver(src map[string]any, skip ...string) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	for _, k := range skip {
		delete(out, k)
	}
	return out
}

func setRenamed(dst, src map[string]any, to string, from ...string) {
	if v, ok := first(src, from...); ok {
		dst[to] = v
	}
}

func first(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstMap(m map[string]any, keys ...string) (map[string]any, bool) {
	for _, k := range keys {
		if v, ok := m[k].(map[string]any); ok {
			return v, true
		}
	}
	return nil, false
}

func firstSlice(m map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if v, ok := m[k].([]any); ok {
			return v, true
		}
	}
	return nil, false
}

func mapEach(items []any, fn func(map[string]any) map[string]any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, fn(m))
		} else {
			out = append(out, item)
		}
	}
	return out
}
