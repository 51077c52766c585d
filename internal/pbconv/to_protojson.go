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

// Package pbconv converts between the A2A JSON shape used throughout the kit
// and the protobuf shapes spoken by gRPC and HTTP+JSON agents.
package pbconv

import (
	"strings"

	"github.com/a2aproject/a2a-tck-go/a2a"
)

// RESTPartsField is the name HTTP+JSON agents use for message parts.
const RESTPartsField = "content"

// ToProtoJSONMessage converts an A2A JSON message into its protobuf JSON form.
// partsField selects the name of the repeated Part field.
func ToProtoJSONMessage(msg map[string]any, partsField string) map[string]any {
	if msg == nil {
		return nil
	}
	out := map[string]any{}
	copyRenamed(out, msg, map[string]string{
		"messageId":        "message_id",
		"contextId":        "context_id",
		"taskId":           "task_id",
		"referenceTaskIds": "reference_task_ids",
		"metadata":         "metadata",
		"extensions":       "extensions",
	})
	if role, ok := msg["role"].(string); ok {
		out["role"] = toProtoRoleName(role)
	}
	if parts, ok := msg["parts"].([]any); ok {
		pParts := make([]any, 0, len(parts))
		for _, p := range parts {
			if pm, ok := p.(map[string]any); ok {
				pParts = append(pParts, toProtoJSONPart(pm))
			}
		}
		out[partsField] = pParts
	}
	return out
}

// ToProtoJSONConfiguration converts message send configuration into its protobuf JSON form.
func ToProtoJSONConfiguration(cfg map[string]any) map[string]any {
	if cfg == nil {
		return nil
	}
	out := map[string]any{}
	copyRenamed(out, cfg, map[string]string{
		"acceptedOutputModes": "accepted_output_modes",
		"historyLength":       "history_length",
		"blocking":            "blocking",
	})
	if pc, ok := cfg["pushNotificationConfig"].(map[string]any); ok {
		out["push_notification"] = pc
	}
	return out
}

// ToProtoJSONPushConfig converts a push config into its protobuf JSON form.
func ToProtoJSONPushConfig(cfg a2a.PushConfig) map[string]any {
	// The A2A JSON names coincide with the protobuf names for this message.
	return cfg.ToMap()
}

// ToProtoJSONSetPushConfig builds the body of the push config creation call.
func ToProtoJSONSetPushConfig(req *a2a.SetPushConfigRequest) map[string]any {
	config := map[string]any{"push_notification_config": ToProtoJSONPushConfig(req.Config)}
	body := map[string]any{
		"parent": MakeTaskName(req.TaskID),
		"config": config,
	}
	if req.Config.ID != "" {
		body["config_id"] = req.Config.ID
		config["name"] = MakeConfigName(req.TaskID, req.Config.ID)
	}
	return body
}

func toProtoJSONPart(part map[string]any) map[string]any {
	out := map[string]any{}
	if meta, ok := part["metadata"]; ok {
		out["metadata"] = meta
	}
	kind, _ := part["kind"].(string)
	switch {
	case kind == a2a.KindText || (kind == "" && part["text"] != nil):
		out["text"] = part["text"]
	case kind == a2a.KindFile || (kind == "" && part["file"] != nil):
		file, _ := part["file"].(map[string]any)
		pFile := map[string]any{}
		if uri, ok := file["uri"]; ok {
			pFile["file_with_uri"] = uri
		}
		if b, ok := file["bytes"]; ok {
			pFile["file_with_bytes"] = b
		}
		if mt, ok := file["mimeType"]; ok {
			pFile["mime_type"] = mt
		}
		if name, ok := file["name"]; ok {
			pFile["name"] = name
		}
		out["file"] = pFile
	case kind == a2a.KindData || (kind == "" && part["data"] != nil):
		out["data"] = map[string]any{"data": part["data"]}
	default:
		// Unknown kinds are forwarded so that the agent gets to reject them.
		for k, v := range part {
			out[k] = v
		}
	}
	return out
}

func toProtoRoleName(role string) string {
	switch strings.ToLower(role) {
	case string(a2a.MessageRoleUser):
		return "ROLE_USER"
	case string(a2a.MessageRoleAgent):
		return "ROLE_AGENT"
	}
	return role
}

// ToProtoTaskStateName returns the protobuf enum name of an A2A state token.
func ToProtoTaskStateName(state a2a.TaskState) string {
	if state == a2a.TaskStateCanceled {
		return "TASK_STATE_CANCELLED"
	}
	if state == "" || state == a2a.TaskStateUnknown {
		return "TASK_STATE_UNSPECIFIED"
	}
	return "TASK_STATE_" + strings.ToUpper(strings.ReplaceAll(string(state), "-", "_"))
}

func copyRenamed(dst, src map[string]any, names map[string]string) {
	for from, to := range names {
		if v, ok := src[from]; ok {
			dst[to] = v
		}
	}
}
