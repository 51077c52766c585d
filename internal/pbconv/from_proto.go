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
	"encoding/json"
	"fmt"

	"github.com/a2aproject/a2a-go/a2apb"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var marshalOpts = protojson.MarshalOptions{}

// ToMap renders a protobuf message as its protobuf JSON object.
func ToMap(m proto.Message) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	data, err := marshalOpts.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", m.ProtoReflect().Descriptor().FullName(), err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FromProtoSendMessageResponse converts an [a2apb.SendMessageResponse] to an A2A JSON task or message.
func FromProtoSendMessageResponse(resp *a2apb.SendMessageResponse) (map[string]any, error) {
	switch p := resp.GetPayload().(type) {
	case *a2apb.SendMessageResponse_Msg:
		return fromProto(p.Msg, NormalizeMessage)
	case *a2apb.SendMessageResponse_Task:
		return FromProtoTask(p.Task)
	default:
		return nil, fmt.Errorf("unsupported SendMessageResponse payload type: %T", p)
	}
}

// FromProtoStreamResponse converts an [a2apb.StreamResponse] to an A2A JSON event.
func FromProtoStreamResponse(resp *a2apb.StreamResponse) (map[string]any, error) {
	switch p := resp.GetPayload().(type) {
	case *a2apb.StreamResponse_Msg:
		return fromProto(p.Msg, NormalizeMessage)
	case *a2apb.StreamResponse_Task:
		return FromProtoTask(p.Task)
	case *a2apb.StreamResponse_StatusUpdate:
		return fromProto(p.StatusUpdate, NormalizeStatusUpdate)
	case *a2apb.StreamResponse_ArtifactUpdate:
		return fromProto(p.ArtifactUpdate, NormalizeArtifactUpdate)
	default:
		return nil, fmt.Errorf("unsupported StreamResponse payload type: %T", p)
	}
}

// FromProtoTask converts an [a2apb.Task] to an A2A JSON task.
func FromProtoTask(task *a2apb.Task) (map[string]any, error) {
	return fromProto(task, NormalizeTask)
}

// FromProtoListTasksResponse converts an [a2apb.ListTasksResponse] to an A2A JSON listing.
func FromProtoListTasksResponse(resp *a2apb.ListTasksResponse) (map[string]any, error) {
	return fromProto(resp, NormalizeListTasks)
}

// FromProtoTaskPushConfig converts an [a2apb.TaskPushNotificationConfig].
// taskID is used when the resource name does not identify the task.
func FromProtoTaskPushConfig(config *a2apb.TaskPushNotificationConfig, taskID string) (map[string]any, error) {
	m, err := ToMap(config)
	if err != nil {
		return nil, err
	}
	return NormalizePushConfig(m, taskID), nil
}

// FromProtoListTaskPushConfigResponse converts an [a2apb.ListTaskPushNotificationConfigResponse].
func FromProtoListTaskPushConfigResponse(resp *a2apb.ListTaskPushNotificationConfigResponse, taskID string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(resp.GetConfigs()))
	for _, c := range resp.GetConfigs() {
		m, err := FromProtoTaskPushConfig(c, taskID)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// FromProtoAgentCard converts an [a2apb.AgentCard] to its JSON object.
func FromProtoAgentCard(card *a2apb.AgentCard) (map[string]any, error) {
	return ToMap(card)
}

func fromProto(m proto.Message, normalize func(map[string]any) map[string]any) (map[string]any, error) {
	v, err := ToMap(m)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return normalize(v), nil
}
