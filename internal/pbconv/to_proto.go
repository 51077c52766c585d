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
	"github.com/a2aproject/a2a-tck-go/a2a"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

var unmarshalOpts = protojson.UnmarshalOptions{DiscardUnknown: true}

func toProtoMap(meta map[string]any) (*structpb.Struct, error) {
	if meta == nil {
		return nil, nil
	}
	s, err := structpb.NewStruct(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to convert metadata to proto struct: %w", err)
	}
	return s, nil
}

// fromMap fills dst from its protobuf JSON representation.
func fromMap(src map[string]any, dst proto.Message) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return unmarshalOpts.Unmarshal(data, dst)
}

// ToProtoMessage converts an A2A JSON message into an [a2apb.Message].
func ToProtoMessage(msg map[string]any) (*a2apb.Message, error) {
	if msg == nil {
		return nil, nil
	}
	pMsg := &a2apb.Message{}
	if err := fromMap(ToProtoJSONMessage(msg, "parts"), pMsg); err != nil {
		return nil, fmt.Errorf("failed to convert message: %w", err)
	}
	return pMsg, nil
}

func toProtoPushConfig(config *a2a.PushConfig) *a2apb.PushNotificationConfig {
	if config == nil {
		return nil
	}
	pConf := &a2apb.PushNotificationConfig{
		Id:    config.ID,
		Url:   config.URL,
		Token: config.Token,
	}
	if config.Auth != nil {
		pConf.Authentication = &a2apb.AuthenticationInfo{
			Schemes:     config.Auth.Schemes,
			Credentials: config.Auth.Credentials,
		}
	}
	return pConf
}

func toProtoSendMessageConfig(config map[string]any) (*a2apb.SendMessageConfiguration, error) {
	if config == nil {
		return nil, nil
	}
	pConf := &a2apb.SendMessageConfiguration{}
	if err := fromMap(ToProtoJSONConfiguration(config), pConf); err != nil {
		return nil, fmt.Errorf("failed to convert send configuration: %w", err)
	}
	return pConf, nil
}

// ToProtoSendMessageRequest converts a [a2a.SendMessageRequest] to a [a2apb.SendMessageRequest].
func ToProtoSendMessageRequest(req *a2a.SendMessageRequest) (*a2apb.SendMessageRequest, error) {
	if req == nil {
		return nil, nil
	}
	pMsg, err := ToProtoMessage(req.Message)
	if err != nil {
		return nil, err
	}
	pConf, err := toProtoSendMessageConfig(req.Configuration)
	if err != nil {
		return nil, err
	}
	pMeta, err := toProtoMap(req.Metadata)
	if err != nil {
		return nil, err
	}
	return &a2apb.SendMessageRequest{
		Request:       pMsg,
		Configuration: pConf,
		Metadata:      pMeta,
	}, nil
}

// ToProtoGetTaskRequest converts a [a2a.GetTaskRequest] to a [a2apb.GetTaskRequest].
func ToProtoGetTaskRequest(req *a2a.GetTaskRequest) *a2apb.GetTaskRequest {
	pReq := &a2apb.GetTaskRequest{Name: MakeTaskName(req.ID)}
	if req.HistoryLength != nil {
		pReq.HistoryLength = int32(*req.HistoryLength)
	}
	return pReq
}

// ToProtoCancelTaskRequest builds an [a2apb.CancelTaskRequest].
func ToProtoCancelTaskRequest(req *a2a.TaskIDRequest) *a2apb.CancelTaskRequest {
	return &a2apb.CancelTaskRequest{Name: MakeTaskName(req.ID)}
}

// ToProtoTaskSubscriptionRequest builds an [a2apb.TaskSubscriptionRequest].
func ToProtoTaskSubscriptionRequest(req *a2a.TaskIDRequest) *a2apb.TaskSubscriptionRequest {
	return &a2apb.TaskSubscriptionRequest{Name: MakeTaskName(req.ID)}
}

// ToProtoListTasksRequest converts a [a2a.ListTasksRequest] to a [a2apb.ListTasksRequest].
func ToProtoListTasksRequest(req *a2a.ListTasksRequest) *a2apb.ListTasksRequest {
	pReq := &a2apb.ListTasksRequest{
		ContextId:        req.ContextID,
		PageSize:         int32(req.PageSize),
		PageToken:        req.PageToken,
		IncludeArtifacts: req.IncludeArtifacts,
	}
	if req.Status != "" {
		pReq.Status = a2apb.TaskState(a2apb.TaskState_value[ToProtoTaskStateName(req.Status)])
	}
	if req.HistoryLength != nil {
		pReq.HistoryLength = int32(*req.HistoryLength)
	}
	if !req.LastUpdatedAfter.IsZero() {
		pReq.LastUpdatedTime = timestamppb.New(req.LastUpdatedAfter)
	}
	return pReq
}

// ToProtoCreateTaskPushConfigRequest converts a [a2a.SetPushConfigRequest] to a [a2apb.CreateTaskPushNotificationConfigRequest].
func ToProtoCreateTaskPushConfigRequest(req *a2a.SetPushConfigRequest) *a2apb.CreateTaskPushNotificationConfigRequest {
	config := &a2apb.TaskPushNotificationConfig{PushNotificationConfig: toProtoPushConfig(&req.Config)}
	if req.Config.ID != "" {
		config.Name = MakeConfigName(req.TaskID, req.Config.ID)
	}
	return &a2apb.CreateTaskPushNotificationConfigRequest{
		Parent:   MakeTaskName(req.TaskID),
		ConfigId: req.Config.ID,
		Config:   config,
	}
}

// ToProtoGetTaskPushConfigRequest builds an [a2apb.GetTaskPushNotificationConfigRequest].
func ToProtoGetTaskPushConfigRequest(req *a2a.PushConfigRequest) *a2apb.GetTaskPushNotificationConfigRequest {
	return &a2apb.GetTaskPushNotificationConfigRequest{Name: MakeConfigName(req.TaskID, req.ConfigID)}
}

// ToProtoDeleteTaskPushConfigRequest builds an [a2apb.DeleteTaskPushNotificationConfigRequest].
func ToProtoDeleteTaskPushConfigRequest(req *a2a.PushConfigRequest) *a2apb.DeleteTaskPushNotificationConfigRequest {
	return &a2apb.DeleteTaskPushNotificationConfigRequest{Name: MakeConfigName(req.TaskID, req.ConfigID)}
}

// ToProtoListTaskPushConfigRequest builds an [a2apb.ListTaskPushNotificationConfigRequest].
func ToProtoListTaskPushConfigRequest(taskID string) *a2apb.ListTaskPushNotificationConfigRequest {
	return &a2apb.ListTaskPushNotificationConfigRequest{Parent: MakeTaskName(taskID)}
}
