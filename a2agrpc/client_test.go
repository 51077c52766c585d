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

package a2agrpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/a2aproject/a2a-go/a2apb"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/a2aclient"
)

type fakeAgent struct {
	a2apb.UnimplementedA2AServiceServer

	mu       sync.Mutex
	calls    int
	md       metadata.MD
	sendReq  *a2apb.SendMessageRequest
	err      error
	events   []*a2apb.StreamResponse
	block    bool
	configs  []*a2apb.TaskPushNotificationConfig
	deleted  string
	listReqs []*a2apb.ListTasksRequest
}

func (f *fakeAgent) record(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.md, _ = metadata.FromIncomingContext(ctx)
	if f.block {
		f.mu.Unlock()
		<-ctx.Done()
		f.mu.Lock()
		return ctx.Err()
	}
	return f.err
}

func completedTask(id string) *a2apb.Task {
	return &a2apb.Task{
		Id:        id,
		ContextId: "ctx-1",
		Status:    &a2apb.TaskStatus{State: a2apb.TaskState_TASK_STATE_COMPLETED},
	}
}

func (f *fakeAgent) SendMessage(ctx context.Context, req *a2apb.SendMessageRequest) (*a2apb.SendMessageResponse, error) {
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.sendReq = req
	f.mu.Unlock()
	return &a2apb.SendMessageResponse{Payload: &a2apb.SendMessageResponse_Task{Task: completedTask("task-1")}}, nil
}

func (f *fakeAgent) SendStreamingMessage(req *a2apb.SendMessageRequest, stream grpc.ServerStreamingServer[a2apb.StreamResponse]) error {
	if err := f.record(stream.Context()); err != nil {
		return err
	}
	for _, ev := range f.events {
		if err := stream.Send(ev); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeAgent) TaskSubscription(req *a2apb.TaskSubscriptionRequest, stream grpc.ServerStreamingServer[a2apb.StreamResponse]) error {
	if err := f.record(stream.Context()); err != nil {
		return err
	}
	return stream.Send(&a2apb.StreamResponse{Payload: &a2apb.StreamResponse_Task{Task: completedTask(req.GetName()[len("tasks/"):])}})
}

func (f *fakeAgent) GetTask(ctx context.Context, req *a2apb.GetTaskRequest) (*a2apb.Task, error) {
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return completedTask(req.GetName()[len("tasks/"):]), nil
}

func (f *fakeAgent) ListTasks(ctx context.Context, req *a2apb.ListTasksRequest) (*a2apb.ListTasksResponse, error) {
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.listReqs = append(f.listReqs, req)
	f.mu.Unlock()
	return &a2apb.ListTasksResponse{Tasks: []*a2apb.Task{completedTask("task-1")}}, nil
}

func (f *fakeAgent) ListTaskPushNotificationConfig(ctx context.Context, req *a2apb.ListTaskPushNotificationConfigRequest) (*a2apb.ListTaskPushNotificationConfigResponse, error) {
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &a2apb.ListTaskPushNotificationConfigResponse{Configs: f.configs}, nil
}

func (f *fakeAgent) DeleteTaskPushNotificationConfig(ctx context.Context, req *a2apb.DeleteTaskPushNotificationConfigRequest) (*emptypb.Empty, error) {
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.deleted = req.GetName()
	f.mu.Unlock()
	return &emptypb.Empty{}, nil
}

func (f *fakeAgent) GetAgentCard(ctx context.Context, req *a2apb.GetAgentCardRequest) (*a2apb.AgentCard, error) {
	if err := f.record(ctx); err != nil {
		return nil, err
	}
	return &a2apb.AgentCard{Name: "fake", ProtocolVersion: a2a.ProtocolVersion, PreferredTransport: string(a2a.TransportGRPC)}, nil
}

func startTestAgent(t *testing.T, agent *fakeAgent, cfg a2aclient.Config) *GRPCTransport {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	a2apb.RegisterA2AServiceServer(s, agent)
	go func() { _ = s.Serve(lis) }()

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient() error = %v", err)
	}
	t.Cleanup(func() {
		s.Stop()
		_ = conn.Close()
	})
	return NewGRPCTransportFromClient(a2apb.NewA2AServiceClient(conn), "grpc://bufnet", cfg)
}

var testConfig = a2aclient.Config{Timeout: 5 * time.Second}

func TestGRPCTransport_SendMessage(t *testing.T) {
	agent := &fakeAgent{}
	cfg := testConfig
	cfg.Headers = map[string]string{"Authorization": "Bearer secret"}
	transport := startTestAgent(t, agent, cfg)

	params := a2aclient.ServiceParams{}
	params.Append("X-Test-Run", "run-1")
	msg := a2a.NewTextMessage("hello")
	got, err := transport.SendMessage(t.Context(), params, &a2a.SendMessageRequest{Message: msg})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if got["kind"] != a2a.KindTask || got["id"] != "task-1" {
		t.Errorf("SendMessage() = %v, want task task-1", got)
	}
	status, _ := got["status"].(map[string]any)
	if status["state"] != string(a2a.TaskStateCompleted) {
		t.Errorf("SendMessage() state = %v, want %s", status["state"], a2a.TaskStateCompleted)
	}
	if got := agent.sendReq.GetRequest().GetMessageId(); got != msg["messageId"] {
		t.Errorf("agent got messageId %q, want %q", got, msg["messageId"])
	}
	if diff := cmp.Diff([]string{"Bearer secret"}, agent.md.Get("authorization")); diff != "" {
		t.Errorf("authorization metadata mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"run-1"}, agent.md.Get("x-test-run")); diff != "" {
		t.Errorf("x-test-run metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestGRPCTransport_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode int
		wantIs   error
	}{
		{
			name:     "not found",
			err:      status.Error(codes.NotFound, "no such task"),
			wantCode: a2a.CodeTaskNotFound,
			wantIs:   a2a.ErrTaskNotFound,
		},
		{
			name:     "unimplemented",
			err:      status.Error(codes.Unimplemented, "nope"),
			wantCode: a2a.CodeUnsupportedOperation,
			wantIs:   a2a.ErrUnsupportedOperation,
		},
		{
			name:     "invalid argument",
			err:      status.Error(codes.InvalidArgument, "bad id"),
			wantCode: a2a.CodeInvalidParams,
			wantIs:   a2a.ErrInvalidParams,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transport := startTestAgent(t, &fakeAgent{err: tc.err}, testConfig)

			_, err := transport.GetTask(t.Context(), nil, &a2a.GetTaskRequest{ID: "missing"})
			if err == nil {
				t.Fatal("GetTask() error = nil, want error")
			}
			if code, ok := a2aclient.ErrorCode(err); !ok || code != tc.wantCode {
				t.Errorf("ErrorCode() = %d, %v, want %d", code, ok, tc.wantCode)
			}
			if !errors.Is(err, tc.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", err, tc.wantIs)
			}
			te, ok := a2aclient.AsTransportError(err)
			if !ok || te.Transport != a2a.TransportGRPC {
				t.Errorf("AsTransportError() = %v, %v, want gRPC transport error", te, ok)
			}
		})
	}
}

func TestGRPCTransport_Timeout(t *testing.T) {
	transport := startTestAgent(t, &fakeAgent{block: true}, a2aclient.Config{Timeout: 50 * time.Millisecond})

	_, err := transport.GetTask(t.Context(), nil, &a2a.GetTaskRequest{ID: "slow"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("GetTask() error = %v, want context.DeadlineExceeded", err)
	}
	if _, ok := a2aclient.ErrorCode(err); ok {
		t.Errorf("timeout carries an A2A error code: %v", err)
	}
}

func TestGRPCTransport_SendStreamingMessage(t *testing.T) {
	agent := &fakeAgent{events: []*a2apb.StreamResponse{
		{Payload: &a2apb.StreamResponse_Task{Task: &a2apb.Task{
			Id:     "task-1",
			Status: &a2apb.TaskStatus{State: a2apb.TaskState_TASK_STATE_SUBMITTED},
		}}},
		{Payload: &a2apb.StreamResponse_StatusUpdate{StatusUpdate: &a2apb.TaskStatusUpdateEvent{
			TaskId: "task-1",
			Status: &a2apb.TaskStatus{State: a2apb.TaskState_TASK_STATE_COMPLETED},
			Final:  true,
		}}},
	}}
	transport := startTestAgent(t, agent, testConfig)

	var kinds []any
	for event, err := range transport.SendStreamingMessage(t.Context(), nil, &a2a.SendMessageRequest{Message: a2a.NewTextMessage("hi")}) {
		if err != nil {
			t.Fatalf("SendStreamingMessage() error = %v", err)
		}
		kinds = append(kinds, event["kind"])
	}
	if diff := cmp.Diff([]any{a2a.KindTask, a2a.KindStatusUpdate}, kinds); diff != "" {
		t.Errorf("event kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestGRPCTransport_ResubscribeTask(t *testing.T) {
	transport := startTestAgent(t, &fakeAgent{}, testConfig)

	var ids []any
	for event, err := range transport.ResubscribeTask(t.Context(), nil, &a2a.TaskIDRequest{ID: "task-9"}) {
		if err != nil {
			t.Fatalf("ResubscribeTask() error = %v", err)
		}
		ids = append(ids, event["id"])
	}
	if diff := cmp.Diff([]any{"task-9"}, ids); diff != "" {
		t.Errorf("resubscribed task ids mismatch (-want +got):\n%s", diff)
	}
}

func TestGRPCTransport_StreamError(t *testing.T) {
	transport := startTestAgent(t, &fakeAgent{err: status.Error(codes.NotFound, "gone")}, testConfig)

	var gotErr error
	for _, err := range transport.ResubscribeTask(t.Context(), nil, &a2a.TaskIDRequest{ID: "gone"}) {
		gotErr = err
	}
	if !errors.Is(gotErr, a2a.ErrTaskNotFound) {
		t.Errorf("ResubscribeTask() error = %v, want %v", gotErr, a2a.ErrTaskNotFound)
	}
}

func TestGRPCTransport_ListTasks(t *testing.T) {
	agent := &fakeAgent{}
	transport := startTestAgent(t, agent, testConfig)

	got, err := transport.ListTasks(t.Context(), nil, &a2a.ListTasksRequest{ContextID: "ctx-1", PageSize: 10})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	tasks, _ := got["tasks"].([]any)
	if len(tasks) != 1 {
		t.Errorf("ListTasks() tasks = %v, want 1 task", got["tasks"])
	}
	if len(agent.listReqs) != 1 || agent.listReqs[0].GetContextId() != "ctx-1" || agent.listReqs[0].GetPageSize() != 10 {
		t.Errorf("agent got requests %v", agent.listReqs)
	}

	_, err = transport.ListTasks(t.Context(), nil, &a2a.ListTasksRequest{PageSize: 500})
	if code, _ := a2aclient.ErrorCode(err); code != a2a.CodeInvalidParams {
		t.Errorf("ListTasks(pageSize=500) error = %v, want code %d", err, a2a.CodeInvalidParams)
	}
	if agent.calls != 1 {
		t.Errorf("agent got %d calls, want the invalid request rejected locally", agent.calls)
	}
}

func TestGRPCTransport_PushConfigs(t *testing.T) {
	agent := &fakeAgent{configs: []*a2apb.TaskPushNotificationConfig{{
		Name:                   "tasks/task-1/pushNotificationConfigs/cfg-1",
		PushNotificationConfig: &a2apb.PushNotificationConfig{Id: "cfg-1", Url: "https://example.com/hook"},
	}}}
	transport := startTestAgent(t, agent, testConfig)

	configs, err := transport.ListTaskPushConfigs(t.Context(), nil, &a2a.TaskIDRequest{ID: "task-1"})
	if err != nil {
		t.Fatalf("ListTaskPushConfigs() error = %v", err)
	}
	if len(configs) != 1 || configs[0]["taskId"] != "task-1" {
		t.Errorf("ListTaskPushConfigs() = %v, want one config of task-1", configs)
	}

	if err := transport.DeleteTaskPushConfig(t.Context(), nil, &a2a.PushConfigRequest{TaskID: "task-1", ConfigID: "cfg-1"}); err != nil {
		t.Fatalf("DeleteTaskPushConfig() error = %v", err)
	}
	if agent.deleted != "tasks/task-1/pushNotificationConfigs/cfg-1" {
		t.Errorf("agent deleted %q", agent.deleted)
	}
}

func TestGRPCTransport_AgentCard(t *testing.T) {
	transport := startTestAgent(t, &fakeAgent{}, testConfig)

	for name, get := range map[string]func(context.Context, a2aclient.ServiceParams) (map[string]any, error){
		"GetAgentCard":                 transport.GetAgentCard,
		"GetAuthenticatedExtendedCard": transport.GetAuthenticatedExtendedCard,
	} {
		card, err := get(t.Context(), nil)
		if err != nil {
			t.Fatalf("%s() error = %v", name, err)
		}
		if card["name"] != "fake" || card["protocolVersion"] != a2a.ProtocolVersion {
			t.Errorf("%s() = %v", name, card)
		}
	}
}

func TestNewGRPCTransport(t *testing.T) {
	transport, err := NewGRPCTransport("grpcs://agent.example.com", a2aclient.Config{})
	if err != nil {
		t.Fatalf("NewGRPCTransport() error = %v", err)
	}
	defer func() { _ = transport.Close() }()

	info := transport.Info()
	if info["use_tls"] != true || info["target"] != "grpcs://agent.example.com" {
		t.Errorf("Info() = %v", info)
	}
	if info["supports_bidirectional"] != false {
		t.Errorf("Info() supports_bidirectional = %v, want false", info["supports_bidirectional"])
	}
	if got := transport.WireMethods()[a2a.OpResubscribeTask]; got != "TaskSubscription" {
		t.Errorf("WireMethods()[resubscribe] = %q, want TaskSubscription", got)
	}
	if !transport.SupportsMethod(a2a.OpListTasks) {
		t.Error("SupportsMethod(list_tasks) = false, want true")
	}

	if err := transport.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := transport.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if client, err := transport.service(); err != nil || client == nil {
		t.Errorf("service() after Close() = %v, %v, want a new connection", client, err)
	}

	if _, err := NewGRPCTransport("ftp://agent.example.com", a2aclient.Config{}); err == nil {
		t.Error("NewGRPCTransport(ftp://) error = nil, want error")
	}
}
