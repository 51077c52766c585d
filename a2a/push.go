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

// PushConfig defines the configuration for setting up push notifications for task updates.
type PushConfig struct {
	// ID is an optional unique ID for the push notification configuration, set by the client
	// to support multiple notification callbacks.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// URL is the callback URL where the agent should send push notifications.
	URL string `json:"url" yaml:"url"`

	// Token is an optional unique token for this task or session to validate incoming push notifications.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Auth is an optional authentication details for the agent to use when calling the
	// notification URL.
	Auth *PushAuthInfo `json:"authentication,omitempty" yaml:"authentication,omitempty"`
}

// PushAuthInfo defines authentication details for a push notification endpoint.
type PushAuthInfo struct {
	// Schemes lists supported authentication schemes (e.g., 'Basic', 'Bearer').
	Schemes []string `json:"schemes" yaml:"schemes"`

	// Credentials is an optional credentials required by the push notification endpoint.
	Credentials string `json:"credentials,omitempty" yaml:"credentials,omitempty"`
}

// ToMap returns the config in A2A JSON shape.
func (c PushConfig) ToMap() map[string]any {
	m := map[string]any{"url": c.URL}
	if c.ID != "" {
		m["id"] = c.ID
	}
	if c.Token != "" {
		m["token"] = c.Token
	}
	if c.Auth != nil {
		schemes := make([]any, 0, len(c.Auth.Schemes))
		for _, s := range c.Auth.Schemes {
			schemes = append(schemes, s)
		}
		auth := map[string]any{"schemes": schemes}
		if c.Auth.Credentials != "" {
			auth["credentials"] = c.Auth.Credentials
		}
		m["authentication"] = auth
	}
	return m
}

// SetPushConfigRequest carries the parameters of tasks/pushNotificationConfig/set.
type SetPushConfigRequest struct {
	TaskID string
	Config PushConfig
}

// Params returns the JSON-RPC params object.
func (r *SetPushConfigRequest) Params() map[string]any {
	return map[string]any{
		"taskId":                 r.TaskID,
		"pushNotificationConfig": r.Config.ToMap(),
	}
}

// PushConfigRequest addresses a single push notification configuration of a task.
type PushConfigRequest struct {
	TaskID   string
	ConfigID string
}

// Params returns the JSON-RPC params object.
func (r *PushConfigRequest) Params() map[string]any {
	return map[string]any{
		"id":                       r.TaskID,
		"pushNotificationConfigId": r.ConfigID,
	}
}
