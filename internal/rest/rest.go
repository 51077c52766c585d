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

// Package rest provides REST route expansion and error mapping for A2A.
package rest

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"github.com/a2aproject/a2a-tck-go/internal/pathtemplate"
)

// ContentProblemJSON is the RFC 7807 media type.
const ContentProblemJSON = "application/problem+json"

var (
	templatesOnce sync.Once
	templates     map[a2a.Operation]*pathtemplate.Template
)

func routeTemplates() map[a2a.Operation]*pathtemplate.Template {
	templatesOnce.Do(func() {
		templates = map[a2a.Operation]*pathtemplate.Template{}
		for _, m := range a2a.Methods() {
			if !m.AppliesTo(a2a.TransportREST) {
				continue
			}
			_, path := m.RESTRoute()
			templates[m.Operation] = pathtemplate.MustNew(path)
		}
	})
	return templates
}

// Route returns the HTTP verb and expanded path of op. Placeholder values are
// passed in vars, keyed by their template names (id, configId).
func Route(op a2a.Operation, vars map[string]string) (string, string, error) {
	tpl, ok := routeTemplates()[op]
	if !ok {
		return "", "", fmt.Errorf("no REST route for %s", op)
	}
	path, err := tpl.Expand(vars)
	if err != nil {
		return "", "", err
	}
	verb, _ := a2a.MustLookupMethod(op).RESTRoute()
	return verb, path, nil
}

// Error represents a problem detail as defined in RFC 7807.
type Error struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	TaskID    string `json:"taskId,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type problemType struct {
	code   int
	status int
	uri    string
	title  string
}

var problemTypes = []problemType{
	{a2a.CodeTaskNotFound, http.StatusNotFound, "https://a2a-protocol.org/errors/task-not-found", "Task Not Found"},
	{a2a.CodeTaskNotCancelable, http.StatusConflict, "https://a2a-protocol.org/errors/task-not-cancelable", "Task Not Cancelable"},
	{a2a.CodePushNotificationNotSupported, http.StatusBadRequest, "https://a2a-protocol.org/errors/push-notification-not-supported", "Push Notification Not Supported"},
	{a2a.CodeUnsupportedOperation, http.StatusBadRequest, "https://a2a-protocol.org/errors/unsupported-operation", "Unsupported Operation"},
	{a2a.CodeContentTypeNotSupported, http.StatusUnsupportedMediaType, "https://a2a-protocol.org/errors/content-type-not-supported", "Content Type Not Supported"},
	{a2a.CodeInvalidAgentResponse, http.StatusBadGateway, "https://a2a-protocol.org/errors/invalid-agent-response", "Invalid Agent Response"},
	{a2a.CodeExtendedCardNotConfigured, http.StatusBadRequest, "https://a2a-protocol.org/errors/extended-agent-card-not-configured", "Extended Agent Card Not Configured"},
	{a2a.CodeParseError, http.StatusBadRequest, "https://a2a-protocol.org/errors/parse-error", "Parse Error"},
	{a2a.CodeInvalidRequest, http.StatusBadRequest, "https://a2a-protocol.org/errors/invalid-request", "Invalid Request"},
	{a2a.CodeInvalidParams, http.StatusBadRequest, "https://a2a-protocol.org/errors/invalid-params", "Invalid Params"},
	{a2a.CodeMethodNotFound, http.StatusNotImplemented, "https://a2a-protocol.org/errors/method-not-found", "Method Not Found"},
	{a2a.CodeInternalError, http.StatusInternalServerError, "https://a2a-protocol.org/errors/internal-error", "Internal Server Error"},
}

// Error type names servers put in the "error" or "type" member. Order matters:
// InvalidParamsError is checked last since other names may embed it.
var errorTypeNames = []struct {
	name string
	code int
}{
	{"TaskNotFoundError", a2a.CodeTaskNotFound},
	{"TaskNotCancelableError", a2a.CodeTaskNotCancelable},
	{"PushNotificationNotSupportedError", a2a.CodePushNotificationNotSupported},
	{"UnsupportedOperationError", a2a.CodeUnsupportedOperation},
	{"ContentTypeNotSupportedError", a2a.CodeContentTypeNotSupported},
	{"InvalidAgentResponseError", a2a.CodeInvalidAgentResponse},
	{"AuthenticatedExtendedCardNotConfiguredError", a2a.CodeExtendedCardNotConfigured},
	{"InvalidParamsError", a2a.CodeInvalidParams},
}

var statusToCode = map[int]int{
	http.StatusNotFound:             a2a.CodeTaskNotFound,
	http.StatusBadRequest:           a2a.CodeInvalidParams,
	http.StatusUnprocessableEntity:  a2a.CodeInvalidParams,
	http.StatusNotImplemented:       a2a.CodeMethodNotFound,
	http.StatusConflict:             a2a.CodeTaskNotCancelable,
	http.StatusUnsupportedMediaType: a2a.CodeContentTypeNotSupported,
	http.StatusUnauthorized:         a2a.CodeUnauthenticated,
	http.StatusForbidden:            a2a.CodeUnauthorized,
}

// ToErrorPayload maps a non-2xx REST response to an A2A error payload. It
// tries the problem+json type URI first, then an error type name in the body,
// then the HTTP status. The raw body is preserved in Data.
func ToErrorPayload(status int, contentType string, body []byte) *a2a.ErrorPayload {
	var doc map[string]any
	_ = json.Unmarshal(body, &doc)

	data := map[string]any{"httpStatus": status}
	if doc != nil {
		data["body"] = doc
	} else if len(body) > 0 {
		data["body"] = string(body)
	}

	if code, ok := codeFromProblem(contentType, doc); ok {
		return withData(code, data)
	}
	if code, ok := codeFromErrorType(doc); ok {
		return withData(code, data)
	}
	if code, ok := statusToCode[status]; ok {
		return withData(code, data)
	}
	payload := withData(a2a.CodeInternalError, data)
	if msg := messageOf(doc); msg != "" {
		payload.Message = "Internal server error: " + msg
	} else {
		payload.Message = fmt.Sprintf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
	}
	return payload
}

// ProblemFor builds the RFC 7807 document a conforming server returns for code.
func ProblemFor(code int, detail string) *Error {
	for _, p := range problemTypes {
		if p.code == code {
			return &Error{Type: p.uri, Title: p.title, Status: p.status, Detail: detail}
		}
	}
	return &Error{
		Type:   "https://a2a-protocol.org/errors/internal-error",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: detail,
	}
}

func withData(code int, data map[string]any) *a2a.ErrorPayload {
	p := a2a.NewErrorPayload(code)
	p.Data = data
	return p
}

func codeFromProblem(contentType string, doc map[string]any) (int, bool) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType != ContentProblemJSON || doc == nil {
		return 0, false
	}
	typeURI, _ := doc["type"].(string)
	for _, p := range problemTypes {
		if p.uri == typeURI {
			return p.code, true
		}
	}
	return 0, false
}

func codeFromErrorType(doc map[string]any) (int, bool) {
	if doc == nil {
		return 0, false
	}
	var names []string
	for _, key := range []string{"error", "type", "code"} {
		switch v := doc[key].(type) {
		case string:
			names = append(names, v)
		case map[string]any:
			for _, inner := range []string{"type", "name", "code"} {
				if s, ok := v[inner].(string); ok {
					names = append(names, s)
				}
			}
		}
	}
	for _, name := range names {
		for _, et := range errorTypeNames {
			if strings.Contains(name, et.name) {
				return et.code, true
			}
		}
	}
	return 0, false
}

func messageOf(doc map[string]any) string {
	for _, key := range []string{"message", "detail"} {
		if s, ok := doc[key].(string); ok && s != "" {
			return s
		}
	}
	if inner, ok := doc["error"].(map[string]any); ok {
		if s, ok := inner["message"].(string); ok {
			return s
		}
	}
	return ""
}
