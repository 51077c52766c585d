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
	"errors"
	"fmt"
)

// https://a2a-protocol.org/v0.3.0/specification/#8-error-handling
var (
	// ErrParseError indicates that server received payload that was not well-formed.
	ErrParseError = errors.New("parse error")

	// ErrInvalidRequest indicates that server received a well-formed payload which was not a valid request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMethodNotFound indicates that a method does not exist or is not supported.
	ErrMethodNotFound = errors.New("method not found")

	// ErrInvalidParams indicates that params provided for the method were invalid.
	ErrInvalidParams = errors.New("invalid params")

	// ErrInternalError indicates an unexpected error occurred on the server during processing.
	ErrInternalError = errors.New("internal error")

	// ErrServerError is reserved for implementation-defined server-errors.
	ErrServerError = errors.New("server error")

	// ErrTaskNotFound indicates that a task with the provided ID was not found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotCancelable indicates that the task was in a state where it could not be canceled.
	ErrTaskNotCancelable = errors.New("task cannot be canceled")

	// ErrPushNotificationNotSupported indicates that the agent does not support push notifications.
	ErrPushNotificationNotSupported = errors.New("push notification is not supported")

	// ErrUnsupportedOperation indicates that the requested operation is not supported by the agent.
	ErrUnsupportedOperation = errors.New("this operation is not supported")

	// ErrUnsupportedContentType indicates an incompatibility between the requested
	// content types and the agent's capabilities.
	ErrUnsupportedContentType = errors.New("incompatible content types")

	// ErrInvalidAgentResponse indicates that the agent returned a response that
	// does not conform to the specification for the current method.
	ErrInvalidAgentResponse = errors.New("invalid agent response type")

	// ErrExtendedCardNotConfigured indicates that the agent does not have an
	// Authenticated Extended Card configured.
	ErrExtendedCardNotConfigured = errors.New("authenticated extended card not configured")

	// ErrUnauthenticated indicates that the request does not have valid authentication credentials.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnauthorized indicates that the caller does not have permission to execute the specified operation.
	ErrUnauthorized = errors.New("permission denied")
)

// Numeric error codes shared by every transport once mapped into the
// JSON-RPC code space.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeTaskNotFound                 = -32001
	CodeTaskNotCancelable            = -32002
	CodePushNotificationNotSupported = -32003
	CodeUnsupportedOperation         = -32004
	CodeContentTypeNotSupported      = -32005
	CodeInvalidAgentResponse         = -32006
	CodeExtendedCardNotConfigured    = -32007

	CodeUnauthenticated = -31401
	CodeUnauthorized    = -31403

	// Bounds of the implementation-defined server error range.
	CodeServerErrorMin = -32099
	CodeServerErrorMax = -32000
)

var codeToError = map[int]error{
	CodeParseError:                   ErrParseError,
	CodeInvalidRequest:               ErrInvalidRequest,
	CodeMethodNotFound:               ErrMethodNotFound,
	CodeInvalidParams:                ErrInvalidParams,
	CodeInternalError:                ErrInternalError,
	CodeTaskNotFound:                 ErrTaskNotFound,
	CodeTaskNotCancelable:            ErrTaskNotCancelable,
	CodePushNotificationNotSupported: ErrPushNotificationNotSupported,
	CodeUnsupportedOperation:         ErrUnsupportedOperation,
	CodeContentTypeNotSupported:      ErrUnsupportedContentType,
	CodeInvalidAgentResponse:         ErrInvalidAgentResponse,
	CodeExtendedCardNotConfigured:    ErrExtendedCardNotConfigured,
	CodeUnauthenticated:              ErrUnauthenticated,
	CodeUnauthorized:                 ErrUnauthorized,
}

var codeToMessage = map[int]string{
	CodeParseError:                   "Parse error",
	CodeInvalidRequest:               "Invalid Request",
	CodeMethodNotFound:               "Method not found",
	CodeInvalidParams:                "Invalid method parameters",
	CodeInternalError:                "Internal error",
	CodeTaskNotFound:                 "Task not found",
	CodeTaskNotCancelable:            "Task cannot be canceled",
	CodePushNotificationNotSupported: "Push Notification is not supported",
	CodeUnsupportedOperation:         "This operation is not supported",
	CodeContentTypeNotSupported:      "Incompatible content types",
	CodeInvalidAgentResponse:         "Invalid agent response type",
	CodeExtendedCardNotConfigured:    "Authenticated Extended Card not configured",
	CodeUnauthenticated:              "Unauthenticated",
	CodeUnauthorized:                 "Permission denied",
}

// ErrorForCode returns the sentinel error for a known code. Codes in the
// server-defined range map to ErrServerError, everything else to ErrInternalError.
func ErrorForCode(code int) error {
	if err, ok := codeToError[code]; ok {
		return err
	}
	if code >= CodeServerErrorMin && code <= CodeServerErrorMax {
		return ErrServerError
	}
	return ErrInternalError
}

// CodeForError returns the numeric code for a sentinel found in err's chain.
func CodeForError(err error) (int, bool) {
	for code, sentinel := range codeToError {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	if errors.Is(err, ErrServerError) {
		return CodeServerErrorMax, true
	}
	return 0, false
}

// CanonicalMessage returns the message the protocol associates with code,
// or an empty string when there is none.
func CanonicalMessage(code int) string {
	return codeToMessage[code]
}

// ErrorCategory groups error codes the way conformance reports present them.
// ErrorCategoryAuth holds the codes clients map HTTP 401/403 and the matching
// gRPC statuses to.
type ErrorCategory string

const (
	ErrorCategoryStandard      ErrorCategory = "standard_jsonrpc"
	ErrorCategoryA2A           ErrorCategory = "a2a_specific"
	ErrorCategoryServerDefined ErrorCategory = "server_defined"
	ErrorCategoryAuth          ErrorCategory = "authentication"
	ErrorCategoryInvalid       ErrorCategory = "invalid"
)

// ClassifyErrorCode reports which range code belongs to.
func ClassifyErrorCode(code int) ErrorCategory {
	switch {
	case code >= CodeInternalError && code <= CodeInvalidRequest, code == CodeParseError:
		return ErrorCategoryStandard
	case code <= CodeTaskNotFound && code >= CodeExtendedCardNotConfigured:
		return ErrorCategoryA2A
	case code >= CodeServerErrorMin && code <= CodeServerErrorMax:
		return ErrorCategoryServerDefined
	case code == CodeUnauthenticated, code == CodeUnauthorized:
		return ErrorCategoryAuth
	default:
		return ErrorCategoryInvalid
	}
}

// ErrorPayload is a protocol error reported by the SUT, expressed in the
// JSON-RPC code space regardless of the transport it arrived on.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewErrorPayload creates a payload for code using its canonical message.
func NewErrorPayload(code int) *ErrorPayload {
	return &ErrorPayload{Code: code, Message: CanonicalMessage(code)}
}

func (p *ErrorPayload) Error() string {
	return fmt.Sprintf("error %d: %s", p.Code, p.Message)
}

// Unwrap exposes the sentinel matching the payload code so errors.Is works
// across transports.
func (p *ErrorPayload) Unwrap() error {
	return ErrorForCode(p.Code)
}

// ToMap returns the payload in the shape of a JSON-RPC error object.
func (p *ErrorPayload) ToMap() map[string]any {
	m := map[string]any{"code": p.Code, "message": p.Message}
	if p.Data != nil {
		m["data"] = p.Data
	}
	return m
}
