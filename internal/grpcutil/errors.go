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

// Package grpcutil provides gRPC utility functions for A2A.
package grpcutil

import (
	"strings"

	"github.com/a2aproject/a2a-tck-go/a2a"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var codeMappings = map[codes.Code]int{
	codes.NotFound:           a2a.CodeTaskNotFound,
	codes.FailedPrecondition: a2a.CodeTaskNotCancelable,
	codes.Unimplemented:      a2a.CodeUnsupportedOperation,
	codes.InvalidArgument:    a2a.CodeInvalidParams,
	codes.Internal:           a2a.CodeInternalError,
	codes.Unauthenticated:    a2a.CodeUnauthenticated,
	codes.PermissionDenied:   a2a.CodeUnauthorized,
}

// ErrorInfo reasons take precedence over the status code, since one status
// code covers several A2A errors.
var reasonMappings = map[string]int{
	"TASK_NOT_FOUND":                             a2a.CodeTaskNotFound,
	"TASK_NOT_CANCELABLE":                        a2a.CodeTaskNotCancelable,
	"PUSH_NOTIFICATION_NOT_SUPPORTED":            a2a.CodePushNotificationNotSupported,
	"UNSUPPORTED_OPERATION":                      a2a.CodeUnsupportedOperation,
	"CONTENT_TYPE_NOT_SUPPORTED":                 a2a.CodeContentTypeNotSupported,
	"INVALID_AGENT_RESPONSE":                     a2a.CodeInvalidAgentResponse,
	"AUTHENTICATED_EXTENDED_CARD_NOT_CONFIGURED": a2a.CodeExtendedCardNotConfigured,
	"EXTENDED_AGENT_CARD_NOT_CONFIGURED":         a2a.CodeExtendedCardNotConfigured,
	"METHOD_NOT_FOUND":                           a2a.CodeMethodNotFound,
	"INVALID_PARAMS":                             a2a.CodeInvalidParams,
	"INVALID_REQUEST":                            a2a.CodeInvalidRequest,
}

// ToErrorPayload translates a gRPC status error into an A2A error payload.
// The boolean is false when err carries no gRPC status, e.g. a dial failure
// wrapped by the caller. Status details are exposed in Data: Struct details
// are merged and ErrorInfo is reported under "errorInfo".
func ToErrorPayload(err error) (*a2a.ErrorPayload, bool) {
	if err == nil {
		return nil, false
	}
	s, ok := status.FromError(err)
	if !ok {
		return nil, false
	}
	if s.Code() == codes.Unavailable || s.Code() == codes.DeadlineExceeded || s.Code() == codes.Canceled {
		// Transport level conditions, not protocol errors.
		return nil, false
	}

	code, known := codeMappings[s.Code()]
	if !known {
		code = a2a.CodeInternalError
	}

	data := map[string]any{"grpcCode": s.Code().String()}
	for _, d := range s.Details() {
		switch detail := d.(type) {
		case *structpb.Struct:
			for k, v := range detail.AsMap() {
				data[k] = v
			}
		case *errdetails.ErrorInfo:
			data["errorInfo"] = map[string]any{
				"reason":   detail.GetReason(),
				"domain":   detail.GetDomain(),
				"metadata": detail.GetMetadata(),
			}
			if c, ok := reasonMappings[strings.ToUpper(detail.GetReason())]; ok {
				code = c
			}
		}
	}

	msg := s.Message()
	if msg == "" {
		msg = a2a.CanonicalMessage(code)
	}
	return &a2a.ErrorPayload{Code: code, Message: msg, Data: data}, true
}

// StatusCode returns the gRPC code of err, or codes.Unknown when err is not a status error.
func StatusCode(err error) codes.Code {
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Unknown
}
