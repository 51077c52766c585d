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
	"testing"
)

func TestClassifyErrorCode(t *testing.T) {
	tests := []struct {
		code int
		want ErrorCategory
	}{
		{code: -32700, want: ErrorCategoryStandard},
		{code: -32600, want: ErrorCategoryStandard},
		{code: -32603, want: ErrorCategoryStandard},
		{code: -32001, want: ErrorCategoryA2A},
		{code: -32007, want: ErrorCategoryA2A},
		{code: -32000, want: ErrorCategoryServerDefined},
		{code: -32050, want: ErrorCategoryServerDefined},
		{code: -32099, want: ErrorCategoryServerDefined},
		{code: -31401, want: ErrorCategoryAuth},
		{code: -31403, want: ErrorCategoryAuth},
		{code: -31400, want: ErrorCategoryInvalid},
		{code: -32100, want: ErrorCategoryInvalid},
		{code: 404, want: ErrorCategoryInvalid},
	}
	for _, tc := range tests {
		if got := ClassifyErrorCode(tc.code); got != tc.want {
			t.Errorf("ClassifyErrorCode(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestErrorPayload_Unwrap(t *testing.T) {
	var err error = fmt.Errorf("call failed: %w", NewErrorPayload(CodeTaskNotFound))
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("errors.Is(%v, ErrTaskNotFound) = false, want true", err)
	}
	if code, ok := CodeForError(err); !ok || code != CodeTaskNotFound {
		t.Fatalf("CodeForError() = (%d, %v), want (%d, true)", code, ok, CodeTaskNotFound)
	}

	serverErr := &ErrorPayload{Code: -32050, Message: "quota"}
	if !errors.Is(serverErr, ErrServerError) {
		t.Fatalf("errors.Is(%v, ErrServerError) = false, want true", serverErr)
	}
}

func TestCanonicalMessage(t *testing.T) {
	if got := CanonicalMessage(CodeTaskNotCancelable); got != "Task cannot be canceled" {
		t.Fatalf("CanonicalMessage(-32002) = %q", got)
	}
	if got := CanonicalMessage(12345); got != "" {
		t.Fatalf("CanonicalMessage(12345) = %q, want empty", got)
	}
}
