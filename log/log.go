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

// Package log provides context-scoped structured logging on top of log/slog.
// A logger attached to a context with AttachLogger is used by every call
// made with that context; slog.Default() is used otherwise.
package log

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

type loggerKey struct{}

// AttachLogger returns a copy of ctx carrying logger.
func AttachLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom returns the logger attached to ctx or slog.Default().
func LoggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// With attaches a logger enriched with args to ctx.
func With(ctx context.Context, args ...any) context.Context {
	return AttachLogger(ctx, LoggerFrom(ctx).With(args...))
}

// Debug logs at slog.LevelDebug.
func Debug(ctx context.Context, msg string, args ...any) {
	Log(ctx, slog.LevelDebug, msg, args...)
}

// Info logs at slog.LevelInfo.
func Info(ctx context.Context, msg string, args ...any) {
	Log(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs at slog.LevelWarn.
func Warn(ctx context.Context, msg string, args ...any) {
	Log(ctx, slog.LevelWarn, msg, args...)
}

// Error logs err at slog.LevelError under the "error" key.
func Error(ctx context.Context, msg string, err error, args ...any) {
	Log(ctx, slog.LevelError, msg, append([]any{"error", err}, args...)...)
}

// Log emits a record with the caller's source position.
func Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	logger := LoggerFrom(ctx)
	if !logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip Callers, Log and the level helper
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = logger.Handler().Handle(ctx, record)
}
