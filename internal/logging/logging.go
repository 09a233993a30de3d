// Copyright 2025 The inedox-git authors
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
//
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	CtxLogger   = CtxLoggerType("logger")
	CtxLevelVar = CtxLoggerType("logLevel")
	CtxHandler  = CtxLoggerType("textHandler")
	CtxCloser   = CtxLoggerType("closer")
)

type CtxLoggerType string

// ReformatHandler renders records as "TIMESTAMP LEVEL "msg" k=v ...", one
// line per record, onto Writer. Inner carries the level gate.
type ReformatHandler struct {
	Inner  slog.Handler
	Writer io.Writer
}

func (h *ReformatHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.Inner.Enabled(ctx, lvl)
}

func (h *ReformatHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.Format("2006-01-02T15:04:05Z07:00")
	level := strings.ToUpper(r.Level.String())
	msg := fmt.Sprintf("%q", r.Message) // quoted message

	attrs := ""
	r.Attrs(func(a slog.Attr) bool {
		attrs += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})

	fmt.Fprintf(h.Writer, "%s %s %s%s\n", ts, level, msg, attrs)
	return nil
}

func (h *ReformatHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ReformatHandler{Inner: h.Inner.WithAttrs(attrs), Writer: h.Writer}
}

func (h *ReformatHandler) WithGroup(name string) slog.Handler {
	return &ReformatHandler{Inner: h.Inner.WithGroup(name), Writer: h.Writer}
}

func ParseLevel(lvl string) slog.Level {
	switch lvl {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		// default if unknown
		return slog.LevelInfo
	}
}

// NewNoopLogger discards everything. Placeholder until the CLI wires the
// real handler into the command context.
func NewNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FromContext returns the logger a command stored in ctx, or nil.
func FromContext(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(CtxLogger).(*slog.Logger)
	if !ok {
		return nil
	}
	return logger
}
