// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/olegiv/studiosite/internal/model"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

type loggedEvent struct {
	level, category, message string
	metadata                 map[string]any
}

type memoryWriter struct {
	mu     sync.Mutex
	events []loggedEvent
	logger *slog.Logger // logs on every write when set, like a failing store would
}

func (w *memoryWriter) Log(ctx context.Context, level, category, message string, metadata map[string]any) error {
	w.mu.Lock()
	w.events = append(w.events, loggedEvent{level, category, message, metadata})
	w.mu.Unlock()
	if w.logger != nil {
		w.logger.ErrorContext(ctx, "failed to log event")
	}
	return nil
}

func (w *memoryWriter) all() []loggedEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]loggedEvent(nil), w.events...)
}

func TestEventLogHandler_Levels(t *testing.T) {
	tests := []struct {
		name      string
		min       slog.Level
		log       func(*slog.Logger)
		wantLevel string
	}{
		{"error captured", slog.LevelWarn, func(l *slog.Logger) { l.Error("boom") }, model.EventLevelError},
		{"warn captured", slog.LevelWarn, func(l *slog.Logger) { l.Warn("careful") }, model.EventLevelWarning},
		{"info ignored", slog.LevelWarn, func(l *slog.Logger) { l.Info("fine") }, ""},
		{"debug ignored", slog.LevelWarn, func(l *slog.Logger) { l.Debug("noise") }, ""},
		{"custom level", slog.LevelInfo, func(l *slog.Logger) { l.Info("fine") }, model.EventLevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &memoryWriter{}
			tt.log(slog.New(NewEventLogHandlerWithLevel(discardHandler{}, w, tt.min)))
			got := w.all()
			if tt.wantLevel == "" {
				if len(got) != 0 {
					t.Fatalf("events = %+v, want none", got)
				}
				return
			}
			if len(got) != 1 || got[0].level != tt.wantLevel {
				t.Fatalf("events = %+v, want one %s event", got, tt.wantLevel)
			}
		})
	}
}

func TestEventLogHandler_CategoryInference(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"login rate limit exceeded", model.EventCategoryAuth},
		{"email relay notification failed", model.EventCategoryRelay},
		{"contact message rejected", model.EventCategoryLead},
		{"order snapshot failed", model.EventCategoryOrder},
		{"rejected image upload", model.EventCategoryCatalog},
		{"site settings stream error", model.EventCategorySettings},
		{"something odd", model.EventCategorySystem},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			w := &memoryWriter{}
			slog.New(NewEventLogHandler(discardHandler{}, w)).Warn(tt.message)
			if got := w.all(); len(got) != 1 || got[0].category != tt.want {
				t.Errorf("events = %+v, want category %s", got, tt.want)
			}
		})
	}
}

func TestEventLogHandler_ExplicitCategoryAndMetadata(t *testing.T) {
	w := &memoryWriter{}
	logger := slog.New(NewEventLogHandler(discardHandler{}, w)).With("component", "relay").WithGroup("req")
	logger.Warn("whatever", "category", model.EventCategoryOrder, "id", 42, "quote", `say "hi"`)

	got := w.all()
	if len(got) != 1 {
		t.Fatalf("events = %+v", got)
	}
	e := got[0]
	if e.category != model.EventCategoryOrder {
		t.Errorf("category = %q", e.category)
	}
	want := map[string]any{"component": "relay", "req.id": "42", "req.quote": `say "hi"`}
	if len(e.metadata) != len(want) {
		t.Fatalf("metadata = %v, want %v", e.metadata, want)
	}
	for k, v := range want {
		if e.metadata[k] != v {
			t.Errorf("metadata[%q] = %v, want %v", k, e.metadata[k], v)
		}
	}
}

func TestEventLogHandler_NoRecursion(t *testing.T) {
	w := &memoryWriter{}
	logger := slog.New(NewEventLogHandler(discardHandler{}, w))
	w.logger = logger

	logger.Error("first failure")
	if got := w.all(); len(got) != 1 {
		t.Fatalf("events = %d, want 1", len(got))
	}

	logger.ErrorContext(WithoutEventLog(context.Background()), "suppressed")
	if got := w.all(); len(got) != 1 {
		t.Errorf("suppressed record was mirrored")
	}
}

func TestSlogLevelToEventLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, model.EventLevelInfo},
		{slog.LevelInfo, model.EventLevelInfo},
		{slog.LevelWarn, model.EventLevelWarning},
		{slog.LevelError, model.EventLevelError},
		{slog.LevelError + 4, model.EventLevelError},
	}
	for _, tt := range tests {
		if got := slogLevelToEventLevel(tt.level); got != tt.want {
			t.Errorf("slogLevelToEventLevel(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
