// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a custom slog handler that integrates with the Event Log system.
// It forwards logs at WARN level and above to the event_log collection for auditing.
package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/olegiv/studiosite/internal/model"
)

// EventWriter persists one event log entry. service.EventService implements it.
type EventWriter interface {
	Log(ctx context.Context, level, category, message string, metadata map[string]any) error
}

type skipKey struct{}

// WithoutEventLog marks ctx so records logged with it are not mirrored into
// the event log. The handler applies it to its own writes.
func WithoutEventLog(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipKey{}, true)
}

func skipped(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(skipKey{}).(bool)
	return v
}

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the Event Log.
type EventLogHandler struct {
	inner  slog.Handler
	writer EventWriter
	level  slog.Level // Minimum level to forward to Event Log (default: WARN)
	attrs  []slog.Attr
	group  string
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
// Logs at WARN level and above will be written to both the wrapped handler and the Event Log.
func NewEventLogHandler(inner slog.Handler, writer EventWriter) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, writer, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, writer EventWriter, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:  inner,
		writer: writer,
		level:  level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	// Always forward to the inner handler first
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level && h.writer != nil && !skipped(ctx) {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	if h.group != "" {
		name = h.group + "." + name
	}
	clone.group = name
	return &clone
}

func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return out
}

// writeToEventLog writes a log record to the Event Log. A background context
// keeps the event even when the request that logged it was cancelled.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	attrs := append([]slog.Attr(nil), h.attrs...)
	var recordAttrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		recordAttrs = append(recordAttrs, a)
		return true
	})
	attrs = append(attrs, h.qualify(recordAttrs)...)

	ctx := WithoutEventLog(context.Background())
	_ = h.writer.Log(ctx, slogLevelToEventLevel(r.Level), extractCategory(r.Message, attrs), r.Message, extractMetadata(attrs))
}

// slogLevelToEventLevel converts a slog.Level to an Event Log level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// extractCategory uses a "category" attribute or infers one from the message.
func extractCategory(message string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "category" {
			return a.Value.String()
		}
	}

	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "token"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "relay") || strings.Contains(msg, "notification"):
		return model.EventCategoryRelay
	case strings.Contains(msg, "contact") || strings.Contains(msg, "inquiry") || strings.Contains(msg, "lead"):
		return model.EventCategoryLead
	case strings.Contains(msg, "order"):
		return model.EventCategoryOrder
	case strings.Contains(msg, "product") || strings.Contains(msg, "image") || strings.Contains(msg, "tool"):
		return model.EventCategoryCatalog
	case strings.Contains(msg, "setting"):
		return model.EventCategorySettings
	default:
		return model.EventCategorySystem
	}
}

// extractMetadata collects attributes as strings, except the category.
func extractMetadata(attrs []slog.Attr) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	md := make(map[string]any, len(attrs))
	for _, a := range attrs {
		if a.Key == "category" {
			continue
		}
		md[a.Key] = a.Value.Resolve().String()
	}
	if len(md) == 0 {
		return nil
	}
	return md
}
