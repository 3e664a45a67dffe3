// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"

	"github.com/olegiv/studiosite/internal/model"
	"github.com/olegiv/studiosite/internal/store"
)

// EventService provides event logging functionality.
type EventService struct {
	docs *store.Documents
}

// NewEventService creates a new EventService.
func NewEventService(docs *store.Documents) *EventService {
	return &EventService{docs: docs}
}

// Log creates a new event log entry.
func (s *EventService) Log(ctx context.Context, level, category, message string, metadata map[string]any) error {
	_, err := s.docs.Create(ctx, model.CollectionEventLog, model.Event{
		Level:    level,
		Category: category,
		Message:  message,
		Metadata: metadata,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to log event", "error", err)
		return storeErr("logging event", err)
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.Log(ctx, model.EventLevelInfo, category, message, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.Log(ctx, model.EventLevelWarning, category, message, metadata)
}

// List returns events, newest first.
func (s *EventService) List(ctx context.Context, opts ListOptions) ([]model.Event, int64, error) {
	opts.Status = ""
	q := opts.query(model.CollectionEventLog)
	docs, err := s.docs.Query(ctx, q)
	if err != nil {
		return nil, 0, storeErr("listing events", err)
	}
	total, err := s.docs.Count(ctx, q)
	if err != nil {
		return nil, 0, storeErr("counting events", err)
	}
	events, err := decodeRecords[model.Event](docs)
	return events, total, err
}
