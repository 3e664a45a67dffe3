// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth     = "auth"
	EventCategoryLead     = "lead"
	EventCategoryOrder    = "order"
	EventCategoryCatalog  = "catalog"
	EventCategorySettings = "settings"
	EventCategoryRelay    = "relay"
	EventCategorySystem   = "system"
)

// Event represents a system event log entry.
type Event struct {
	Meta
	Level    string         `json:"level"`
	Category string         `json:"category"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
