// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application.
package model

import "time"

// Collection names in the document store.
const (
	CollectionContactMessages  = "contact_messages"
	CollectionProjectInquiries = "project_inquiries"
	CollectionOrders           = "store_orders"
	CollectionProducts         = "products"
	CollectionReadySites       = "readySites"
	CollectionTools            = "tools"
	CollectionSettings         = "settings"
	CollectionEventLog         = "event_log"
)

// Meta carries the store-assigned identity of a record. It is never taken
// from client input.
type Meta struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// ClientInfo describes the visitor who submitted a public form.
type ClientInfo struct {
	Country string `json:"country,omitempty"`
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Device  string `json:"device,omitempty"`
}

// SetMeta fills the store-assigned identity.
func (m *Meta) SetMeta(id string, createdAt time.Time) {
	m.ID = id
	m.CreatedAt = createdAt
}
