// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// ProductStatus controls catalog visibility.
type ProductStatus string

// Product statuses.
const (
	ProductActive   ProductStatus = "active"
	ProductArchived ProductStatus = "archived"
)

// Valid reports whether s is a known product status.
func (s ProductStatus) Valid() bool {
	return s == ProductActive || s == ProductArchived
}

// Product is a catalog entry. A nil PriceCents means the product is sold by
// quote only; zero is a real price.
type Product struct {
	Meta
	Name            string        `json:"name"`
	Slug            string        `json:"slug"`
	Category        string        `json:"category"`
	ImageURL        string        `json:"imageUrl,omitempty"`
	PriceCents      *int64        `json:"priceCents,omitempty"`
	Description     string        `json:"description,omitempty"`
	LongDescription string        `json:"longDescription,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
	Status          ProductStatus `json:"status"`
}

// QuoteOnly reports whether the product has no listed price.
func (p Product) QuoteOnly() bool {
	return p.PriceCents == nil
}

// Public reports whether the product belongs in the public catalog.
func (p Product) Public() bool {
	return p.Status != ProductArchived
}

// ReadySite is a ready-made site template. SortOrder is the display order.
type ReadySite struct {
	Meta
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
	PreviewURL  string   `json:"previewUrl,omitempty"`
	SortOrder   int      `json:"sortOrder"`
	IsConcept   bool     `json:"isConcept"`
}

// Tool is an entry of the tools directory.
type Tool struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Icon        Icon   `json:"icon"`
	Category    string `json:"category,omitempty"`
}
