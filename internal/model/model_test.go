// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
	"time"
)

func ptr(v int64) *int64 { return &v }

func TestOrderSummary(t *testing.T) {
	tests := []struct {
		name      string
		items     []LineItem
		wantCount int
		wantTotal *int64
		wantQuote bool
	}{
		{
			name:      "priced",
			items:     []LineItem{{PriceCents: ptr(1500), Quantity: 2}, {PriceCents: ptr(250), Quantity: 1}},
			wantCount: 3,
			wantTotal: ptr(3250),
		},
		{
			name:      "quote only",
			items:     []LineItem{{Quantity: 3}},
			wantCount: 3,
			wantQuote: true,
		},
		{
			name:      "mixed",
			items:     []LineItem{{PriceCents: ptr(100), Quantity: 1}, {Quantity: 1}},
			wantCount: 2,
			wantQuote: true,
		},
		{
			name:      "free item is priced",
			items:     []LineItem{{PriceCents: ptr(0), Quantity: 4}},
			wantCount: 4,
			wantTotal: ptr(0),
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Order{Items: tt.items}.Summary()
			if s.ItemCount != tt.wantCount {
				t.Errorf("ItemCount = %d, want %d", s.ItemCount, tt.wantCount)
			}
			if s.QuoteOnly != tt.wantQuote {
				t.Errorf("QuoteOnly = %v, want %v", s.QuoteOnly, tt.wantQuote)
			}
			switch {
			case tt.wantTotal == nil && s.SubtotalCents != nil:
				t.Errorf("SubtotalCents = %d, want nil", *s.SubtotalCents)
			case tt.wantTotal != nil && (s.SubtotalCents == nil || *s.SubtotalCents != *tt.wantTotal):
				t.Errorf("SubtotalCents = %v, want %d", s.SubtotalCents, *tt.wantTotal)
			}
		})
	}
}

func TestIcons(t *testing.T) {
	icons := Icons()
	if len(icons) == 0 {
		t.Fatal("Icons() returned nothing")
	}

	seen := make(map[Icon]bool)
	for _, a := range icons {
		if seen[a.Icon] {
			t.Errorf("duplicate icon %q", a.Icon)
		}
		seen[a.Icon] = true
		if !a.Icon.Valid() {
			t.Errorf("icon %q not valid", a.Icon)
		}
		got, ok := a.Icon.Asset()
		if !ok || got.Path == "" || got.Label == "" {
			t.Errorf("Asset(%q) = %+v, %v", a.Icon, got, ok)
		}
	}

	if Icon("Rocket").Valid() {
		t.Error("unknown icon reported valid")
	}
	if _, ok := Icon("").Asset(); ok {
		t.Error("empty icon resolved")
	}

	// Returned slice is a copy.
	icons[0].Label = "changed"
	if Icons()[0].Label == "changed" {
		t.Error("Icons() exposes internal slice")
	}
}

func TestStatusValidation(t *testing.T) {
	if !ContactReplied.Valid() || ContactStatus("contacted").Valid() {
		t.Error("ContactStatus.Valid mismatch")
	}
	if !InquiryContacted.Valid() || InquiryStatus("read").Valid() {
		t.Error("InquiryStatus.Valid mismatch")
	}
	if !OrderCancelled.Valid() || OrderStatus("shipped").Valid() {
		t.Error("OrderStatus.Valid mismatch")
	}
	if !ProductArchived.Valid() || ProductStatus("draft").Valid() {
		t.Error("ProductStatus.Valid mismatch")
	}
}

func TestProductPriceAbsenceIsNotZero(t *testing.T) {
	quote := Product{Name: "Custom", Status: ProductActive}
	free := Product{Name: "Free", PriceCents: ptr(0), Status: ProductActive}

	if !quote.QuoteOnly() {
		t.Error("product without price should be quote only")
	}
	if free.QuoteOnly() {
		t.Error("zero-priced product should not be quote only")
	}

	raw, err := json.Marshal(quote)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["priceCents"]; ok {
		t.Error("quote-only product serialized a price")
	}
}

func TestMetaOmittedWhenZero(t *testing.T) {
	raw, err := json.Marshal(ContactMessage{FirstName: "Jane"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["id"]; ok {
		t.Error("zero ID serialized")
	}
	if _, ok := m["createdAt"]; ok {
		t.Error("zero CreatedAt serialized")
	}

	raw, err = json.Marshal(ContactMessage{Meta: Meta{ID: "x", CreatedAt: time.Unix(1, 0).UTC()}})
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if m["id"] != "x" || m["createdAt"] == nil {
		t.Errorf("meta not serialized: %v", m)
	}
}

func TestServiceTypeLabel(t *testing.T) {
	if ServiceGraphics.Label() != "Graphic Design" {
		t.Errorf("Label() = %q", ServiceGraphics.Label())
	}
	if ServiceType("unknown").Label() != "Other" {
		t.Errorf("unknown Label() = %q", ServiceType("unknown").Label())
	}
}

func TestDefaultSiteSettings(t *testing.T) {
	a, b := DefaultSiteSettings(), DefaultSiteSettings()
	if a.SiteName == "" || a.AdminEmail == "" || a.LogoURL == "" {
		t.Errorf("defaults incomplete: %+v", a)
	}
	if a != b {
		t.Error("defaults are not stable")
	}
}
