// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// OrderStatus is the admin-managed state of an order.
type OrderStatus string

// Order statuses.
const (
	OrderNew        OrderStatus = "new"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderNew, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Customer is the contact block of an order.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Address string `json:"address,omitempty"`
}

// LineItem is a snapshot of a product taken when the order was placed.
// PriceCents is absent for quote-only products.
type LineItem struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	PriceCents *int64 `json:"priceCents,omitempty"`
	Quantity   int    `json:"quantity"`
}

// Order is a storefront order.
type Order struct {
	Meta
	Customer Customer    `json:"customer"`
	Items    []LineItem  `json:"items"`
	Notes    string      `json:"notes,omitempty"`
	Status   OrderStatus `json:"status"`
	Client   *ClientInfo `json:"client,omitempty"`
}

// OrderSummary is derived for display only and never stored.
type OrderSummary struct {
	ItemCount     int    `json:"itemCount"`
	SubtotalCents *int64 `json:"subtotalCents,omitempty"`
	QuoteOnly     bool   `json:"quoteOnly"`
}

// Summary counts items and, when every item is priced, sums them.
func (o Order) Summary() OrderSummary {
	var (
		s     OrderSummary
		total int64
	)
	for _, item := range o.Items {
		s.ItemCount += item.Quantity
		if item.PriceCents == nil {
			s.QuoteOnly = true
			continue
		}
		total += *item.PriceCents * int64(item.Quantity)
	}
	if !s.QuoteOnly && len(o.Items) > 0 {
		s.SubtotalCents = &total
	}
	return s
}
