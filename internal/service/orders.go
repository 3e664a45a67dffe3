// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/studiosite/internal/model"
	"github.com/olegiv/studiosite/internal/store"
)

const (
	// MaxOrderItems bounds the line items of one order.
	MaxOrderItems = 50
	// MaxItemQuantity bounds the quantity of one line item so subtotals
	// cannot overflow.
	MaxItemQuantity = 1000
)

// OrderItemRequest is one line of a public order: a product reference and a quantity.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest is a public order submission.
type OrderRequest struct {
	Customer model.Customer     `json:"customer"`
	Items    []OrderItemRequest `json:"items"`
	Notes    string             `json:"notes,omitempty"`
	Client   *model.ClientInfo  `json:"-"`
}

// OrderService manages storefront orders.
type OrderService struct {
	docs   *store.Documents
	logger *slog.Logger
}

// NewOrderService creates an OrderService.
func NewOrderService(docs *store.Documents, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{docs: docs, logger: logger}
}

// Create snapshots each referenced product's name and price and persists the
// order. Quote-only products produce line items without a price.
func (s *OrderService) Create(ctx context.Context, req OrderRequest) (model.Order, error) {
	v := validator{}
	v.required("customer.name", req.Customer.Name)
	v.email("customer.email", req.Customer.Email)
	switch {
	case len(req.Items) == 0:
		v["items"] = "at least one item is required"
	case len(req.Items) > MaxOrderItems:
		v["items"] = fmt.Sprintf("at most %d items are allowed", MaxOrderItems)
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			v[fmt.Sprintf("items[%d].productId", i)] = "is required"
		}
		switch {
		case item.Quantity < 1:
			v[fmt.Sprintf("items[%d].quantity", i)] = "must be at least 1"
		case item.Quantity > MaxItemQuantity:
			v[fmt.Sprintf("items[%d].quantity", i)] = fmt.Sprintf("must be at most %d", MaxItemQuantity)
		}
	}
	if err := v.err(); err != nil {
		return model.Order{}, err
	}

	order := model.Order{
		Customer: req.Customer,
		Items:    make([]model.LineItem, 0, len(req.Items)),
		Notes:    req.Notes,
		Status:   model.OrderNew,
		Client:   req.Client,
	}
	for _, item := range req.Items {
		line, err := s.snapshot(ctx, item)
		if err != nil {
			return model.Order{}, err
		}
		order.Items = append(order.Items, line)
	}

	doc, err := s.docs.Create(ctx, model.CollectionOrders, order)
	if err != nil {
		return model.Order{}, storeErr("saving order", err)
	}
	order.SetMeta(doc.ID, doc.CreatedAt)

	s.logger.Info("order received", "id", order.ID, "items", len(order.Items))
	return order, nil
}

func (s *OrderService) snapshot(ctx context.Context, item OrderItemRequest) (model.LineItem, error) {
	doc, err := s.docs.Get(ctx, model.CollectionProducts, item.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		return model.LineItem{}, fmt.Errorf("%w: %s", ErrProductUnavailable, item.ProductID)
	}
	if err != nil {
		return model.LineItem{}, storeErr("loading product", err)
	}
	product, err := decodeRecord[model.Product](doc)
	if err != nil {
		return model.LineItem{}, err
	}
	if !product.Public() {
		return model.LineItem{}, fmt.Errorf("%w: %s", ErrProductUnavailable, item.ProductID)
	}

	line := model.LineItem{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  item.Quantity,
	}
	if product.PriceCents != nil {
		price := *product.PriceCents
		line.PriceCents = &price
	}
	return line, nil
}

// List returns orders, newest first, and the total matching count.
func (s *OrderService) List(ctx context.Context, opts ListOptions) ([]model.Order, int64, error) {
	q := opts.query(model.CollectionOrders)
	docs, err := s.docs.Query(ctx, q)
	if err != nil {
		return nil, 0, storeErr("listing orders", err)
	}
	total, err := s.docs.Count(ctx, q)
	if err != nil {
		return nil, 0, storeErr("counting orders", err)
	}
	orders, err := decodeRecords[model.Order](docs)
	return orders, total, err
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id string) (model.Order, error) {
	doc, err := s.docs.Get(ctx, model.CollectionOrders, id)
	if err != nil {
		return model.Order{}, storeErr("loading order", err)
	}
	return decodeRecord[model.Order](doc)
}

// UpdateStatus changes only the status of an order.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (model.Order, error) {
	if !status.Valid() {
		return model.Order{}, &ValidationError{Fields: map[string]string{"status": "must be one of new, processing, completed, cancelled"}}
	}
	doc, err := s.docs.Update(ctx, model.CollectionOrders, id, map[string]any{"status": status})
	if err != nil {
		return model.Order{}, storeErr("updating order", err)
	}
	return decodeRecord[model.Order](doc)
}

// Delete removes an order.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, model.CollectionOrders, id); err != nil {
		return storeErr("deleting order", err)
	}
	return nil
}
