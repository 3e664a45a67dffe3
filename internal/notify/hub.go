// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"context"
	"sync"
)

// RecentAlerts is how many alerts the hub remembers.
const RecentAlerts = 50

const subscriberBuffer = 16

type decisionKey struct{}

// WithDecision attaches the admin's answer to a permission prompt to ctx.
func WithDecision(ctx context.Context, p Permission) context.Context {
	return context.WithValue(ctx, decisionKey{}, p)
}

// DecisionFromContext returns the decision carried by ctx, or
// PermissionDefault when the prompt was dismissed.
func DecisionFromContext(ctx context.Context) Permission {
	if p, ok := ctx.Value(decisionKey{}).(Permission); ok && p.Valid() {
		return p
	}
	return PermissionDefault
}

// Hub is the alert surface of the admin UI. It keeps recent alerts and
// pushes new ones to connected admin streams.
type Hub struct {
	mu          sync.RWMutex
	recent      []Alert
	subscribers map[chan Alert]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan Alert]struct{})}
}

// RequestPermission answers with the decision the admin sent with the request.
func (h *Hub) RequestPermission(ctx context.Context) (Permission, error) {
	return DecisionFromContext(ctx), nil
}

// Show records the alert and delivers it to every stream. A stream that is
// not keeping up misses the alert.
func (h *Hub) Show(_ context.Context, alert Alert) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent = append(h.recent, alert)
	if len(h.recent) > RecentAlerts {
		h.recent = h.recent[len(h.recent)-RecentAlerts:]
	}
	for ch := range h.subscribers {
		select {
		case ch <- alert:
		default:
		}
	}
	return nil
}

// Recent returns remembered alerts, newest first.
func (h *Hub) Recent() []Alert {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Alert, len(h.recent))
	for i, a := range h.recent {
		out[len(h.recent)-1-i] = a
	}
	return out
}

// Subscribe returns a channel of new alerts and a function that closes it.
func (h *Hub) Subscribe() (<-chan Alert, func()) {
	ch := make(chan Alert, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// SubscriberCount returns the number of connected streams.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
