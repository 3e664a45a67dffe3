// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"errors"
	"sync"
	"time"

	"github.com/olegiv/studiosite/internal/store"
)

// DefaultWindow is how recent an inserted lead must be to raise an alert.
const DefaultWindow = 30 * time.Second

// LeadWatch watches the newest document of one lead collection and reports
// fresh inserts.
type LeadWatch struct {
	docs       *store.Documents
	collection string
	window     time.Duration
	now        func() time.Time

	mu      sync.Mutex
	handler func(store.Document)
	sub     *store.Subscription
}

// NewLeadWatch creates a watch on collection. now may be nil for the real clock.
func NewLeadWatch(docs *store.Documents, collection string, window time.Duration, now func() time.Time) *LeadWatch {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &LeadWatch{docs: docs, collection: collection, window: window, now: now}
}

// OnInsert sets the handler for fresh inserts. It must be called before Start.
func (w *LeadWatch) OnInsert(handler func(store.Document)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handler = handler
}

// Start subscribes to the newest document of the collection.
func (w *LeadWatch) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.handler == nil {
		return errors.New("lead watch has no insert handler")
	}
	if w.sub != nil {
		return nil
	}
	sub, err := w.docs.Watch(store.Newest(w.collection, 1), w.handle)
	if err != nil {
		return err
	}
	w.sub = sub
	return nil
}

// Cancel stops the watch and waits for a snapshot in delivery to finish, so
// the handler is not called once Cancel returns. It is safe to call more
// than once, but not from the handler.
func (w *LeadWatch) Cancel() {
	w.mu.Lock()
	sub := w.sub
	w.sub = nil
	w.mu.Unlock()

	if sub != nil {
		sub.Cancel()
		<-sub.Done()
	}
}

// Active reports whether the watch is subscribed.
func (w *LeadWatch) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sub != nil
}

// handle forwards added documents younger than the window. Documents that
// were already present when the watch started are old by then and dropped
// the same way.
func (w *LeadWatch) handle(snap store.Snapshot) {
	if snap.Err != nil {
		return
	}

	w.mu.Lock()
	handler := w.handler
	w.mu.Unlock()

	now := w.now()
	for _, c := range snap.Changes {
		if c.Kind != store.ChangeAdded {
			continue
		}
		if Fresh(now, c.Doc.CreatedAt, w.window) {
			handler(c.Doc)
		}
	}
}

// Fresh reports whether a document created at createdAt is strictly younger
// than window at now.
func Fresh(now, createdAt time.Time, window time.Duration) bool {
	return now.Sub(createdAt) < window
}
