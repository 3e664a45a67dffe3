// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify raises admin alerts for newly submitted leads.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/studiosite/internal/model"
	"github.com/olegiv/studiosite/internal/store"
)

// Permission is the admin's decision about alerts.
type Permission string

// Permission states. Only PermissionDefault can be prompted.
const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	switch p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return true
	}
	return false
}

// Alert is one lead notification.
type Alert struct {
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	URL        string    `json:"url"`
	Collection string    `json:"collection"`
	DocID      string    `json:"docId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Surface shows alerts and asks for permission to do so.
type Surface interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, alert Alert) error
}

// leadCollections are watched while alerts are active.
var leadCollections = []string{model.CollectionProjectInquiries, model.CollectionContactMessages}

const showTimeout = 5 * time.Second

// Listener owns the permission state and the lead watches. Watches exist
// only while the listener is started and permission is granted.
type Listener struct {
	docs    *store.Documents
	surface Surface
	window  time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu         sync.Mutex
	permission Permission
	active     bool
	watches    []*LeadWatch
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithWindow sets the recency window.
func WithWindow(d time.Duration) ListenerOption {
	return func(l *Listener) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithClock overrides the clock used for the recency check.
func WithClock(now func() time.Time) ListenerOption {
	return func(l *Listener) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ListenerOption {
	return func(l *Listener) { l.logger = logger }
}

// NewListener creates a listener in the default permission state.
func NewListener(docs *store.Documents, surface Surface, opts ...ListenerOption) *Listener {
	l := &Listener{
		docs:       docs,
		surface:    surface,
		window:     DefaultWindow,
		now:        time.Now,
		logger:     slog.Default(),
		permission: PermissionDefault,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enable is the explicit user action that turns alerts on. The surface is
// asked only while no decision has been made; a granted or denied
// permission is returned unchanged.
func (l *Listener) Enable(ctx context.Context) (Permission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.permission == PermissionDefault {
		p, err := l.surface.RequestPermission(ctx)
		if err != nil {
			return l.permission, fmt.Errorf("requesting alert permission: %w", err)
		}
		if p.Valid() {
			l.permission = p
		}
		l.logger.Info("alert permission decided", "permission", l.permission)
	}

	if err := l.reconcile(); err != nil {
		return l.permission, err
	}
	return l.permission, nil
}

// Revoke moves a granted permission to denied and cancels the watches.
func (l *Listener) Revoke() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.permission == PermissionGranted {
		l.permission = PermissionDenied
		l.logger.Info("alert permission revoked")
	}
	l.cancelWatches()
}

// Reset returns to the undecided state, as when the decision is cleared
// outside the app, and cancels the watches.
func (l *Listener) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.permission = PermissionDefault
	l.cancelWatches()
}

// Start activates the listener until Stop or until ctx is done.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active {
		return nil
	}
	l.active = true
	if err := l.reconcile(); err != nil {
		l.active = false
		return err
	}

	go func() {
		<-ctx.Done()
		l.Stop()
	}()
	return nil
}

// Stop deactivates the listener and cancels the watches.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active = false
	l.cancelWatches()
}

// Permission returns the current decision.
func (l *Listener) Permission() Permission {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.permission
}

// Subscribed reports whether the lead watches are running.
func (l *Listener) Subscribed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.watches {
		if w.Active() {
			return true
		}
	}
	return false
}

// reconcile opens the watches when active and granted. Caller holds l.mu.
func (l *Listener) reconcile() error {
	if !l.active || l.permission != PermissionGranted || len(l.watches) > 0 {
		return nil
	}

	for _, collection := range leadCollections {
		w := NewLeadWatch(l.docs, collection, l.window, l.now)
		w.OnInsert(func(doc store.Document) { l.alert(collection, doc) })
		if err := w.Start(); err != nil {
			l.cancelWatches()
			return fmt.Errorf("watching %s: %w", collection, err)
		}
		l.watches = append(l.watches, w)
	}
	return nil
}

// cancelWatches stops every watch. Caller holds l.mu.
func (l *Listener) cancelWatches() {
	for _, w := range l.watches {
		w.Cancel()
	}
	l.watches = nil
}

func (l *Listener) alert(collection string, doc store.Document) {
	alert, err := BuildAlert(collection, doc)
	if err != nil {
		l.logger.Warn("cannot build lead alert", "collection", collection, "id", doc.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), showTimeout)
	defer cancel()
	if err := l.surface.Show(ctx, alert); err != nil {
		l.logger.Warn("lead alert not shown", "collection", collection, "id", doc.ID, "error", err)
	}
}

// BuildAlert describes a lead document as an alert with a deep link into
// the admin screens.
func BuildAlert(collection string, doc store.Document) (Alert, error) {
	alert := Alert{Collection: collection, DocID: doc.ID, CreatedAt: doc.CreatedAt}

	switch collection {
	case model.CollectionContactMessages:
		var msg model.ContactMessage
		if err := doc.Decode(&msg); err != nil {
			return Alert{}, err
		}
		alert.Title = "New message from " + fallback(msg.FullName(), msg.Email)
		alert.Body = fallback(msg.Service, "General enquiry")
		alert.URL = "/admin/messages#" + doc.ID
	case model.CollectionProjectInquiries:
		var inq model.ProjectInquiry
		if err := doc.Decode(&inq); err != nil {
			return Alert{}, err
		}
		alert.Title = "New inquiry from " + fallback(inq.Name, inq.Email)
		alert.Body = inq.ServiceType.Label()
		alert.URL = "/admin/inquiries#" + doc.ID
	default:
		return Alert{}, fmt.Errorf("no alert for collection %q", collection)
	}
	return alert, nil
}

func fallback(s, alt string) string {
	if s == "" {
		return alt
	}
	return s
}
