// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package settings keeps the live site settings in memory for every reader.
package settings

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/olegiv/studiosite/internal/model"
	"github.com/olegiv/studiosite/internal/service"
	"github.com/olegiv/studiosite/internal/store"
)

// Provider holds one standing subscription to the settings document and
// serves its latest value. Before the first snapshot and whenever the
// document is absent, Current returns model.DefaultSiteSettings.
type Provider struct {
	docs   *store.Documents
	head   *Head
	logger *slog.Logger

	mu        sync.RWMutex
	current   model.SiteSettings
	loaded    bool
	loadedCh  chan struct{}
	sub       *store.Subscription
	listeners map[chan model.SiteSettings]struct{}
}

// NewProvider creates a provider. head may be shared with other components.
func NewProvider(docs *store.Documents, head *Head, logger *slog.Logger) *Provider {
	if head == nil {
		head = NewHead()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		docs:      docs,
		head:      head,
		logger:    logger,
		current:   model.DefaultSiteSettings(),
		loadedCh:  make(chan struct{}),
		listeners: make(map[chan model.SiteSettings]struct{}),
	}
}

// Start opens the subscription. It is a no-op while already started. The
// subscription is cancelled when ctx is done or Stop is called.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sub != nil {
		return nil
	}
	sub, err := p.docs.WatchDoc(model.CollectionSettings, model.SettingsGeneralID, p.apply)
	if err != nil {
		return err
	}
	p.sub = sub

	go func() {
		select {
		case <-ctx.Done():
			p.stop(sub)
		case <-sub.Done():
		}
	}()
	p.logger.Info("site settings provider started")
	return nil
}

// Stop cancels the subscription. The last value stays readable.
func (p *Provider) Stop() {
	p.mu.RLock()
	sub := p.sub
	p.mu.RUnlock()
	if sub != nil {
		p.stop(sub)
	}
}

func (p *Provider) stop(sub *store.Subscription) {
	sub.Cancel()
	<-sub.Done()

	p.mu.Lock()
	if p.sub == sub {
		p.sub = nil
	}
	p.mu.Unlock()
}

// apply handles one snapshot of the settings document.
func (p *Provider) apply(snap store.Snapshot) {
	if snap.Err != nil {
		p.logger.Warn("site settings stream error, keeping last value", "error", snap.Err)
		return
	}

	next := model.DefaultSiteSettings()
	if len(snap.Docs) > 0 {
		decoded, err := service.DecodeSettings(snap.Docs[0])
		if err != nil {
			p.logger.Warn("site settings document unreadable, keeping last value", "error", err)
			return
		}
		next = decoded
	}

	if next.FaviconURL != "" {
		p.head.SetFavicon(next.FaviconURL)
	}

	p.mu.Lock()
	p.current = next
	if !p.loaded {
		p.loaded = true
		close(p.loadedCh)
	}
	for ch := range p.listeners {
		offerLatest(ch, next)
	}
	p.mu.Unlock()
}

// offerLatest replaces any unread value in ch with v.
func offerLatest(ch chan model.SiteSettings, v model.SiteSettings) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Current returns the latest settings.
func (p *Provider) Current() model.SiteSettings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Loaded reports whether at least one snapshot has been applied.
func (p *Provider) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// WaitLoaded blocks until the first snapshot has been applied or ctx is done.
func (p *Provider) WaitLoaded(ctx context.Context) error {
	select {
	case <-p.loadedCh:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("site settings not loaded"), ctx.Err())
	}
}

// Head returns the shared document head.
func (p *Provider) Head() *Head {
	return p.head
}

// Subscribe returns a channel that receives the current settings and then
// every later value. Slow readers only see the latest value.
func (p *Provider) Subscribe() (<-chan model.SiteSettings, func()) {
	ch := make(chan model.SiteSettings, 1)

	p.mu.Lock()
	p.listeners[ch] = struct{}{}
	ch <- p.current
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, ch)
			p.mu.Unlock()
		})
	}
}
