// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the studiosite project.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/olegiv/studiosite/internal/store"
)

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a migrated SQLite database in a temp directory. It is
// closed when the test ends.
func TestDB(t *testing.T) *store.DB {
	t.Helper()

	db, err := store.Open(store.SQLite.Name, filepath.Join(t.TempDir(), "studio-test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Clock is a manually advanced clock for store timestamps.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock set to t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// TestDocuments creates a document store over TestDB. When clock is nil the
// real clock is used.
func TestDocuments(t *testing.T, clock *Clock) *store.Documents {
	t.Helper()
	opts := []store.Option{store.WithLogger(TestLoggerSilent())}
	if clock != nil {
		opts = append(opts, store.WithClock(clock.Now))
	}
	return store.NewDocuments(TestDB(t), opts...)
}
