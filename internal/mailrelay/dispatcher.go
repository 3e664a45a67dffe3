// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mailrelay

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sender delivers one notification and returns the relay's message id.
type Sender interface {
	Send(ctx context.Context, req Request) (string, error)
}

// Recipient resolves where notifications go and which site they are from.
type Recipient func() (to, site string)

// Dispatcher queues notifications and sends them from a worker pool so that
// request handlers never wait on the relay. Nothing is retried.
type Dispatcher struct {
	sender    Sender
	recipient Recipient
	logger    *slog.Logger
	queue     chan Request
	workers   int
	wg        sync.WaitGroup
	done      chan struct{}
	mu        sync.RWMutex
	running   bool
}

// Config holds dispatcher configuration.
type Config struct {
	Workers   int // Number of concurrent senders
	QueueSize int // Pending notifications before new ones are dropped
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   2,
		QueueSize: 100,
	}
}

// NewDispatcher creates a dispatcher over sender.
func NewDispatcher(sender Sender, recipient Recipient, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recipient == nil {
		recipient = func() (string, string) { return "", "" }
	}

	return &Dispatcher{
		sender:    sender,
		recipient: recipient,
		logger:    logger,
		queue:     make(chan Request, cfg.QueueSize),
		workers:   cfg.Workers,
		done:      make(chan struct{}),
	}
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting email relay dispatcher", "workers", d.workers)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the workers after their in-flight sends and drops anything still queued.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()
	if n := len(d.queue); n > 0 {
		d.logger.Warn("email relay dispatcher stopped with pending notifications", "dropped", n)
	}
	d.logger.Info("email relay dispatcher stopped")
}

// Notify queues a notification without blocking. It reports whether the
// notification was accepted.
func (d *Dispatcher) Notify(kind Kind, data any) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		d.logger.Warn("email relay dispatcher not running, dropping notification", "type", kind)
		return false
	}

	select {
	case d.queue <- Request{Type: kind, Data: data}:
		return true
	default:
		d.logger.Warn("email relay queue full, dropping notification", "type", kind)
		return false
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("email relay worker started", "worker_id", id)

	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case req := <-d.queue:
			d.deliver(ctx, req)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, req Request) {
	req.To, req.Site = d.recipient()

	start := time.Now()
	messageID, err := d.sender.Send(ctx, req)
	if err != nil {
		d.logger.Warn("email relay notification failed",
			"type", req.Type,
			"duration", time.Since(start),
			"error", err)
		return
	}
	d.logger.Info("email relay notification sent",
		"type", req.Type,
		"message_id", messageID,
		"duration", time.Since(start))
}
