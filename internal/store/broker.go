// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"sync"
)

// MutationOp identifies the kind of committed write.
type MutationOp string

// Mutation operations.
const (
	OpCreate MutationOp = "create"
	OpUpdate MutationOp = "update"
	OpDelete MutationOp = "delete"
)

// Mutation announces a committed write to one document.
type Mutation struct {
	Collection string     `json:"collection"`
	DocID      string     `json:"id"`
	Op         MutationOp `json:"op"`
}

// Broker carries mutations from writers to watchers.
type Broker interface {
	// Publish announces a committed mutation.
	Publish(ctx context.Context, m Mutation) error
	// Subscribe returns a channel of mutations for one collection and a
	// function that unsubscribes. The channel is closed on unsubscribe.
	Subscribe(collection string) (<-chan Mutation, func())
	// Close stops delivery and closes every subscriber channel.
	Close() error
}

// mutationBuffer bounds pending notifications per subscriber. A watcher
// re-reads its whole window on each wakeup, so an overflow drop loses nothing.
const mutationBuffer = 16

// LocalBroker fans mutations out to subscribers in this process.
type LocalBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]chan Mutation
	nextID uint64
	closed bool
}

// NewLocalBroker creates an in-process broker.
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[string]map[uint64]chan Mutation)}
}

// Publish delivers m to every subscriber of its collection without blocking.
func (b *LocalBroker) Publish(_ context.Context, m Mutation) error {
	b.dispatch(m)
	return nil
}

func (b *LocalBroker) dispatch(m Mutation) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[m.Collection] {
		select {
		case ch <- m:
		default:
		}
	}
}

// Subscribe registers a subscriber for collection.
func (b *LocalBroker) Subscribe(collection string) (<-chan Mutation, func()) {
	ch := make(chan Mutation, mutationBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	b.nextID++
	id := b.nextID
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[uint64]chan Mutation)
	}
	b.subs[collection][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[collection][id]; ok {
				delete(b.subs[collection], id)
				if len(b.subs[collection]) == 0 {
					delete(b.subs, collection)
				}
				close(sub)
			}
		})
	}
}

// SubscriberCount returns the number of live subscribers for collection.
func (b *LocalBroker) SubscriberCount(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[collection])
}

// Close closes every subscriber channel.
func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for collection, subs := range b.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(b.subs, collection)
	}
	return nil
}
