// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
)

// ChangeKind classifies a document change within a watched window.
type ChangeKind string

// Change kinds.
const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// DocChange is one document entering, changing within, or leaving a window.
type DocChange struct {
	Kind ChangeKind
	Doc  Document
}

// Snapshot is delivered to a watcher each time its window changes.
// The first snapshot reports every document in the window as added.
// When Err is set the other fields are empty and the previous window stands.
type Snapshot struct {
	Docs    []Document
	Changes []DocChange
	Err     error
}

// Subscription is a standing watch on a query.
type Subscription struct {
	cancel      context.CancelFunc
	unsubscribe func()
	cancelled   atomic.Bool
	done        chan struct{}
}

// Cancel stops the watch. It is safe to call more than once.
func (s *Subscription) Cancel() {
	if s.cancelled.CompareAndSwap(false, true) {
		s.unsubscribe()
		s.cancel()
	}
}

// Done is closed once the watch goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Watch delivers snapshots of q to fn, starting with the current window and
// then after every committed mutation that changes it. Snapshots for one
// subscription are delivered sequentially in commit order.
func (s *Documents) Watch(q Query, fn func(Snapshot)) (*Subscription, error) {
	if fn == nil {
		return nil, errors.New("watch requires a callback")
	}
	if _, err := q.selectBuilder(s.db.builder().Select(documentColumns...)); err != nil {
		return nil, err
	}

	// Subscribe before the first read so no mutation falls in between.
	mutations, unsubscribe := s.broker.Subscribe(q.Collection)
	ctx, cancel := context.WithCancel(context.Background())
	sub := &Subscription{
		cancel:      cancel,
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
	}

	go sub.run(ctx, s, q, mutations, fn)
	return sub, nil
}

// WatchDoc watches a single document. Snapshots carry no documents while it
// does not exist.
func (s *Documents) WatchDoc(collection, id string, fn func(Snapshot)) (*Subscription, error) {
	return s.Watch(Query{
		Collection: collection,
		Filters:    []Filter{Eq(FieldID, id)},
		Limit:      1,
	}, fn)
}

func (sub *Subscription) run(ctx context.Context, s *Documents, q Query, mutations <-chan Mutation, fn func(Snapshot)) {
	defer close(sub.done)
	defer sub.unsubscribe()

	var (
		window []Document
		synced bool
	)

	evaluate := func() {
		docs, err := s.Query(ctx, q)
		if ctx.Err() != nil || sub.cancelled.Load() {
			return
		}
		if err != nil {
			fn(Snapshot{Err: err})
			return
		}

		changes := diffWindow(window, docs)
		if synced && len(changes) == 0 {
			return
		}
		window = docs
		synced = true
		fn(Snapshot{Docs: docs, Changes: changes})
	}

	evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-mutations:
			if !ok {
				return
			}
			drain(mutations)
			evaluate()
		}
	}
}

// drain discards queued notifications; the next read covers all of them.
func drain(mutations <-chan Mutation) {
	for {
		select {
		case _, ok := <-mutations:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// diffWindow reports removed documents in previous order, then added and
// modified documents in current order.
func diffWindow(prev, next []Document) []DocChange {
	prevByID := make(map[string]Document, len(prev))
	for _, d := range prev {
		prevByID[d.ID] = d
	}
	nextIDs := make(map[string]struct{}, len(next))
	for _, d := range next {
		nextIDs[d.ID] = struct{}{}
	}

	var changes []DocChange
	for _, d := range prev {
		if _, ok := nextIDs[d.ID]; !ok {
			changes = append(changes, DocChange{Kind: ChangeRemoved, Doc: d})
		}
	}
	for _, d := range next {
		old, ok := prevByID[d.ID]
		switch {
		case !ok:
			changes = append(changes, DocChange{Kind: ChangeAdded, Doc: d})
		case !old.UpdatedAt.Equal(d.UpdatedAt) || !bytes.Equal(old.Data, d.Data):
			changes = append(changes, DocChange{Kind: ChangeModified, Doc: d})
		}
	}
	return changes
}
