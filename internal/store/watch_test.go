// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const watchTimeout = 5 * time.Second

func collect(t *testing.T) (func(Snapshot), <-chan Snapshot) {
	t.Helper()
	ch := make(chan Snapshot, 32)
	return func(s Snapshot) { ch <- s }, ch
}

func next(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(watchTimeout):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func kinds(s Snapshot) []ChangeKind {
	out := make([]ChangeKind, 0, len(s.Changes))
	for _, c := range s.Changes {
		out = append(out, c.Kind)
	}
	return out
}

func TestWatch_InitialSnapshotReportsAdded(t *testing.T) {
	docs, clock := testDocuments(t)
	ctx := context.Background()

	for _, name := range []string{"old", "older"} {
		_, err := docs.Create(ctx, "leads", testRecord{Name: name})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	fn, ch := collect(t)
	sub, err := docs.Watch(Newest("leads", 1), fn)
	require.NoError(t, err)
	defer sub.Cancel()

	s := next(t, ch)
	require.NoError(t, s.Err)
	require.Equal(t, []ChangeKind{ChangeAdded}, kinds(s))
	require.Equal(t, []string{"older"}, names(t, s.Docs))
}

func TestWatch_EmptyInitialSnapshot(t *testing.T) {
	docs, _ := testDocuments(t)

	fn, ch := collect(t)
	sub, err := docs.WatchDoc("settings", "general", fn)
	require.NoError(t, err)
	defer sub.Cancel()

	s := next(t, ch)
	require.NoError(t, s.Err)
	require.Empty(t, s.Docs)
	require.Empty(t, s.Changes)
}

func TestWatch_InsertShiftsWindow(t *testing.T) {
	docs, clock := testDocuments(t)
	ctx := context.Background()

	_, err := docs.Create(ctx, "leads", testRecord{Name: "first"})
	require.NoError(t, err)

	fn, ch := collect(t)
	sub, err := docs.Watch(Newest("leads", 1), fn)
	require.NoError(t, err)
	defer sub.Cancel()
	next(t, ch) // initial

	clock.Advance(time.Second)
	_, err = docs.Create(ctx, "leads", testRecord{Name: "second"})
	require.NoError(t, err)

	s := next(t, ch)
	require.Equal(t, []ChangeKind{ChangeRemoved, ChangeAdded}, kinds(s))
	require.Equal(t, "second", names(t, []Document{s.Changes[1].Doc})[0])
}

func TestWatch_ModifiedAndRemoved(t *testing.T) {
	docs, clock := testDocuments(t)
	ctx := context.Background()

	doc, err := docs.Create(ctx, "leads", testRecord{Name: "a", Status: "new"})
	require.NoError(t, err)

	fn, ch := collect(t)
	sub, err := docs.Watch(Newest("leads", 10), fn)
	require.NoError(t, err)
	defer sub.Cancel()
	next(t, ch)

	clock.Advance(time.Second)
	_, err = docs.Update(ctx, "leads", doc.ID, map[string]any{"status": "read"})
	require.NoError(t, err)
	require.Equal(t, []ChangeKind{ChangeModified}, kinds(next(t, ch)))

	require.NoError(t, docs.Delete(ctx, "leads", doc.ID))
	require.Equal(t, []ChangeKind{ChangeRemoved}, kinds(next(t, ch)))
}

func TestWatch_IgnoresOtherCollections(t *testing.T) {
	docs, _ := testDocuments(t)
	ctx := context.Background()

	fn, ch := collect(t)
	sub, err := docs.Watch(Newest("leads", 1), fn)
	require.NoError(t, err)
	defer sub.Cancel()
	next(t, ch)

	_, err = docs.Create(ctx, "products", testRecord{Name: "x"})
	require.NoError(t, err)

	select {
	case s := <-ch:
		t.Fatalf("unexpected snapshot %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatch_CancelUnsubscribes(t *testing.T) {
	broker := NewLocalBroker()
	docs := NewDocuments(testDB(t), WithBroker(broker))

	fn, ch := collect(t)
	sub, err := docs.Watch(Newest("leads", 1), fn)
	require.NoError(t, err)
	next(t, ch)

	require.Equal(t, 1, broker.SubscriberCount("leads"))
	sub.Cancel()
	sub.Cancel()
	require.Equal(t, 0, broker.SubscriberCount("leads"))

	select {
	case <-sub.Done():
	case <-time.After(watchTimeout):
		t.Fatal("watch goroutine did not exit")
	}

	_, err = docs.Create(context.Background(), "leads", testRecord{Name: "late"})
	require.NoError(t, err)
	select {
	case s := <-ch:
		t.Fatalf("snapshot after cancel: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatch_RequiresCallback(t *testing.T) {
	docs, _ := testDocuments(t)
	if _, err := docs.Watch(Newest("leads", 1), nil); err == nil {
		t.Fatal("Watch() without callback expected error")
	}
	if _, err := docs.Watch(Query{}, func(Snapshot) {}); err == nil {
		t.Fatal("Watch() without collection expected error")
	}
}

func TestDiffWindow(t *testing.T) {
	t0 := time.Unix(0, 0)
	a := Document{ID: "a", Data: []byte(`{}`), UpdatedAt: t0}
	b := Document{ID: "b", Data: []byte(`{}`), UpdatedAt: t0}
	b2 := b
	b2.UpdatedAt = t0.Add(time.Second)

	tests := []struct {
		name string
		prev []Document
		next []Document
		want []ChangeKind
	}{
		{"initial", nil, []Document{a, b}, []ChangeKind{ChangeAdded, ChangeAdded}},
		{"unchanged", []Document{a}, []Document{a}, nil},
		{"modified", []Document{a, b}, []Document{a, b2}, []ChangeKind{ChangeModified}},
		{"replaced", []Document{a}, []Document{b}, []ChangeKind{ChangeRemoved, ChangeAdded}},
		{"emptied", []Document{a}, nil, []ChangeKind{ChangeRemoved}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(Snapshot{Changes: diffWindow(tt.prev, tt.next)})
			if len(got) != len(tt.want) {
				t.Fatalf("diffWindow() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("diffWindow() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
