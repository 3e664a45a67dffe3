// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service maps typed records onto document store collections.
package service

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/olegiv/studiosite/internal/mailrelay"
	"github.com/olegiv/studiosite/internal/store"
)

// Service errors.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrProductUnavailable = errors.New("product is not available")
)

// ValidationError carries per-field messages. It matches ErrInvalidInput.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalidInput) true for validation errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// validator collects field errors.
type validator map[string]string

func (v validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v[field] = "is required"
	}
}

func (v validator) email(field, value string) {
	if strings.TrimSpace(value) == "" {
		v[field] = "is required"
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v[field] = "is not a valid email address"
	}
}

func (v validator) check(ok bool, field, message string) {
	if !ok {
		v[field] = message
	}
}

func (v validator) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: v}
}

// Notifier hands a persisted submission to the email relay without waiting.
// mailrelay.Dispatcher implements it.
type Notifier interface {
	Notify(kind mailrelay.Kind, data any) bool
}

// ListOptions selects a page of a lead or order collection.
type ListOptions struct {
	Status string
	Limit  int
	Offset int
}

// MaxPageSize caps ListOptions.Limit.
const MaxPageSize = 100

func (o ListOptions) query(collection string) store.Query {
	q := store.Newest(collection, o.Limit)
	if q.Limit <= 0 || q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if o.Offset > 0 {
		q.Offset = o.Offset
	}
	if o.Status != "" {
		q.Filters = append(q.Filters, store.Eq(store.FieldStatus, o.Status))
	}
	return q
}

// identified is implemented by records embedding model.Meta.
type identified interface {
	SetMeta(id string, createdAt time.Time)
}

// decodeRecord unmarshals doc into a new T and fills its identity.
func decodeRecord[T any, P interface {
	*T
	identified
}](doc store.Document) (T, error) {
	var rec T
	if err := doc.Decode(&rec); err != nil {
		return rec, err
	}
	P(&rec).SetMeta(doc.ID, doc.CreatedAt)
	return rec, nil
}

func decodeRecords[T any, P interface {
	*T
	identified
}](docs []store.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		rec, err := decodeRecord[T, P](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// storeErr maps store sentinels onto service errors.
func storeErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
