// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const tableDocuments = "documents"

var documentColumns = []string{"collection", "id", "data", "status", "sort_order", "created_at", "updated_at"}

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Keys the store owns. They are stripped from incoming data.
var immutableKeys = []string{"id", "createdAt", "updatedAt"}

// Document is a stored JSON document with its indexed metadata.
// Status and SortOrder mirror the "status" and "sortOrder" keys of Data.
type Document struct {
	Collection string
	ID         string
	Data       json.RawMessage
	Status     string
	SortOrder  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decode unmarshals the document data into v.
func (d Document) Decode(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decoding %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// Documents provides CRUD, queries and change streams over collections.
type Documents struct {
	db     *DB
	broker Broker
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures Documents.
type Option func(*Documents)

// WithBroker sets the broker that carries mutations to watchers.
func WithBroker(b Broker) Option {
	return func(d *Documents) { d.broker = b }
}

// WithClock overrides the server clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Documents) { d.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Documents) { d.logger = l }
}

// NewDocuments creates a document store over db. Without WithBroker,
// mutations are fanned out in process only.
func NewDocuments(db *DB, opts ...Option) *Documents {
	d := &Documents{
		db:     db,
		now:    time.Now,
		newID:  newDocumentID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.broker == nil {
		d.broker = NewLocalBroker()
	}
	return d
}

// Broker returns the broker used for change notifications.
func (s *Documents) Broker() Broker {
	return s.broker
}

func newDocumentID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// timestamp returns the server time at the precision the store keeps.
func (s *Documents) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create inserts data as a new document. The id and creation time are
// assigned here; any id or createdAt key in data is ignored.
func (s *Documents) Create(ctx context.Context, collection string, data any) (Document, error) {
	fields, err := toFields(data)
	if err != nil {
		return Document{}, err
	}

	now := s.timestamp()
	doc := Document{Collection: collection, ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	if err := doc.setFields(fields); err != nil {
		return Document{}, err
	}

	if err := s.insert(ctx, s.db, doc); err != nil {
		return Document{}, fmt.Errorf("inserting %s document: %w", collection, err)
	}

	s.publish(ctx, Mutation{Collection: collection, DocID: doc.ID, Op: OpCreate})
	return doc, nil
}

// Set writes data under a fixed id, creating the document if needed.
// An existing document keeps its creation time.
func (s *Documents) Set(ctx context.Context, collection, id string, data any) (Document, error) {
	fields, err := toFields(data)
	if err != nil {
		return Document{}, err
	}

	var doc Document
	op := OpUpdate
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.get(ctx, tx, collection, id)
		now := s.timestamp()
		switch {
		case errors.Is(err, ErrNotFound):
			op = OpCreate
			doc = Document{Collection: collection, ID: id, CreatedAt: now, UpdatedAt: now}
			if err := doc.setFields(fields); err != nil {
				return err
			}
			return s.insert(ctx, tx, doc)
		case err != nil:
			return err
		}
		doc = existing
		doc.UpdatedAt = now
		if err := doc.setFields(fields); err != nil {
			return err
		}
		return s.update(ctx, tx, doc)
	})
	if err != nil {
		return Document{}, fmt.Errorf("setting %s/%s: %w", collection, id, err)
	}

	s.publish(ctx, Mutation{Collection: collection, DocID: id, Op: op})
	return doc, nil
}

// Get returns one document or ErrNotFound.
func (s *Documents) Get(ctx context.Context, collection, id string) (Document, error) {
	return s.get(ctx, s.db, collection, id)
}

// Update merges fields into the top level of an existing document.
// A nil value removes the key. Last write wins.
func (s *Documents) Update(ctx context.Context, collection, id string, fields map[string]any) (Document, error) {
	var doc Document
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := s.get(ctx, tx, collection, id)
		if err != nil {
			return err
		}

		merged, err := existing.fields()
		if err != nil {
			return err
		}
		for k, v := range fields {
			if isImmutable(k) {
				continue
			}
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}

		normalized, err := toFields(merged)
		if err != nil {
			return err
		}
		doc = existing
		doc.UpdatedAt = s.timestamp()
		if err := doc.setFields(normalized); err != nil {
			return err
		}
		return s.update(ctx, tx, doc)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Document{}, err
		}
		return Document{}, fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}

	s.publish(ctx, Mutation{Collection: collection, DocID: id, Op: OpUpdate})
	return doc, nil
}

// Delete removes a document or returns ErrNotFound.
func (s *Documents) Delete(ctx context.Context, collection, id string) error {
	query, args, err := s.db.builder().Delete(tableDocuments).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.publish(ctx, Mutation{Collection: collection, DocID: id, Op: OpDelete})
	return nil
}

// Query returns the documents matching q in q's order.
func (s *Documents) Query(ctx context.Context, q Query) ([]Document, error) {
	builder, err := q.selectBuilder(s.db.builder().Select(documentColumns...))
	if err != nil {
		return nil, err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Collection, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", q.Collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", q.Collection, err)
	}
	return docs, nil
}

// Count returns how many documents match q's collection and filters.
func (s *Documents) Count(ctx context.Context, q Query) (int64, error) {
	builder, err := q.whereBuilder(s.db.builder().Select("COUNT(*)"))
	if err != nil {
		return 0, err
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count: %w", err)
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", q.Collection, err)
	}
	return n, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Documents) get(ctx context.Context, q queryer, collection, id string) (Document, error) {
	query, args, err := s.db.builder().Select(documentColumns...).
		From(tableDocuments).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return Document{}, fmt.Errorf("building get: %w", err)
	}

	doc, err := scanDocument(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *Documents) insert(ctx context.Context, e execer, doc Document) error {
	query, args, err := s.db.builder().Insert(tableDocuments).
		Columns(documentColumns...).
		Values(doc.Collection, doc.ID, string(doc.Data), doc.Status, doc.SortOrder,
			doc.CreatedAt.UnixMicro(), doc.UpdatedAt.UnixMicro()).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}
	_, err = e.ExecContext(ctx, query, args...)
	return err
}

func (s *Documents) update(ctx context.Context, tx *sql.Tx, doc Document) error {
	query, args, err := s.db.builder().Update(tableDocuments).
		Set("data", string(doc.Data)).
		Set("status", doc.Status).
		Set("sort_order", doc.SortOrder).
		Set("updated_at", doc.UpdatedAt.UnixMicro()).
		Where(sq.Eq{"collection": doc.Collection, "id": doc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func (s *Documents) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// publish notifies watchers. The write is already durable, so a failure is only logged.
func (s *Documents) publish(ctx context.Context, m Mutation) {
	if err := s.broker.Publish(context.WithoutCancel(ctx), m); err != nil {
		s.logger.Warn("failed to publish document change",
			"collection", m.Collection, "id", m.DocID, "op", m.Op, "error", err)
	}
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc                  Document
		data                 string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&doc.Collection, &doc.ID, &data, &doc.Status, &doc.SortOrder, &createdAt, &updatedAt); err != nil {
		return Document{}, err
	}
	doc.Data = json.RawMessage(data)
	doc.CreatedAt = time.UnixMicro(createdAt).UTC()
	doc.UpdatedAt = time.UnixMicro(updatedAt).UTC()
	return doc, nil
}

// toFields converts a record into a top-level JSON object, keeping numbers exact.
func toFields(data any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return decodeFields(raw)
}

func decodeFields(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	if fields == nil {
		return nil, errors.New("document must be a JSON object")
	}
	return fields, nil
}

func (d Document) fields() (map[string]any, error) {
	return decodeFields(d.Data)
}

// setFields stores fields as the document body and refreshes the indexed columns.
func (d *Document) setFields(fields map[string]any) error {
	for _, k := range immutableKeys {
		delete(fields, k)
	}

	d.Status = ""
	if status, ok := fields["status"].(string); ok {
		d.Status = status
	}

	d.SortOrder = 0
	switch v := fields["sortOrder"].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return fmt.Errorf("sortOrder must be an integer: %w", err)
		}
		d.SortOrder = n
	case int:
		d.SortOrder = int64(v)
	case int64:
		d.SortOrder = v
	case float64:
		d.SortOrder = int64(v)
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	d.Data = raw
	return nil
}

func isImmutable(key string) bool {
	for _, k := range immutableKeys {
		if k == key {
			return true
		}
	}
	return false
}
