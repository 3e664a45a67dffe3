// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Field names an indexed document attribute usable in filters and ordering.
type Field string

// Indexed fields.
const (
	FieldID        Field = "id"
	FieldStatus    Field = "status"
	FieldCreatedAt Field = "createdAt"
	FieldSortOrder Field = "sortOrder"
)

var fieldColumns = map[Field]string{
	FieldID:        "id",
	FieldStatus:    "status",
	FieldCreatedAt: "created_at",
	FieldSortOrder: "sort_order",
}

// Op is a filter comparison.
type Op int

// Filter comparisons.
const (
	OpEq Op = iota
	OpNotEq
)

// Filter restricts a query to documents whose field compares to Value.
type Filter struct {
	Field Field
	Op    Op
	Value any
}

// Eq returns an equality filter.
func Eq(field Field, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// NotEq returns an inequality filter.
func NotEq(field Field, value any) Filter {
	return Filter{Field: field, Op: OpNotEq, Value: value}
}

// Query selects an ordered window of one collection. Results are always
// ordered by an explicit field with the id as tiebreak, defaulting to createdAt.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    Field
	Descending bool
	Limit      int
	Offset     int
}

// Newest returns a query for the most recent documents of a collection.
func Newest(collection string, limit int) Query {
	return Query{Collection: collection, OrderBy: FieldCreatedAt, Descending: true, Limit: limit}
}

func (q Query) whereBuilder(b sq.SelectBuilder) (sq.SelectBuilder, error) {
	if q.Collection == "" {
		return b, errors.New("query requires a collection")
	}
	b = b.From(tableDocuments).Where(sq.Eq{"collection": q.Collection})

	for _, f := range q.Filters {
		col, ok := fieldColumns[f.Field]
		if !ok {
			return b, fmt.Errorf("cannot filter on field %q", f.Field)
		}
		switch f.Op {
		case OpEq:
			b = b.Where(sq.Eq{col: f.Value})
		case OpNotEq:
			b = b.Where(sq.NotEq{col: f.Value})
		default:
			return b, fmt.Errorf("unknown filter op %d", f.Op)
		}
	}
	return b, nil
}

func (q Query) selectBuilder(b sq.SelectBuilder) (sq.SelectBuilder, error) {
	b, err := q.whereBuilder(b)
	if err != nil {
		return b, err
	}

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = FieldCreatedAt
	}
	col, ok := fieldColumns[orderBy]
	if !ok {
		return b, fmt.Errorf("cannot order by field %q", orderBy)
	}
	dir := " ASC"
	if q.Descending {
		dir = " DESC"
	}
	b = b.OrderBy(col+dir, "id"+dir)

	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		b = b.Offset(uint64(q.Offset))
	}
	return b, nil
}
