// Package paging emulates 1-based offset paging over stores that can only
// scan forward from a continuation cursor.
//
// Reaching page N costs N scans of limit items each, so requests get more
// expensive the deeper they page. That is acceptable for the small catalogs
// this service lists.
package paging

import (
	"context"
	"fmt"
)

const (
	DefaultLimit = 5
	MaxLimit     = 100
)

// Scanner is a cursor-only listing. Scan returns up to limit items following
// after ("" for the start) and a non-empty cursor only when more items follow.
type Scanner[T any] interface {
	Scan(ctx context.Context, limit int, after string) ([]T, string, error)
	Count(ctx context.Context) (int, error)
}

// Page is one page of a walk plus the independent total.
type Page[T any] struct {
	Items  []T
	Cursor string
	Total  int
	Limit  int
	Page   int
}

// Normalize applies the default page size and first page to unset values.
func Normalize(limit, page int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page <= 0 {
		page = 1
	}
	return limit, page
}

// Walk scans forward page times, discarding the pages before the target.
// Running out of data before the target yields an empty page with no cursor.
func Walk[T any](ctx context.Context, s Scanner[T], limit, page int) (Page[T], error) {
	limit, page = Normalize(limit, page)
	out := Page[T]{Items: []T{}, Limit: limit, Page: page}

	total, err := s.Count(ctx)
	if err != nil {
		return out, fmt.Errorf("count: %w", err)
	}
	out.Total = total

	cursor := ""
	for i := 1; i <= page; i++ {
		items, next, err := s.Scan(ctx, limit, cursor)
		if err != nil {
			return out, fmt.Errorf("scan page %d: %w", i, err)
		}
		if i == page {
			if items != nil {
				out.Items = items
			}
			out.Cursor = next
			return out, nil
		}
		if next == "" {
			return out, nil
		}
		cursor = next
	}
	return out, nil
}
