package cache

import "context"

const defaultPageSize = 20

// Query describes one page of a remote read. Cursor is the boundary value
// from the previous page ("" for the first page); offsets are never used.
type Query struct {
	OrderBy    string
	Descending bool
	Filters    map[string]any
	PageSize   int
	Cursor     any
}

// FetchFunc executes one page query against the remote source.
type FetchFunc[T any] func(ctx context.Context, q Query) ([]T, error)

// Page is one page of results plus the cursor for the next one.
type Page[T any] struct {
	Rows       []T
	HasMore    bool
	NextCursor any
}

// PaginatedRead fetches pageSize+1 rows ordered descending by q.OrderBy; the
// extra row, when present, proves there is a further page and is dropped from
// the result. cursorOf extracts the ordering value of a row, which becomes
// NextCursor.
func PaginatedRead[T any](ctx context.Context, fetch FetchFunc[T], q Query, cursorOf func(T) any) (Page[T], error) {
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	pageSize := q.PageSize

	probe := q
	probe.Descending = true
	probe.PageSize = pageSize + 1

	rows, err := fetch(ctx, probe)
	if err != nil {
		return Page[T]{}, err
	}

	page := Page[T]{Rows: rows}
	if len(rows) > pageSize {
		page.HasMore = true
		page.Rows = rows[:pageSize]
	}
	if n := len(page.Rows); n > 0 && cursorOf != nil {
		page.NextCursor = cursorOf(page.Rows[n-1])
	}
	return page, nil
}
