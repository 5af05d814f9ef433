// Package pagination implements the offset/limit connection contract shared
// by every list field: a page of items plus the total number of matches,
// both taken from one snapshot.
package pagination

import (
	"context"
	"fmt"

	"comics-graphql/internal/dbexec"
	"comics-graphql/internal/planner"
	"comics-graphql/internal/validate"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultLimit is the page size used when a list field gets no limit.
	DefaultLimit = 20
	// MaxLimit caps every page.
	MaxLimit = validate.MaxLimit
)

// Window is a validated page request.
type Window struct {
	Limit  int
	Offset int
}

// ClampDefault forces a configured default page size into [1, MaxLimit].
// Non-positive values fall back to DefaultLimit.
func ClampDefault(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// ParseWindow reads limit and offset from GraphQL field arguments. Absent
// values take the defaults; explicit values outside the allowed range are
// rejected with BAD_USER_INPUT.
func ParseWindow(args map[string]interface{}, defaultLimit int) (Window, error) {
	w := Window{Limit: ClampDefault(defaultLimit)}

	if raw, ok := args["limit"]; ok && raw != nil {
		limit, ok := raw.(int)
		if !ok {
			return Window{}, fmt.Errorf("limit: unexpected argument type %T", raw)
		}
		if err := validate.Limit("limit", limit); err != nil {
			return Window{}, err
		}
		w.Limit = limit
	}
	if raw, ok := args["offset"]; ok && raw != nil {
		offset, ok := raw.(int)
		if !ok {
			return Window{}, fmt.Errorf("offset: unexpected argument type %T", raw)
		}
		if err := validate.Offset("offset", offset); err != nil {
			return Window{}, err
		}
		w.Offset = offset
	}
	return w, nil
}

// Connection is one page of a list and the total number of matching rows.
// It is not modified after construction.
type Connection[T any] struct {
	Items      []T `graphql:"items"`
	TotalCount int `graphql:"totalCount"`
}

// NewConnection builds a connection, normalising nil items to an empty slice.
func NewConnection[T any](items []T, total int) Connection[T] {
	if items == nil {
		items = []T{}
	}
	return Connection[T]{Items: items, TotalCount: total}
}

// ListQuery couples a planned page/count pair with the row scanner for T.
type ListQuery[T any] struct {
	Name string
	Plan planner.ListPlan
	Scan func(dbexec.Rows) (T, error)
}

// Paginate runs the page and count statements of q inside one read-only
// snapshot transaction.
func Paginate[T any](ctx context.Context, db dbexec.Snapshotter, q ListQuery[T]) (conn Connection[T], err error) {
	ctx, span := otel.Tracer("comics-graphql/pagination").Start(ctx, "pagination.paginate")
	span.SetAttributes(attribute.String("pagination.list", q.Name))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := db.BeginSnapshot(ctx)
	if err != nil {
		return Connection[T]{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	items, err := queryAll(ctx, tx, q.Plan.Page, q.Scan)
	if err != nil {
		return Connection[T]{}, fmt.Errorf("%s page: %w", q.Name, err)
	}
	total, err := queryCount(ctx, tx, q.Plan.Count)
	if err != nil {
		return Connection[T]{}, fmt.Errorf("%s count: %w", q.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return Connection[T]{}, fmt.Errorf("%s commit: %w", q.Name, err)
	}

	span.SetAttributes(
		attribute.Int("pagination.items", len(items)),
		attribute.Int("pagination.total", total),
	)
	return NewConnection(items, total), nil
}

func queryAll[T any](ctx context.Context, exec dbexec.QueryExecutor, q planner.SQLQuery, scan func(dbexec.Rows) (T, error)) ([]T, error) {
	rows, err := exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func queryCount(ctx context.Context, exec dbexec.QueryExecutor, q planner.SQLQuery) (int, error) {
	rows, err := exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var total int
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, err
		}
	}
	return total, rows.Err()
}
