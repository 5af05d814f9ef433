// Package store reads catalog records from MySQL/TiDB. Batch methods take a
// whole batch of keys and answer it with as few statements as the IN-list
// limit allows; they are the fetch functions behind the request loaders.
package store

import (
	"context"
	"errors"
	"fmt"

	"comics-graphql/internal/catalog"
	"comics-graphql/internal/dataloader"
	"comics-graphql/internal/dbexec"
	"comics-graphql/internal/pagination"
	"comics-graphql/internal/planner"

	"github.com/go-sql-driver/mysql"
)

// batchMaxInClause bounds the number of keys bound into one IN list.
const batchMaxInClause = 1000

var (
	errAccessDenied = errors.New("access denied")
	errQueryTimeout = errors.New("query execution was interrupted")
)

const (
	mysqlErrDBAccessDenied     = 1044 // Access denied for user to database
	mysqlErrTableAccessDenied  = 1142 // SELECT command denied to user for table
	mysqlErrColumnAccessDenied = 1143 // SELECT command denied to user for column
	mysqlErrQueryInterrupted   = 1317 // Query execution was interrupted
	mysqlErrMaxExecutionTime   = 3024 // Query execution exceeded max_execution_time
)

// Store implements the batch and list reads over the catalog tables.
type Store struct {
	db dbexec.Executor
}

// New creates a store over db.
func New(db dbexec.Executor) *Store {
	return &Store{db: db}
}

func normalizeQueryError(err error) error {
	if err == nil {
		return nil
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDBAccessDenied, mysqlErrTableAccessDenied, mysqlErrColumnAccessDenied:
			return fmt.Errorf("%w: %s", errAccessDenied, mysqlErr.Message)
		case mysqlErrQueryInterrupted, mysqlErrMaxExecutionTime:
			return fmt.Errorf("%w: %s", errQueryTimeout, mysqlErr.Message)
		}
	}
	return err
}

// chunkValues splits keys into IN-list sized groups of driver args.
func chunkValues(keys []int, size int) [][]interface{} {
	if size <= 0 {
		size = batchMaxInClause
	}
	chunks := make([][]interface{}, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		chunk := make([]interface{}, 0, end-start)
		for _, key := range keys[start:end] {
			chunk = append(chunk, key)
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func queryRows(ctx context.Context, exec dbexec.QueryExecutor, q planner.SQLQuery, each func(dbexec.Rows) error) error {
	rows, err := exec.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return normalizeQueryError(err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return normalizeQueryError(rows.Err())
}

// byKeys loads every visible row of e whose column is one of keys.
func byKeys[T any](ctx context.Context, db dbexec.QueryExecutor, e entity[T], column string, keys []int) ([]T, error) {
	var out []T
	for _, chunk := range chunkValues(keys, batchMaxInClause) {
		q, err := planner.PlanByKeys(e.table, column, chunk)
		if err != nil {
			return nil, err
		}
		err = queryRows(ctx, db, q, func(rows dbexec.Rows) error {
			v, err := e.scan(rows)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", e.table.Name, err)
		}
	}
	return out, nil
}

// byPK loads one visible row, or nil when there is none.
func byPK[T any](ctx context.Context, db dbexec.QueryExecutor, e entity[T], id int) (T, bool, error) {
	var (
		result T
		found  bool
	)
	q, err := planner.PlanByPK(e.table, id)
	if err != nil {
		return result, false, err
	}
	err = queryRows(ctx, db, q, func(rows dbexec.Rows) error {
		v, err := e.scan(rows)
		if err != nil {
			return err
		}
		result, found = v, true
		return nil
	})
	if err != nil {
		return result, false, fmt.Errorf("load %s %d: %w", e.table.Name, id, err)
	}
	return result, found, nil
}

// childWindow loads one page of children for every parent in parents, along
// with each parent's total child count, using one windowed statement per
// IN-list chunk. Rows come back ordered by parent and row number, so every
// group keeps the order the database gave the page.
func childWindow[T any](ctx context.Context, db dbexec.QueryExecutor, e entity[T], parentColumn string, parents []int, w pagination.Window) (dataloader.GroupResult[int, T], error) {
	result := dataloader.GroupResult[int, T]{Totals: make(map[int]int, len(parents)), Ordered: true}
	for _, chunk := range chunkValues(parents, batchMaxInClause) {
		q, err := planner.PlanChildWindow(e.table, parentColumn, chunk, w.Limit, w.Offset)
		if err != nil {
			return result, err
		}
		err = queryRows(ctx, db, q, func(rows dbexec.Rows) error {
			var parent, rowNumber, total int
			v, err := e.scan(rows, &parent, &rowNumber, &total)
			if err != nil {
				return err
			}
			result.Totals[parent] = total
			if planner.InWindow(rowNumber, w.Limit, w.Offset) {
				result.Children = append(result.Children, dataloader.Child[int, T]{Parent: parent, Value: v})
			}
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("load %s by %s: %w", e.table.Name, parentColumn, err)
		}
	}
	return result, nil
}

func list[T any](ctx context.Context, db dbexec.Snapshotter, e entity[T], filter *planner.Filter, w pagination.Window) (pagination.Connection[T], error) {
	plan, err := planner.PlanList(e.table, filter, w.Limit, w.Offset)
	if err != nil {
		return pagination.Connection[T]{}, err
	}
	conn, err := pagination.Paginate(ctx, db, pagination.ListQuery[T]{
		Name: e.table.Name,
		Plan: plan,
		Scan: func(rows dbexec.Rows) (T, error) { return e.scan(rows) },
	})
	return conn, normalizeQueryError(err)
}

// One-to-one batch fetches.

func (s *Store) CountriesByID(ctx context.Context, ids []int) ([]*catalog.Country, error) {
	return byKeys(ctx, s.db, countries, planner.KeyColumn, ids)
}

func (s *Store) LanguagesByID(ctx context.Context, ids []int) ([]*catalog.Language, error) {
	return byKeys(ctx, s.db, languages, planner.KeyColumn, ids)
}

func (s *Store) PublishersByID(ctx context.Context, ids []int) ([]*catalog.Publisher, error) {
	return byKeys(ctx, s.db, publishers, planner.KeyColumn, ids)
}

func (s *Store) SeriesByID(ctx context.Context, ids []int) ([]*catalog.Series, error) {
	return byKeys(ctx, s.db, series, planner.KeyColumn, ids)
}

func (s *Store) IssuesByID(ctx context.Context, ids []int) ([]*catalog.Issue, error) {
	return byKeys(ctx, s.db, issues, planner.KeyColumn, ids)
}

func (s *Store) StoryTypesByID(ctx context.Context, ids []int) ([]*catalog.StoryType, error) {
	return byKeys(ctx, s.db, storyTypes, planner.KeyColumn, ids)
}

// One-to-many batch fetches.

func (s *Store) SeriesByPublisher(ctx context.Context, publisherIDs []int, w pagination.Window) (dataloader.GroupResult[int, *catalog.Series], error) {
	return childWindow(ctx, s.db, series, "publisher_id", publisherIDs, w)
}

func (s *Store) IssuesBySeries(ctx context.Context, seriesIDs []int, w pagination.Window) (dataloader.GroupResult[int, *catalog.Issue], error) {
	return childWindow(ctx, s.db, issues, "series_id", seriesIDs, w)
}

func (s *Store) StoriesByIssue(ctx context.Context, issueIDs []int, w pagination.Window) (dataloader.GroupResult[int, *catalog.Story], error) {
	return childWindow(ctx, s.db, stories, "issue_id", issueIDs, w)
}

func (s *Store) VariantsByIssue(ctx context.Context, issueIDs []int, w pagination.Window) (dataloader.GroupResult[int, *catalog.Issue], error) {
	return childWindow(ctx, s.db, issues, "variant_of_id", issueIDs, w)
}

// Root lookups by primary key.

func (s *Store) Publisher(ctx context.Context, id int) (*catalog.Publisher, bool, error) {
	return byPK(ctx, s.db, publishers, id)
}

func (s *Store) Series(ctx context.Context, id int) (*catalog.Series, bool, error) {
	return byPK(ctx, s.db, series, id)
}

func (s *Store) Issue(ctx context.Context, id int) (*catalog.Issue, bool, error) {
	return byPK(ctx, s.db, issues, id)
}

func (s *Store) Story(ctx context.Context, id int) (*catalog.Story, bool, error) {
	return byPK(ctx, s.db, stories, id)
}
