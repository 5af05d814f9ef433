// Package planner builds the SQL statements issued by the storage layer.
// It only renders SQL; executing and scanning is the caller's job.
package planner

import (
	"errors"
	"strings"

	"comics-graphql/internal/sqlutil"

	sq "github.com/Masterminds/squirrel"
)

// KeyColumn is the primary key column of every catalog table.
const KeyColumn = "id"

// softDeleteColumn flags rows that must never be returned.
const softDeleteColumn = "deleted"

// ErrNoKeys is returned when a batch plan is requested for an empty key set.
var ErrNoKeys = errors.New("planner: no keys")

// SQLQuery represents a planned SQL statement with bound args.
type SQLQuery struct {
	SQL  string
	Args []interface{}
}

// Table describes a catalog table. Columns are selected, and must be
// scanned, in the listed order.
type Table struct {
	Name       string
	Columns    []string
	SortColumn string
	SoftDelete bool
}

func (t Table) quotedColumns() []string {
	cols := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cols[i] = sqlutil.QuoteIdentifier(col)
	}
	return cols
}

// orderBy is the deterministic row order: sort attribute, then primary key.
func (t Table) orderBy() []string {
	if t.SortColumn == "" || t.SortColumn == KeyColumn {
		return []string{sqlutil.QuoteIdentifier(KeyColumn)}
	}
	return []string{sqlutil.QuoteIdentifier(t.SortColumn), sqlutil.QuoteIdentifier(KeyColumn)}
}

// visible returns the predicate hiding soft-deleted rows, or nil.
func (t Table) visible() sq.Sqlizer {
	if !t.SoftDelete {
		return nil
	}
	return sq.Eq{sqlutil.QuoteIdentifier(softDeleteColumn): 0}
}

// PlanByKeys builds a batched lookup of rows whose column matches any of keys.
func PlanByKeys(table Table, column string, keys []interface{}) (SQLQuery, error) {
	if len(keys) == 0 {
		return SQLQuery{}, ErrNoKeys
	}
	builder := sq.Select(table.quotedColumns()...).
		From(sqlutil.QuoteIdentifier(table.Name)).
		Where(sq.Eq{sqlutil.QuoteIdentifier(column): keys})
	if cond := table.visible(); cond != nil {
		builder = builder.Where(cond)
	}
	query, args, err := builder.
		OrderBy(sqlutil.QuoteIdentifier(KeyColumn)).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// PlanByPK builds a single-row lookup by primary key.
func PlanByPK(table Table, id interface{}) (SQLQuery, error) {
	builder := sq.Select(table.quotedColumns()...).
		From(sqlutil.QuoteIdentifier(table.Name)).
		Where(sq.Eq{sqlutil.QuoteIdentifier(KeyColumn): id})
	if cond := table.visible(); cond != nil {
		builder = builder.Where(cond)
	}
	query, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// joinConditions renders conditions as one AND-ed predicate. Nil entries
// are skipped; an empty result means no predicate.
func joinConditions(conds []sq.Sqlizer) (string, []interface{}, error) {
	parts := make([]string, 0, len(conds))
	var args []interface{}
	for _, cond := range conds {
		if cond == nil {
			continue
		}
		condSQL, condArgs, err := cond.ToSql()
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, condSQL)
		args = append(args, condArgs...)
	}
	return strings.Join(parts, " AND "), args, nil
}
