package planner

import (
	"fmt"
	"strings"

	"comics-graphql/internal/sqlutil"

	sq "github.com/Masterminds/squirrel"
)

// Aliases of the bookkeeping columns appended to child window rows, in
// scan order after the table columns.
const (
	BatchParentAlias = "__batch_parent_id"
	BatchRowAlias    = "__rn"
	BatchTotalAlias  = "__total"
)

// PlanChildWindow builds one statement returning, for every parent in
// parents, the rows in the page [offset, offset+limit) of its children plus
// the total child count. Children are numbered per parent in the table's
// deterministic order. The first row of every non-empty partition is always
// returned so its __total reaches the caller even when the page is empty;
// callers keep only rows whose __rn falls in the page.
func PlanChildWindow(table Table, parentColumn string, parents []interface{}, limit, offset int) (SQLQuery, error) {
	if len(parents) == 0 {
		return SQLQuery{}, ErrNoKeys
	}
	if limit < 1 || offset < 0 {
		return SQLQuery{}, fmt.Errorf("planner: invalid window limit=%d offset=%d", limit, offset)
	}

	partition := sqlutil.QuoteIdentifier(parentColumn)
	whereSQL, whereArgs, err := joinConditions([]sq.Sqlizer{
		sq.Eq{partition: parents},
		table.visible(),
	})
	if err != nil {
		return SQLQuery{}, err
	}

	columnList := strings.Join(table.quotedColumns(), ", ")
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s FROM (SELECT %s, %s AS %s, ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s) AS %s, COUNT(*) OVER (PARTITION BY %s) AS %s FROM %s WHERE %s) AS __batch WHERE (%s > ? AND %s <= ?) OR %s = 1 ORDER BY %s, %s",
		columnList, BatchParentAlias, BatchRowAlias, BatchTotalAlias,
		columnList, partition, BatchParentAlias,
		partition, strings.Join(table.orderBy(), ", "), BatchRowAlias,
		partition, BatchTotalAlias,
		sqlutil.QuoteIdentifier(table.Name),
		whereSQL,
		BatchRowAlias, BatchRowAlias, BatchRowAlias,
		BatchParentAlias, BatchRowAlias,
	)

	args := append([]interface{}{}, whereArgs...)
	args = append(args, offset, offset+limit)
	return SQLQuery{SQL: query, Args: args}, nil
}

// InWindow reports whether a 1-based row number falls in the page.
func InWindow(rowNumber, limit, offset int) bool {
	return rowNumber > offset && rowNumber <= offset+limit
}
