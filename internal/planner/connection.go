package planner

import (
	"fmt"

	"comics-graphql/internal/sqlutil"

	sq "github.com/Masterminds/squirrel"
)

// ListPlan holds the two statements of a paginated list. Both share the same
// predicate, so a page and its total agree when run in one snapshot.
type ListPlan struct {
	Page  SQLQuery
	Count SQLQuery
}

// PlanList builds the page and count statements for a filtered root list.
func PlanList(table Table, filter *Filter, limit, offset int) (ListPlan, error) {
	if limit < 1 || offset < 0 {
		return ListPlan{}, fmt.Errorf("planner: invalid window limit=%d offset=%d", limit, offset)
	}

	conds := []sq.Sqlizer{table.visible()}
	if filter != nil {
		conds = append(conds, filter.conditions...)
	}
	whereSQL, whereArgs, err := joinConditions(conds)
	if err != nil {
		return ListPlan{}, err
	}

	from := sqlutil.QuoteIdentifier(table.Name)
	page := sq.Select(table.quotedColumns()...).From(from)
	count := sq.Select("COUNT(*)").From(from)
	if whereSQL != "" {
		page = page.Where(whereSQL, whereArgs...)
		count = count.Where(whereSQL, whereArgs...)
	}

	pageSQL, pageArgs, err := page.
		OrderBy(table.orderBy()...).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return ListPlan{}, err
	}
	countSQL, countArgs, err := count.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return ListPlan{}, err
	}

	return ListPlan{
		Page:  SQLQuery{SQL: pageSQL, Args: pageArgs},
		Count: SQLQuery{SQL: countSQL, Args: countArgs},
	}, nil
}
