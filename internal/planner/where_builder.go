package planner

import (
	"fmt"

	"comics-graphql/internal/sqlutil"

	sq "github.com/Masterminds/squirrel"
)

// Filter accumulates the predicates of a list query. The zero value matches
// every visible row. Methods return the filter for chaining.
type Filter struct {
	conditions []sq.Sqlizer
}

// Empty reports whether no predicate has been added.
func (f *Filter) Empty() bool {
	return f == nil || len(f.conditions) == 0
}

// Equals matches column = value.
func (f *Filter) Equals(column string, value interface{}) *Filter {
	f.conditions = append(f.conditions, sq.Eq{sqlutil.QuoteIdentifier(column): value})
	return f
}

// Contains matches rows whose column contains text, case handling left to
// the column collation.
func (f *Filter) Contains(column, text string) *Filter {
	f.conditions = append(f.conditions, sq.Like{sqlutil.QuoteIdentifier(column): sqlutil.ContainsPattern(text)})
	return f
}

// AtLeast matches column >= value.
func (f *Filter) AtLeast(column string, value interface{}) *Filter {
	f.conditions = append(f.conditions, sq.GtOrEq{sqlutil.QuoteIdentifier(column): value})
	return f
}

// AtMost matches column <= value.
func (f *Filter) AtMost(column string, value interface{}) *Filter {
	f.conditions = append(f.conditions, sq.LtOrEq{sqlutil.QuoteIdentifier(column): value})
	return f
}

// MatchesLookup matches rows whose column references a row of lookupTable
// with lookupColumn = value, e.g. a country_id whose country has code "us".
func (f *Filter) MatchesLookup(column, lookupTable, lookupColumn string, value interface{}) *Filter {
	expr := fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s = ?)",
		sqlutil.QuoteIdentifier(column),
		sqlutil.QuoteIdentifier(KeyColumn),
		sqlutil.QuoteIdentifier(lookupTable),
		sqlutil.QuoteIdentifier(lookupColumn),
	)
	f.conditions = append(f.conditions, sq.Expr(expr, value))
	return f
}
