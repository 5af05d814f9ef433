package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"comics-graphql/internal/dbexec"
	"comics-graphql/internal/pagination"
	"comics-graphql/internal/planner"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(dbexec.NewStandardExecutor(db)), mock
}

func expectQuery(mock sqlmock.Sqlmock, q planner.SQLQuery, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(q.SQL)).
		WithArgs(toDriverValues(q.Args)...).
		WillReturnRows(rows)
}

func toDriverValues(args []interface{}) []driver.Value {
	values := make([]driver.Value, len(args))
	for i, arg := range args {
		values[i] = arg
	}
	return values
}

func issueRows(extra ...string) *sqlmock.Rows {
	return sqlmock.NewRows(append(append([]string{}, issues.table.Columns...), extra...))
}

func TestIssuesByID(t *testing.T) {
	s, mock := newMockStore(t)

	q, err := planner.PlanByKeys(issues.table, planner.KeyColumn, []interface{}{1, 2})
	require.NoError(t, err)
	expectQuery(mock, q, issueRows().
		AddRow(1, "1", nil, 10, 1, "1986-02-00", "February 1986", nil, "0.75 USD", "32.000", nil).
		AddRow(2, "1", "Variant", 10, 2, nil, nil, nil, nil, nil, 1))

	got, err := s.IssuesByID(context.Background(), []int{1, 2})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].ID)
	assert.Nil(t, got[0].Title)
	require.NotNil(t, got[0].KeyDate)
	assert.Equal(t, "1986-02-00", *got[0].KeyDate)
	require.NotNil(t, got[0].PageCount)
	assert.InDelta(t, 32.0, *got[0].PageCount, 0.001)
	assert.Nil(t, got[0].VariantOfID)

	require.NotNil(t, got[1].VariantOfID)
	assert.Equal(t, 1, *got[1].VariantOfID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestByKeysChunksLargeBatches(t *testing.T) {
	s, mock := newMockStore(t)

	keys := make([]int, batchMaxInClause+1)
	for i := range keys {
		keys[i] = i + 1
	}
	chunks := chunkValues(keys, batchMaxInClause)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], batchMaxInClause)
	assert.Equal(t, []interface{}{batchMaxInClause + 1}, chunks[1])

	for _, chunk := range chunks {
		q, err := planner.PlanByKeys(countries.table, planner.KeyColumn, chunk)
		require.NoError(t, err)
		expectQuery(mock, q, sqlmock.NewRows(countries.table.Columns).AddRow(chunk[0], "us", "United States"))
	}

	got, err := s.CountriesByID(context.Background(), keys)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssuesBySeriesWindow(t *testing.T) {
	s, mock := newMockStore(t)
	w := pagination.Window{Limit: 1, Offset: 1}

	q, err := planner.PlanChildWindow(issues.table, "series_id", []interface{}{10, 20, 30}, w.Limit, w.Offset)
	require.NoError(t, err)
	expectQuery(mock, q, issueRows(planner.BatchParentAlias, planner.BatchRowAlias, planner.BatchTotalAlias).
		// series 10: count carrier (row 1) plus the requested row 2
		AddRow(100, "1", nil, 10, 1, nil, nil, nil, nil, nil, nil, 10, 1, 4843).
		AddRow(101, "2", nil, 10, 2, nil, nil, nil, nil, nil, nil, 10, 2, 4843).
		// series 20: only one issue, so only the carrier comes back
		AddRow(200, "1", nil, 20, 1, nil, nil, nil, nil, nil, nil, 20, 1, 1))

	got, err := s.IssuesBySeries(context.Background(), []int{10, 20, 30}, w)
	require.NoError(t, err)

	require.Len(t, got.Children, 1)
	assert.Equal(t, 10, got.Children[0].Parent)
	assert.Equal(t, 101, got.Children[0].Value.ID)
	assert.Equal(t, map[int]int{10: 4843, 20: 1}, got.Totals)
	assert.True(t, got.Ordered, "rows arrive in statement order")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherByPK(t *testing.T) {
	s, mock := newMockStore(t)

	q, err := planner.PlanByPK(publishers.table, 54)
	require.NoError(t, err)
	expectQuery(mock, q, sqlmock.NewRows(publishers.table.Columns).
		AddRow(54, "DC", 225, 1935, nil, "http://www.dccomics.com", nil, 6122, 48719))

	p, found, err := s.Publisher(context.Background(), 54)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "DC", p.Name)
	assert.Equal(t, 225, p.CountryID)
	require.NotNil(t, p.YearBegan)
	assert.Equal(t, 1935, *p.YearBegan)
	assert.Nil(t, p.YearEnded)

	q, err = planner.PlanByPK(publishers.table, 99)
	require.NoError(t, err)
	expectQuery(mock, q, sqlmock.NewRows(publishers.table.Columns))

	p, found, err = s.Publisher(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, p)
}

func TestListSeriesFilters(t *testing.T) {
	s, mock := newMockStore(t)

	name := "Batman"
	current := true
	filter := SeriesFilter{Name: &name, IsCurrent: &current}
	w := pagination.Window{Limit: 20}

	plan, err := planner.PlanList(series.table, filter.build(), w.Limit, w.Offset)
	require.NoError(t, err)
	assert.Contains(t, plan.Count.SQL, "`name` LIKE ?")
	assert.Contains(t, plan.Count.SQL, "`is_current` = ?")
	assert.Equal(t, []interface{}{0, "%Batman%", 1}, plan.Count.Args)

	mock.ExpectBegin()
	expectQuery(mock, plan.Page, sqlmock.NewRows(series.table.Columns).
		AddRow(1, "Batman", "Batman", "comic", 1940, nil, 1, 54, 225, 25, 713))
	expectQuery(mock, plan.Count, sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectCommit()

	conn, err := s.ListSeries(context.Background(), filter, w)
	require.NoError(t, err)
	require.Len(t, conn.Items, 1)
	assert.Equal(t, 1, conn.Items[0].IsCurrent)
	assert.Equal(t, 1, conn.TotalCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueFilterBuild(t *testing.T) {
	from, to := "1986-01-01", "1986-12-31"
	seriesID := 7
	plan, err := planner.PlanList(issues.table, IssueFilter{SeriesID: &seriesID, KeyDateFrom: &from, KeyDateTo: &to}.build(), 20, 0)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) FROM `gcd_issue` WHERE `deleted` = ? AND `series_id` = ? AND `key_date` >= ? AND `key_date` <= ?",
		plan.Count.SQL)
}

func TestNormalizeQueryError(t *testing.T) {
	assert.NoError(t, normalizeQueryError(nil))

	err := normalizeQueryError(&mysql.MySQLError{Number: 1142, Message: "SELECT command denied"})
	assert.ErrorIs(t, err, errAccessDenied)

	err = normalizeQueryError(&mysql.MySQLError{Number: 3024, Message: "max_execution_time exceeded"})
	assert.ErrorIs(t, err, errQueryTimeout)

	plain := errors.New("bad connection")
	assert.Same(t, plain, normalizeQueryError(plain))
}

func TestQueryFailureIsWrapped(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM `gcd_series`").WillReturnError(&mysql.MySQLError{Number: 1142, Message: "denied"})

	_, err := s.SeriesByID(context.Background(), []int{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errAccessDenied)
	assert.Contains(t, err.Error(), "load gcd_series")
}
