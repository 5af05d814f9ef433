package dbexec

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardExecutorQuery(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT `id` FROM `gcd_issue`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	exec := NewStandardExecutor(db)
	rows, err := exec.QueryContext(context.Background(), "SELECT `id` FROM `gcd_issue` WHERE `id` = ?", 1)
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var id int
	require.NoError(t, rows.Scan(&id))
	assert.Equal(t, 1, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
	mock.ExpectCommit()

	tx, err := NewStandardExecutor(db).BeginSnapshot(context.Background())
	require.NoError(t, err)

	rows, err := tx.QueryContext(context.Background(), "SELECT COUNT(*) FROM `gcd_series`")
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	require.NoError(t, tx.Commit())
	// Rollback after commit is a no-op.
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginSnapshotError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err = NewStandardExecutor(db).BeginSnapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin snapshot")
}

func TestNilDatabase(t *testing.T) {
	exec := NewStandardExecutor(nil)
	_, err := exec.QueryContext(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	_, err = exec.BeginSnapshot(context.Background())
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
