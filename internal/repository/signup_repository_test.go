package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/signup-sheets-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSignupRepositoryAdmitRejectsWhenFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	task := &models.Task{ID: 7, Qty: 3, EnableQuantities: models.No}
	signup := &models.Signup{TaskID: 7, Date: "2025-06-01", FirstName: "Pat", LastName: "Lee", Email: "pat@example.com"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT qty FROM tasks WHERE id = $1 FOR UPDATE")).
		WithArgs(task.ID).
		WillReturnRows(sqlmock.NewRows([]string{"qty"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM signups WHERE task_id = $1 AND date = $2 AND id <> $3")).
		WithArgs(task.ID, signup.Date, int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	result, err := repo.Admit(context.Background(), task, signup, false)
	require.NoError(t, err)
	assert.False(t, result.Admitted)
	assert.Equal(t, 3, result.Filled)
	assert.Equal(t, 0, result.Available)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupRepositoryAdmitDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	task := &models.Task{ID: 7, Qty: 5, EnableQuantities: models.No}
	signup := &models.Signup{TaskID: 7, Date: "2025-06-01", FirstName: "Pat", LastName: "Lee", Email: "pat@example.com"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT qty FROM tasks WHERE id = $1 FOR UPDATE")).
		WithArgs(task.ID).
		WillReturnRows(sqlmock.NewRows([]string{"qty"}).AddRow(5))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM signups WHERE task_id = \\$1 AND date = \\$2\\s+AND").
		WithArgs(task.ID, signup.Date, signup.UserID, signup.FirstName, signup.LastName, signup.Email).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	result, err := repo.Admit(context.Background(), task, signup, true)
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.False(t, result.Admitted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDueRemindersGuardsSentinelDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	// the date cast must stay behind the CASE guard so ongoing-sheet rows
	// holding the no-date sentinel can never reach date_in
	mock.ExpectQuery(`AND CASE WHEN s\.date <> '0000-00-00' THEN s\.date::date END\s+BETWEEN \$1::date`).
		WithArgs("2025-06-01").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "task_id", "date", "user_id", "item", "firstname", "lastname", "email", "phone",
			"item_qty", "reminder1_sent", "reminder2_sent", "validated", "extra", "ts",
			"task_title", "task_dates", "time_start", "time_end", "sheet_id", "sheet_title", "sheet_type",
		}))

	due, err := repo.ListDueReminders(context.Background(), 1, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, due)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupRepositoryDeleteUnvalidatedBefore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSignupRepository(db)

	cutoff := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM signups WHERE validated = FALSE AND user_id = 0 AND ts < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	swept, err := repo.DeleteUnvalidatedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), swept)
	require.NoError(t, mock.ExpectationsWereMet())
}
