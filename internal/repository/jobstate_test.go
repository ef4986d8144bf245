package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastRunNilWhenNeverRan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobStateRepository(db)

	mock.ExpectQuery(`SELECT last_run FROM job_state`).
		WithArgs("daily_billing").
		WillReturnRows(sqlmock.NewRows([]string{"last_run"}))

	last, err := repo.LastRun(context.Background(), "daily_billing")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestMarkRunUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobStateRepository(db)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO job_state`).
		WithArgs("daily_billing", day).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkRun(context.Background(), "daily_billing", day))
	require.NoError(t, mock.ExpectationsWereMet())
}
