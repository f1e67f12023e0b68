package trainingplans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var planCols = []string{"id", "user_id", "name", "description", "type", "duration", "difficulty", "created_at", "updated_at"}

func TestPGRepoUpdateMissingIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}
	now := time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("UPDATE training_plans").
		WithArgs("n", "", "", 1, "", now, int64(5), "u2").
		WillReturnRows(sqlmock.NewRows(planCols))

	_, err = repo.Update(context.Background(), Plan{ID: 5, UserID: "u2", Name: "n", Duration: 1, UpdatedAt: now})
	require.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoListByTypeOrdersNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := &PGRepo{DB: db}
	older := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	mock.ExpectQuery("WHERE user_id = \\$1 AND type = \\$2 ORDER BY created_at DESC, id DESC").
		WithArgs("u1", "cardio").
		WillReturnRows(sqlmock.NewRows(planCols).
			AddRow(int64(2), "u1", "B", "", "cardio", 3, "", newer, newer).
			AddRow(int64(1), "u1", "A", "", "cardio", 2, "", older, older))

	plans, err := repo.ListByType(context.Background(), "u1", "cardio")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Equal(t, "B", plans[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
