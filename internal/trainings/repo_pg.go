package trainings

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, title, description, type, difficulty, duration_minutes, created_at`

const orderNewestFirst = `ORDER BY created_at DESC, id DESC`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Create inserts a training and returns it with id and created_at populated.
func (r *PGRepo) Create(ctx context.Context, t Training) (Training, error) {
	const query = `
INSERT INTO trainings (user_id, title, description, type, difficulty, duration_minutes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + selectColumns
	row := r.DB.QueryRowContext(ctx, query,
		t.UserID,
		t.Title,
		t.Description,
		t.Type,
		t.Difficulty,
		t.DurationMinutes,
		t.CreatedAt,
	)
	return scanTraining(row)
}

// GetByID fetches a training owned by userID.
func (r *PGRepo) GetByID(ctx context.Context, userID string, id int64) (Training, error) {
	const query = `SELECT ` + selectColumns + ` FROM trainings WHERE id = $1 AND user_id = $2`
	return scanTraining(r.DB.QueryRowContext(ctx, query, id, userID))
}

// Update overwrites the editable fields of an owned training.
func (r *PGRepo) Update(ctx context.Context, t Training) (Training, error) {
	const query = `
UPDATE trainings
SET title = $1, description = $2, type = $3, difficulty = $4, duration_minutes = $5
WHERE id = $6 AND user_id = $7
RETURNING ` + selectColumns
	row := r.DB.QueryRowContext(ctx, query,
		t.Title,
		t.Description,
		t.Type,
		t.Difficulty,
		t.DurationMinutes,
		t.ID,
		t.UserID,
	)
	return scanTraining(row)
}

// Delete removes an owned training.
func (r *PGRepo) Delete(ctx context.Context, userID string, id int64) error {
	const query = `DELETE FROM trainings WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns all trainings for a user, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Training, error) {
	const query = `SELECT ` + selectColumns + ` FROM trainings WHERE user_id = $1 ` + orderNewestFirst
	return r.query(ctx, query, userID)
}

// ListByType returns a user's trainings of one type.
func (r *PGRepo) ListByType(ctx context.Context, userID, trainingType string) ([]Training, error) {
	const query = `SELECT ` + selectColumns + ` FROM trainings WHERE user_id = $1 AND type = $2 ` + orderNewestFirst
	return r.query(ctx, query, userID, trainingType)
}

// ListByDifficulty returns a user's trainings of one difficulty.
func (r *PGRepo) ListByDifficulty(ctx context.Context, userID, difficulty string) ([]Training, error) {
	const query = `SELECT ` + selectColumns + ` FROM trainings WHERE user_id = $1 AND difficulty = $2 ` + orderNewestFirst
	return r.query(ctx, query, userID, difficulty)
}

// ListByDuration returns trainings whose duration lies in [minMinutes, maxMinutes].
func (r *PGRepo) ListByDuration(ctx context.Context, userID string, minMinutes, maxMinutes int) ([]Training, error) {
	const query = `SELECT ` + selectColumns + ` FROM trainings WHERE user_id = $1 AND duration_minutes BETWEEN $2 AND $3 ` + orderNewestFirst
	return r.query(ctx, query, userID, minMinutes, maxMinutes)
}

// SearchByTitle returns trainings whose title contains term (case-sensitive).
func (r *PGRepo) SearchByTitle(ctx context.Context, userID, term string) ([]Training, error) {
	const query = `SELECT ` + selectColumns + ` FROM trainings WHERE user_id = $1 AND title LIKE '%' || $2 || '%' ` + orderNewestFirst
	return r.query(ctx, query, userID, likeEscaper.Replace(term))
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Training, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Training, 0)
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTraining(s scanner) (Training, error) {
	var t Training
	err := s.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Type,
		&t.Difficulty,
		&t.DurationMinutes,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Training{}, ErrNotFound
		}
		return Training{}, err
	}
	return t, nil
}
