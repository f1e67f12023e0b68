package trainingplans

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

const planColumns = `id, user_id, name, description, type, duration, difficulty, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PGRepo) Create(ctx context.Context, p Plan) (Plan, error) {
	const query = `
INSERT INTO training_plans (user_id, name, description, type, duration, difficulty, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + planColumns
	return scanPlan(r.DB.QueryRowContext(ctx, query,
		p.UserID, p.Name, p.Description, p.Type, p.Duration, p.Difficulty, p.CreatedAt, p.UpdatedAt,
	))
}

func (r *PGRepo) GetByID(ctx context.Context, userID string, id int64) (Plan, error) {
	const query = `SELECT ` + planColumns + ` FROM training_plans WHERE id = $1 AND user_id = $2`
	return scanPlan(r.DB.QueryRowContext(ctx, query, id, userID))
}

func (r *PGRepo) Update(ctx context.Context, p Plan) (Plan, error) {
	const query = `
UPDATE training_plans
SET name = $1, description = $2, type = $3, duration = $4, difficulty = $5, updated_at = $6
WHERE id = $7 AND user_id = $8
RETURNING ` + planColumns
	return scanPlan(r.DB.QueryRowContext(ctx, query,
		p.Name, p.Description, p.Type, p.Duration, p.Difficulty, p.UpdatedAt, p.ID, p.UserID,
	))
}

func (r *PGRepo) Delete(ctx context.Context, userID string, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM training_plans WHERE id = $1 AND user_id = $2`, id, userID)
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

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Plan, error) {
	return r.query(ctx, `user_id = $1`, userID)
}

func (r *PGRepo) ListByType(ctx context.Context, userID, planType string) ([]Plan, error) {
	return r.query(ctx, `user_id = $1 AND type = $2`, userID, planType)
}

func (r *PGRepo) ListByDifficulty(ctx context.Context, userID, difficulty string) ([]Plan, error) {
	return r.query(ctx, `user_id = $1 AND difficulty = $2`, userID, difficulty)
}

func (r *PGRepo) ListByDuration(ctx context.Context, userID string, minDuration, maxDuration int) ([]Plan, error) {
	return r.query(ctx, `user_id = $1 AND duration BETWEEN $2 AND $3`, userID, minDuration, maxDuration)
}

func (r *PGRepo) SearchByName(ctx context.Context, userID, term string) ([]Plan, error) {
	return r.query(ctx, `user_id = $1 AND name LIKE '%' || $2 || '%'`, userID, likeEscaper.Replace(term))
}

// query runs a list select with the given WHERE clause, newest first.
func (r *PGRepo) query(ctx context.Context, where string, args ...any) ([]Plan, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+planColumns+` FROM training_plans WHERE `+where+` ORDER BY created_at DESC, id DESC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPlan(s interface{ Scan(dest ...any) error }) (Plan, error) {
	var p Plan
	err := s.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Type, &p.Duration, &p.Difficulty, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Plan{}, ErrNotFound
	}
	return p, err
}
