package trainingplans

import "context"

// Repo defines persistence for training plans.
type Repo interface {
	Create(ctx context.Context, p Plan) (Plan, error)
	GetByID(ctx context.Context, userID string, id int64) (Plan, error)
	Update(ctx context.Context, p Plan) (Plan, error)
	Delete(ctx context.Context, userID string, id int64) error
	ListByUser(ctx context.Context, userID string) ([]Plan, error)
	ListByType(ctx context.Context, userID, planType string) ([]Plan, error)
	ListByDifficulty(ctx context.Context, userID, difficulty string) ([]Plan, error)
	ListByDuration(ctx context.Context, userID string, minDuration, maxDuration int) ([]Plan, error)
	SearchByName(ctx context.Context, userID, term string) ([]Plan, error)
}
