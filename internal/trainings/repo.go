package trainings

import "context"

// Repo defines persistence for trainings. Every lookup is scoped to a user.
type Repo interface {
	Create(ctx context.Context, t Training) (Training, error)
	GetByID(ctx context.Context, userID string, id int64) (Training, error)
	Update(ctx context.Context, t Training) (Training, error)
	Delete(ctx context.Context, userID string, id int64) error
	ListByUser(ctx context.Context, userID string) ([]Training, error)
	ListByType(ctx context.Context, userID, trainingType string) ([]Training, error)
	ListByDifficulty(ctx context.Context, userID, difficulty string) ([]Training, error)
	ListByDuration(ctx context.Context, userID string, minMinutes, maxMinutes int) ([]Training, error)
	SearchByTitle(ctx context.Context, userID, term string) ([]Training, error)
}
