package trainingplans

import (
	"context"
	"fmt"
	"strings"
	"time"

	"training-app/internal/shared/query"
)

// Service contains business logic for training plans.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// List applies the highest-priority filter present.
func (s *Service) List(ctx context.Context, userID string, f query.Filter) ([]Plan, error) {
	switch f.Kind() {
	case query.KindType:
		return s.Repo.ListByType(ctx, userID, f.Type)
	case query.KindDifficulty:
		return s.Repo.ListByDifficulty(ctx, userID, f.Difficulty)
	case query.KindDuration:
		return s.Repo.ListByDuration(ctx, userID, *f.MinDuration, *f.MaxDuration)
	case query.KindSearch:
		return s.Repo.SearchByName(ctx, userID, f.Search)
	default:
		return s.Repo.ListByUser(ctx, userID)
	}
}

func (s *Service) Get(ctx context.Context, userID string, id int64) (Plan, error) {
	return s.Repo.GetByID(ctx, userID, id)
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (Plan, error) {
	if err := validate(in); err != nil {
		return Plan{}, err
	}
	now := s.now()
	created, err := s.Repo.Create(ctx, Plan{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        in.Type,
		Duration:    in.Duration,
		Difficulty:  in.Difficulty,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Plan{}, fmt.Errorf("create training plan: %w", err)
	}
	return created, nil
}

// Update replaces the editable fields and refreshes updatedAt.
func (s *Service) Update(ctx context.Context, userID string, id int64, in Input) (Plan, error) {
	if err := validate(in); err != nil {
		return Plan{}, err
	}
	return s.Repo.Update(ctx, Plan{
		ID:          id,
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        in.Type,
		Duration:    in.Duration,
		Difficulty:  in.Difficulty,
		UpdatedAt:   s.now(),
	})
}

func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	return s.Repo.Delete(ctx, userID, id)
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}
	return nil
}
