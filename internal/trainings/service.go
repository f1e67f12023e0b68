package trainings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"training-app/internal/shared/query"
)

// Service contains business logic for trainings.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// NewService constructs a Service backed by repo.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// List returns the user's trainings narrowed by the highest-priority filter present.
func (s *Service) List(ctx context.Context, userID string, f query.Filter) ([]Training, error) {
	switch f.Kind() {
	case query.KindType:
		return s.Repo.ListByType(ctx, userID, f.Type)
	case query.KindDifficulty:
		return s.Repo.ListByDifficulty(ctx, userID, f.Difficulty)
	case query.KindDuration:
		return s.Repo.ListByDuration(ctx, userID, *f.MinDuration, *f.MaxDuration)
	case query.KindSearch:
		return s.Repo.SearchByTitle(ctx, userID, f.Search)
	default:
		return s.Repo.ListByUser(ctx, userID)
	}
}

// Get returns one training owned by userID.
func (s *Service) Get(ctx context.Context, userID string, id int64) (Training, error) {
	return s.Repo.GetByID(ctx, userID, id)
}

// Create stores a new training for userID.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Training, error) {
	if err := validate(in); err != nil {
		return Training{}, err
	}
	t := Training{
		UserID:          userID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Type:            in.Type,
		Difficulty:      in.Difficulty,
		DurationMinutes: in.DurationMinutes,
		CreatedAt:       s.now(),
	}
	created, err := s.Repo.Create(ctx, t)
	if err != nil {
		return Training{}, fmt.Errorf("create training: %w", err)
	}
	return created, nil
}

// Update replaces the editable fields of an owned training.
func (s *Service) Update(ctx context.Context, userID string, id int64, in Input) (Training, error) {
	if err := validate(in); err != nil {
		return Training{}, err
	}
	return s.Repo.Update(ctx, Training{
		ID:              id,
		UserID:          userID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Type:            in.Type,
		Difficulty:      in.Difficulty,
		DurationMinutes: in.DurationMinutes,
	})
}

// Delete removes an owned training.
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
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.DurationMinutes < 0 {
		return fmt.Errorf("%w: durationMinutes must not be negative", ErrInvalidInput)
	}
	return nil
}
