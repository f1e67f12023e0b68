package trainings

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]Training
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[int64]Training)}
}

// Create assigns an id and stores the training.
func (r *MemoryRepo) Create(ctx context.Context, t Training) (Training, error) {
	if err := ctx.Err(); err != nil {
		return Training{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	r.data[t.ID] = t
	return t, nil
}

// GetByID returns the training when owned by userID.
func (r *MemoryRepo) GetByID(ctx context.Context, userID string, id int64) (Training, error) {
	if err := ctx.Err(); err != nil {
		return Training{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.data[id]
	if !ok || t.UserID != userID {
		return Training{}, ErrNotFound
	}
	return t, nil
}

// Update overwrites the editable fields of an owned training.
func (r *MemoryRepo) Update(ctx context.Context, t Training) (Training, error) {
	if err := ctx.Err(); err != nil {
		return Training{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[t.ID]
	if !ok || existing.UserID != t.UserID {
		return Training{}, ErrNotFound
	}
	existing.Title = t.Title
	existing.Description = t.Description
	existing.Type = t.Type
	existing.Difficulty = t.Difficulty
	existing.DurationMinutes = t.DurationMinutes
	r.data[t.ID] = existing
	return existing, nil
}

// Delete removes an owned training.
func (r *MemoryRepo) Delete(ctx context.Context, userID string, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// ListByUser returns all trainings for a user, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Training, error) {
	return r.list(ctx, userID, func(Training) bool { return true })
}

// ListByType returns a user's trainings of one type.
func (r *MemoryRepo) ListByType(ctx context.Context, userID, trainingType string) ([]Training, error) {
	return r.list(ctx, userID, func(t Training) bool { return t.Type == trainingType })
}

// ListByDifficulty returns a user's trainings of one difficulty.
func (r *MemoryRepo) ListByDifficulty(ctx context.Context, userID, difficulty string) ([]Training, error) {
	return r.list(ctx, userID, func(t Training) bool { return t.Difficulty == difficulty })
}

// ListByDuration returns trainings whose duration lies in [minMinutes, maxMinutes].
func (r *MemoryRepo) ListByDuration(ctx context.Context, userID string, minMinutes, maxMinutes int) ([]Training, error) {
	return r.list(ctx, userID, func(t Training) bool {
		return t.DurationMinutes >= minMinutes && t.DurationMinutes <= maxMinutes
	})
}

// SearchByTitle returns trainings whose title contains term.
func (r *MemoryRepo) SearchByTitle(ctx context.Context, userID, term string) ([]Training, error) {
	return r.list(ctx, userID, func(t Training) bool { return strings.Contains(t.Title, term) })
}

func (r *MemoryRepo) list(ctx context.Context, userID string, keep func(Training) bool) ([]Training, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Training, 0)
	for _, t := range r.data {
		if t.UserID == userID && keep(t) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
