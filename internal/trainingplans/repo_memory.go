package trainingplans

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo keeps plans in a map guarded by a mutex.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	plans  map[int64]Plan
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{plans: make(map[int64]Plan)}
}

func (r *MemoryRepo) Create(ctx context.Context, p Plan) (Plan, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	r.plans[p.ID] = p
	return p, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string, id int64) (Plan, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok || p.UserID != userID {
		return Plan{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) Update(ctx context.Context, p Plan) (Plan, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.plans[p.ID]
	if !ok || existing.UserID != p.UserID {
		return Plan{}, ErrNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.Type = p.Type
	existing.Duration = p.Duration
	existing.Difficulty = p.Difficulty
	existing.UpdatedAt = p.UpdatedAt
	r.plans[p.ID] = existing
	return existing, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID string, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Plan, error) {
	return r.list(ctx, userID, func(Plan) bool { return true })
}

func (r *MemoryRepo) ListByType(ctx context.Context, userID, planType string) ([]Plan, error) {
	return r.list(ctx, userID, func(p Plan) bool { return p.Type == planType })
}

func (r *MemoryRepo) ListByDifficulty(ctx context.Context, userID, difficulty string) ([]Plan, error) {
	return r.list(ctx, userID, func(p Plan) bool { return p.Difficulty == difficulty })
}

func (r *MemoryRepo) ListByDuration(ctx context.Context, userID string, minDuration, maxDuration int) ([]Plan, error) {
	return r.list(ctx, userID, func(p Plan) bool {
		return p.Duration >= minDuration && p.Duration <= maxDuration
	})
}

func (r *MemoryRepo) SearchByName(ctx context.Context, userID, term string) ([]Plan, error) {
	return r.list(ctx, userID, func(p Plan) bool { return strings.Contains(p.Name, term) })
}

func (r *MemoryRepo) list(ctx context.Context, userID string, keep func(Plan) bool) ([]Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Plan, 0)
	for _, p := range r.plans {
		if p.UserID == userID && keep(p) {
			out = append(out, p)
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
