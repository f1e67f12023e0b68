package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"training-app/internal/shared/metrics"
)

// DefaultTTL is the inactivity window of a session.
const DefaultTTL = 30 * time.Minute

const keyPrefix = "session:"

// Record is what a session remembers about the logged-in user.
type Record struct {
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	IDToken      string    `json:"idToken,omitempty"`
	AccessToken  string    `json:"accessToken,omitempty"`
	SessionToken string    `json:"sessionToken,omitempty"`
	LoginTime    time.Time `json:"loginTime"`
}

// Manager stores records under session:<id>.
type Manager struct {
	Store   Store
	TTL     time.Duration
	Metrics metrics.Recorder
}

// NewManager builds a Manager; ttl <= 0 uses DefaultTTL.
func NewManager(store Store, ttl time.Duration, rec metrics.Recorder) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{Store: store, TTL: ttl, Metrics: rec}
}

// Key returns the store key for a session id.
func Key(id string) string {
	return keyPrefix + id
}

// Login saves rec under id, replacing any previous record.
func (m *Manager) Login(ctx context.Context, id string, rec Record) error {
	if id == "" {
		return errors.New("session id is empty")
	}
	if err := m.save(ctx, id, rec); err != nil {
		return err
	}
	m.count("login")
	return nil
}

// Lookup returns the record for id and slides its expiry forward.
func (m *Manager) Lookup(ctx context.Context, id string) (Record, bool, error) {
	if id == "" {
		return Record{}, false, nil
	}
	raw, err := m.Store.Get(ctx, Key(id))
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("load session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode session: %w", err)
	}
	if err := m.Store.Set(ctx, Key(id), raw, m.ttl()); err != nil {
		return Record{}, false, fmt.Errorf("refresh session: %w", err)
	}
	return rec, true, nil
}

// Logout forgets id. Unknown ids are not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.Store.Delete(ctx, Key(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.count("logout")
	return nil
}

func (m *Manager) save(ctx context.Context, id string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.Store.Set(ctx, Key(id), raw, m.ttl()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (m *Manager) ttl() time.Duration {
	if m.TTL <= 0 {
		return DefaultTTL
	}
	return m.TTL
}

func (m *Manager) count(event string) {
	if m.Metrics != nil {
		m.Metrics.RecordSession(event)
	}
}
