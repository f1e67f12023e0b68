package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	checkTimeout = 2 * time.Second
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Report is the /health payload.
type Report struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	name   string
	mu     sync.RWMutex
	checks map[string]Check
}

// NewService constructs a new health service for the named binary.
func NewService(name string) *Service {
	return &Service{name: name, checks: map[string]Check{}}
}

// Add registers a dependency check under name.
func (s *Service) Add(name string, check Check) {
	s.mu.Lock()
	s.checks[name] = check
	s.mu.Unlock()
}

// Status runs every check and reports whether all passed.
func (s *Service) Status(ctx context.Context) (Report, bool) {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	report := Report{Status: StatusOK, Service: s.name}
	if len(names) == 0 {
		return report, true
	}
	report.Checks = make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		s.mu.RLock()
		check := s.checks[name]
		s.mu.RUnlock()

		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := check(cctx)
		cancel()
		if err != nil {
			report.Checks[name] = err.Error()
			healthy = false
			continue
		}
		report.Checks[name] = StatusOK
	}
	if !healthy {
		report.Status = StatusDegraded
	}
	return report, healthy
}
