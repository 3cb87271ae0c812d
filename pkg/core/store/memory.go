package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reverse_dcf/pkg/models"
)

// MemoryStore implements Store in memory. Used when no DATABASE_URL is
// configured and in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	securities map[string]models.Security
	scenarios  map[string]Scenario
	now        func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		securities: make(map[string]models.Security),
		scenarios:  make(map[string]Scenario),
		now:        time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

func (s *MemoryStore) UpsertSecurity(_ context.Context, sec models.Security) error {
	sec.Ticker = normalizeTicker(sec.Ticker)
	if sec.Ticker == "" {
		return fmt.Errorf("ticker cannot be empty")
	}
	if sec.UpdatedAt.IsZero() {
		sec.UpdatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.securities[sec.Ticker] = sec
	return nil
}

func (s *MemoryStore) GetSecurity(_ context.Context, ticker string) (models.Security, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, ok := s.securities[normalizeTicker(ticker)]
	if !ok {
		return models.Security{}, fmt.Errorf("security '%s': %w", ticker, ErrNotFound)
	}
	return sec, nil
}

func (s *MemoryStore) ListSecurities(_ context.Context) ([]models.Security, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Security, 0, len(s.securities))
	for _, sec := range s.securities {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (s *MemoryStore) SaveScenario(_ context.Context, sc Scenario) (Scenario, error) {
	sc.Ticker = normalizeTicker(sc.Ticker)
	if sc.Ticker == "" {
		return Scenario{}, fmt.Errorf("ticker cannot be empty")
	}
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios[sc.ID] = sc
	return sc, nil
}

func (s *MemoryStore) GetScenario(_ context.Context, id string) (Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scenarios[id]
	if !ok {
		return Scenario{}, fmt.Errorf("scenario '%s': %w", id, ErrNotFound)
	}
	return sc, nil
}

func (s *MemoryStore) ListScenarios(_ context.Context, ticker string) ([]Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticker = normalizeTicker(ticker)
	out := make([]Scenario, 0)
	for _, sc := range s.scenarios {
		if ticker == "" || sc.Ticker == ticker {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteScenario(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scenarios[id]; !ok {
		return fmt.Errorf("scenario '%s': %w", id, ErrNotFound)
	}
	delete(s.scenarios, id)
	return nil
}
