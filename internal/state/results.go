package state

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
)

// MergeResults appends results whose id is not stored yet and returns how
// many were added. Nothing is written when nothing is new.
func (m *Manager) MergeResults(ctx context.Context, results []*domain.MatchResult) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, r := range results {
		if r == nil || r.ID == "" || m.results.FindByID(r.ID) != nil {
			continue
		}
		m.results.Items = append(m.results.Items, r.Clone())
		added++
	}

	if added > 0 {
		m.persistResults(ctx)
	}

	m.logger.Debug("results merged", zap.Int("offered", len(results)), zap.Int("added", added))
	return added
}

// Results returns copies of all stored results, in insertion order.
func (m *Manager) Results() *domain.Results {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := &domain.Results{Items: make([]*domain.MatchResult, 0, m.results.Len())}
	for _, r := range m.results.Items {
		out.Items = append(out.Items, r.Clone())
	}
	return out
}

func (m *Manager) GetResult(id string) (*domain.MatchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r := m.results.FindByID(id)
	if r == nil {
		return nil, fmt.Errorf("result %s: %w", id, domain.ErrNotFound)
	}
	return r.Clone(), nil
}

func (m *Manager) DeleteResult(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := m.results.Exclude(domain.ResultIDField, []string{id})
	if len(dropped) == 0 {
		return fmt.Errorf("result %s: %w", id, domain.ErrNotFound)
	}
	m.persistResults(ctx)
	return nil
}

// ClearResults removes every result and returns how many there were.
func (m *Manager) ClearResults(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.results.Len()
	m.results.Items = nil
	m.persistResults(ctx)
	return n
}
