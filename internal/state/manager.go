// Package state owns the candidate, job, result and settings collections and
// mirrors every change into a storage.Store.
//
// Memory is the source of truth for the running process. Store writes are best
// effort: failures are logged and the next successful write resynchronises the
// key. Keys are written independently, so a crash between two writes can leave
// the stored collections inconsistent with each other.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/storage"
)

const (
	KeyCandidates = "candidateDocuments"
	KeyJobs       = "jobDocuments"
	KeyResults    = "matchResults"
	KeySettings   = "settings"
)

// LoadFailedNotice is the single user facing message for unreadable collections.
const LoadFailedNotice = "failed to load data"

type Manager struct {
	mu sync.RWMutex

	store  storage.Store
	logger *zap.Logger

	candidates *domain.Documents
	jobs       *domain.Documents
	results    *domain.Results
	settings   domain.Settings
}

func New(store storage.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		store:      store,
		logger:     logger,
		candidates: &domain.Documents{},
		jobs:       &domain.Documents{},
		results:    &domain.Results{},
		settings:   domain.DefaultSettings(),
	}
}

func (m *Manager) documents(kind domain.Kind) (*domain.Documents, string, error) {
	switch kind {
	case domain.KindCandidate:
		return m.candidates, KeyCandidates, nil
	case domain.KindJob:
		return m.jobs, KeyJobs, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
}

// persist writes value under key. Callers hold m.mu, which keeps writes for a
// key in mutation order.
func (m *Manager) persist(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		m.logger.Error("serializing state", zap.String("key", key), zap.Error(err))
		return
	}

	if err := m.store.Write(ctx, key, data); err != nil {
		m.logger.Warn("persisting state failed; keeping in-memory copy",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (m *Manager) persistDocuments(ctx context.Context, kind domain.Kind) {
	docs, key, err := m.documents(kind)
	if err != nil {
		return
	}
	m.persist(ctx, key, nonNilDocuments(docs.Items))
}

func (m *Manager) persistResults(ctx context.Context) {
	m.persist(ctx, KeyResults, nonNilResults(m.results.Items))
}

func (m *Manager) persistSettings(ctx context.Context) {
	m.persist(ctx, KeySettings, m.settings)
}

func nonNilDocuments(items []*domain.Document) []*domain.Document {
	if items == nil {
		return []*domain.Document{}
	}
	return items
}

func nonNilResults(items []*domain.MatchResult) []*domain.MatchResult {
	if items == nil {
		return []*domain.MatchResult{}
	}
	return items
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
