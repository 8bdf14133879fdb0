package state

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/domain"
)

var (
	// ErrEnrichmentInProgress is returned when a document is already being enriched.
	ErrEnrichmentInProgress = errors.New("enrichment already in progress")
	// ErrContentChanged is returned when the content was replaced while it was
	// being enriched. The structured data of the old content is discarded.
	ErrContentChanged = errors.New("document content changed during enrichment")
)

// AddDocument stores doc and returns a copy of what was stored.
func (m *Manager) AddDocument(ctx context.Context, doc *domain.Document) (domain.Document, error) {
	if doc == nil {
		return domain.Document{}, domain.ErrEmptyContent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs, _, err := m.documents(doc.Kind)
	if err != nil {
		return domain.Document{}, err
	}
	if docs.FindByID(doc.ID) != nil {
		return domain.Document{}, fmt.Errorf("document %s already exists", doc.ID)
	}

	stored := doc.Clone()
	stored.Enriching = false
	docs.Items = append(docs.Items, &stored)
	m.persistDocuments(ctx, doc.Kind)

	m.logger.Info("document added",
		zap.String("kind", doc.Kind.String()),
		zap.String("document_id", stored.ID),
		zap.String("name", stored.Name),
	)
	return stored.Clone(), nil
}

func (m *Manager) UpdateDocument(ctx context.Context, kind domain.Kind, id string, patch domain.DocumentPatch) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.find(kind, id)
	if err != nil {
		return domain.Document{}, err
	}
	if patch.Empty() {
		return doc.Clone(), nil
	}

	updated := doc.Clone()
	if err := patch.Apply(&updated); err != nil {
		return domain.Document{}, err
	}
	*doc = updated
	m.persistDocuments(ctx, kind)

	return doc.Clone(), nil
}

func (m *Manager) GetDocument(kind domain.Kind, id string) (domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, err := m.find(kind, id)
	if err != nil {
		return domain.Document{}, err
	}
	return doc.Clone(), nil
}

// Documents returns copies of every document of the kind, in insertion order.
func (m *Manager) Documents(kind domain.Kind) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs, _, err := m.documents(kind)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Document, 0, docs.Len())
	for _, doc := range docs.Items {
		out = append(out, doc.Clone())
	}
	return out, nil
}

// DeleteDocument removes the document and every result that references it.
// It returns the number of results removed with it.
func (m *Manager) DeleteDocument(ctx context.Context, kind domain.Kind, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, _, err := m.documents(kind)
	if err != nil {
		return 0, err
	}
	if !docs.Remove(id) {
		return 0, fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}

	dropped := m.results.Keep(func(r *domain.MatchResult) bool {
		return !r.References(id)
	})

	m.persistDocuments(ctx, kind)
	m.persistResults(ctx)

	m.logger.Info("document deleted",
		zap.String("kind", kind.String()),
		zap.String("document_id", id),
		zap.Int("results_removed", len(dropped)),
	)
	return len(dropped), nil
}

// BeginEnrichment marks the document as being enriched and returns a copy of it.
func (m *Manager) BeginEnrichment(ctx context.Context, kind domain.Kind, id string) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.find(kind, id)
	if err != nil {
		return domain.Document{}, err
	}
	if doc.Enriching {
		return domain.Document{}, fmt.Errorf("%s %s: %w", kind, id, ErrEnrichmentInProgress)
	}

	doc.Enriching = true
	m.persistDocuments(ctx, kind)
	return doc.Clone(), nil
}

// FinishEnrichment clears the enrichment flag and, when enrichErr is nil,
// stores the structured data derived from source. Data for content that was
// replaced meanwhile is dropped with ErrContentChanged. A document deleted
// meanwhile is ignored.
func (m *Manager) FinishEnrichment(ctx context.Context, kind domain.Kind, id, source string, structured map[string]any, enrichErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.find(kind, id)
	if err != nil {
		m.logger.Debug("enriched document is gone", zap.String("document_id", id))
		return nil
	}

	doc.Enriching = false
	defer m.persistDocuments(ctx, kind)

	if enrichErr != nil {
		m.logger.Warn("enrichment failed",
			zap.String("kind", kind.String()),
			zap.String("document_id", id),
			zap.Error(enrichErr),
		)
		return nil
	}

	if doc.Content != source {
		m.logger.Info("dropping enrichment of replaced content",
			zap.String("kind", kind.String()),
			zap.String("document_id", id),
		)
		return fmt.Errorf("%s %s: %w", kind, id, ErrContentChanged)
	}

	doc.Structured = structured
	return nil
}

// Enrich runs the enricher for one document. The lock is not held during the
// provider call, and the flag is cleared whatever the outcome.
func (m *Manager) Enrich(ctx context.Context, kind domain.Kind, id string, enricher ai.Enricher) (domain.Document, error) {
	doc, err := m.BeginEnrichment(ctx, kind, id)
	if err != nil {
		return domain.Document{}, err
	}

	structured, enrichErr := safeEnrich(ctx, enricher, kind, doc.Content)
	if err := m.FinishEnrichment(ctx, kind, id, doc.Content, structured, enrichErr); err != nil {
		return domain.Document{}, err
	}
	if enrichErr != nil {
		return domain.Document{}, enrichErr
	}

	return m.GetDocument(kind, id)
}

func safeEnrich(ctx context.Context, enricher ai.Enricher, kind domain.Kind, content string) (structured map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enricher panicked: %v", r)
		}
	}()
	return enricher.Enrich(ctx, kind, content)
}

func (m *Manager) find(kind domain.Kind, id string) (*domain.Document, error) {
	docs, _, err := m.documents(kind)
	if err != nil {
		return nil, err
	}
	doc := docs.FindByID(id)
	if doc == nil {
		return nil, fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return doc, nil
}
