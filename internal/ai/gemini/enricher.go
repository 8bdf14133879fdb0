package gemini

import (
	"context"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/domain"
)

//go:embed enrich.md
var enrichTemplate string

var _ ai.Enricher = (*Enricher)(nil)

// Enricher asks the model for a structured view of a CV or a job description.
type Enricher struct {
	generator contentGenerator
	logger    *zap.Logger
}

func NewEnricher(generator contentGenerator, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{generator: generator, logger: logger}
}

func (e *Enricher) Enrich(ctx context.Context, kind domain.Kind, content string) (map[string]any, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}

	label := "CV"
	if kind == domain.KindJob {
		label = "job description"
	}

	message := fmt.Sprintf("[Document kind: %s]\n%s\n", label, content)

	raw, err := e.generator.GenerateContent(ctx, enrichTemplate, message)
	if err != nil {
		return nil, err
	}

	var structured map[string]any
	if err := decodeJSON(raw, &structured); err != nil {
		return nil, fmt.Errorf("parse gemini enrichment: %w", err)
	}
	if len(structured) == 0 {
		return nil, fmt.Errorf("gemini returned an empty structured document")
	}

	e.logger.Debug("document enriched", zap.String("kind", kind.String()), zap.Int("fields", len(structured)))

	return structured, nil
}
