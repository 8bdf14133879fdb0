package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/logger"
)

// ErrEmptyDocument is returned when one side of a pair has no content to score.
var ErrEmptyDocument = errors.New("document has no content")

// SettingsProvider returns the settings snapshot used for one pair.
type SettingsProvider func() domain.Settings

// Adapter scores a single candidate/job pair and turns the assessment into a result.
type Adapter struct {
	scorer   ai.Scorer
	settings SettingsProvider
	language string
	logger   *zap.Logger
	now      func() time.Time
}

func NewAdapter(scorer ai.Scorer, settings SettingsProvider, language string, log *zap.Logger) *Adapter {
	if settings == nil {
		settings = domain.DefaultSettings
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Adapter{
		scorer:   scorer,
		settings: settings,
		language: strings.TrimSpace(language),
		logger:   log,
		now:      time.Now,
	}
}

func (a *Adapter) ScorePair(ctx context.Context, candidate, job domain.Document) (*domain.MatchResult, error) {
	if strings.TrimSpace(candidate.Content) == "" {
		return nil, fmt.Errorf("candidate %q: %w", candidate.Name, ErrEmptyDocument)
	}
	if strings.TrimSpace(job.Content) == "" {
		return nil, fmt.Errorf("job %q: %w", job.Name, ErrEmptyDocument)
	}

	settings := a.settings().Clone()
	log := logger.WithFields(a.logger, logger.PairFields(candidate.ID, job.ID)...)

	assessment, err := a.scorer.Score(ctx, &ai.Request{
		CandidateContent: candidate.Content,
		JobContent:       job.Content,
		CandidateName:    candidate.Name,
		JobName:          job.Name,
		Language:         a.language,
		Settings:         settings,
		CandidateNotes:   candidate.Notes,
		JobNotes:         job.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := assessment.Validate(settings); err != nil {
		log.Warn("assessment rejected", zap.Error(err))
		return nil, err
	}

	createdAt := a.now()
	result := &domain.MatchResult{
		ID:               domain.NewResultID(candidate.ID, job.ID, createdAt),
		CandidateID:      candidate.ID,
		JobID:            job.ID,
		CandidateName:    firstNonEmpty(assessment.CandidateName, candidate.Name),
		JobTitle:         firstNonEmpty(assessment.JobTitle, job.Name),
		OverallScore:     assessment.OverallScore,
		Dimensions:       assessment.Dimensions,
		Explanation:      assessment.Explanation,
		Positives:        assessment.Positives,
		Gaps:             assessment.Gaps,
		DiscussionPoints: assessment.DiscussionPoints,
		Language:         a.language,
		CreatedAt:        createdAt,
		Settings:         settings,
	}

	log.Debug("pair scored", zap.Float64("overall_score", result.OverallScore))
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
