package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spigell/cv-matcher/internal/domain"
)

// ErrInvalidAssessment marks a provider response that does not satisfy the result schema.
var ErrInvalidAssessment = errors.New("invalid assessment")

// Request carries everything the provider needs to score one pair.
type Request struct {
	CandidateContent string
	JobContent       string
	CandidateName    string
	JobName          string
	Language         string
	Settings         domain.Settings
	CandidateNotes   string
	JobNotes         string
}

type Assessment struct {
	CandidateName    string
	JobTitle         string
	OverallScore     float64
	Dimensions       map[string]domain.DimensionScore
	Explanation      string
	Positives        []string
	Gaps             []string
	DiscussionPoints []string
	Raw              string
}

// Scorer turns one candidate/job pair into an assessment via a model provider.
type Scorer interface {
	Score(ctx context.Context, req *Request) (*Assessment, error)
}

// Enricher derives a structured representation of a document.
type Enricher interface {
	Enrich(ctx context.Context, kind domain.Kind, content string) (map[string]any, error)
}

// Validate checks the assessment against the schema implied by the settings:
// every number is within 0-100 and every active dimension is scored and explained.
func (a *Assessment) Validate(settings domain.Settings) error {
	if a == nil {
		return fmt.Errorf("%w: empty assessment", ErrInvalidAssessment)
	}

	if !validScore(a.OverallScore) {
		return fmt.Errorf("%w: overall score %v out of range", ErrInvalidAssessment, a.OverallScore)
	}

	if strings.TrimSpace(a.Explanation) == "" {
		return fmt.Errorf("%w: missing explanation", ErrInvalidAssessment)
	}

	for id, d := range a.Dimensions {
		if !validScore(d.Score) {
			return fmt.Errorf("%w: dimension %q score %v out of range", ErrInvalidAssessment, id, d.Score)
		}
		if strings.TrimSpace(d.Explanation) == "" {
			return fmt.Errorf("%w: dimension %q has no explanation", ErrInvalidAssessment, id)
		}
	}

	for _, d := range settings.ActiveDimensions() {
		if _, ok := a.Dimensions[d.ID]; !ok {
			return fmt.Errorf("%w: dimension %q is missing", ErrInvalidAssessment, d.ID)
		}
	}

	return nil
}

func validScore(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 100
}
