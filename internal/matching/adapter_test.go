package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/domain"
)

type stubScorer struct {
	assessment *ai.Assessment
	err        error
	last       *ai.Request
}

func (s *stubScorer) Score(_ context.Context, req *ai.Request) (*ai.Assessment, error) {
	s.last = req
	return s.assessment, s.err
}

func fullAssessment() *ai.Assessment {
	dims := map[string]domain.DimensionScore{}
	for _, d := range domain.DefaultSettings().ActiveDimensions() {
		dims[d.ID] = domain.DimensionScore{Score: 75, Explanation: d.Label}
	}
	return &ai.Assessment{
		OverallScore: 75,
		Dimensions:   dims,
		Explanation:  "Solid match.",
		Positives:    []string{"Go"},
	}
}

func TestScorePair(t *testing.T) {
	settings := domain.DefaultSettings()
	stub := &stubScorer{assessment: fullAssessment()}
	adapter := NewAdapter(stub, func() domain.Settings { return settings }, "fr", nil)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	adapter.now = func() time.Time { return fixed }

	candidate := domain.Document{ID: "cv1", Name: "alice.txt", Content: "Go developer", Notes: "referral"}
	job := domain.Document{ID: "jd1", Name: "go-dev.txt", Content: "Go wanted"}

	result, err := adapter.ScorePair(context.Background(), candidate, job)
	require.NoError(t, err)

	assert.Equal(t, domain.NewResultID("cv1", "jd1", fixed), result.ID)
	assert.Equal(t, "alice.txt", result.CandidateName, "falls back to the document name")
	assert.Equal(t, "go-dev.txt", result.JobTitle)
	assert.Equal(t, "fr", result.Language)
	assert.Equal(t, 75.0, result.OverallScore)
	assert.Equal(t, "referral", stub.last.CandidateNotes)
	assert.Equal(t, "fr", stub.last.Language)

	// The snapshot is detached from later settings edits.
	settings.Dimensions[0].Label = "changed"
	assert.Equal(t, "Technical skills", result.Settings.Dimensions[0].Label)
}

func TestScorePairPrefersModelNames(t *testing.T) {
	assessment := fullAssessment()
	assessment.CandidateName = "Alice Smith"
	assessment.JobTitle = "Go Developer"
	adapter := NewAdapter(&stubScorer{assessment: assessment}, nil, "", nil)

	result, err := adapter.ScorePair(context.Background(),
		domain.Document{ID: "a", Name: "a.txt", Content: "x"},
		domain.Document{ID: "b", Name: "b.txt", Content: "y"})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", result.CandidateName)
	assert.Equal(t, "Go Developer", result.JobTitle)
}

func TestScorePairErrors(t *testing.T) {
	candidate := domain.Document{ID: "a", Name: "a", Content: "x"}
	job := domain.Document{ID: "b", Name: "b", Content: "y"}

	t.Run("empty content", func(t *testing.T) {
		stub := &stubScorer{assessment: fullAssessment()}
		_, err := NewAdapter(stub, nil, "", nil).ScorePair(context.Background(), candidate, domain.Document{Name: "b", Content: "  "})
		assert.ErrorIs(t, err, ErrEmptyDocument)
		assert.Nil(t, stub.last, "provider must not be called")
	})

	t.Run("provider error", func(t *testing.T) {
		boom := errors.New("rate limited")
		_, err := NewAdapter(&stubScorer{err: boom}, nil, "", nil).ScorePair(context.Background(), candidate, job)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("missing dimension", func(t *testing.T) {
		assessment := fullAssessment()
		delete(assessment.Dimensions, "skills")
		_, err := NewAdapter(&stubScorer{assessment: assessment}, nil, "", nil).ScorePair(context.Background(), candidate, job)
		assert.ErrorIs(t, err, ai.ErrInvalidAssessment)
	})

	t.Run("score out of range", func(t *testing.T) {
		assessment := fullAssessment()
		assessment.OverallScore = 140
		_, err := NewAdapter(&stubScorer{assessment: assessment}, nil, "", nil).ScorePair(context.Background(), candidate, job)
		assert.ErrorIs(t, err, ai.ErrInvalidAssessment)
	})

	t.Run("nil assessment", func(t *testing.T) {
		_, err := NewAdapter(&stubScorer{}, nil, "", nil).ScorePair(context.Background(), candidate, job)
		assert.ErrorIs(t, err, ai.ErrInvalidAssessment)
	})
}
