package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
)

type thresholdFilter struct {
	minScore *float64
	reason   string
}

// NewThreshold creates a filter that drops results scoring below the minimum.
func NewThreshold() Filter {
	return &thresholdFilter{}
}

func (f *thresholdFilter) Name() string { return "threshold" }

func (f *thresholdFilter) Disable(reason string) { f.reason = reason }

func (f *thresholdFilter) IsEnabled() bool { return f.reason == "" }

func (f *thresholdFilter) Validate(cfg *Config) error {
	f.minScore = nil
	if cfg == nil || cfg.MinScore == nil {
		return nil
	}
	if *cfg.MinScore < 0 || *cfg.MinScore > 100 {
		return fmt.Errorf("minimum score %v: %w", *cfg.MinScore, domain.ErrInvalidThreshold)
	}
	score := *cfg.MinScore
	f.minScore = &score
	return nil
}

func (f *thresholdFilter) Apply(_ context.Context, deps Deps, r *domain.Results) (*domain.Results, Step, error) {
	initial := r.Len()
	if f.minScore == nil {
		return r, Step{Initial: initial, Left: r.Len()}, nil
	}

	minScore := *f.minScore
	dropped := r.Keep(func(result *domain.MatchResult) bool {
		return result.OverallScore >= minScore
	})
	if len(dropped) > 0 {
		deps.Logger.Debug("dropping results below threshold",
			zap.Float64("threshold", minScore),
			zap.Strings("dropped_results", dropped),
		)
	}

	return r, Step{Initial: initial, Dropped: len(dropped), Left: r.Len()}, nil
}

func (f *thresholdFilter) Status() Status {
	details := map[string]string{}
	if f.minScore != nil {
		details["min_score"] = strconv.FormatFloat(*f.minScore, 'f', -1, 64)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
