package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
)

// documentsFilter keeps results for selected candidates or jobs.
type documentsFilter struct {
	field  string
	ids    []string
	reason string
}

// NewDocuments creates a filter on domain.ResultCandidateIDField or domain.ResultJobIDField.
func NewDocuments(field string) Filter {
	return &documentsFilter{field: field}
}

func (f *documentsFilter) Name() string {
	if f.field == domain.ResultJobIDField {
		return "jobs"
	}
	return "candidates"
}

func (f *documentsFilter) Disable(reason string) { f.reason = reason }

func (f *documentsFilter) IsEnabled() bool { return f.reason == "" }

func (f *documentsFilter) Validate(cfg *Config) error {
	f.ids = nil
	if cfg == nil {
		return nil
	}
	if f.field == domain.ResultJobIDField {
		f.ids = append(f.ids, cfg.Jobs...)
	} else {
		f.ids = append(f.ids, cfg.Candidates...)
	}
	return nil
}

func (f *documentsFilter) Apply(_ context.Context, deps Deps, r *domain.Results) (*domain.Results, Step, error) {
	initial := r.Len()
	if len(f.ids) == 0 {
		return r, Step{Initial: initial, Left: r.Len()}, nil
	}

	dropped := r.Only(f.field, f.ids)
	if len(dropped) > 0 {
		deps.Logger.Debug("keeping results for selected documents",
			zap.String("filter", f.Name()),
			zap.Strings("selected", f.ids),
			zap.Int("results_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(dropped), Left: r.Len()}, nil
}

func (f *documentsFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		details["ids"] = strings.Join(f.ids, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
