package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/cv-matcher/internal/domain"
)

// topFilter ranks results by score and keeps the best N. It always sorts.
type topFilter struct {
	limit  int
	reason string
}

func NewTop() Filter {
	return &topFilter{}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Disable(reason string) { f.reason = reason }

func (f *topFilter) IsEnabled() bool { return f.reason == "" }

func (f *topFilter) Validate(cfg *Config) error {
	f.limit = 0
	if cfg == nil {
		return nil
	}
	if cfg.Top < 0 {
		return fmt.Errorf("top must not be negative, got %d", cfg.Top)
	}
	f.limit = cfg.Top
	return nil
}

func (f *topFilter) Apply(_ context.Context, _ Deps, r *domain.Results) (*domain.Results, Step, error) {
	initial := r.Len()
	r.SortByScore()

	if f.limit > 0 && r.Len() > f.limit {
		for idx := f.limit; idx < len(r.Items); idx++ {
			r.Items[idx] = nil
		}
		r.Items = r.Items[:f.limit]
	}

	return r, Step{Initial: initial, Dropped: initial - r.Len(), Left: r.Len()}, nil
}

func (f *topFilter) Status() Status {
	details := map[string]string{}
	if f.limit > 0 {
		details["limit"] = strconv.Itoa(f.limit)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
