package filtering

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
)

type excludeFileFilter struct {
	path   string
	reason string
}

// NewExcludeFile creates a filter that hides results listed in a file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) { f.reason = reason }

func (f *excludeFileFilter) IsEnabled() bool { return f.reason == "" }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, r *domain.Results) (*domain.Results, Step, error) {
	initial := r.Len()
	if f.path == "" {
		return r, Step{Initial: initial, Left: r.Len()}, nil
	}

	ids, err := readIDs(f.path)
	if err != nil {
		return r, Step{}, fmt.Errorf("reading excluded results: %w", err)
	}

	removed := r.Exclude(domain.ResultIDField, ids)
	if len(removed) > 0 {
		deps.Logger.Info("excluding results based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_results", removed),
			zap.Int("results_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// readIDs reads one id per line. Blank lines and lines starting with # are skipped.
func readIDs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, scanner.Err()
}
