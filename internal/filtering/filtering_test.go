package filtering

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-matcher/internal/domain"
)

func sampleResults() *domain.Results {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, cv, jd string, score float64, offset int) *domain.MatchResult {
		return &domain.MatchResult{ID: id, CandidateID: cv, JobID: jd, OverallScore: score, CreatedAt: base.Add(time.Duration(offset) * time.Minute)}
	}
	return &domain.Results{Items: []*domain.MatchResult{
		mk("r1", "cv1", "jd1", 40, 0),
		mk("r2", "cv1", "jd2", 90, 1),
		mk("r3", "cv2", "jd1", 75, 2),
		mk("r4", "cv2", "jd2", 75, 3),
		mk("r5", "cv3", "jd1", 10, 4),
	}}
}

func ids(r *domain.Results) []string {
	out := make([]string, 0, r.Len())
	for _, item := range r.Items {
		out = append(out, item.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRunDefaultChain(t *testing.T) {
	minScore := 50.0
	cfg := &Config{MinScore: &minScore, Candidates: []string{"cv1", "cv2"}, Top: 2}

	out, err := Run(context.Background(), cfg, Deps{}, Default(), sampleResults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// r4 is newer than r3 and wins the tie.
	if got := ids(out); !equal(got, []string{"r2", "r4"}) {
		t.Fatalf("unexpected results: %v", got)
	}
}

func TestRunWithoutConfigOnlySorts(t *testing.T) {
	out, err := Run(context.Background(), nil, Deps{}, Default(), sampleResults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(out); !equal(got, []string{"r2", "r4", "r3", "r1", "r5"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestRunValidationErrors(t *testing.T) {
	tooHigh := 120.0
	cases := map[string]*Config{
		"threshold": {MinScore: &tooHigh},
		"top":       {Top: -1},
	}

	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Run(context.Background(), cfg, Deps{}, Default(), sampleResults()); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	if _, err := Run(context.Background(), &Config{MinScore: &tooHigh}, Deps{}, []Filter{NewThreshold()}, sampleResults()); !errors.Is(err, domain.ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
}

func TestExcludeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hidden.txt")
	if err := os.WriteFile(path, []byte("# reviewed\nr1\n\n r3 \n"), 0o600); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	core, observed := observer.New(zapcore.InfoLevel)
	out, err := Run(context.Background(), &Config{ExcludeFile: path}, Deps{Logger: zap.New(core)}, []Filter{NewExcludeFile()}, sampleResults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(out); !equal(got, []string{"r2", "r4", "r5"}) {
		t.Fatalf("unexpected results: %v", got)
	}
	if observed.FilterMessage("excluding results based on exclude file").Len() != 1 {
		t.Fatalf("expected exclusion to be logged")
	}

	if _, err := Run(context.Background(), &Config{ExcludeFile: filepath.Join(t.TempDir(), "missing")}, Deps{}, []Filter{NewExcludeFile()}, sampleResults()); err == nil {
		t.Fatalf("expected error for missing exclude file")
	}
}

func TestJobsFilter(t *testing.T) {
	out, err := Run(context.Background(), &Config{Jobs: []string{"jd2"}}, Deps{}, []Filter{NewDocuments(domain.ResultJobIDField)}, sampleResults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(out); !equal(got, []string{"r2", "r4"}) {
		t.Fatalf("unexpected results: %v", got)
	}
}

func TestDisableByNameAndDescribe(t *testing.T) {
	steps := Default()
	DisableByName(steps, "top", "ranking disabled")

	minScore := 80.0
	out, err := Run(context.Background(), &Config{MinScore: &minScore, Top: 1}, Deps{}, steps, sampleResults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(out); !equal(got, []string{"r2"}) {
		t.Fatalf("unexpected results: %v", got)
	}

	statuses := Describe(steps)
	if len(statuses) != len(steps) {
		t.Fatalf("expected %d statuses, got %d", len(steps), len(statuses))
	}
	for _, st := range statuses {
		switch st.Name {
		case "top":
			if st.Enabled || st.Reason != "ranking disabled" {
				t.Fatalf("unexpected top status: %+v", st)
			}
		case "threshold":
			if !st.Enabled || st.Details["min_score"] != "80" {
				t.Fatalf("unexpected threshold status: %+v", st)
			}
		}
	}
}
