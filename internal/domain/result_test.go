package domain

import (
	"errors"
	"testing"
	"time"
)

func TestReportByJob(t *testing.T) {
	results := &Results{
		Items: []*MatchResult{
			{
				ID:            "r1",
				CandidateID:   "c1",
				CandidateName: "Alice",
				JobID:         "j1",
				JobTitle:      "Go Developer",
				OverallScore:  91,
				Positives:     []string{"Go", "Kubernetes"},
			},
			{
				ID:            "r2",
				CandidateID:   "c2",
				CandidateName: "Bob",
				JobID:         "j1",
				JobTitle:      "Go Developer",
				OverallScore:  40.5,
				Gaps:          []string{"No Go experience"},
			},
		},
	}

	report := results.ReportByJob()
	entries, ok := report["Go Developer (j1)"]
	if !ok {
		t.Fatalf("expected job key in report")
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["positives"] != "Go; Kubernetes" {
		t.Fatalf("unexpected positives: %q", entries[0]["positives"])
	}
	if entries[1]["overall_score"] != "40.5" {
		t.Fatalf("unexpected score: %q", entries[1]["overall_score"])
	}
	if _, ok := entries[1]["positives"]; ok {
		t.Fatalf("did not expect positives for second entry")
	}
}

func TestResultsExcludeAndOnly(t *testing.T) {
	build := func() *Results {
		return &Results{Items: []*MatchResult{
			{ID: "r1", CandidateID: "c1", JobID: "j1"},
			{ID: "r2", CandidateID: "c2", JobID: "j1"},
			{ID: "r3", CandidateID: "c1", JobID: "j2"},
		}}
	}

	r := build()
	dropped := r.Exclude(ResultCandidateIDField, []string{"c1"})
	if len(dropped) != 2 || r.Len() != 1 || r.Items[0].ID != "r2" {
		t.Fatalf("unexpected exclude outcome: dropped=%v left=%d", dropped, r.Len())
	}

	r = build()
	dropped = r.Only(ResultJobIDField, []string{"j2"})
	if len(dropped) != 2 || r.Len() != 1 || r.Items[0].ID != "r3" {
		t.Fatalf("unexpected only outcome: dropped=%v left=%d", dropped, r.Len())
	}
}

func TestSortByScore(t *testing.T) {
	now := time.Now()
	r := &Results{Items: []*MatchResult{
		{ID: "low", OverallScore: 10, CreatedAt: now},
		{ID: "old", OverallScore: 80, CreatedAt: now.Add(-time.Hour)},
		{ID: "new", OverallScore: 80, CreatedAt: now},
	}}

	r.SortByScore()

	want := []string{"new", "old", "low"}
	for idx, id := range want {
		if r.Items[idx].ID != id {
			t.Fatalf("position %d: expected %s, got %s", idx, id, r.Items[idx].ID)
		}
	}
}

func TestMatchResultCloneDetachesSettings(t *testing.T) {
	original := &MatchResult{
		ID:         "r1",
		Dimensions: map[string]DimensionScore{"skills": {Score: 50}},
		Settings:   DefaultSettings(),
	}

	c := original.Clone()
	c.Dimensions["skills"] = DimensionScore{Score: 1}
	c.Settings.Dimensions[0].Label = "edited"

	if original.Dimensions["skills"].Score != 50 {
		t.Fatalf("dimension map shared with clone")
	}
	if original.Settings.Dimensions[0].Label == "edited" {
		t.Fatalf("settings snapshot shared with clone")
	}
}

func TestNewDocument(t *testing.T) {
	if _, err := NewDocument(KindCandidate, "cv", "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	doc, err := NewDocument(KindJob, "", " Senior Go engineer ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID == "" || doc.Name == "" {
		t.Fatalf("expected id and generated name, got %+v", doc)
	}
	if doc.Content != "Senior Go engineer" {
		t.Fatalf("content not trimmed: %q", doc.Content)
	}

	other, _ := NewDocument(KindJob, "", "x")
	if other.ID == doc.ID {
		t.Fatalf("ids must be unique")
	}
}

func TestDocumentPatchClearsStructuredOnContentChange(t *testing.T) {
	doc := &Document{ID: "d1", Name: "cv", Content: "old", Structured: map[string]any{"skills": []any{"go"}}}

	notes := " call after 5pm "
	if err := (DocumentPatch{Notes: &notes}).Apply(doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Structured == nil || doc.Notes != "call after 5pm" {
		t.Fatalf("notes edit must keep structured data: %+v", doc)
	}

	content := "new content"
	if err := (DocumentPatch{Content: &content}).Apply(doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Structured != nil {
		t.Fatalf("content edit must drop stale structured data")
	}

	empty := ""
	if err := (DocumentPatch{Content: &empty}).Apply(doc); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{"cvs": KindCandidate, "Candidate": KindCandidate, "jobs": KindJob, "jd": KindJob} {
		got, err := ParseKind(input)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %v, %v", input, got, err)
		}
	}
	if _, err := ParseKind("vacancy"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
