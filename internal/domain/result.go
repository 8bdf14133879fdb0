package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	ResultIDField          = "ID"
	ResultCandidateIDField = "CandidateID"
	ResultJobIDField       = "JobID"
)

type DimensionScore struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
	Details     string  `json:"details,omitempty"`
}

type MatchResult struct {
	ID               string                    `json:"id"`
	CandidateID      string                    `json:"candidateId"`
	JobID            string                    `json:"jobId"`
	CandidateName    string                    `json:"candidateName"`
	JobTitle         string                    `json:"jobTitle"`
	OverallScore     float64                   `json:"overallScore"`
	Dimensions       map[string]DimensionScore `json:"dimensions"`
	Explanation      string                    `json:"explanation"`
	Positives        []string                  `json:"positives,omitempty"`
	Gaps             []string                  `json:"gaps,omitempty"`
	DiscussionPoints []string                  `json:"discussionPoints,omitempty"`
	Language         string                    `json:"language,omitempty"`
	CreatedAt        time.Time                 `json:"createdAt"`
	Settings         Settings                  `json:"settings"`
}

// NewResultID derives a result identity from the pair and the creation time,
// so repeated pairings never collide.
func NewResultID(candidateID, jobID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%d", candidateID, jobID, at.UnixNano())
}

// References reports whether the result points at the document on either side.
func (r *MatchResult) References(documentID string) bool {
	return r.CandidateID == documentID || r.JobID == documentID
}

func (r *MatchResult) Clone() *MatchResult {
	out := *r
	if r.Dimensions != nil {
		out.Dimensions = make(map[string]DimensionScore, len(r.Dimensions))
		for k, v := range r.Dimensions {
			out.Dimensions[k] = v
		}
	}
	out.Positives = append([]string(nil), r.Positives...)
	out.Gaps = append([]string(nil), r.Gaps...)
	out.DiscussionPoints = append([]string(nil), r.DiscussionPoints...)
	out.Settings = r.Settings.Clone()
	return &out
}

func (r *MatchResult) GetStringField(name string) string {
	switch name {
	case ResultIDField:
		return r.ID
	case ResultCandidateIDField:
		return r.CandidateID
	case ResultJobIDField:
		return r.JobID
	default:
		return ""
	}
}

type Results struct {
	Items []*MatchResult
}

func (r *Results) Len() int {
	return len(r.Items)
}

func (r *Results) FindByID(id string) *MatchResult {
	for _, result := range r.Items {
		if result.ID == id {
			return result
		}
	}
	return nil
}

// Keep retains only the results for which keep returns true and returns the ids of the dropped ones.
func (r *Results) Keep(keep func(*MatchResult) bool) []string {
	var dropped []string
	kept := r.Items[:0]
	for _, result := range r.Items {
		if keep(result) {
			kept = append(kept, result)
			continue
		}
		dropped = append(dropped, result.ID)
	}
	for idx := len(kept); idx < len(r.Items); idx++ {
		r.Items[idx] = nil
	}
	r.Items = kept
	return dropped
}

// Exclude removes every result whose field matches one of targets.
func (r *Results) Exclude(name string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}
	return r.Keep(func(result *MatchResult) bool {
		_, hit := set[result.GetStringField(name)]
		return !hit
	})
}

// Only keeps results whose field matches one of targets.
func (r *Results) Only(name string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}
	return r.Keep(func(result *MatchResult) bool {
		_, hit := set[result.GetStringField(name)]
		return hit
	})
}

// SortByScore orders results by overall score, best first. Ties keep the newest first.
func (r *Results) SortByScore() {
	sort.SliceStable(r.Items, func(i, j int) bool {
		a, b := r.Items[i], r.Items[j]
		if a.OverallScore != b.OverallScore {
			return a.OverallScore > b.OverallScore
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// ReportByJob groups results under "<job title> (<job id>)".
func (r *Results) ReportByJob() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, result := range r.Items {
		key := fmt.Sprintf("%s (%s)", result.JobTitle, result.JobID)
		entry := map[string]string{
			"candidate":     result.CandidateName,
			"candidate_id":  result.CandidateID,
			"overall_score": strconv.FormatFloat(result.OverallScore, 'f', -1, 64),
			"result_id":     result.ID,
		}
		if len(result.Positives) > 0 {
			entry["positives"] = strings.Join(result.Positives, "; ")
		}
		if len(result.Gaps) > 0 {
			entry["gaps"] = strings.Join(result.Gaps, "; ")
		}
		report[key] = append(report[key], entry)
	}
	return report
}

func (r *Results) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "results_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}
