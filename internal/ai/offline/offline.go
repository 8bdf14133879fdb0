// Package offline scores pairs without a model provider, by keyword overlap.
// It keeps the tool usable without an API key and makes runs reproducible.
package offline

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/domain"
)

const (
	maxListItems = 5
	maxKeywords  = 15
	minTokenLen  = 3
)

var stopwords = map[string]struct{}{
	"and": {}, "the": {}, "for": {}, "with": {}, "you": {}, "are": {}, "our": {}, "will": {},
	"have": {}, "has": {}, "this": {}, "that": {}, "from": {}, "your": {}, "who": {}, "not": {},
	"all": {}, "can": {}, "was": {}, "were": {}, "their": {}, "they": {}, "about": {}, "into": {},
	"more": {}, "other": {}, "than": {}, "also": {}, "work": {}, "team": {}, "years": {}, "year": {},
}

var (
	_ ai.Scorer   = Scorer{}
	_ ai.Enricher = Enricher{}
)

type Scorer struct{}

func (Scorer) Score(ctx context.Context, req *ai.Request) (*ai.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("score request is required")
	}

	cvTerms := termSet(req.CandidateContent)
	jobTerms := rankedTerms(req.JobContent)
	if len(jobTerms) == 0 {
		return nil, fmt.Errorf("job description has no usable terms")
	}

	var matched, missing []string
	for _, term := range jobTerms {
		if _, ok := cvTerms[term]; ok {
			matched = append(matched, term)
		} else {
			missing = append(missing, term)
		}
	}

	overall := math.Round(float64(len(matched)) / float64(len(jobTerms)) * 100)

	dims := make(map[string]domain.DimensionScore)
	for _, d := range req.Settings.ActiveDimensions() {
		score := clamp(overall + float64(spread(d.ID)))
		dims[d.ID] = domain.DimensionScore{
			Score:       score,
			Explanation: fmt.Sprintf("%s estimated from keyword overlap (%d of %d job terms found).", d.Label, len(matched), len(jobTerms)),
		}
	}

	var discussion []string
	for _, gap := range head(missing) {
		discussion = append(discussion, fmt.Sprintf("Ask about experience with %q.", gap))
	}

	return &ai.Assessment{
		OverallScore: overall,
		Dimensions:   dims,
		Explanation: fmt.Sprintf("Offline keyword assessment: the CV covers %d of the %d most relevant job terms.",
			len(matched), len(jobTerms)),
		Positives:        head(matched),
		Gaps:             head(missing),
		DiscussionPoints: discussion,
	}, nil
}

type Enricher struct{}

func (Enricher) Enrich(ctx context.Context, kind domain.Kind, content string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}

	keywords := rankedTerms(content)
	summary := strings.TrimSpace(strings.SplitN(content, "\n", 2)[0])

	return map[string]any{
		"kind":      kind.String(),
		"keywords":  keywords,
		"wordCount": len(strings.Fields(content)),
		"summary":   summary,
	}, nil
}

func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

func usable(token string) bool {
	if len([]rune(token)) < minTokenLen {
		return false
	}
	_, stop := stopwords[token]
	return !stop
}

func termSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokens(text) {
		if usable(tok) {
			set[tok] = struct{}{}
		}
	}
	return set
}

// rankedTerms returns the most frequent usable terms, ties broken alphabetically.
func rankedTerms(text string) []string {
	counts := make(map[string]int)
	for _, tok := range tokens(text) {
		if usable(tok) {
			counts[tok]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > maxKeywords {
		terms = terms[:maxKeywords]
	}
	return terms
}

// spread gives each dimension a stable offset in [-5, 5].
func spread(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32()%11) - 5
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func head(items []string) []string {
	if len(items) > maxListItems {
		return items[:maxListItems]
	}
	return items
}
