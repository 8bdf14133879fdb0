package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

var _ ai.Scorer = (*Scorer)(nil)

type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	maxNoteRunes        = 600
	defaultLanguage     = "en"
)

func NewScorer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Score(ctx context.Context, req *ai.Request) (*ai.Assessment, error) {
	if req == nil {
		return nil, fmt.Errorf("score request is required")
	}

	system := buildSystemPrompt(req.Settings, req.Language)
	message := buildPairMessage(req)

	s.logger.Debug("gemini score request",
		zap.String("candidate", req.CandidateName),
		zap.String("job", req.JobName),
		zap.Int("prompt_length", utf8.RuneCountInString(system)+utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini score response",
		zap.String("candidate", req.CandidateName),
		zap.String("job", req.JobName),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	assessment, err := parseAssessment(raw)
	if err != nil {
		return nil, err
	}

	assessment.Raw = raw
	return assessment, nil
}

func buildSystemPrompt(settings domain.Settings, language string) string {
	language = sanitizeSingleLine(language)
	if language == "" {
		language = defaultLanguage
	}

	var dims strings.Builder
	for _, d := range settings.ActiveDimensions() {
		fmt.Fprintf(&dims, "- %s (%s)", d.ID, sanitizeSingleLine(d.Label))
		if guidance := sanitizeSingleLine(d.Guidance); guidance != "" {
			fmt.Fprintf(&dims, ": %s", guidance)
		}
		dims.WriteString("\n")
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{LANGUAGE}}", language)
	prompt = strings.ReplaceAll(prompt, "{{DIMENSIONS}}", strings.TrimRight(dims.String(), "\n"))
	return prompt
}

func buildPairMessage(req *ai.Request) string {
	var b strings.Builder

	b.WriteString("[Recruiter notes]\n")
	fmt.Fprintf(&b, "- About the candidate:\n%s\n", sanitizeNotes(req.CandidateNotes))
	fmt.Fprintf(&b, "- About the job:\n%s\n\n", sanitizeNotes(req.JobNotes))

	fmt.Fprintf(&b, "[Inputs: candidate CV %q]\n%s\n\n", sanitizeSingleLine(req.CandidateName), strings.TrimSpace(req.CandidateContent))
	fmt.Fprintf(&b, "[Inputs: job description %q]\n%s\n", sanitizeSingleLine(req.JobName), strings.TrimSpace(req.JobContent))

	return b.String()
}

// sanitizeNotes renders free-text notes as an indented list, neutralising
// bracketed section markers and capping the length.
func sanitizeNotes(notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return "  - none"
	}

	notes = neutraliseBrackets(notes)
	runes := []rune(notes)
	if len(runes) > maxNoteRunes {
		notes = string(runes[:maxNoteRunes])
	}

	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(notes, "\r\n", "\n"), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		lines = append(lines, "  - "+line)
	}
	return strings.Join(lines, "\n")
}

func sanitizeSingleLine(s string) string {
	return strings.Join(strings.Fields(neutraliseBrackets(s)), " ")
}

func neutraliseBrackets(s string) string {
	return strings.NewReplacer("[", "(", "]", ")").Replace(s)
}

type dimensionPayload struct {
	Score       *float64 `json:"score"`
	Explanation string   `json:"explanation"`
	Details     string   `json:"details"`
}

type assessmentPayload struct {
	CandidateName       string                      `json:"candidateName"`
	JobTitle            string                      `json:"jobTitle"`
	OverallScore        *float64                    `json:"overallScore"`
	Dimensions          map[string]dimensionPayload `json:"dimensions"`
	DetailedExplanation string                      `json:"detailedExplanation"`
	PositivePoints      []string                    `json:"positivePoints"`
	Gaps                []string                    `json:"gaps"`
	DiscussionPoints    []string                    `json:"discussionPoints"`
}

// parseAssessment decodes the model output into the strict payload schema.
// Missing required fields or wrongly typed values are errors; range checks
// against the settings happen in ai.Assessment.Validate.
func parseAssessment(raw string) (*ai.Assessment, error) {
	var payload assessmentPayload
	if err := decodeJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: parse gemini response: %v", ai.ErrInvalidAssessment, err)
	}

	if payload.OverallScore == nil {
		return nil, fmt.Errorf("%w: overallScore is missing", ai.ErrInvalidAssessment)
	}
	if payload.Dimensions == nil {
		return nil, fmt.Errorf("%w: dimensions are missing", ai.ErrInvalidAssessment)
	}

	dims := make(map[string]domain.DimensionScore, len(payload.Dimensions))
	for id, d := range payload.Dimensions {
		if d.Score == nil {
			return nil, fmt.Errorf("%w: dimension %q has no score", ai.ErrInvalidAssessment, id)
		}
		dims[id] = domain.DimensionScore{
			Score:       *d.Score,
			Explanation: strings.TrimSpace(d.Explanation),
			Details:     strings.TrimSpace(d.Details),
		}
	}

	return &ai.Assessment{
		CandidateName:    strings.TrimSpace(payload.CandidateName),
		JobTitle:         strings.TrimSpace(payload.JobTitle),
		OverallScore:     *payload.OverallScore,
		Dimensions:       dims,
		Explanation:      strings.TrimSpace(payload.DetailedExplanation),
		Positives:        cleanList(payload.PositivePoints),
		Gaps:             cleanList(payload.Gaps),
		DiscussionPoints: cleanList(payload.DiscussionPoints),
	}, nil
}

func decodeJSON(raw string, target any) error {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return fmt.Errorf("empty response")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	if err := dec.Decode(target); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON object")
	}
	return nil
}

// extractJSON cuts the reply from the first '{' to the last '}', dropping
// code fences and any prose around the object.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return strings.TrimSpace(raw)
	}
	return raw[start : end+1]
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
