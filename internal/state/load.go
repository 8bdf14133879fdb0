package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
	"github.com/spigell/cv-matcher/internal/storage"
)

// LoadReport describes what Load had to do to bring the state up.
type LoadReport struct {
	// Failed lists collection keys that could not be read or parsed; those
	// collections start empty.
	Failed []string
	// Healed lists keys that were missing or invalid and were rewritten with defaults.
	Healed []string
}

// Notice returns the message to show the user, or "" when everything loaded.
func (r *LoadReport) Notice() string {
	if r == nil || len(r.Failed) == 0 {
		return ""
	}
	return LoadFailedNotice
}

// Load reads all four collections. It never fails: unreadable collections
// start empty and invalid settings are replaced by the defaults.
func (m *Manager) Load(ctx context.Context) *LoadReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := &LoadReport{}

	m.candidates = &domain.Documents{Items: m.loadDocuments(ctx, KeyCandidates, domain.KindCandidate, report)}
	m.jobs = &domain.Documents{Items: m.loadDocuments(ctx, KeyJobs, domain.KindJob, report)}
	m.results = &domain.Results{Items: m.loadResults(ctx, report)}
	m.settings = m.loadSettings(ctx, report)

	m.logger.Info("state loaded",
		zap.Int("candidates", m.candidates.Len()),
		zap.Int("jobs", m.jobs.Len()),
		zap.Int("results", m.results.Len()),
		zap.Strings("failed", report.Failed),
		zap.Strings("healed", report.Healed),
	)

	return report
}

// readJSON returns found=false when the key is absent.
func (m *Manager) readJSON(ctx context.Context, key string, target any) (bool, error) {
	data, err := m.store.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return true, fmt.Errorf("parsing %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) loadDocuments(ctx context.Context, key string, kind domain.Kind, report *LoadReport) []*domain.Document {
	var docs []*domain.Document
	found, err := m.readJSON(ctx, key, &docs)
	if err != nil {
		m.logger.Error("loading documents", zap.String("key", key), zap.Error(err))
		report.Failed = append(report.Failed, key)
		return nil
	}
	if !found {
		m.persist(ctx, key, []*domain.Document{})
		report.Healed = append(report.Healed, key)
		return nil
	}

	seen := make(map[string]struct{}, len(docs))
	out := make([]*domain.Document, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || doc.ID == "" {
			continue
		}
		if _, dup := seen[doc.ID]; dup {
			m.logger.Warn("dropping duplicate document", zap.String("key", key), zap.String("document_id", doc.ID))
			continue
		}
		seen[doc.ID] = struct{}{}

		doc.Kind = kind
		// Enrichment never outlives the process that started it.
		doc.Enriching = false
		out = append(out, doc)
	}
	return out
}

func (m *Manager) loadResults(ctx context.Context, report *LoadReport) []*domain.MatchResult {
	var results []*domain.MatchResult
	found, err := m.readJSON(ctx, KeyResults, &results)
	if err != nil {
		m.logger.Error("loading results", zap.Error(err))
		report.Failed = append(report.Failed, KeyResults)
		return nil
	}
	if !found {
		m.persist(ctx, KeyResults, []*domain.MatchResult{})
		report.Healed = append(report.Healed, KeyResults)
		return nil
	}

	seen := make(map[string]struct{}, len(results))
	out := make([]*domain.MatchResult, 0, len(results))
	for _, r := range results {
		if r == nil || r.ID == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (m *Manager) loadSettings(ctx context.Context, report *LoadReport) domain.Settings {
	var raw map[string]any
	found, err := m.readJSON(ctx, KeySettings, &raw)

	var settings domain.Settings
	switch {
	case err != nil:
		m.logger.Warn("stored settings are unreadable; restoring defaults", zap.Error(err))
	case !found:
		m.logger.Info("no stored settings; writing defaults")
	default:
		settings, err = decodeSettings(raw)
		if err == nil {
			return settings
		}
		m.logger.Warn("stored settings are invalid; restoring defaults", zap.Error(err))
	}

	settings = domain.DefaultSettings()
	m.persist(ctx, KeySettings, settings)
	report.Healed = append(report.Healed, KeySettings)
	return settings
}

// decodeSettings performs the shape check on stored settings: the schema
// version must match, the threshold must be a number and the dimensions a
// non-empty list, and the decoded value must pass domain validation.
func decodeSettings(raw map[string]any) (domain.Settings, error) {
	var settings domain.Settings

	if raw == nil {
		return settings, errors.New("settings are null")
	}

	version, ok := raw["version"].(float64)
	if !ok || version != float64(domain.SettingsVersion) {
		return settings, fmt.Errorf("unsupported settings version %v", raw["version"])
	}

	if _, ok := raw["threshold"].(float64); !ok {
		return settings, errors.New("threshold is not a number")
	}

	dims, ok := raw["dimensions"].([]any)
	if !ok || len(dims) == 0 {
		return settings, domain.ErrNoDimensions
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &settings,
		TagName: "mapstructure",
	})
	if err != nil {
		return settings, err
	}
	if err := decoder.Decode(raw); err != nil {
		return settings, fmt.Errorf("decoding settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}
