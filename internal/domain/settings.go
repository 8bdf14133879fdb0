package domain

import (
	"fmt"
	"math"
	"strings"
)

// SettingsVersion tags the persisted settings shape. Stored settings with any
// other version are treated as invalid and replaced by the defaults.
const SettingsVersion = 2

const DefaultThreshold = 70

type Dimension struct {
	ID       string `json:"id" mapstructure:"id"`
	Label    string `json:"label" mapstructure:"label"`
	Guidance string `json:"guidance" mapstructure:"guidance"`
	Active   bool   `json:"active" mapstructure:"active"`
	Default  bool   `json:"default" mapstructure:"default"`
}

type Settings struct {
	Version    int         `json:"version" mapstructure:"version"`
	Dimensions []Dimension `json:"dimensions" mapstructure:"dimensions"`
	Threshold  float64     `json:"threshold" mapstructure:"threshold"`
}

func DefaultSettings() Settings {
	return Settings{
		Version: SettingsVersion,
		Dimensions: []Dimension{
			{
				ID:       "skills",
				Label:    "Technical skills",
				Guidance: "Compare the hard skills, tools and technologies in the CV with those the job requires.",
				Active:   true,
				Default:  true,
			},
			{
				ID:       "experience",
				Label:    "Experience",
				Guidance: "Assess seniority, years and relevance of previous roles to the responsibilities of the job.",
				Active:   true,
				Default:  true,
			},
			{
				ID:       "education",
				Label:    "Education",
				Guidance: "Check degrees, certifications and training against the stated requirements.",
				Active:   true,
				Default:  true,
			},
			{
				ID:       "soft_skills",
				Label:    "Soft skills",
				Guidance: "Look for communication, leadership and teamwork evidence relevant to the role.",
				Active:   true,
				Default:  true,
			},
			{
				ID:       "culture_fit",
				Label:    "Culture fit",
				Guidance: "Estimate alignment with the values and working style described by the employer.",
				Active:   false,
				Default:  true,
			},
		},
		Threshold: DefaultThreshold,
	}
}

// Clone returns a deep copy. Results keep clones so later edits never leak into history.
func (s Settings) Clone() Settings {
	out := s
	if s.Dimensions != nil {
		out.Dimensions = make([]Dimension, len(s.Dimensions))
		copy(out.Dimensions, s.Dimensions)
	}
	return out
}

func (s Settings) ActiveDimensions() []Dimension {
	active := make([]Dimension, 0, len(s.Dimensions))
	for _, d := range s.Dimensions {
		if d.Active {
			active = append(active, d)
		}
	}
	return active
}

func (s Settings) FindDimension(id string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if d.ID == id {
			return d, true
		}
	}
	return Dimension{}, false
}

func (s Settings) Validate() error {
	if len(s.Dimensions) == 0 {
		return ErrNoDimensions
	}

	if math.IsNaN(s.Threshold) || s.Threshold < 0 || s.Threshold > 100 {
		return ErrInvalidThreshold
	}

	seen := make(map[string]struct{}, len(s.Dimensions))
	for idx, d := range s.Dimensions {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return fmt.Errorf("%w: dimension #%d has no id", ErrInvalidDimension, idx)
		}
		if strings.TrimSpace(d.Label) == "" {
			return fmt.Errorf("%w: dimension %q has no label", ErrInvalidDimension, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidDimension, id)
		}
		seen[id] = struct{}{}
	}

	if len(s.ActiveDimensions()) == 0 {
		return ErrLastActiveDimension
	}

	return nil
}

// WithDimensionActive returns a copy with the dimension toggled, refusing to
// leave the settings without an active dimension.
func (s Settings) WithDimensionActive(id string, active bool) (Settings, error) {
	out := s.Clone()
	found := false
	for idx := range out.Dimensions {
		if out.Dimensions[idx].ID == id {
			out.Dimensions[idx].Active = active
			found = true
			break
		}
	}
	if !found {
		return s, fmt.Errorf("dimension %q: %w", id, ErrNotFound)
	}

	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}

func (s Settings) WithDimension(d Dimension) (Settings, error) {
	d.ID = strings.TrimSpace(d.ID)
	d.Label = strings.TrimSpace(d.Label)
	d.Guidance = strings.TrimSpace(d.Guidance)
	d.Default = false

	out := s.Clone()
	out.Dimensions = append(out.Dimensions, d)
	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}

func (s Settings) WithoutDimension(id string) (Settings, error) {
	d, ok := s.FindDimension(id)
	if !ok {
		return s, fmt.Errorf("dimension %q: %w", id, ErrNotFound)
	}
	if d.Default {
		return s, fmt.Errorf("dimension %q: %w", id, ErrDefaultDimension)
	}

	out := s.Clone()
	out.Dimensions = out.Dimensions[:0]
	for _, existing := range s.Dimensions {
		if existing.ID != id {
			out.Dimensions = append(out.Dimensions, existing)
		}
	}
	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}

func (s Settings) WithThreshold(threshold float64) (Settings, error) {
	out := s.Clone()
	out.Threshold = threshold
	if err := out.Validate(); err != nil {
		return s, err
	}
	return out, nil
}
