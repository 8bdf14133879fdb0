package state

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/domain"
)

// Settings returns a copy of the current settings.
func (m *Manager) Settings() domain.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.settings.Clone()
}

// SaveSettings replaces the settings after validation. The schema version is
// always set to the current one.
func (m *Manager) SaveSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	settings = settings.Clone()
	settings.Version = domain.SettingsVersion
	if err := settings.Validate(); err != nil {
		return m.Settings(), err
	}

	return m.mutateSettings(ctx, func(domain.Settings) (domain.Settings, error) {
		return settings, nil
	})
}

func (m *Manager) SetDimensionActive(ctx context.Context, id string, active bool) (domain.Settings, error) {
	return m.mutateSettings(ctx, func(s domain.Settings) (domain.Settings, error) {
		return s.WithDimensionActive(id, active)
	})
}

func (m *Manager) AddDimension(ctx context.Context, d domain.Dimension) (domain.Settings, error) {
	return m.mutateSettings(ctx, func(s domain.Settings) (domain.Settings, error) {
		return s.WithDimension(d)
	})
}

func (m *Manager) RemoveDimension(ctx context.Context, id string) (domain.Settings, error) {
	return m.mutateSettings(ctx, func(s domain.Settings) (domain.Settings, error) {
		return s.WithoutDimension(id)
	})
}

func (m *Manager) SetThreshold(ctx context.Context, threshold float64) (domain.Settings, error) {
	return m.mutateSettings(ctx, func(s domain.Settings) (domain.Settings, error) {
		return s.WithThreshold(threshold)
	})
}

func (m *Manager) ResetSettings(ctx context.Context) domain.Settings {
	s, _ := m.mutateSettings(ctx, func(domain.Settings) (domain.Settings, error) {
		return domain.DefaultSettings(), nil
	})
	return s
}

// mutateSettings applies change under the lock. On error the current settings
// are kept and returned.
func (m *Manager) mutateSettings(ctx context.Context, change func(domain.Settings) (domain.Settings, error)) (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := change(m.settings.Clone())
	if err != nil {
		return m.settings.Clone(), err
	}

	m.settings = next
	m.persistSettings(ctx)
	m.logger.Debug("settings updated",
		zap.Int("active_dimensions", len(next.ActiveDimensions())),
		zap.Float64("threshold", next.Threshold),
	)
	return next.Clone(), nil
}
