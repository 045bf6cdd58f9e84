package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pulse-server/internal/models"
	"pulse-server/internal/risk"
	"pulse-server/internal/store"
)

// ErrValidation marks input rejected by a service.
var ErrValidation = errors.New("validation failed")

// loadWeights reads the organization weights, falling back to the built-in
// defaults when no settings record exists yet.
func loadWeights(ctx context.Context, st store.Store) (risk.Weights, error) {
	settings, err := st.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return risk.DefaultWeights(), nil
	}
	if err != nil {
		return risk.Weights{}, fmt.Errorf("load weights: %w", err)
	}
	return settings.Weights(), nil
}

// SettingsService manages the organization settings singleton.
type SettingsService struct {
	store store.Store
	log   *zap.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(st store.Store, log *zap.Logger) *SettingsService {
	return &SettingsService{store: st, log: log.With(zap.String("component", "settings"))}
}

// Weights returns the weights scoring should use right now.
func (s *SettingsService) Weights(ctx context.Context) (risk.Weights, error) {
	return loadWeights(ctx, s.store)
}

// GetOrInit returns the settings record, creating it with defaults when absent.
func (s *SettingsService) GetOrInit(ctx context.Context) (*models.OrganizationSettings, error) {
	settings, err := s.store.GetSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	defaults := models.DefaultOrganizationSettings()
	if err := s.store.CreateSettings(ctx, &defaults); err != nil {
		return nil, err
	}
	s.log.Info("initialized default organization settings", zap.String("settings_id", defaults.ID))
	return &defaults, nil
}

// UpdateSettingsInput carries a partial settings update. Nil fields are left alone.
type UpdateSettingsInput struct {
	BarangayName           *string
	Municipality           *string
	HealthStationID        *string
	WeightAgeOver60        *int
	WeightPregnancy        *int
	WeightChronicCondition *int
	WeightMissedVisit      *int
}

// Update applies a partial update to the settings record identified by id.
// Resulting weights must lie within [risk.MinWeight, risk.MaxWeight].
func (s *SettingsService) Update(ctx context.Context, id string, in UpdateSettingsInput) (*models.OrganizationSettings, error) {
	current, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if current.ID != id {
		return nil, store.ErrNotFound
	}

	fields := map[string]interface{}{}
	next := *current
	setString := func(column string, v *string, dst *string) {
		if v != nil {
			fields[column] = *v
			*dst = *v
		}
	}
	setInt := func(column string, v *int, dst *int) {
		if v != nil {
			fields[column] = *v
			*dst = *v
		}
	}
	setString("barangay_name", in.BarangayName, &next.BarangayName)
	setString("municipality", in.Municipality, &next.Municipality)
	setString("health_station_id", in.HealthStationID, &next.HealthStationID)
	setInt("weight_age_over_60", in.WeightAgeOver60, &next.WeightAgeOver60)
	setInt("weight_pregnancy", in.WeightPregnancy, &next.WeightPregnancy)
	setInt("weight_chronic_condition", in.WeightChronicCondition, &next.WeightChronicCondition)
	setInt("weight_missed_visit", in.WeightMissedVisit, &next.WeightMissedVisit)

	if err := next.Weights().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(fields) == 0 {
		return current, nil
	}
	if err := s.store.UpdateSettings(ctx, id, fields); err != nil {
		return nil, err
	}

	s.log.Info("organization settings updated",
		zap.String("settings_id", id),
		zap.Any("weights", next.Weights()))
	return &next, nil
}
