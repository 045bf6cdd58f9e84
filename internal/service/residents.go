package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pulse-server/internal/models"
	"pulse-server/internal/risk"
	"pulse-server/internal/store"
)

// ResidentService registers and edits residents and keeps their stored risk
// values in step with the current rules.
type ResidentService struct {
	store      store.Store
	reconciler *Reconciler
	log        *zap.Logger

	// Clock is the time source for scoring; tests replace it.
	Clock func() time.Time
}

// NewResidentService creates a ResidentService.
func NewResidentService(st store.Store, rec *Reconciler, log *zap.Logger) *ResidentService {
	return &ResidentService{
		store:      st,
		reconciler: rec,
		log:        log.With(zap.String("component", "residents")),
		Clock:      time.Now,
	}
}

// CreateResidentInput holds the attributes captured at registration.
type CreateResidentInput struct {
	FirstName    string
	MiddleName   string
	LastName     string
	Birthdate    *time.Time
	Age          *int
	Sex          models.Sex
	Address      string
	BarangayZone string
	IsSenior     bool
	IsPWD        bool
	IsPregnant   bool
	IsChild      bool
	Conditions   []string
}

// UpdateResidentInput carries a partial profile edit. Nil fields are left
// alone; a non-nil Conditions replaces the whole condition set.
type UpdateResidentInput struct {
	FirstName    *string
	MiddleName   *string
	LastName     *string
	Birthdate    *time.Time
	Age          *int
	Sex          *models.Sex
	Address      *string
	BarangayZone *string
	IsSenior     *bool
	IsPWD        *bool
	IsPregnant   *bool
	IsChild      *bool
	Conditions   []string
}

// List returns the registry filtered by search text, level and category,
// High risk first. The stored risk values are returned as they are.
func (s *ResidentService) List(ctx context.Context, filter store.ResidentFilter) ([]models.Resident, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	return s.store.SearchResidents(ctx, filter)
}

// Get returns one resident.
func (s *ResidentService) Get(ctx context.Context, id string) (*models.Resident, error) {
	return s.store.GetResident(ctx, id)
}

// Create registers a resident and scores it right away. The returned resident
// carries the computed risk values; persisting them happens in the background.
func (s *ResidentService) Create(ctx context.Context, in CreateResidentInput) (*models.Resident, error) {
	age, err := resolveAge(in.Age, in.Birthdate, s.Clock())
	if err != nil {
		return nil, err
	}

	resident := &models.Resident{
		FirstName:    strings.TrimSpace(in.FirstName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
		LastName:     strings.TrimSpace(in.LastName),
		Birthdate:    in.Birthdate,
		Age:          age,
		Sex:          in.Sex,
		Address:      in.Address,
		BarangayZone: in.BarangayZone,
		IsSenior:     in.IsSenior,
		IsPWD:        in.IsPWD,
		IsPregnant:   in.IsPregnant,
		IsChild:      in.IsChild,
		RiskScore:    0,
		RiskLevel:    risk.LevelLow,
	}
	if err := s.store.CreateResident(ctx, resident, in.Conditions); err != nil {
		return nil, err
	}
	s.log.Info("resident registered", zap.String("resident_id", resident.ID))

	return s.rescore(ctx, resident.ID)
}

// Update applies a partial edit, then rescores the resident.
func (s *ResidentService) Update(ctx context.Context, id string, in UpdateResidentInput) (*models.Resident, error) {
	fields, err := in.fields(s.Clock())
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.store.UpdateResident(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	if in.Conditions != nil {
		if err := s.store.ReplaceConditions(ctx, id, in.Conditions); err != nil {
			return nil, err
		}
	}
	if len(fields) == 0 && in.Conditions == nil {
		// nothing changed, but still confirm the resident exists
		if _, err := s.store.GetResident(ctx, id); err != nil {
			return nil, err
		}
	}
	s.log.Info("resident updated", zap.String("resident_id", id), zap.Int("fields", len(fields)))

	return s.rescore(ctx, id)
}

// rescore reads the resident as stored, scores it with the stored level as the
// prior input and reconciles the difference.
func (s *ResidentService) rescore(ctx context.Context, id string) (*models.Resident, error) {
	resident, err := s.store.GetResident(ctx, id)
	if err != nil {
		return nil, err
	}
	weights, err := loadWeights(ctx, s.store)
	if err != nil {
		s.log.Warn("using default weights", zap.String("resident_id", id), zap.Error(err))
		weights = risk.DefaultWeights()
	}

	a := risk.Settle(resident.RiskProfile(), resident.RiskLevel, weights, s.Clock())
	_ = s.reconciler.Reconcile(ctx, resident, a)

	resident.RiskScore = a.Score
	resident.RiskLevel = a.Level
	return resident, nil
}

func (in UpdateResidentInput) fields(now time.Time) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if in.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.MiddleName != nil {
		fields["middle_name"] = strings.TrimSpace(*in.MiddleName)
	}
	if in.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Birthdate != nil {
		fields["birthdate"] = *in.Birthdate
	}
	if in.Age != nil || in.Birthdate != nil {
		age, err := resolveAge(in.Age, in.Birthdate, now)
		if err != nil {
			return nil, err
		}
		fields["age"] = age
	}
	if in.Sex != nil {
		fields["sex"] = *in.Sex
	}
	if in.Address != nil {
		fields["address"] = *in.Address
	}
	if in.BarangayZone != nil {
		fields["barangay_zone"] = *in.BarangayZone
	}
	if in.IsSenior != nil {
		fields["is_senior"] = *in.IsSenior
	}
	if in.IsPWD != nil {
		fields["is_pwd"] = *in.IsPWD
	}
	if in.IsPregnant != nil {
		fields["is_pregnant"] = *in.IsPregnant
	}
	if in.IsChild != nil {
		fields["is_child"] = *in.IsChild
	}
	return fields, nil
}

// resolveAge prefers an explicit age and otherwise derives it from birthdate.
func resolveAge(age *int, birthdate *time.Time, now time.Time) (int, error) {
	if age != nil {
		if *age < 0 {
			return 0, fmt.Errorf("%w: age must not be negative", ErrValidation)
		}
		return *age, nil
	}
	if birthdate == nil {
		return 0, fmt.Errorf("%w: age or birthdate is required", ErrValidation)
	}
	if birthdate.After(now) {
		return 0, fmt.Errorf("%w: birthdate is in the future", ErrValidation)
	}
	return AgeOn(*birthdate, now), nil
}

// AgeOn returns completed years between birthdate and day.
func AgeOn(birthdate, day time.Time) int {
	years := day.Year() - birthdate.Year()
	if day.Month() < birthdate.Month() || (day.Month() == birthdate.Month() && day.Day() < birthdate.Day()) {
		years--
	}
	return years
}
