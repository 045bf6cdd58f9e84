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

// VisitService logs home visits.
type VisitService struct {
	store      store.Store
	reconciler *Reconciler
	log        *zap.Logger

	// Clock is the time source for scoring; tests replace it.
	Clock func() time.Time
}

// NewVisitService creates a VisitService.
func NewVisitService(st store.Store, rec *Reconciler, log *zap.Logger) *VisitService {
	return &VisitService{
		store:      st,
		reconciler: rec,
		log:        log.With(zap.String("component", "visits")),
		Clock:      time.Now,
	}
}

// CreateVisitInput describes one logged home visit.
type CreateVisitInput struct {
	ResidentID       string
	VisitDate        time.Time
	ProviderName     string
	FollowUpRequired bool
	Notes            string
	Symptoms         []string
}

// Create stores the visit and then rescores the resident. Rescoring is best
// effort: once the visit is stored the call succeeds even if rescoring fails.
func (s *VisitService) Create(ctx context.Context, in CreateVisitInput) (*models.Visit, error) {
	if in.VisitDate.IsZero() {
		return nil, fmt.Errorf("%w: visit date is required", ErrValidation)
	}
	day := in.VisitDate.UTC().Truncate(24 * time.Hour)
	if day.After(s.Clock().UTC()) {
		return nil, fmt.Errorf("%w: visit date is in the future", ErrValidation)
	}

	symptoms := make([]string, 0, len(in.Symptoms))
	for _, sym := range in.Symptoms {
		if sym = strings.TrimSpace(sym); sym != "" {
			symptoms = append(symptoms, sym)
		}
	}

	visit := &models.Visit{
		ResidentID:       in.ResidentID,
		VisitDate:        day,
		ProviderName:     in.ProviderName,
		FollowUpRequired: in.FollowUpRequired,
		Notes:            in.Notes,
	}
	if err := s.store.CreateVisit(ctx, visit, symptoms); err != nil {
		return nil, err
	}
	s.log.Info("visit logged",
		zap.String("visit_id", visit.ID),
		zap.String("resident_id", visit.ResidentID),
		zap.Bool("follow_up_required", visit.FollowUpRequired))

	if err := s.rescore(ctx, visit.ResidentID); err != nil {
		s.log.Error("rescore after visit failed", zap.String("resident_id", visit.ResidentID), zap.Error(err))
	}
	return visit, nil
}

// ListForResident returns a resident's visits, newest first.
func (s *VisitService) ListForResident(ctx context.Context, residentID string) ([]models.Visit, error) {
	if _, err := s.store.GetResident(ctx, residentID); err != nil {
		return nil, err
	}
	return s.store.ListVisitsForResident(ctx, residentID)
}

// ListRecent returns the latest visits across all residents.
func (s *VisitService) ListRecent(ctx context.Context, limit int) ([]models.Visit, error) {
	return s.store.ListRecentVisits(ctx, limit)
}

func (s *VisitService) rescore(ctx context.Context, residentID string) error {
	resident, err := s.store.GetResident(ctx, residentID)
	if err != nil {
		return err
	}
	weights, err := loadWeights(ctx, s.store)
	if err != nil {
		return err
	}
	a := risk.Settle(resident.RiskProfile(), resident.RiskLevel, weights, s.Clock())
	_ = s.reconciler.Reconcile(ctx, resident, a)
	return nil
}
