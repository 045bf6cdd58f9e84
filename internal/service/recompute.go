package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pulse-server/internal/risk"
	"pulse-server/internal/store"
)

// Recomputer rescores every resident, typically after a weight change.
type Recomputer struct {
	store store.Store
	log   *zap.Logger

	// Clock is the time source for scoring; tests replace it.
	Clock func() time.Time
}

// NewRecomputer creates a Recomputer.
func NewRecomputer(st store.Store, log *zap.Logger) *Recomputer {
	return &Recomputer{
		store: st,
		log:   log.With(zap.String("component", "recompute")),
		Clock: time.Now,
	}
}

// RecomputeResult summarizes one batch run.
type RecomputeResult struct {
	Total   int          `json:"total"`
	Updated int          `json:"updated"`
	Failed  int          `json:"failed"`
	Weights risk.Weights `json:"weights"`
}

// Recompute rescores all residents with the current weights and writes the
// ones whose stored values changed, one at a time. A failed write is logged
// and skipped. Failing to read residents or settings fails the whole run.
// Running it again right away updates nothing.
func (r *Recomputer) Recompute(ctx context.Context) (RecomputeResult, error) {
	residents, err := r.store.ListResidents(ctx)
	if err != nil {
		return RecomputeResult{}, err
	}
	weights, err := loadWeights(ctx, r.store)
	if err != nil {
		return RecomputeResult{}, err
	}

	now := r.Clock()
	result := RecomputeResult{Total: len(residents), Weights: weights}
	for i := range residents {
		if err := ctx.Err(); err != nil {
			r.log.Warn("recompute interrupted", zap.Int("processed", i), zap.Error(err))
			return result, err
		}

		resident := &residents[i]
		a := risk.Settle(resident.RiskProfile(), resident.RiskLevel, weights, now)
		if a.Score == resident.RiskScore && a.Level == resident.RiskLevel {
			continue
		}
		if err := r.store.UpdateResident(ctx, resident.ID, store.RiskFields(a.Score, a.Level)); err != nil {
			result.Failed++
			r.log.Error("recompute write failed", zap.String("resident_id", resident.ID), zap.Error(err))
			continue
		}
		result.Updated++
	}

	r.log.Info("risk scores recomputed",
		zap.Int("total", result.Total),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
		zap.Any("weights", weights))
	return result, nil
}
