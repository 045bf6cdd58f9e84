package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pulse-server/internal/models"
	"pulse-server/internal/risk"
	"pulse-server/internal/store"
)

// Reconciler writes freshly computed risk values back to residents whose
// persisted score or level has drifted. Writes run in the background and
// never report failure to the caller; they are logged instead.
type Reconciler struct {
	store   store.Store
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewReconciler creates a Reconciler. Each correction write is bounded by timeout.
func NewReconciler(st store.Store, log *zap.Logger, timeout time.Duration) *Reconciler {
	return &Reconciler{
		store:   st,
		log:     log.With(zap.String("component", "reconciler")),
		timeout: timeout,
	}
}

// Correction is a pending background write of risk values for one resident.
type Correction struct {
	ResidentID string
	Score      int
	Level      risk.Level

	done chan struct{}
	err  error
}

// Done is closed once the write has finished, successfully or not.
func (c *Correction) Done() <-chan struct{} { return c.done }

// Wait blocks until the write finishes and returns its outcome.
func (c *Correction) Wait() error {
	<-c.done
	return c.err
}

// Reconcile compares a against the values stored on resident and, if either
// differs, starts a background write and returns it. It returns nil when the
// stored values are current. The write outlives ctx cancellation; a corrected
// value is idempotent, so a late write is harmless.
func (r *Reconciler) Reconcile(ctx context.Context, resident *models.Resident, a risk.Assessment) *Correction {
	if resident.RiskScore == a.Score && resident.RiskLevel == a.Level {
		return nil
	}

	c := &Correction{
		ResidentID: resident.ID,
		Score:      a.Score,
		Level:      a.Level,
		done:       make(chan struct{}),
	}
	fromScore, fromLevel := resident.RiskScore, resident.RiskLevel
	detached := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(c.done)

		writeCtx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()

		if err := r.store.UpdateResident(writeCtx, c.ResidentID, store.RiskFields(c.Score, c.Level)); err != nil {
			c.err = err
			r.log.Error("risk correction failed",
				zap.String("resident_id", c.ResidentID),
				zap.Int("score", c.Score),
				zap.String("level", string(c.Level)),
				zap.Error(err))
			return
		}
		r.log.Debug("risk corrected",
			zap.String("resident_id", c.ResidentID),
			zap.Int("from_score", fromScore),
			zap.String("from_level", string(fromLevel)),
			zap.Int("score", c.Score),
			zap.String("level", string(c.Level)))
	}()
	return c
}

// Drain waits for in-flight corrections, or until ctx is done.
func (r *Reconciler) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
