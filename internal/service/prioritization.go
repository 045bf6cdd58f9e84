package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pulse-server/internal/models"
	"pulse-server/internal/risk"
	"pulse-server/internal/store"
)

const recentActivityLimit = 5

// Prioritization serves the two ranking views built on the scorer.
type Prioritization struct {
	store      store.Store
	reconciler *Reconciler
	log        *zap.Logger
	queueSize  int

	// Clock is the time source for scoring; tests replace it.
	Clock func() time.Time
}

// NewPrioritization creates a Prioritization. queueSize bounds the attention queue.
func NewPrioritization(st store.Store, rec *Reconciler, log *zap.Logger, queueSize int) *Prioritization {
	return &Prioritization{
		store:      st,
		reconciler: rec,
		log:        log.With(zap.String("component", "prioritization")),
		queueSize:  queueSize,
		Clock:      time.Now,
	}
}

// RankedResident is one row of the full ranked list.
type RankedResident struct {
	Resident    models.ResidentView `json:"resident"`
	Assessment  risk.Assessment     `json:"assessment"`
	StoredScore int                 `json:"storedScore"`
	StoredLevel risk.Level          `json:"storedLevel"`
}

// RankedList is the full ranked list with live level counts.
type RankedList struct {
	Weights   risk.Weights     `json:"weights"`
	Residents []RankedResident `json:"residents"`
	High      int              `json:"high"`
	Medium    int              `json:"medium"`
	Low       int              `json:"low"`
	Corrected int              `json:"corrected"`
}

// Ranked scores every resident live with the current weights, orders them by
// descending score and starts a correction for each stale stored value.
func (p *Prioritization) Ranked(ctx context.Context) (*RankedList, error) {
	residents, err := p.store.ListResidents(ctx)
	if err != nil {
		return nil, err
	}
	weights, err := loadWeights(ctx, p.store)
	if err != nil {
		return nil, err
	}

	ranked := risk.RankAll(residents, weights, p.Clock())
	list := &RankedList{Weights: weights, Residents: make([]RankedResident, 0, len(ranked))}
	for _, r := range ranked {
		resident := r.Subject
		if r.Drifted() {
			if c := p.reconciler.Reconcile(ctx, &resident, r.Assessment); c != nil {
				list.Corrected++
			}
		}
		switch r.Assessment.Level {
		case risk.LevelHigh:
			list.High++
		case risk.LevelMedium:
			list.Medium++
		default:
			list.Low++
		}
		list.Residents = append(list.Residents, RankedResident{
			Resident:    resident.View(),
			Assessment:  r.Assessment,
			StoredScore: resident.RiskScore,
			StoredLevel: r.Prior,
		})
	}

	if list.Corrected > 0 {
		p.log.Info("ranked list found stale risk values", zap.Int("corrections", list.Corrected), zap.Int("residents", len(ranked)))
	}
	return list, nil
}

// Explanation is the drill-down for one resident.
type Explanation struct {
	Resident   models.ResidentView `json:"resident"`
	Assessment risk.Assessment     `json:"assessment"`
	Weights    risk.Weights        `json:"weights"`
}

// Explain recomputes the assessment of a single resident. Because the ranked
// list stores settled values, explaining a resident gives the same result
// whether or not its correction has been written yet.
func (p *Prioritization) Explain(ctx context.Context, id string) (*Explanation, error) {
	resident, err := p.store.GetResident(ctx, id)
	if err != nil {
		return nil, err
	}
	weights, err := loadWeights(ctx, p.store)
	if err != nil {
		return nil, err
	}
	return &Explanation{
		Resident:   resident.View(),
		Assessment: risk.Settle(resident.RiskProfile(), resident.RiskLevel, weights, p.Clock()),
		Weights:    weights,
	}, nil
}

// Dashboard is the summary shown on the landing page.
type Dashboard struct {
	Distribution    risk.Distribution     `json:"distribution"`
	AttentionQueue  []models.ResidentView `json:"attentionQueue"`
	RecentVisits    []models.Visit        `json:"recentVisits"`
	VisitsThisMonth int64                 `json:"visitsThisMonth"`
}

// Dashboard loads residents and visit activity concurrently and builds the
// attention queue from stored levels.
func (p *Prioritization) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := p.Clock()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var (
		residents []models.Resident
		recent    []models.Visit
		thisMonth int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		residents, err = p.store.ListResidents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = p.store.ListRecentVisits(gctx, recentActivityLimit)
		return err
	})
	g.Go(func() error {
		var err error
		thisMonth, err = p.store.CountVisitsBetween(gctx, monthStart, monthStart.AddDate(0, 1, 0))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	queue := risk.AttentionQueue(residents, p.queueSize)
	views := make([]models.ResidentView, len(queue))
	for i := range queue {
		views[i] = queue[i].View()
	}
	if recent == nil {
		recent = []models.Visit{}
	}

	return &Dashboard{
		Distribution:    risk.Summarize(residents),
		AttentionQueue:  views,
		RecentVisits:    recent,
		VisitsThisMonth: thisMonth,
	}, nil
}
