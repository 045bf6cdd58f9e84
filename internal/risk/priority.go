package risk

import (
	"math"
	"sort"
	"time"
)

// Subject is anything that can be placed in a prioritization view.
type Subject interface {
	RiskProfile() Profile
	StoredLevel() Level
	StoredScore() int
	NeedsFollowUp() bool
}

// AttentionQueue returns the residents that need a visit soonest: those stored
// as High risk or flagged for follow-up. Follow-up residents come first, and
// among them High-risk ones lead; input order is kept otherwise. At most limit
// entries are returned; limit <= 0 means no bound.
//
// The queue works off stored levels, not a live recompute.
func AttentionQueue[S Subject](subjects []S, limit int) []S {
	queue := make([]S, 0, len(subjects))
	for _, s := range subjects {
		if s.StoredLevel() == LevelHigh || s.NeedsFollowUp() {
			queue = append(queue, s)
		}
	}

	rank := func(s S) int {
		r := 0
		if s.NeedsFollowUp() {
			r += 2
			if s.StoredLevel() == LevelHigh {
				r++
			}
		}
		return r
	}
	sort.SliceStable(queue, func(i, j int) bool {
		return rank(queue[i]) > rank(queue[j])
	})

	if limit > 0 && len(queue) > limit {
		queue = queue[:limit]
	}
	return queue
}

// Ranked is one entry of the full ranked list.
type Ranked[S Subject] struct {
	Subject    S
	Prior      Level
	Assessment Assessment
}

// Drifted reports whether the live assessment differs from what is stored.
func (r Ranked[S]) Drifted() bool {
	return r.Assessment.Score != r.Subject.StoredScore() || r.Assessment.Level != r.Prior
}

// RankAll scores every subject live with w and orders them by descending
// score. Ties keep input order.
func RankAll[S Subject](subjects []S, w Weights, now time.Time) []Ranked[S] {
	ranked := make([]Ranked[S], len(subjects))
	for i, s := range subjects {
		prior := s.StoredLevel()
		ranked[i] = Ranked[S]{
			Subject:    s,
			Prior:      prior,
			Assessment: Settle(s.RiskProfile(), prior, w, now),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Assessment.Score > ranked[j].Assessment.Score
	})
	return ranked
}

// Distribution counts subjects per stored level.
type Distribution struct {
	Total     int `json:"total"`
	High      int `json:"high"`
	Medium    int `json:"medium"`
	Low       int `json:"low"`
	FollowUp  int `json:"followUp"`
	HighPct   int `json:"highPct"`
	MediumPct int `json:"mediumPct"`
	LowPct    int `json:"lowPct"`
}

// Summarize builds the level distribution shown on the dashboard.
func Summarize[S Subject](subjects []S) Distribution {
	d := Distribution{Total: len(subjects)}
	for _, s := range subjects {
		switch s.StoredLevel() {
		case LevelHigh:
			d.High++
		case LevelMedium:
			d.Medium++
		case LevelLow:
			d.Low++
		}
		if s.NeedsFollowUp() {
			d.FollowUp++
		}
	}
	d.HighPct = percent(d.High, d.Total)
	d.MediumPct = percent(d.Medium, d.Total)
	d.LowPct = percent(d.Low, d.Total)
	return d
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(total)))
}
