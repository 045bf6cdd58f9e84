// Package risk turns a resident's attributes into a triage score, a level and
// a human-readable list of the rules that contributed to it.
//
// The score is an operational heuristic for ordering home visits. It is the
// unclamped sum of independently triggered rules and routinely exceeds 100.
package risk

import (
	"fmt"
	"math"
	"time"
)

// Level is the categorical risk band derived from a score.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// Level cut points, applied to the unclamped score.
const (
	MediumThreshold = 30
	HighThreshold   = 70
)

// Fixed rule contributions. These do not follow the organization weights.
const (
	childUnderFivePoints  = 20
	pwdPoints             = 15
	repeatedSymptomPoints = 20
	noVisitPoints         = 10
	overduePoints         = 10
)

const (
	seniorAge        = 60
	childAge         = 5
	overdueAfterDays = 30
	missedAfterDays  = 90
)

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// LevelFor maps a score onto its level.
func LevelFor(score int) Level {
	switch {
	case score >= HighThreshold:
		return LevelHigh
	case score >= MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Profile is the subset of resident attributes the scoring rules read.
type Profile struct {
	Age            int
	Pregnant       bool
	PWD            bool
	Conditions     []string
	RecentSymptoms []string
	LastVisit      *time.Time
}

// Assessment is the result of scoring one resident. Factors are listed in
// rule order and carry the exact number of points each rule applied.
type Assessment struct {
	Score   int      `json:"score"`
	Level   Level    `json:"level"`
	Factors []string `json:"factors"`
}

// Compute scores a profile.
//
// prior is the level currently stored for the resident. The 30-90 day
// overdue rule only applies when prior is not Low, so the result depends on
// what was persisted before; read it before overwriting it.
func Compute(p Profile, prior Level, w Weights, now time.Time) Assessment {
	score := 0
	factors := make([]string, 0, 6)
	add := func(points int, format string, args ...any) {
		score += points
		factors = append(factors, fmt.Sprintf(format, args...))
	}

	if p.Age >= seniorAge {
		add(w.AgeOver60, "Age is %d (+%d)", p.Age, w.AgeOver60)
	} else if p.Age < childAge {
		add(childUnderFivePoints, "Child under 5 years old (+%d)", childUnderFivePoints)
	}

	if p.Pregnant {
		add(w.Pregnancy, "Pregnant (+%d)", w.Pregnancy)
	}
	if p.PWD {
		add(pwdPoints, "PWD Status (+%d)", pwdPoints)
	}

	if n := len(p.Conditions); n > 0 {
		points := n * w.ChronicCondition
		add(points, "%d Chronic Condition(s) (+%d)", n, points)
	}

	if hasRepeats(p.RecentSymptoms) {
		add(repeatedSymptomPoints, "Repeated symptoms reported (+%d)", repeatedSymptomPoints)
	}

	if p.LastVisit == nil {
		add(noVisitPoints, "No visits recorded (+%d)", noVisitPoints)
	} else {
		days := DaysSince(*p.LastVisit, now)
		switch {
		case days > missedAfterDays:
			add(w.MissedVisit, "No visit in >3 months (%d days) (+%d)", days, w.MissedVisit)
		case days > overdueAfterDays && prior != LevelLow:
			add(overduePoints, "Overdue follow-up (%d days) (+%d)", days, overduePoints)
		}
	}

	return Assessment{Score: score, Level: LevelFor(score), Factors: factors}
}

// Settle computes the assessment a resident converges to when the result is
// stored and scored again. Compute with the stored level first; if that moves
// the resident across the Low boundary, the overdue rule would flip on the next
// pass, so score once more with the new level. The second result is stable:
// dropping to Low only removes points and rising above Low only adds them.
func Settle(p Profile, prior Level, w Weights, now time.Time) Assessment {
	a := Compute(p, prior, w, now)
	if (a.Level == LevelLow) != (prior == LevelLow) {
		a = Compute(p, a.Level, w, now)
	}
	return a
}

// DaysSince returns the whole number of days between then and now, rounded up.
func DaysSince(then, now time.Time) int {
	d := now.Sub(then)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(d.Hours() / 24))
}

func hasRepeats(symptoms []string) bool {
	if len(symptoms) <= 1 {
		return false
	}
	seen := make(map[string]struct{}, len(symptoms))
	for _, s := range symptoms {
		if _, ok := seen[s]; ok {
			return true
		}
		seen[s] = struct{}{}
	}
	return false
}
