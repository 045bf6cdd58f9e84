package risk

import "fmt"

// Bounds accepted for configurable weights by the settings surface.
// Compute itself accepts any value, including zero and negatives.
const (
	MinWeight = 0
	MaxWeight = 50
)

// Weights are the organization-tunable contributions of four scoring rules.
// A Weights value is immutable once handed to Compute; callers read the
// organization settings once per view and pass the value explicitly.
type Weights struct {
	AgeOver60        int `json:"ageOver60"`
	Pregnancy        int `json:"pregnancy"`
	ChronicCondition int `json:"chronicCondition"`
	MissedVisit      int `json:"missedVisit"`
}

// DefaultWeights are used when no organization settings exist.
func DefaultWeights() Weights {
	return Weights{
		AgeOver60:        30,
		Pregnancy:        40,
		ChronicCondition: 10,
		MissedVisit:      25,
	}
}

// InitialSettingsWeights seed a freshly initialized organization settings record.
// They intentionally differ from DefaultWeights on pregnancy.
func InitialSettingsWeights() Weights {
	return Weights{
		AgeOver60:        30,
		Pregnancy:        30,
		ChronicCondition: 10,
		MissedVisit:      25,
	}
}

// Validate checks every weight lies within [MinWeight, MaxWeight].
func (w Weights) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"age_over_60", w.AgeOver60},
		{"pregnancy", w.Pregnancy},
		{"chronic_condition", w.ChronicCondition},
		{"missed_visit", w.MissedVisit},
	}
	for _, f := range fields {
		if f.value < MinWeight || f.value > MaxWeight {
			return fmt.Errorf("weight %s=%d out of range [%d, %d]", f.name, f.value, MinWeight, MaxWeight)
		}
	}
	return nil
}
