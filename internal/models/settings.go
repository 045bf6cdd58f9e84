package models

import "pulse-server/internal/risk"

// OrganizationSettings is the organization-wide singleton holding the
// health station profile and the tunable risk weights.
type OrganizationSettings struct {
	BaseModel
	BarangayName           string `gorm:"size:150" json:"barangayName"`
	Municipality           string `gorm:"size:150" json:"municipality"`
	HealthStationID        string `gorm:"size:50" json:"healthStationId"`
	WeightAgeOver60        int    `gorm:"column:weight_age_over_60;default:30" json:"weightAgeOver60"`
	WeightPregnancy        int    `gorm:"column:weight_pregnancy;default:30" json:"weightPregnancy"`
	WeightChronicCondition int    `gorm:"column:weight_chronic_condition;default:10" json:"weightChronicCondition"`
	WeightMissedVisit      int    `gorm:"column:weight_missed_visit;default:25" json:"weightMissedVisit"`
}

// Weights returns the scoring weights held by the settings record.
func (s *OrganizationSettings) Weights() risk.Weights {
	return risk.Weights{
		AgeOver60:        s.WeightAgeOver60,
		Pregnancy:        s.WeightPregnancy,
		ChronicCondition: s.WeightChronicCondition,
		MissedVisit:      s.WeightMissedVisit,
	}
}

// DefaultOrganizationSettings is the record created when an administrator
// opens the settings surface and none exists yet.
func DefaultOrganizationSettings() OrganizationSettings {
	w := risk.InitialSettingsWeights()
	return OrganizationSettings{
		BarangayName:           "Brgy. Santa Rosa",
		Municipality:           "Santa Rosa City",
		HealthStationID:        "BHS-001",
		WeightAgeOver60:        w.AgeOver60,
		WeightPregnancy:        w.Pregnancy,
		WeightChronicCondition: w.ChronicCondition,
		WeightMissedVisit:      w.MissedVisit,
	}
}
