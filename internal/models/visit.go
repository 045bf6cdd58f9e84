package models

import (
	"time"
)

// Visit represents one home visit to a resident. Visits are never edited.
type Visit struct {
	BaseModel
	ResidentID       string    `gorm:"size:36;index;not null" json:"residentId"`
	VisitDate        time.Time `gorm:"type:date;not null;index" json:"visitDate"`
	ProviderName     string    `gorm:"size:150" json:"providerName,omitempty"`
	FollowUpRequired bool      `gorm:"default:false" json:"followUpRequired"`
	Notes            string    `gorm:"type:text" json:"notes,omitempty"`

	// Relations
	Symptoms []VisitSymptom `gorm:"foreignKey:VisitID;constraint:OnDelete:CASCADE" json:"symptoms,omitempty"`
	Resident *Resident      `gorm:"foreignKey:ResidentID" json:"resident,omitempty"`
}

// VisitSymptom is a symptom reported during a visit
type VisitSymptom struct {
	BaseModel
	VisitID  string `gorm:"size:36;index;not null" json:"visitId"`
	Symptom  string `gorm:"size:100;not null" json:"symptom"`
	Position int    `gorm:"not null;default:0" json:"-"` // order within the visit
}
