package models

import (
	"time"

	"gorm.io/datatypes"

	"pulse-server/internal/risk"
)

// Sex of a resident as recorded at registration
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

// Resident represents a tracked individual in the barangay
type Resident struct {
	BaseModel
	FirstName        string     `gorm:"size:100;not null" json:"firstName"`
	MiddleName       string     `gorm:"size:100" json:"middleName,omitempty"`
	LastName         string     `gorm:"size:100;not null;index" json:"lastName"`
	Birthdate        *time.Time `gorm:"type:date" json:"birthdate,omitempty"`
	Age              int        `json:"age"`
	Sex              Sex        `gorm:"size:10" json:"sex"`
	Address          string     `gorm:"size:255" json:"address"`
	BarangayZone     string     `gorm:"size:100" json:"barangayZone,omitempty"`
	IsSenior         bool       `gorm:"default:false" json:"isSenior"`
	IsPWD            bool       `gorm:"column:is_pwd;default:false" json:"isPwd"`
	IsPregnant       bool       `gorm:"default:false" json:"isPregnant"`
	IsChild          bool       `gorm:"default:false" json:"isChild"`
	LastVisit        *time.Time `gorm:"type:date" json:"lastVisit,omitempty"`
	FollowUpRequired bool       `gorm:"default:false" json:"followUpRequired"`
	RiskScore        int        `gorm:"default:0" json:"riskScore"`
	RiskLevel        risk.Level `gorm:"size:10;default:'Low'" json:"riskLevel"`

	// Ordered; a symptom reported twice is itself a risk signal.
	RecentSymptoms datatypes.JSONSlice[string] `json:"recentSymptoms"`

	// Relations (preloaded by the store)
	Conditions []ResidentCondition `gorm:"foreignKey:ResidentID;constraint:OnDelete:CASCADE" json:"-"`
}

// ResidentCondition is one chronic condition label attached to a resident.
type ResidentCondition struct {
	BaseModel
	ResidentID    string     `gorm:"size:36;index;not null" json:"residentId"`
	Condition     string     `gorm:"size:100;not null" json:"condition"`
	DiagnosedDate *time.Time `gorm:"type:date" json:"diagnosedDate,omitempty"`
}

// ConditionNames returns the distinct condition labels in stored order.
func (r Resident) ConditionNames() []string {
	names := make([]string, 0, len(r.Conditions))
	seen := make(map[string]struct{}, len(r.Conditions))
	for _, c := range r.Conditions {
		if _, dup := seen[c.Condition]; dup {
			continue
		}
		seen[c.Condition] = struct{}{}
		names = append(names, c.Condition)
	}
	return names
}

// RiskProfile extracts the attributes read by the scoring rules.
func (r Resident) RiskProfile() risk.Profile {
	return risk.Profile{
		Age:            r.Age,
		Pregnant:       r.IsPregnant,
		PWD:            r.IsPWD,
		Conditions:     r.ConditionNames(),
		RecentSymptoms: []string(r.RecentSymptoms),
		LastVisit:      r.LastVisit,
	}
}

// StoredLevel is the persisted risk level, the prior input of the next scoring.
func (r Resident) StoredLevel() risk.Level { return r.RiskLevel }

// StoredScore is the persisted risk score.
func (r Resident) StoredScore() int { return r.RiskScore }

// NeedsFollowUp reports the carried-forward follow-up flag.
func (r Resident) NeedsFollowUp() bool { return r.FollowUpRequired }

// ResidentView is the API representation of a resident.
type ResidentView struct {
	Resident
	Conditions     []string `json:"conditions"`
	RecentSymptoms []string `json:"recentSymptoms"`
}

// View flattens relations into plain label lists for API responses.
func (r Resident) View() ResidentView {
	symptoms := []string(r.RecentSymptoms)
	if symptoms == nil {
		symptoms = []string{}
	}
	return ResidentView{
		Resident:       r,
		Conditions:     r.ConditionNames(),
		RecentSymptoms: symptoms,
	}
}

// FullName renders "Last, First" as shown on reports.
func (r Resident) FullName() string {
	return r.LastName + ", " + r.FirstName
}
