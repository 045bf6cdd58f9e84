// Package store is the data-access layer the risk services run against.
package store

import (
	"context"
	"errors"
	"time"

	"pulse-server/internal/models"
	"pulse-server/internal/risk"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is everything the services read and write.
//
// UpdateResident is a partial update keyed by column name; updating only
// risk_score and risk_level must leave every other column untouched.
type Store interface {
	ListResidents(ctx context.Context) ([]models.Resident, error)
	// SearchResidents returns the residents matching filter, High risk first.
	SearchResidents(ctx context.Context, filter ResidentFilter) ([]models.Resident, error)
	GetResident(ctx context.Context, id string) (*models.Resident, error)
	CreateResident(ctx context.Context, resident *models.Resident, conditions []string) error
	UpdateResident(ctx context.Context, id string, fields map[string]interface{}) error
	ReplaceConditions(ctx context.Context, residentID string, conditions []string) error

	GetSettings(ctx context.Context) (*models.OrganizationSettings, error)
	CreateSettings(ctx context.Context, settings *models.OrganizationSettings) error
	UpdateSettings(ctx context.Context, id string, fields map[string]interface{}) error

	// CreateVisit stores the visit with its symptoms and, on success, refreshes
	// the resident's last visit, follow-up flag and recent symptoms.
	CreateVisit(ctx context.Context, visit *models.Visit, symptoms []string) error
	ListVisitsForResident(ctx context.Context, residentID string) ([]models.Visit, error)
	ListRecentVisits(ctx context.Context, limit int) ([]models.Visit, error)
	CountVisitsBetween(ctx context.Context, from, to time.Time) (int64, error)

	// Report queries. Each range applies to the column its report filters on.
	ListHighRiskResidents(ctx context.Context, lastVisit DateRange) ([]models.Resident, error)
	ListVisits(ctx context.Context, visitDate DateRange) ([]models.Visit, error)
	CountDemographics(ctx context.Context, registered DateRange) (Demographics, error)

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Category is a registry category a resident can be filtered by.
type Category string

const (
	CategorySenior   Category = "Senior"
	CategoryPWD      Category = "PWD"
	CategoryPregnant Category = "Pregnant"
	CategoryChild    Category = "Child"
)

// ResidentFilter narrows the registry list. Zero fields match everything.
type ResidentFilter struct {
	// Query is split on whitespace; every term must match the first name,
	// last name, address or ID, case-insensitively.
	Query    string
	Level    risk.Level
	Category Category
}

// DateRange is the half-open interval [From, To). A nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Demographics counts residents per registry category.
type Demographics struct {
	Total    int64 `gorm:"column:total" json:"total"`
	Seniors  int64 `gorm:"column:seniors" json:"seniors"`
	PWDs     int64 `gorm:"column:pwds" json:"pwds"`
	Pregnant int64 `gorm:"column:pregnant" json:"pregnant"`
	Children int64 `gorm:"column:children" json:"children"`
}

// RiskFields is the partial update written by reconciliation.
func RiskFields(score int, level risk.Level) map[string]interface{} {
	return map[string]interface{}{
		"risk_score": score,
		"risk_level": level,
	}
}
