package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pulse-server/internal/models"
	"pulse-server/internal/risk"
)

// GormStore implements Store on top of GORM.
type GormStore struct {
	db            *gorm.DB
	log           *zap.Logger
	symptomWindow time.Duration
}

// NewGormStore creates a GormStore. symptomWindowDays bounds how far back
// visit symptoms count as a resident's recent symptoms.
func NewGormStore(db *gorm.DB, log *zap.Logger, symptomWindowDays int) *GormStore {
	return &GormStore{
		db:            db,
		log:           log.With(zap.String("component", "store")),
		symptomWindow: time.Duration(symptomWindowDays) * 24 * time.Hour,
	}
}

var _ Store = (*GormStore)(nil)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) ListResidents(ctx context.Context) ([]models.Resident, error) {
	var residents []models.Resident
	err := s.db.WithContext(ctx).
		Preload("Conditions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("last_name ASC, first_name ASC, id ASC").
		Find(&residents).Error
	if err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	return residents, nil
}

var categoryColumns = map[Category]string{
	CategorySenior:   "is_senior",
	CategoryPWD:      "is_pwd",
	CategoryPregnant: "is_pregnant",
	CategoryChild:    "is_child",
}

const levelOrder = "CASE risk_level WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 ELSE 2 END"

func (s *GormStore) SearchResidents(ctx context.Context, filter ResidentFilter) ([]models.Resident, error) {
	q := s.db.WithContext(ctx).
		Preload("Conditions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })

	for _, term := range strings.Fields(strings.ToLower(filter.Query)) {
		like := "%" + term + "%"
		q = q.Where("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(address) LIKE ? OR LOWER(id) LIKE ?)",
			like, like, like, like)
	}
	if filter.Level != "" {
		q = q.Where("risk_level = ?", filter.Level)
	}
	if filter.Category != "" {
		column, ok := categoryColumns[filter.Category]
		if !ok {
			return nil, fmt.Errorf("unknown resident category %q", filter.Category)
		}
		q = q.Where(column+" = ?", true)
	}

	var residents []models.Resident
	err := q.Order(levelOrder + ", last_name ASC, first_name ASC, id ASC").Find(&residents).Error
	if err != nil {
		return nil, fmt.Errorf("search residents: %w", err)
	}
	return residents, nil
}

func (s *GormStore) GetResident(ctx context.Context, id string) (*models.Resident, error) {
	var resident models.Resident
	err := s.db.WithContext(ctx).
		Preload("Conditions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&resident, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &resident, nil
}

func (s *GormStore) CreateResident(ctx context.Context, resident *models.Resident, conditions []string) error {
	resident.Conditions = buildConditions("", conditions)
	if err := s.db.WithContext(ctx).Create(resident).Error; err != nil {
		return fmt.Errorf("create resident: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateResident(ctx context.Context, id string, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Resident{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update resident %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.ensureExists(ctx, &models.Resident{}, id)
	}
	return nil
}

// ReplaceConditions swaps the full condition set of a resident.
func (s *GormStore) ReplaceConditions(ctx context.Context, residentID string, conditions []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resident_id = ?", residentID).Delete(&models.ResidentCondition{}).Error; err != nil {
			return fmt.Errorf("delete conditions: %w", err)
		}
		rows := buildConditions(residentID, conditions)
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert conditions: %w", err)
		}
		return nil
	})
}

func (s *GormStore) GetSettings(ctx context.Context) (*models.OrganizationSettings, error) {
	var settings models.OrganizationSettings
	if err := s.db.WithContext(ctx).Order("created_at ASC").First(&settings).Error; err != nil {
		return nil, notFound(err)
	}
	return &settings, nil
}

func (s *GormStore) CreateSettings(ctx context.Context, settings *models.OrganizationSettings) error {
	if err := s.db.WithContext(ctx).Create(settings).Error; err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateSettings(ctx context.Context, id string, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.OrganizationSettings{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update settings %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.ensureExists(ctx, &models.OrganizationSettings{}, id)
	}
	return nil
}

func (s *GormStore) CreateVisit(ctx context.Context, visit *models.Visit, symptoms []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var resident models.Resident
		if err := tx.Select("id", "last_visit").First(&resident, "id = ?", visit.ResidentID).Error; err != nil {
			return notFound(err)
		}

		visit.Symptoms = make([]models.VisitSymptom, 0, len(symptoms))
		for i, symptom := range symptoms {
			visit.Symptoms = append(visit.Symptoms, models.VisitSymptom{Symptom: symptom, Position: i})
		}
		if err := tx.Create(visit).Error; err != nil {
			return fmt.Errorf("create visit: %w", err)
		}

		// The newest-dated visit owns the derived fields; a backdated visit
		// neither moves last_visit back nor overrides its follow-up flag.
		latest := resident.LastVisit == nil || !visit.VisitDate.Before(*resident.LastVisit)
		anchor := visit.VisitDate
		if !latest {
			anchor = *resident.LastVisit
		}

		var recent []string
		err := tx.Model(&models.VisitSymptom{}).
			Joins("JOIN visits ON visits.id = visit_symptoms.visit_id").
			Where("visits.resident_id = ? AND visits.visit_date >= ?", visit.ResidentID, anchor.Add(-s.symptomWindow)).
			Order("visits.visit_date ASC, visits.created_at ASC, visit_symptoms.position ASC").
			Pluck("visit_symptoms.symptom", &recent).Error
		if err != nil {
			return fmt.Errorf("collect recent symptoms: %w", err)
		}

		fields := map[string]interface{}{
			"recent_symptoms": datatypes.NewJSONSlice(recent),
		}
		if latest {
			fields["last_visit"] = visit.VisitDate
			fields["follow_up_required"] = visit.FollowUpRequired
		}
		if err := tx.Model(&models.Resident{}).Where("id = ?", visit.ResidentID).Updates(fields).Error; err != nil {
			return fmt.Errorf("refresh resident after visit: %w", err)
		}

		s.log.Debug("visit stored",
			zap.String("resident_id", visit.ResidentID),
			zap.String("visit_id", visit.ID),
			zap.Int("symptoms", len(symptoms)),
			zap.Int("recent_symptoms", len(recent)))
		return nil
	})
}

func (s *GormStore) ListVisitsForResident(ctx context.Context, residentID string) ([]models.Visit, error) {
	var visits []models.Visit
	err := s.db.WithContext(ctx).
		Preload("Symptoms", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("resident_id = ?", residentID).
		Order("visit_date DESC, created_at DESC").
		Find(&visits).Error
	if err != nil {
		return nil, fmt.Errorf("list visits for resident %s: %w", residentID, err)
	}
	return visits, nil
}

func (s *GormStore) ListRecentVisits(ctx context.Context, limit int) ([]models.Visit, error) {
	var visits []models.Visit
	q := s.db.WithContext(ctx).
		Preload("Resident").
		Preload("Symptoms", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("visit_date DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("list recent visits: %w", err)
	}
	return visits, nil
}

func (s *GormStore) CountVisitsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Visit{}).
		Where("visit_date >= ? AND visit_date < ?", from, to).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

func (r DateRange) apply(q *gorm.DB, column string) *gorm.DB {
	if r.From != nil {
		q = q.Where(column+" >= ?", *r.From)
	}
	if r.To != nil {
		q = q.Where(column+" < ?", *r.To)
	}
	return q
}

// ListHighRiskResidents returns stored High-level residents, highest score
// first. A bounded range excludes residents who were never visited.
func (s *GormStore) ListHighRiskResidents(ctx context.Context, lastVisit DateRange) ([]models.Resident, error) {
	q := s.db.WithContext(ctx).
		Preload("Conditions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("risk_level = ?", risk.LevelHigh)
	q = lastVisit.apply(q, "last_visit")

	var residents []models.Resident
	if err := q.Order("risk_score DESC, last_name ASC, first_name ASC").Find(&residents).Error; err != nil {
		return nil, fmt.Errorf("list high risk residents: %w", err)
	}
	return residents, nil
}

func (s *GormStore) ListVisits(ctx context.Context, visitDate DateRange) ([]models.Visit, error) {
	q := s.db.WithContext(ctx).Preload("Resident")
	q = visitDate.apply(q, "visit_date")

	var visits []models.Visit
	if err := q.Order("visit_date DESC, created_at DESC").Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	return visits, nil
}

func (s *GormStore) CountDemographics(ctx context.Context, registered DateRange) (Demographics, error) {
	q := s.db.WithContext(ctx).Model(&models.Resident{}).Select(
		"COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN is_senior THEN 1 ELSE 0 END), 0) AS seniors, " +
			"COALESCE(SUM(CASE WHEN is_pwd THEN 1 ELSE 0 END), 0) AS pwds, " +
			"COALESCE(SUM(CASE WHEN is_pregnant THEN 1 ELSE 0 END), 0) AS pregnant, " +
			"COALESCE(SUM(CASE WHEN is_child THEN 1 ELSE 0 END), 0) AS children")
	q = registered.apply(q, "created_at")

	var d Demographics
	if err := q.Scan(&d).Error; err != nil {
		return Demographics{}, fmt.Errorf("count demographics: %w", err)
	}
	return d, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("last_name, first_name").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *GormStore) ensureExists(ctx context.Context, model interface{}, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func buildConditions(residentID string, conditions []string) []models.ResidentCondition {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	seen := make(map[string]struct{}, len(conditions))
	rows := make([]models.ResidentCondition, 0, len(conditions))
	for _, c := range conditions {
		if _, dup := seen[c]; dup || c == "" {
			continue
		}
		seen[c] = struct{}{}
		rows = append(rows, models.ResidentCondition{
			ResidentID:    residentID,
			Condition:     c,
			DiagnosedDate: &today,
		})
	}
	return rows
}
