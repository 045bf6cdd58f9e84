package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pulse-server/internal/models"
	"pulse-server/internal/risk"
	"pulse-server/internal/store"
)

// fakeStore is an in-memory store.Store. Residents keep insertion order.
type fakeStore struct {
	mu        sync.Mutex
	order     []string
	residents map[string]*models.Resident
	visits    []models.Visit
	settings  *models.OrganizationSettings
	users     map[string]*models.User

	listErr     error
	settingsErr error
	updateErr   func(id string) error
	visitErr    error

	updates []string
	release chan struct{} // when set, resident updates block until it is closed
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		residents: map[string]*models.Resident{},
		users:     map[string]*models.User{},
	}
}

func cloneResident(r *models.Resident) *models.Resident {
	c := *r
	c.Conditions = append([]models.ResidentCondition(nil), r.Conditions...)
	c.RecentSymptoms = append([]string(nil), r.RecentSymptoms...)
	return &c
}

func (f *fakeStore) add(r models.Resident, conditions ...string) *models.Resident {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	for _, c := range conditions {
		r.Conditions = append(r.Conditions, models.ResidentCondition{ResidentID: r.ID, Condition: c})
	}
	f.residents[r.ID] = cloneResident(&r)
	f.order = append(f.order, r.ID)
	return cloneResident(&r)
}

func (f *fakeStore) stored(id string) models.Resident {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *cloneResident(f.residents[id])
}

func (f *fakeStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeStore) ListResidents(ctx context.Context) ([]models.Resident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Resident, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, *cloneResident(f.residents[id]))
	}
	return out, nil
}

func (f *fakeStore) SearchResidents(ctx context.Context, filter store.ResidentFilter) ([]models.Resident, error) {
	all, err := f.ListResidents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Resident, 0, len(all))
	for _, r := range all {
		if filter.Level != "" && r.RiskLevel != filter.Level {
			continue
		}
		switch filter.Category {
		case store.CategorySenior:
			if !r.IsSenior {
				continue
			}
		case store.CategoryPWD:
			if !r.IsPWD {
				continue
			}
		case store.CategoryPregnant:
			if !r.IsPregnant {
				continue
			}
		case store.CategoryChild:
			if !r.IsChild {
				continue
			}
		}
		haystack := strings.ToLower(r.FirstName + " " + r.LastName + " " + r.Address + " " + r.ID)
		matched := true
		for _, term := range strings.Fields(strings.ToLower(filter.Query)) {
			matched = matched && strings.Contains(haystack, term)
		}
		if matched {
			out = append(out, r)
		}
	}
	rank := map[risk.Level]int{risk.LevelHigh: 0, risk.LevelMedium: 1, risk.LevelLow: 2}
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].RiskLevel] < rank[out[j].RiskLevel] })
	return out, nil
}

func (f *fakeStore) GetResident(ctx context.Context, id string) (*models.Resident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.residents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneResident(r), nil
}

func (f *fakeStore) CreateResident(ctx context.Context, resident *models.Resident, conditions []string) error {
	if resident.ID == "" {
		resident.ID = uuid.NewString()
	}
	f.add(*resident, conditions...)
	return nil
}

func (f *fakeStore) UpdateResident(ctx context.Context, id string, fields map[string]interface{}) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id)
	if f.updateErr != nil {
		if err := f.updateErr(id); err != nil {
			return err
		}
	}
	r, ok := f.residents[id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "risk_score":
			r.RiskScore = v.(int)
		case "risk_level":
			r.RiskLevel = v.(risk.Level)
		case "first_name":
			r.FirstName = v.(string)
		case "last_name":
			r.LastName = v.(string)
		case "middle_name":
			r.MiddleName = v.(string)
		case "age":
			r.Age = v.(int)
		case "is_pregnant":
			r.IsPregnant = v.(bool)
		case "is_pwd":
			r.IsPWD = v.(bool)
		case "is_senior":
			r.IsSenior = v.(bool)
		case "is_child":
			r.IsChild = v.(bool)
		case "birthdate":
			b := v.(time.Time)
			r.Birthdate = &b
		case "address":
			r.Address = v.(string)
		case "barangay_zone":
			r.BarangayZone = v.(string)
		case "sex":
			r.Sex = v.(models.Sex)
		default:
			return fmt.Errorf("fake store: unsupported field %q", k)
		}
	}
	return nil
}

func (f *fakeStore) ReplaceConditions(ctx context.Context, residentID string, conditions []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.residents[residentID]
	if !ok {
		return store.ErrNotFound
	}
	r.Conditions = nil
	for _, c := range conditions {
		r.Conditions = append(r.Conditions, models.ResidentCondition{ResidentID: residentID, Condition: c})
	}
	return nil
}

func (f *fakeStore) GetSettings(ctx context.Context) (*models.OrganizationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settingsErr != nil {
		return nil, f.settingsErr
	}
	if f.settings == nil {
		return nil, store.ErrNotFound
	}
	s := *f.settings
	return &s, nil
}

func (f *fakeStore) CreateSettings(ctx context.Context, settings *models.OrganizationSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	s := *settings
	f.settings = &s
	return nil
}

func (f *fakeStore) UpdateSettings(ctx context.Context, id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settings == nil || f.settings.ID != id {
		return store.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "barangay_name":
			f.settings.BarangayName = v.(string)
		case "municipality":
			f.settings.Municipality = v.(string)
		case "health_station_id":
			f.settings.HealthStationID = v.(string)
		case "weight_age_over_60":
			f.settings.WeightAgeOver60 = v.(int)
		case "weight_pregnancy":
			f.settings.WeightPregnancy = v.(int)
		case "weight_chronic_condition":
			f.settings.WeightChronicCondition = v.(int)
		case "weight_missed_visit":
			f.settings.WeightMissedVisit = v.(int)
		default:
			return fmt.Errorf("fake store: unsupported settings field %q", k)
		}
	}
	return nil
}

func (f *fakeStore) setWeights(w risk.Weights) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = &models.OrganizationSettings{
		BaseModel:              models.BaseModel{ID: "settings-1"},
		WeightAgeOver60:        w.AgeOver60,
		WeightPregnancy:        w.Pregnancy,
		WeightChronicCondition: w.ChronicCondition,
		WeightMissedVisit:      w.MissedVisit,
	}
}

func (f *fakeStore) CreateVisit(ctx context.Context, visit *models.Visit, symptoms []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.visitErr != nil {
		return f.visitErr
	}
	r, ok := f.residents[visit.ResidentID]
	if !ok {
		return store.ErrNotFound
	}
	visit.ID = uuid.NewString()
	visit.CreatedAt = time.Now()
	for i, s := range symptoms {
		visit.Symptoms = append(visit.Symptoms, models.VisitSymptom{VisitID: visit.ID, Symptom: s, Position: i})
	}
	f.visits = append(f.visits, *visit)

	d := visit.VisitDate
	if r.LastVisit == nil || !d.Before(*r.LastVisit) {
		r.LastVisit = &d
		r.FollowUpRequired = visit.FollowUpRequired
		r.RecentSymptoms = append(r.RecentSymptoms, symptoms...)
	}
	return nil
}

func (f *fakeStore) ListVisitsForResident(ctx context.Context, residentID string) ([]models.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Visit
	for _, v := range f.visits {
		if v.ResidentID == residentID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate) })
	return out, nil
}

func (f *fakeStore) ListRecentVisits(ctx context.Context, limit int) ([]models.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]models.Visit(nil), f.visits...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CountVisitsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, v := range f.visits {
		if !v.VisitDate.Before(from) && v.VisitDate.Before(to) {
			n++
		}
	}
	return n, nil
}

func inRange(t *time.Time, r store.DateRange) bool {
	if r.From == nil && r.To == nil {
		return true
	}
	if t == nil {
		return false
	}
	return (r.From == nil || !t.Before(*r.From)) && (r.To == nil || t.Before(*r.To))
}

func (f *fakeStore) ListHighRiskResidents(ctx context.Context, lastVisit store.DateRange) ([]models.Resident, error) {
	all, err := f.ListResidents(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Resident
	for _, r := range all {
		if r.RiskLevel == risk.LevelHigh && inRange(r.LastVisit, lastVisit) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RiskScore > out[j].RiskScore })
	return out, nil
}

func (f *fakeStore) ListVisits(ctx context.Context, visitDate store.DateRange) ([]models.Visit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.visitErr != nil {
		return nil, f.visitErr
	}
	var out []models.Visit
	for _, v := range f.visits {
		if !inRange(&v.VisitDate, visitDate) {
			continue
		}
		if r, ok := f.residents[v.ResidentID]; ok {
			v.Resident = cloneResident(r)
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate) })
	return out, nil
}

func (f *fakeStore) CountDemographics(ctx context.Context, registered store.DateRange) (store.Demographics, error) {
	all, err := f.ListResidents(ctx)
	if err != nil {
		return store.Demographics{}, err
	}
	var d store.Demographics
	for _, r := range all {
		created := r.CreatedAt
		if !inRange(&created, registered) {
			continue
		}
		d.Total++
		if r.IsSenior {
			d.Seniors++
		}
		if r.IsPWD {
			d.PWDs++
		}
		if r.IsPregnant {
			d.Pregnant++
		}
		if r.IsChild {
			d.Children++
		}
	}
	return d, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	c := *user
	f.users[user.ID] = &c
	return nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
