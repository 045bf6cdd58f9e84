package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pulse-server/internal/store"
)

// ReportType names one of the printable station reports.
type ReportType string

const (
	ReportHighRisk     ReportType = "high_risk"
	ReportVisitLogs    ReportType = "visit_logs"
	ReportDemographics ReportType = "demographics"
)

// HighRiskRow is one resident on the high-risk report.
type HighRiskRow struct {
	ResidentID string     `json:"residentId"`
	Name       string     `json:"name"`
	Age        int        `json:"age"`
	Sex        string     `json:"sex"`
	RiskScore  int        `json:"riskScore"`
	Conditions []string   `json:"conditions"`
	LastVisit  *time.Time `json:"lastVisit"`
}

// VisitLogRow is one visit on the visit log report.
type VisitLogRow struct {
	VisitID    string    `json:"visitId"`
	Date       time.Time `json:"date"`
	ResidentID string    `json:"residentId"`
	Resident   string    `json:"resident"`
	Notes      string    `json:"notes"`
	FollowUp   bool      `json:"followUp"`
}

// DemographicRow is one category count on the demographics report.
type DemographicRow struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Report is the data behind one printed report. Rows holds a slice of the
// row type matching Type.
type Report struct {
	Type  ReportType  `json:"type"`
	Start *time.Time  `json:"start,omitempty"`
	End   *time.Time  `json:"end,omitempty"`
	Count int         `json:"count"`
	Rows  interface{} `json:"rows"`
}

// ReportService builds the station reports. Start and end are whole days and
// both are inclusive. The high-risk report filters on last visit, visit logs
// on visit date and demographics on registration date.
type ReportService struct {
	store store.Store
	log   *zap.Logger
}

// NewReportService creates a ReportService.
func NewReportService(st store.Store, log *zap.Logger) *ReportService {
	return &ReportService{store: st, log: log.With(zap.String("component", "reports"))}
}

// Generate builds the report of the given type over [start, end].
func (s *ReportService) Generate(ctx context.Context, typ ReportType, start, end *time.Time) (*Report, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrValidation)
	}
	rng := dayRange(start, end)
	report := &Report{Type: typ, Start: start, End: end}

	switch typ {
	case ReportHighRisk:
		rows, err := s.highRisk(ctx, rng)
		if err != nil {
			return nil, err
		}
		report.Rows, report.Count = rows, len(rows)
	case ReportVisitLogs:
		rows, err := s.visitLogs(ctx, rng)
		if err != nil {
			return nil, err
		}
		report.Rows, report.Count = rows, len(rows)
	case ReportDemographics:
		rows, err := s.demographics(ctx, rng)
		if err != nil {
			return nil, err
		}
		report.Rows, report.Count = rows, len(rows)
	default:
		return nil, fmt.Errorf("%w: unknown report type %q", ErrValidation, typ)
	}

	s.log.Info("report generated", zap.String("type", string(typ)), zap.Int("rows", report.Count))
	return report, nil
}

// dayRange turns inclusive calendar days into the store's half-open range.
func dayRange(start, end *time.Time) store.DateRange {
	var r store.DateRange
	if start != nil {
		from := start.UTC().Truncate(24 * time.Hour)
		r.From = &from
	}
	if end != nil {
		to := end.UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
		r.To = &to
	}
	return r
}

func (s *ReportService) highRisk(ctx context.Context, rng store.DateRange) ([]HighRiskRow, error) {
	residents, err := s.store.ListHighRiskResidents(ctx, rng)
	if err != nil {
		return nil, err
	}
	rows := make([]HighRiskRow, len(residents))
	for i, r := range residents {
		rows[i] = HighRiskRow{
			ResidentID: r.ID,
			Name:       r.FullName(),
			Age:        r.Age,
			Sex:        string(r.Sex),
			RiskScore:  r.RiskScore,
			Conditions: r.ConditionNames(),
			LastVisit:  r.LastVisit,
		}
	}
	return rows, nil
}

func (s *ReportService) visitLogs(ctx context.Context, rng store.DateRange) ([]VisitLogRow, error) {
	visits, err := s.store.ListVisits(ctx, rng)
	if err != nil {
		return nil, err
	}
	rows := make([]VisitLogRow, len(visits))
	for i, v := range visits {
		name := "Unknown"
		if v.Resident != nil {
			name = v.Resident.FullName()
		}
		rows[i] = VisitLogRow{
			VisitID:    v.ID,
			Date:       v.VisitDate,
			ResidentID: v.ResidentID,
			Resident:   name,
			Notes:      v.Notes,
			FollowUp:   v.FollowUpRequired,
		}
	}
	return rows, nil
}

func (s *ReportService) demographics(ctx context.Context, rng store.DateRange) ([]DemographicRow, error) {
	d, err := s.store.CountDemographics(ctx, rng)
	if err != nil {
		return nil, err
	}
	return []DemographicRow{
		{Category: "Total Residents", Count: d.Total},
		{Category: "Senior Citizens", Count: d.Seniors},
		{Category: "PWDs", Count: d.PWDs},
		{Category: "Pregnant Women", Count: d.Pregnant},
		{Category: "Children", Count: d.Children},
	}, nil
}
