package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pulse-server/internal/models"
	"pulse-server/internal/risk"
	"pulse-server/internal/store"
)

func newTestVisitService(st *fakeStore, rec *Reconciler) *VisitService {
	s := NewVisitService(st, rec, zap.NewNop())
	s.Clock = fixedClock
	return s
}

func TestVisitCreate_RefreshesResidentAndRescores(t *testing.T) {
	st := newFakeStore()
	rec := newTestReconciler(st)
	resident := st.add(models.Resident{FirstName: "Ana", LastName: "Lim", Age: 30, RiskScore: 10, RiskLevel: risk.LevelLow})

	visit, err := newTestVisitService(st, rec).Create(context.Background(), CreateVisitInput{
		ResidentID:       resident.ID,
		VisitDate:        testNow.AddDate(0, 0, -2),
		ProviderName:     "Nurse Dela Paz",
		FollowUpRequired: true,
		Symptoms:         []string{"cough", " cough ", ""},
	})
	require.NoError(t, err)
	drain(t, rec)

	assert.Equal(t, time.Date(2026, time.February, 27, 0, 0, 0, 0, time.UTC), visit.VisitDate)
	require.Len(t, visit.Symptoms, 2)
	assert.Equal(t, "cough", visit.Symptoms[1].Symptom)

	stored := st.stored(resident.ID)
	require.NotNil(t, stored.LastVisit)
	assert.True(t, stored.FollowUpRequired)
	assert.Equal(t, 20, stored.RiskScore)
	assert.Equal(t, risk.LevelLow, stored.RiskLevel)
}

func TestVisitCreate_SucceedsWhenRescoreWriteFails(t *testing.T) {
	st := newFakeStore()
	st.updateErr = func(string) error { return errors.New("deadlock") }
	rec := newTestReconciler(st)
	resident := st.add(models.Resident{FirstName: "Ana", LastName: "Lim", Age: 30, RiskScore: 10, RiskLevel: risk.LevelLow})

	visit, err := newTestVisitService(st, rec).Create(context.Background(), CreateVisitInput{
		ResidentID: resident.ID,
		VisitDate:  testNow,
	})
	require.NoError(t, err)
	drain(t, rec)

	assert.NotEmpty(t, visit.ID)
	assert.Equal(t, 10, st.stored(resident.ID).RiskScore)
	assert.Equal(t, 1, st.updateCount())
}

func TestVisitCreate_Validation(t *testing.T) {
	st := newFakeStore()
	resident := st.add(models.Resident{FirstName: "Ana", LastName: "Lim", Age: 30})
	svc := newTestVisitService(st, newTestReconciler(st))

	_, err := svc.Create(context.Background(), CreateVisitInput{ResidentID: resident.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), CreateVisitInput{ResidentID: resident.ID, VisitDate: testNow.AddDate(0, 0, 1)})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, st.visits)
}

func TestVisitCreate_UnknownResident(t *testing.T) {
	st := newFakeStore()
	_, err := newTestVisitService(st, newTestReconciler(st)).Create(context.Background(), CreateVisitInput{
		ResidentID: "missing",
		VisitDate:  testNow,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVisitListForResident(t *testing.T) {
	st := newFakeStore()
	rec := newTestReconciler(st)
	resident := st.add(models.Resident{FirstName: "Ana", LastName: "Lim", Age: 30})
	svc := newTestVisitService(st, rec)

	for _, d := range []int{10, 3} {
		_, err := svc.Create(context.Background(), CreateVisitInput{ResidentID: resident.ID, VisitDate: testNow.AddDate(0, 0, -d)})
		require.NoError(t, err)
	}
	drain(t, rec)

	visits, err := svc.ListForResident(context.Background(), resident.ID)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.True(t, visits[0].VisitDate.After(visits[1].VisitDate))

	_, err = svc.ListForResident(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
