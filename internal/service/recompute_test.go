package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pulse-server/internal/models"
	"pulse-server/internal/risk"
)

func newTestRecomputer(st *fakeStore) *Recomputer {
	r := NewRecomputer(st, zap.NewNop())
	r.Clock = fixedClock
	return r
}

// seedMixed stores four residents, three of them with stale risk values.
func seedMixed(st *fakeStore) (pregnant, overdue, current, senior *models.Resident) {
	pregnant = st.add(models.Resident{
		FirstName: "Liza", LastName: "Reyes", Age: 40, IsPregnant: true,
		LastVisit: daysAgo(45), RiskScore: 0, RiskLevel: risk.LevelLow,
	})
	overdue = st.add(models.Resident{
		FirstName: "Ramon", LastName: "Santos", Age: 30,
		LastVisit: daysAgo(45), RiskScore: 10, RiskLevel: risk.LevelMedium,
	})
	current = st.add(models.Resident{
		FirstName: "Joy", LastName: "Dela Cruz", Age: 30,
		LastVisit: daysAgo(1), RiskScore: 0, RiskLevel: risk.LevelLow,
	})
	senior = st.add(models.Resident{
		FirstName: "Pedro", LastName: "Garcia", Age: 65, IsPregnant: true,
		LastVisit: daysAgo(100), RiskScore: 0, RiskLevel: risk.LevelLow,
	}, "Hypertension", "Diabetes")
	return
}

func TestRecompute_WritesOnlyChangedResidents(t *testing.T) {
	st := newFakeStore()
	pregnant, overdue, current, senior := seedMixed(st)

	result, err := newTestRecomputer(st).Recompute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 3, result.Updated)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, risk.DefaultWeights(), result.Weights)
	assert.NotContains(t, st.updates, current.ID)

	assert.Equal(t, 50, st.stored(pregnant.ID).RiskScore)
	assert.Equal(t, risk.LevelMedium, st.stored(pregnant.ID).RiskLevel)
	assert.Equal(t, 0, st.stored(overdue.ID).RiskScore)
	assert.Equal(t, risk.LevelLow, st.stored(overdue.ID).RiskLevel)
	assert.Equal(t, 115, st.stored(senior.ID).RiskScore)
	assert.Equal(t, risk.LevelHigh, st.stored(senior.ID).RiskLevel)
}

func TestRecompute_SecondRunUpdatesNothing(t *testing.T) {
	st := newFakeStore()
	seedMixed(st)
	rc := newTestRecomputer(st)

	_, err := rc.Recompute(context.Background())
	require.NoError(t, err)
	writes := st.updateCount()

	again, err := rc.Recompute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Updated)
	assert.Equal(t, writes, st.updateCount())
}

func TestRecompute_UsesStoredWeights(t *testing.T) {
	st := newFakeStore()
	pregnant, _, _, _ := seedMixed(st)
	st.setWeights(risk.Weights{AgeOver60: 30, Pregnancy: 10, ChronicCondition: 10, MissedVisit: 25})
	rc := newTestRecomputer(st)

	result, err := rc.Recompute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, result.Weights.Pregnancy)
	assert.Equal(t, 10, st.stored(pregnant.ID).RiskScore)
	assert.Equal(t, risk.LevelLow, st.stored(pregnant.ID).RiskLevel)

	again, err := rc.Recompute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Updated)
}

func TestRecompute_ContinuesPastFailedWrites(t *testing.T) {
	st := newFakeStore()
	pregnant, overdue, _, senior := seedMixed(st)
	st.updateErr = func(id string) error {
		if id == overdue.ID {
			return errors.New("lock wait timeout")
		}
		return nil
	}

	result, err := newTestRecomputer(st).Recompute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Failed)

	assert.Equal(t, risk.LevelMedium, st.stored(overdue.ID).RiskLevel)
	assert.Equal(t, risk.LevelMedium, st.stored(pregnant.ID).RiskLevel)
	assert.Equal(t, risk.LevelHigh, st.stored(senior.ID).RiskLevel)
}

func TestRecompute_ReadFailureFailsRun(t *testing.T) {
	st := newFakeStore()
	seedMixed(st)
	st.listErr = errors.New("database is down")

	_, err := newTestRecomputer(st).Recompute(context.Background())
	assert.EqualError(t, err, "database is down")
	assert.Equal(t, 0, st.updateCount())
}

func TestRecompute_SettingsFailureFailsRun(t *testing.T) {
	st := newFakeStore()
	seedMixed(st)
	st.settingsErr = errors.New("settings table missing")

	_, err := newTestRecomputer(st).Recompute(context.Background())
	assert.ErrorContains(t, err, "settings table missing")
	assert.Equal(t, 0, st.updateCount())
}

func TestRecompute_StopsWhenCancelled(t *testing.T) {
	st := newFakeStore()
	seedMixed(st)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestRecomputer(st).Recompute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Updated)
}
