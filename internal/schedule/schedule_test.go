package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/signup-sheets-api/internal/models"
)

func TestNormalizeDates(t *testing.T) {
	dates, err := NormalizeDates([]string{"2025-03-08", " 2025-03-01", "2025-03-08"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01", "2025-03-08"}, dates)

	_, err = NormalizeDates([]string{"2025-02-30"})
	require.Error(t, err)
}

func TestValidateForType(t *testing.T) {
	assert.NoError(t, ValidateForType(models.SheetTypeSingle, []string{"2025-03-01"}))
	assert.Error(t, ValidateForType(models.SheetTypeSingle, []string{"2025-03-01", "2025-03-02"}))
	assert.Error(t, ValidateForType(models.SheetTypeSingle, []string{models.DateSentinel}))

	assert.NoError(t, ValidateForType(models.SheetTypeRecurring, []string{"2025-03-01", "2025-03-08"}))
	assert.Error(t, ValidateForType(models.SheetTypeRecurring, []string{"2025-03-01"}))

	assert.NoError(t, ValidateForType(models.SheetTypeOngoing, []string{models.DateSentinel}))
	assert.NoError(t, ValidateForType(models.SheetTypeOngoing, nil))
	assert.Error(t, ValidateForType(models.SheetTypeOngoing, []string{"2025-03-01"}))
}

func TestTaskDates(t *testing.T) {
	shared := []string{"2025-03-01", "2025-03-08"}
	assert.Equal(t, "2025-03-01,2025-03-08", TaskDates(models.SheetTypeRecurring, shared, ""))
	assert.Equal(t, "2025-03-01,2025-03-08", TaskDates(models.SheetTypeSingle, shared, "ignored"))
	assert.Equal(t, models.DateSentinel, TaskDates(models.SheetTypeOngoing, shared, "2025-03-01"))
	assert.Equal(t, "2025-04-01", TaskDates(models.SheetTypeMultiDay, shared, "2025-04-01"))
	assert.Equal(t, models.DateSentinel, TaskDates(models.SheetTypeMultiDay, shared, "junk"))
}

func TestBounds(t *testing.T) {
	first, last := Bounds([]string{"2025-03-08", "2025-03-01", models.DateSentinel})
	require.NotNil(t, first)
	require.NotNil(t, last)
	assert.Equal(t, "2025-03-01", *first)
	assert.Equal(t, "2025-03-08", *last)

	first, last = Bounds([]string{models.DateSentinel})
	assert.Nil(t, first)
	assert.Nil(t, last)
}

func TestCanClearBoundary(t *testing.T) {
	policy := ClearPolicy{Enabled: true, Unit: models.ClearUnitDays, Lead: 2}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	start := "12:01"

	// 48h01m ahead: window not yet entered
	assert.True(t, policy.CanClear("2025-06-03", &start, false, now))

	// 47h59m ahead: inside the window
	early := "11:59"
	assert.False(t, policy.CanClear("2025-06-03", &early, false, now))

	// privileged caller always clears
	assert.True(t, policy.CanClear("2025-06-03", &early, true, now))
}

func TestCanClearRules(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	disabled := ClearPolicy{Enabled: false, Unit: models.ClearUnitDays, Lead: 0}
	assert.False(t, disabled.CanClear("2025-06-30", nil, false, now))

	always := ClearPolicy{Enabled: true, Unit: models.ClearUnitDays, Lead: 0}
	assert.True(t, always.CanClear("2025-06-01", nil, false, now))

	sentinel := ClearPolicy{Enabled: true, Unit: models.ClearUnitHours, Lead: 4}
	assert.True(t, sentinel.CanClear(models.DateSentinel, nil, false, now))

	// no start time: compare against the bare date
	hours := ClearPolicy{Enabled: true, Unit: models.ClearUnitHours, Lead: 10}
	assert.True(t, hours.CanClear("2025-06-02", nil, false, now))  // midnight is 12h away
	assert.False(t, hours.CanClear("2025-06-01", nil, false, now)) // already past midnight
}

func TestCanClearFailsOpenOnBadData(t *testing.T) {
	policy := ClearPolicy{Enabled: true, Unit: models.ClearUnitDays, Lead: 30}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// an unparseable stored date never time-binds the signup
	assert.True(t, policy.CanClear("junk", nil, false, now))

	// an unparseable start time degrades to the bare-date comparison
	hours := ClearPolicy{Enabled: true, Unit: models.ClearUnitHours, Lead: 10}
	bad := "sometime in the morning"
	assert.True(t, hours.CanClear("2025-06-02", &bad, false, now))
	assert.False(t, hours.CanClear("2025-06-01", &bad, false, now))
}

func TestCanClear12HourTime(t *testing.T) {
	policy := ClearPolicy{Enabled: true, Unit: models.ClearUnitHours, Lead: 1}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	pm := "6:30 PM"
	assert.True(t, policy.CanClear("2025-06-01", &pm, false, now))
	late := "12:30 PM"
	assert.False(t, policy.CanClear("2025-06-01", &late, false, now))
}

func TestExpandRecurrence(t *testing.T) {
	dates, err := ExpandRecurrence("FREQ=WEEKLY;COUNT=3", "2025-03-01", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-01", "2025-03-08", "2025-03-15"}, dates)

	_, err = ExpandRecurrence("FREQ=BOGUS", "2025-03-01", 0)
	require.Error(t, err)

	_, err = ExpandRecurrence("FREQ=WEEKLY", "not-a-date", 0)
	require.Error(t, err)
}
