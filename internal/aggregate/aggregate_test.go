package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-analytics/internal/model"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(model.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func window(start, end string) model.DateRange {
	return model.DateRange{Start: day(start), End: day(end)}
}

func event(terid, ts string, value float64) model.EventRow {
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", ts, time.UTC)
	if err != nil {
		panic(err)
	}
	return model.EventRow{TerID: terid, Timestamp: parsed, Value: value}
}

func TestBuildDailyGroupTwoUnitsOneDay(t *testing.T) {
	rows := []model.EventRow{
		event("T1", "2024-01-01 08:15:00", 10),
		event("T2", "2024-01-01 09:30:00", 5),
	}

	out := BuildDailyGroup(rows, window("2024-01-01", "2024-01-02"), 30)
	require.Len(t, out, 2)

	assert.Equal(t, day("2024-01-01"), out[0].Date)
	assert.Equal(t, 15.0, out[0].Total)
	assert.Equal(t, 2, out[0].ActiveUnits)
	assert.Equal(t, 7.5, out[0].AveragePerUnit)

	assert.Equal(t, day("2024-01-02"), out[1].Date)
	assert.Equal(t, 0.0, out[1].Total)
	assert.Equal(t, 0, out[1].ActiveUnits)
	assert.Equal(t, 0.0, out[1].AveragePerUnit)
}

func TestBuildDailyGroupCoversEveryDateInOrder(t *testing.T) {
	win := window("2024-03-01", "2024-03-10")

	out := BuildDailyGroup(nil, win, 30)
	require.Len(t, out, 10)

	for i, row := range out {
		assert.Equal(t, win.Start.AddDate(0, 0, i), row.Date)
		assert.Zero(t, row.Total)
		assert.Zero(t, row.ActiveUnits)
		assert.Zero(t, row.AveragePerUnit)
	}
}

func TestBuildDailyGroupRollingCapKeepsMostRecent(t *testing.T) {
	win := window("2024-01-01", "2024-02-29")

	out := BuildDailyGroup(nil, win, 30)
	require.Len(t, out, 30)
	assert.Equal(t, day("2024-01-31"), out[0].Date)
	assert.Equal(t, day("2024-02-29"), out[29].Date)
}

func TestBuildDailyGroupDuplicateUnitCountedOnce(t *testing.T) {
	rows := []model.EventRow{
		event("T1", "2024-01-01 08:00:00", 3),
		event("T1", "2024-01-01 12:00:00", 4),
	}

	out := BuildDailyGroup(rows, window("2024-01-01", "2024-01-01"), 30)
	require.Len(t, out, 1)
	assert.Equal(t, 7.0, out[0].Total)
	assert.Equal(t, 1, out[0].ActiveUnits)
	assert.Equal(t, 7.0, out[0].AveragePerUnit)
}

func TestBuildDailyGroupIgnoresRowsOutsideWindow(t *testing.T) {
	rows := []model.EventRow{
		event("T1", "2023-12-31 23:59:00", 100),
		event("T1", "2024-01-03 00:00:00", 100),
		event("T1", "2024-01-01 10:00:00", 1),
	}

	out := BuildDailyGroup(rows, window("2024-01-01", "2024-01-02"), 30)
	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Total)
	assert.Equal(t, 0.0, out[1].Total)
}

func TestBuildMileageDailyBelowToleranceIsZero(t *testing.T) {
	rows := []model.EventRow{
		event("T1", "2024-01-01 07:00:00", 12),
	}

	out := BuildMileageDaily(rows, window("2024-01-01", "2024-01-01"), 30, 30)
	require.Len(t, out, 1)

	// The unit reported, so it stays active, but its jitter-level distance
	// does not register as movement.
	assert.Equal(t, 1, out[0].ActiveUnits)
	assert.Equal(t, 0.0, out[0].Total)
	assert.Equal(t, 0.0, out[0].AveragePerUnit)
}

func TestBuildMileageDailyAboveTolerance(t *testing.T) {
	rows := []model.EventRow{
		event("T1", "2024-01-01 07:00:00", 80),
		event("T2", "2024-01-01 08:00:00", 20),
		event("T2", "2024-01-01 17:00:00", 25),
	}

	out := BuildMileageDaily(rows, window("2024-01-01", "2024-01-01"), 30, 30)
	require.Len(t, out, 1)

	// T2's day sum is 45, over tolerance even though each reading is under.
	assert.Equal(t, 125.0, out[0].Total)
	assert.Equal(t, 2, out[0].ActiveUnits)
	assert.Equal(t, 62.5, out[0].AveragePerUnit)
}

func TestBuildUnitDayMatrixRelabelsAndKeepsUnresolved(t *testing.T) {
	rows := []model.EventRow{
		event("T1", "2024-01-01 08:00:00", 4),
		event("T1", "2024-01-02 08:00:00", 6),
		event("T9", "2024-01-01 09:00:00", 2),
	}
	labels := map[string]string{"T1": "ABC-123"}

	out := BuildUnitDayMatrix(rows, window("2024-01-01", "2024-01-03"), labels)
	require.Len(t, out, 3)

	assert.Equal(t, "ABC-123", out[0].Unit)
	assert.Equal(t, day("2024-01-01"), out[0].Date)
	assert.Equal(t, 4.0, out[0].Value)
	assert.Equal(t, "ABC-123", out[1].Unit)
	assert.Equal(t, day("2024-01-02"), out[1].Date)

	// Stale topology must not hide telemetry: the unknown terminal keeps
	// its raw identifier.
	assert.Equal(t, "T9", out[2].Unit)
}

func TestBuildUnitDayMatrixOmitsIdleUnitDays(t *testing.T) {
	rows := []model.EventRow{
		event("T1", "2024-01-01 08:00:00", 4),
	}

	out := BuildUnitDayMatrix(rows, window("2024-01-01", "2024-01-05"), nil)
	require.Len(t, out, 1)
}

func TestBuildUnitDayMatrixEmptyInput(t *testing.T) {
	out := BuildUnitDayMatrix(nil, window("2024-01-01", "2024-01-05"), nil)
	assert.Empty(t, out)
}
