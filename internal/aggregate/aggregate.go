// Package aggregate turns raw telemetry event rows into the daily and
// per-unit tables the dashboard charts from. All transforms are pure: they
// never mutate the input rows and empty input yields defined zero-valued
// output, not an error.
package aggregate

import (
	"sort"
	"time"

	"fleet-analytics/internal/model"
)

// BuildDailyGroup sums event values per calendar day across a group. Every
// date in the window appears exactly once, ascending, gap-filled with zeros;
// rollingDays caps the output to the most recent days when positive.
func BuildDailyGroup(rows []model.EventRow, window model.DateRange, rollingDays int) []model.DailyAggregateRow {
	totals := make(map[time.Time]float64)
	units := make(map[time.Time]map[string]struct{})

	for _, row := range rows {
		day := model.Day(row.Timestamp)
		if !inWindow(day, window) {
			continue
		}
		totals[day] += row.Value
		if units[day] == nil {
			units[day] = make(map[string]struct{})
		}
		units[day][row.TerID] = struct{}{}
	}

	return assembleDaily(window, rollingDays, totals, units)
}

// BuildMileageDaily is the distance variant of BuildDailyGroup. Per-unit
// day sums below toleranceKm are treated as zero distance so idle-vehicle
// GPS jitter never shows up as movement; the unit still counts as active
// for the day because it did report.
func BuildMileageDaily(rows []model.EventRow, window model.DateRange, toleranceKm float64, rollingDays int) []model.DailyAggregateRow {
	perUnit := make(map[time.Time]map[string]float64)

	for _, row := range rows {
		day := model.Day(row.Timestamp)
		if !inWindow(day, window) {
			continue
		}
		if perUnit[day] == nil {
			perUnit[day] = make(map[string]float64)
		}
		perUnit[day][row.TerID] += row.Value
	}

	totals := make(map[time.Time]float64, len(perUnit))
	units := make(map[time.Time]map[string]struct{}, len(perUnit))
	for day, byUnit := range perUnit {
		units[day] = make(map[string]struct{}, len(byUnit))
		for terid, distance := range byUnit {
			units[day][terid] = struct{}{}
			if distance < toleranceKm {
				continue
			}
			totals[day] += distance
		}
	}

	return assembleDaily(window, rollingDays, totals, units)
}

// BuildUnitDayMatrix emits one row per (unit, date) pair with at least one
// event in the window. Terminal IDs are relabeled through teridToLabel;
// unresolved IDs keep the raw identifier so no telemetry is lost to a stale
// topology cache.
func BuildUnitDayMatrix(rows []model.EventRow, window model.DateRange, teridToLabel map[string]string) []model.UnitDayRow {
	type unitDay struct {
		terid string
		day   time.Time
	}
	sums := make(map[unitDay]float64)

	for _, row := range rows {
		day := model.Day(row.Timestamp)
		if !inWindow(day, window) {
			continue
		}
		sums[unitDay{terid: row.TerID, day: day}] += row.Value
	}

	matrix := make([]model.UnitDayRow, 0, len(sums))
	for key, value := range sums {
		unit := key.terid
		if label, ok := teridToLabel[key.terid]; ok {
			unit = label
		}
		matrix = append(matrix, model.UnitDayRow{Unit: unit, Date: key.day, Value: value})
	}

	sort.Slice(matrix, func(i, j int) bool {
		if matrix[i].Unit != matrix[j].Unit {
			return matrix[i].Unit < matrix[j].Unit
		}
		return matrix[i].Date.Before(matrix[j].Date)
	})
	return matrix
}

func assembleDaily(window model.DateRange, rollingDays int, totals map[time.Time]float64, units map[time.Time]map[string]struct{}) []model.DailyAggregateRow {
	if !window.Valid() {
		return []model.DailyAggregateRow{}
	}

	out := make([]model.DailyAggregateRow, 0, window.Days())
	for day := window.Start; !day.After(window.End); day = day.AddDate(0, 0, 1) {
		row := model.DailyAggregateRow{
			Date:        day,
			Total:       totals[day],
			ActiveUnits: len(units[day]),
		}
		if row.ActiveUnits > 0 {
			row.AveragePerUnit = row.Total / float64(row.ActiveUnits)
		}
		out = append(out, row)
	}

	if rollingDays > 0 && len(out) > rollingDays {
		out = out[len(out)-rollingDays:]
	}
	return out
}

func inWindow(day time.Time, window model.DateRange) bool {
	return !day.Before(window.Start) && !day.After(window.End)
}
