package model

import "time"

type ReportKind string

const (
	ReportPassengers ReportKind = "passengers"
	ReportMileage    ReportKind = "mileage"
)

type DailyAggregateRow struct {
	Date           time.Time `json:"date"`
	Total          float64   `json:"total"`
	ActiveUnits    int       `json:"active_units"`
	AveragePerUnit float64   `json:"average_per_unit"`
}

type UnitDayRow struct {
	Unit  string    `json:"unit"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type GroupDailyReport struct {
	Kind      ReportKind          `json:"kind"`
	GroupID   string              `json:"group_id"`
	GroupName string              `json:"group_name"`
	Window    DateRange           `json:"window"`
	Rows      []DailyAggregateRow `json:"rows"`
	Empty     bool                `json:"empty"`
}

type UnitMatrixReport struct {
	Kind    ReportKind   `json:"kind"`
	GroupID string       `json:"group_id"`
	Window  DateRange    `json:"window"`
	Rows    []UnitDayRow `json:"rows"`
	Labels  LabelMaps    `json:"labels"`
	Empty   bool         `json:"empty"`
}
