package model

import (
	"time"

	"github.com/google/uuid"
)

// ReportSnapshot records one successfully computed aggregate for the
// history view.
type ReportSnapshot struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username    string     `gorm:"index" json:"username"`
	GroupID     string     `json:"group_id"`
	GroupName   string     `json:"group_name"`
	Kind        ReportKind `json:"kind"`
	RangeStart  time.Time  `json:"range_start"`
	RangeEnd    time.Time  `json:"range_end"`
	TotalValue  float64    `json:"total_value"`
	ActiveUnits int        `json:"active_units"`
	DayCount    int        `json:"day_count"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

func (ReportSnapshot) TableName() string {
	return "report_snapshots"
}
