package model

import "time"

type Group struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
}

type Device struct {
	GroupID    string `json:"group_id"`
	CarLicence string `json:"car_licence"`
	TerID      string `json:"terid"`
}

type EventRow struct {
	TerID     string    `json:"terid"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

type LabelMaps struct {
	Labels       []string          `json:"labels"`
	LabelToTerID map[string]string `json:"label_to_terid"`
	TerIDToLabel map[string]string `json:"terid_to_label"`
}
