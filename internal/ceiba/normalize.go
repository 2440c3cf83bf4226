package ceiba

import (
	"strconv"
	"time"

	"fleet-analytics/internal/model"
)

// The backend has shipped at least three key spellings per field over its
// lifetime. Each canonical field resolves through one ordered alias list;
// earlier spellings win when a row carries several.
var (
	groupIDAliases   = []string{"groupid", "groupId", "group_id"}
	groupNameAliases = []string{"groupname", "groupName", "group_name"}
	licenceAliases   = []string{"carlicence", "carLicense", "car_licence"}
	terIDAliases     = []string{"terid", "terminalId", "terminal_id"}
	timeAliases      = []string{"devtime", "time", "timestamp"}
	countAliases     = []string{"cardnumber", "count", "number", "value"}
	mileageAliases   = []string{"mileage", "distance", "value"}
)

var eventTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func pickString(raw map[string]any, aliases []string) (string, bool) {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64), true
		}
	}
	return "", false
}

func pickFloat(raw map[string]any, aliases []string) (float64, bool) {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case string:
			if parsed, err := strconv.ParseFloat(n, 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

func pickTime(raw map[string]any, aliases []string) (time.Time, bool) {
	s, ok := pickString(raw, aliases)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeGroup maps one raw group record to the canonical shape. Records
// missing every spelling of groupid are dropped.
func normalizeGroup(raw map[string]any) (model.Group, bool) {
	id, ok := pickString(raw, groupIDAliases)
	if !ok {
		return model.Group{}, false
	}
	name, _ := pickString(raw, groupNameAliases)
	return model.Group{GroupID: id, GroupName: name}, true
}

// normalizeDevice is total over recognized variants: any spelling maps to
// the same canonical field, and a device missing all spellings of groupid or
// terid is dropped rather than surfaced as an error. A missing licence keeps
// the device; it still counts for telemetry queries.
func normalizeDevice(raw map[string]any) (model.Device, bool) {
	gid, ok := pickString(raw, groupIDAliases)
	if !ok {
		return model.Device{}, false
	}
	ter, ok := pickString(raw, terIDAliases)
	if !ok {
		return model.Device{}, false
	}
	licence, _ := pickString(raw, licenceAliases)
	return model.Device{GroupID: gid, CarLicence: licence, TerID: ter}, true
}

func normalizeEventRow(raw map[string]any, valueAliases []string) (model.EventRow, bool) {
	ter, ok := pickString(raw, terIDAliases)
	if !ok {
		return model.EventRow{}, false
	}
	ts, ok := pickTime(raw, timeAliases)
	if !ok {
		return model.EventRow{}, false
	}
	value, ok := pickFloat(raw, valueAliases)
	if !ok {
		return model.EventRow{}, false
	}
	if value < 0 {
		return model.EventRow{}, false
	}
	return model.EventRow{TerID: ter, Timestamp: ts, Value: value}, true
}
