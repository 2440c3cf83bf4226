package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleet-analytics/internal/aggregate"
	"fleet-analytics/internal/model"
	"fleet-analytics/internal/session"
)

var (
	ErrMissingGroup = errors.New("missing group selection")
	ErrInvalidRange = errors.New("start date is after end date")
	ErrRangeTooWide = errors.New("date range exceeds maximum")
	ErrUnknownUnit  = errors.New("unit does not belong to group")
)

type Topology interface {
	ListGroups(ctx context.Context, sess *session.Session) ([]model.Group, error)
	ListDevices(ctx context.Context, sess *session.Session, groupID string) ([]model.Device, error)
	DefaultGroup(ctx context.Context, sess *session.Session) (model.Group, error)
	ResolveGroup(ctx context.Context, sess *session.Session, groupID string) ([]string, error)
	LabelMaps(ctx context.Context, sess *session.Session, groupID string) (model.LabelMaps, error)
}

type Telemetry interface {
	PassengerCounts(ctx context.Context, key string, terids []string, window model.DateRange) ([]model.EventRow, error)
	Mileage(ctx context.Context, key string, terids []string, window model.DateRange) ([]model.EventRow, error)
}

type SnapshotStore interface {
	Save(ctx context.Context, snapshot model.ReportSnapshot) error
	ListRecent(ctx context.Context, username string, limit int) ([]model.ReportSnapshot, error)
}

// AnalyticsService runs the dashboard pipeline: validate the request,
// resolve the group to terminal IDs, fetch telemetry, aggregate. Each stage
// returns a typed error and the pipeline short-circuits on the first one;
// in particular nothing is fetched for an invalid date range.
type AnalyticsService struct {
	topology  Topology
	telemetry Telemetry
	snapshots SnapshotStore
	log       zerolog.Logger

	rollingDays      int
	maxRangeDays     int
	mileageTolerance float64
}

func NewAnalyticsService(topology Topology, telemetry Telemetry, snapshots SnapshotStore, log zerolog.Logger, rollingDays, maxRangeDays int, mileageTolerance float64) *AnalyticsService {
	return &AnalyticsService{
		topology:         topology,
		telemetry:        telemetry,
		snapshots:        snapshots,
		log:              log.With().Str("component", "analytics").Logger(),
		rollingDays:      rollingDays,
		maxRangeDays:     maxRangeDays,
		mileageTolerance: mileageTolerance,
	}
}

func (s *AnalyticsService) PassengerDaily(ctx context.Context, sess *session.Session, groupID string, window model.DateRange) (*model.GroupDailyReport, error) {
	terids, err := s.prepare(ctx, sess, groupID, window)
	if err != nil {
		return nil, err
	}

	rows, err := s.telemetry.PassengerCounts(ctx, sess.APIKey, terids, window)
	if err != nil {
		return nil, err
	}

	report := &model.GroupDailyReport{
		Kind:      model.ReportPassengers,
		GroupID:   groupID,
		GroupName: s.groupName(ctx, sess, groupID),
		Window:    window,
		Rows:      aggregate.BuildDailyGroup(rows, window, s.rollingDays),
	}
	report.Empty = emptyReport(report.Rows)

	s.recordSnapshot(ctx, sess, report)
	return report, nil
}

func (s *AnalyticsService) MileageDaily(ctx context.Context, sess *session.Session, groupID string, window model.DateRange) (*model.GroupDailyReport, error) {
	terids, err := s.prepare(ctx, sess, groupID, window)
	if err != nil {
		return nil, err
	}

	rows, err := s.telemetry.Mileage(ctx, sess.APIKey, terids, window)
	if err != nil {
		return nil, err
	}

	report := &model.GroupDailyReport{
		Kind:      model.ReportMileage,
		GroupID:   groupID,
		GroupName: s.groupName(ctx, sess, groupID),
		Window:    window,
		Rows:      aggregate.BuildMileageDaily(rows, window, s.mileageTolerance, s.rollingDays),
	}
	report.Empty = emptyReport(report.Rows)

	s.recordSnapshot(ctx, sess, report)
	return report, nil
}

// UnitMatrix builds the per-unit time-series table. With a non-empty unit
// subset every requested terminal ID must belong to the group.
func (s *AnalyticsService) UnitMatrix(ctx context.Context, sess *session.Session, groupID string, units []string, window model.DateRange) (*model.UnitMatrixReport, error) {
	terids, err := s.prepare(ctx, sess, groupID, window)
	if err != nil {
		return nil, err
	}

	if len(units) > 0 {
		known := make(map[string]struct{}, len(terids))
		for _, terid := range terids {
			known[terid] = struct{}{}
		}
		for _, unit := range units {
			if _, ok := known[unit]; !ok {
				return nil, ErrUnknownUnit
			}
		}
		terids = units
	}

	rows, err := s.telemetry.PassengerCounts(ctx, sess.APIKey, terids, window)
	if err != nil {
		return nil, err
	}

	labels, err := s.topology.LabelMaps(ctx, sess, groupID)
	if err != nil {
		return nil, err
	}

	matrix := aggregate.BuildUnitDayMatrix(rows, window, labels.TerIDToLabel)
	return &model.UnitMatrixReport{
		Kind:    model.ReportPassengers,
		GroupID: groupID,
		Window:  window,
		Rows:    matrix,
		Labels:  labels,
		Empty:   len(matrix) == 0,
	}, nil
}

func (s *AnalyticsService) History(ctx context.Context, sess *session.Session, limit int) ([]model.ReportSnapshot, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.snapshots.ListRecent(ctx, sess.Username, limit)
}

// prepare runs the stages shared by every report: range validation first,
// so an invalid window never reaches the backend, then group resolution.
func (s *AnalyticsService) prepare(ctx context.Context, sess *session.Session, groupID string, window model.DateRange) ([]string, error) {
	if groupID == "" {
		return nil, ErrMissingGroup
	}
	if !window.Valid() {
		return nil, ErrInvalidRange
	}
	if s.maxRangeDays > 0 && window.Days() > s.maxRangeDays {
		return nil, ErrRangeTooWide
	}
	return s.topology.ResolveGroup(ctx, sess, groupID)
}

func (s *AnalyticsService) groupName(ctx context.Context, sess *session.Session, groupID string) string {
	groups, err := s.topology.ListGroups(ctx, sess)
	if err != nil {
		return ""
	}
	for _, group := range groups {
		if group.GroupID == groupID {
			return group.GroupName
		}
	}
	return ""
}

// recordSnapshot is best effort: history must never fail a report.
func (s *AnalyticsService) recordSnapshot(ctx context.Context, sess *session.Session, report *model.GroupDailyReport) {
	if s.snapshots == nil {
		return
	}

	snapshot := model.ReportSnapshot{
		ID:         uuid.New(),
		Username:   sess.Username,
		GroupID:    report.GroupID,
		GroupName:  report.GroupName,
		Kind:       report.Kind,
		RangeStart: report.Window.Start,
		RangeEnd:   report.Window.End,
		DayCount:   len(report.Rows),
	}
	for _, row := range report.Rows {
		snapshot.TotalValue += row.Total
		if row.ActiveUnits > snapshot.ActiveUnits {
			snapshot.ActiveUnits = row.ActiveUnits
		}
	}

	if err := s.snapshots.Save(ctx, snapshot); err != nil {
		s.log.Warn().Err(err).Str("group_id", report.GroupID).Msg("failed to record report snapshot")
	}
}

func emptyReport(rows []model.DailyAggregateRow) bool {
	for _, row := range rows {
		if row.ActiveUnits > 0 {
			return false
		}
	}
	return true
}
