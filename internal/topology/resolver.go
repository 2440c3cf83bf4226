package topology

import (
	"context"
	"errors"
	"time"

	"fleet-analytics/internal/model"
	"fleet-analytics/internal/session"
)

var (
	// ErrNoGroups means the operator account has no groups at all.
	ErrNoGroups = errors.New("no groups available")
	// ErrNoUnits means the group exists but has zero devices. Callers keep
	// the UI usable (pick another group); this is not a resolution failure.
	ErrNoUnits = errors.New("group has no units")
)

const (
	cacheKeyGroups  = "topology:groups"
	cacheKeyDevices = "topology:devices"
)

// Backend is the topology side of the CEIBA client.
type Backend interface {
	ListGroups(ctx context.Context, key string) ([]model.Group, error)
	ListDevices(ctx context.Context, key string) ([]model.Device, error)
}

// Resolver maps opaque group identifiers to stable terminal-ID sets and
// label maps, memoizing backend lookups in the session cache.
type Resolver struct {
	backend Backend
	ttl     time.Duration
}

func NewResolver(backend Backend, ttl time.Duration) *Resolver {
	return &Resolver{backend: backend, ttl: ttl}
}

// ListGroups returns the session's groups. An empty list is a valid result,
// distinct from a backend failure.
func (r *Resolver) ListGroups(ctx context.Context, sess *session.Session) ([]model.Group, error) {
	return session.Lookup(sess.Cache(), cacheKeyGroups, r.ttl, func() ([]model.Group, error) {
		return r.backend.ListGroups(ctx, sess.APIKey)
	})
}

// ListDevices returns the session's devices, fetched once per TTL and
// filtered client-side when groupID is non-empty.
func (r *Resolver) ListDevices(ctx context.Context, sess *session.Session, groupID string) ([]model.Device, error) {
	devices, err := session.Lookup(sess.Cache(), cacheKeyDevices, r.ttl, func() ([]model.Device, error) {
		return r.backend.ListDevices(ctx, sess.APIKey)
	})
	if err != nil {
		return nil, err
	}
	if groupID == "" {
		return devices, nil
	}

	filtered := make([]model.Device, 0, len(devices))
	for _, device := range devices {
		if device.GroupID == groupID {
			filtered = append(filtered, device)
		}
	}
	return filtered, nil
}

// DefaultGroup picks the first group in listing order with at least one
// device, falling back to the first group when none has any.
func (r *Resolver) DefaultGroup(ctx context.Context, sess *session.Session) (model.Group, error) {
	groups, err := r.ListGroups(ctx, sess)
	if err != nil {
		return model.Group{}, err
	}
	if len(groups) == 0 {
		return model.Group{}, ErrNoGroups
	}

	devices, err := r.ListDevices(ctx, sess, "")
	if err != nil {
		return model.Group{}, err
	}

	unitsPerGroup := make(map[string]int, len(groups))
	for _, device := range devices {
		unitsPerGroup[device.GroupID]++
	}

	for _, group := range groups {
		if unitsPerGroup[group.GroupID] > 0 {
			return group, nil
		}
	}
	return groups[0], nil
}

// ResolveGroup returns the terminal IDs backing a group.
func (r *Resolver) ResolveGroup(ctx context.Context, sess *session.Session, groupID string) ([]string, error) {
	devices, err := r.ListDevices(ctx, sess, groupID)
	if err != nil {
		return nil, err
	}

	terids := make([]string, 0, len(devices))
	for _, device := range devices {
		if device.TerID != "" {
			terids = append(terids, device.TerID)
		}
	}
	if len(terids) == 0 {
		return nil, ErrNoUnits
	}
	return terids, nil
}

// LabelMaps builds the bidirectional licence-plate maps over devices that
// carry both fields. When one plate shows up on two terminals the last
// device seen wins in LabelToTerID; the reverse map keeps both terminals.
func (r *Resolver) LabelMaps(ctx context.Context, sess *session.Session, groupID string) (model.LabelMaps, error) {
	devices, err := r.ListDevices(ctx, sess, groupID)
	if err != nil {
		return model.LabelMaps{}, err
	}

	maps := model.LabelMaps{
		Labels:       make([]string, 0, len(devices)),
		LabelToTerID: make(map[string]string, len(devices)),
		TerIDToLabel: make(map[string]string, len(devices)),
	}

	for _, device := range devices {
		if device.CarLicence == "" || device.TerID == "" {
			continue
		}
		if _, seen := maps.LabelToTerID[device.CarLicence]; !seen {
			maps.Labels = append(maps.Labels, device.CarLicence)
		}
		maps.LabelToTerID[device.CarLicence] = device.TerID
		maps.TerIDToLabel[device.TerID] = device.CarLicence
	}

	return maps, nil
}
