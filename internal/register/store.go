// Package register stores dated snapshots of the APPG register and the
// reconciliation decision cache. Snapshot dates are fixed 6-digit YYMMDD
// strings, so plain string order is chronological order.
package register

import (
	"context"
	"regexp"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/mysociety/appgtrack/internal/model"
	"github.com/mysociety/appgtrack/internal/resolve"
)

// ErrNotFound is returned for unknown snapshot dates and slugs.
var ErrNotFound = eris.New("register: not found")

var dateRe = regexp.MustCompile(`^\d{6}$`)

// ValidDate reports whether date is a 6-digit YYMMDD register date.
func ValidDate(date string) bool {
	return dateRe.MatchString(date)
}

// Snapshot is the full state of the register as fetched at one date. Groups
// are held in slug order and the snapshot owns its copies: later pipeline
// stages never mutate a stored snapshot in place.
type Snapshot struct {
	Date   string        `json:"date"`
	Groups []model.Group `json:"groups"`
}

// NewSnapshot builds a snapshot from group copies, sorted by slug.
func NewSnapshot(date string, groups []model.Group) Snapshot {
	owned := make([]model.Group, len(groups))
	for i, g := range groups {
		owned[i] = g.Clone()
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].Slug < owned[j].Slug })
	return Snapshot{Date: date, Groups: owned}
}

// Group returns the group with the given slug.
func (s Snapshot) Group(slug string) (model.Group, error) {
	for _, g := range s.Groups {
		if g.Slug == slug {
			return g, nil
		}
	}
	return model.Group{}, eris.Wrapf(ErrNotFound, "slug %s in snapshot %s", slug, s.Date)
}

// Slugs returns the snapshot's slugs in order.
func (s Snapshot) Slugs() []string {
	out := make([]string, len(s.Groups))
	for i, g := range s.Groups {
		out[i] = g.Slug
	}
	return out
}

// ByName indexes the snapshot's groups by slug.
func (s Snapshot) ByName() map[string]model.Group {
	out := make(map[string]model.Group, len(s.Groups))
	for _, g := range s.Groups {
		out[g.Slug] = g
	}
	return out
}

// Store persists register snapshots and reconciliation decisions. Snapshot
// writes replace the whole dated snapshot atomically: a reconciled rerun of
// the same date overwrites it wholesale, never partially.
type Store interface {
	resolve.DecisionStore

	PutSnapshot(ctx context.Context, date string, groups []model.Group) error
	Snapshot(ctx context.Context, date string) (Snapshot, error)
	Dates(ctx context.Context) ([]string, error)
	Latest(ctx context.Context) (Snapshot, error)
	// Previous returns the date immediately before the given stored date,
	// or "" when the given date is the earliest. Unknown dates are
	// ErrNotFound.
	Previous(ctx context.Context, date string) (string, error)
	Decisions(ctx context.Context) ([]resolve.Decision, error)

	Migrate(ctx context.Context) error
	Close() error
}

// previousDate implements Previous over a sorted date list.
func previousDate(dates []string, date string) (string, error) {
	for i, d := range dates {
		if d == date {
			if i == 0 {
				return "", nil
			}
			return dates[i-1], nil
		}
	}
	return "", eris.Wrapf(ErrNotFound, "snapshot %s", date)
}
