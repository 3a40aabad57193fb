package register

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/mysociety/appgtrack/internal/model"
	"github.com/mysociety/appgtrack/internal/resolve"
)

// MemStore implements Store in memory, for tests and dry runs.
type MemStore struct {
	snapshots map[string]Snapshot
	decisions map[string]resolve.Decision
}

// NewMem creates an empty in-memory store.
func NewMem() *MemStore {
	return &MemStore{
		snapshots: make(map[string]Snapshot),
		decisions: make(map[string]resolve.Decision),
	}
}

func (s *MemStore) Migrate(context.Context) error { return nil }
func (s *MemStore) Close() error                  { return nil }

func (s *MemStore) PutSnapshot(_ context.Context, date string, groups []model.Group) error {
	if !ValidDate(date) {
		return eris.Errorf("mem: invalid snapshot date %q, want YYMMDD", date)
	}
	s.snapshots[date] = NewSnapshot(date, groups)
	return nil
}

func (s *MemStore) Snapshot(_ context.Context, date string) (Snapshot, error) {
	snap, ok := s.snapshots[date]
	if !ok {
		return Snapshot{}, eris.Wrapf(ErrNotFound, "snapshot %s", date)
	}
	return snap, nil
}

func (s *MemStore) Dates(context.Context) ([]string, error) {
	dates := make([]string, 0, len(s.snapshots))
	for d := range s.snapshots {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *MemStore) Latest(ctx context.Context) (Snapshot, error) {
	dates, _ := s.Dates(ctx)
	if len(dates) == 0 {
		return Snapshot{}, eris.Wrap(ErrNotFound, "no snapshots stored")
	}
	return s.Snapshot(ctx, dates[len(dates)-1])
}

func (s *MemStore) Previous(ctx context.Context, date string) (string, error) {
	dates, _ := s.Dates(ctx)
	return previousDate(dates, date)
}

func (s *MemStore) SaveDecision(_ context.Context, d resolve.Decision) error {
	s.decisions[d.Key] = d
	return nil
}

func (s *MemStore) Decision(_ context.Context, key string) (resolve.Decision, bool, error) {
	d, ok := s.decisions[key]
	return d, ok, nil
}

func (s *MemStore) Decisions(context.Context) ([]resolve.Decision, error) {
	keys := make([]string, 0, len(s.decisions))
	for k := range s.decisions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]resolve.Decision, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.decisions[k])
	}
	return out, nil
}
