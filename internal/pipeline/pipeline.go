package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mysociety/appgtrack/internal/diff"
	"github.com/mysociety/appgtrack/internal/filter"
	"github.com/mysociety/appgtrack/internal/model"
	"github.com/mysociety/appgtrack/internal/register"
	"github.com/mysociety/appgtrack/internal/resolve"
	"github.com/mysociety/appgtrack/internal/roster"
)

// RunSummary reports what one pipeline run did. Unresolved names and
// identity conflicts are counted here, not raised as errors: a batch of
// thousands of names completes with per-name outcomes.
type RunSummary struct {
	Date          string
	Groups        int
	Names         resolve.Summary
	Conflicts     []string
	MarkedRemoved int
	Diff          *diff.Report
}

// Pipeline wires the core components for one register run.
type Pipeline struct {
	Store    register.Store
	Matcher  *resolve.Matcher
	Provider resolve.DecisionProvider
	Deny     filter.DenyList
	DiffsDir string
}

// Run executes fetch-to-diff for one dated set of group records: resolve
// every officer and member name, apply the deny-list, persist the snapshot
// wholesale, then diff against the chronologically previous snapshot when
// one exists.
func (p *Pipeline) Run(ctx context.Context, date string, groups []model.Group) (RunSummary, error) {
	if !register.ValidDate(date) {
		return RunSummary{}, eris.Errorf("pipeline: invalid register date %q, want YYMMDD", date)
	}
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("date", date))

	summary := RunSummary{Date: date, Groups: len(groups)}
	session := resolve.NewSession(p.Matcher, p.Store, p.Provider)

	resolved := make([]model.Group, len(groups))
	for i, g := range groups {
		out := g.Clone()
		conflicts, err := ResolveGroup(ctx, session, &out)
		if err != nil {
			return summary, err
		}
		summary.Conflicts = append(summary.Conflicts, conflicts...)
		resolved[i] = out
	}
	summary.Names = session.Summary()

	filtered, marked := filter.ApplyAll(resolved, p.Deny)
	summary.MarkedRemoved = marked

	if err := p.Store.PutSnapshot(ctx, date, filtered); err != nil {
		return summary, err
	}
	log.Info("snapshot persisted",
		zap.Int("groups", len(filtered)),
		zap.Int("auto_resolved", summary.Names.Auto),
		zap.Int("pending", summary.Names.Pending),
		zap.Int("marked_removed", marked))

	prevDate, err := p.Store.Previous(ctx, date)
	if err != nil {
		return summary, err
	}
	if prevDate == "" {
		log.Info("earliest snapshot, no diff computed")
		return summary, nil
	}

	previous, err := p.Store.Snapshot(ctx, prevDate)
	if err != nil {
		return summary, err
	}
	current, err := p.Store.Snapshot(ctx, date)
	if err != nil {
		return summary, err
	}

	report := diff.Compare(previous, current)
	summary.Diff = &report
	if p.DiffsDir != "" {
		if err := report.Save(p.DiffsDir); err != nil {
			return summary, err
		}
	}
	log.Info("diff computed",
		zap.String("previous", prevDate),
		zap.Int("added", len(report.Added)),
		zap.Int("removed", len(report.Removed)),
		zap.Int("changed", len(report.Changed)))

	return summary, nil
}

// ResolveGroup resolves every officer and member name of one group in
// place, returning the names whose declared type conflicted with the roster.
// Conflicts leave the record unannotated; any other error is a store or
// provider failure and aborts the run.
func ResolveGroup(ctx context.Context, session *resolve.Session, g *model.Group) ([]string, error) {
	var conflicts []string
	for _, members := range [][]model.Member{g.Officers, g.MembersList.Members} {
		for i := range members {
			m := &members[i]
			res, err := session.Resolve(ctx, m.Name, hintFor(*m))
			if err != nil {
				return conflicts, err
			}
			if err := session.Annotate(m, res); err != nil {
				if eris.Is(err, resolve.ErrConflictingIdentity) {
					conflicts = append(conflicts, m.Name)
					continue
				}
				return conflicts, err
			}
		}
	}
	return conflicts, nil
}

// hintFor derives the chamber hint for a member: the declared type narrows
// the pool when present, otherwise peerage honorifics in the name do.
func hintFor(m model.Member) roster.Chamber {
	switch m.Type {
	case model.MemberTypeMP:
		return roster.ChamberCommons
	case model.MemberTypeLord:
		return roster.ChamberLords
	}
	return resolve.ChamberHint(m.Name)
}
