// Package diff computes structured change reports between two register
// snapshots. Members are compared by resolved person identity, never by raw
// string equality, so spelling and honorific churn between snapshots does
// not show up as membership change.
package diff

import (
	"fmt"
	"sort"

	"github.com/mysociety/appgtrack/internal/model"
	"github.com/mysociety/appgtrack/internal/register"
	"github.com/mysociety/appgtrack/internal/resolve"
)

// ChangeKind enumerates per-member change entries.
type ChangeKind string

const (
	MemberAdded    ChangeKind = "added"
	MemberRemoved  ChangeKind = "removed"
	RoleChanged    ChangeKind = "role_changed"
	RemovedFlagged ChangeKind = "marked_removed"
	RemovedCleared ChangeKind = "unmarked_removed"
)

// GroupSummary identifies a group added to or removed from the register.
type GroupSummary struct {
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	ShortTitle string `json:"short_title"`
	SourceURL  string `json:"source_url,omitempty"`
}

// FieldChange is one changed scalar field on a group.
type FieldChange struct {
	Key      string `json:"key"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// MemberChange is one change to a group's officers or membership. Identity
// is the resolved person identifier when available, otherwise the normalized
// raw name with LowConfidence set: a raw-name comparison cannot rule out
// that the two snapshots spell the same person differently.
type MemberChange struct {
	Kind          ChangeKind `json:"kind"`
	Identity      string     `json:"identity"`
	Name          string     `json:"name"`
	OldRole       string     `json:"old_role,omitempty"`
	NewRole       string     `json:"new_role,omitempty"`
	LowConfidence bool       `json:"low_confidence,omitempty"`
}

// BenefitChange is a registrable-benefit line item added or removed.
type BenefitChange struct {
	Kind    ChangeKind        `json:"kind"`
	Benefit model.BenefitItem `json:"benefit"`
}

// GroupDiff is every change found for one group present in both snapshots.
type GroupDiff struct {
	Slug           string          `json:"slug"`
	Title          string          `json:"title"`
	SourceURL      string          `json:"source_url,omitempty"`
	Fields         []FieldChange   `json:"fields,omitempty"`
	OfficerChanges []MemberChange  `json:"officer_changes,omitempty"`
	MemberChanges  []MemberChange  `json:"member_changes,omitempty"`
	BenefitChanges []BenefitChange `json:"benefit_changes,omitempty"`
}

// Empty reports whether the group diff found no changes.
func (d GroupDiff) Empty() bool {
	return len(d.Fields) == 0 && len(d.OfficerChanges) == 0 &&
		len(d.MemberChanges) == 0 && len(d.BenefitChanges) == 0
}

// Report is the structured delta between two snapshots, keyed by their
// dates. Entries are in slug order, so the same pair of snapshots always
// produces the same report.
type Report struct {
	PreviousDate string         `json:"previous_index"`
	CurrentDate  string         `json:"current_index"`
	Added        []GroupSummary `json:"added_appgs"`
	Removed      []GroupSummary `json:"removed_appgs"`
	Changed      []GroupDiff    `json:"differences"`
}

// Empty reports whether the two snapshots were identical.
func (r Report) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Compare computes the delta from previous to current. Added entries of
// Compare(a, b) equal removed entries of Compare(b, a) by construction:
// both are the summaries of the slugs present on only one side.
func Compare(previous, current register.Snapshot) Report {
	report := Report{
		PreviousDate: previous.Date,
		CurrentDate:  current.Date,
	}

	prev := previous.ByName()
	curr := current.ByName()

	for _, g := range current.Groups {
		if _, ok := prev[g.Slug]; !ok {
			report.Added = append(report.Added, summarize(g))
		}
	}
	for _, g := range previous.Groups {
		if _, ok := curr[g.Slug]; !ok {
			report.Removed = append(report.Removed, summarize(g))
		}
	}

	for _, g := range current.Groups {
		before, ok := prev[g.Slug]
		if !ok {
			continue
		}
		if gd := compareGroup(before, g); !gd.Empty() {
			report.Changed = append(report.Changed, gd)
		}
	}

	sortSummaries(report.Added)
	sortSummaries(report.Removed)
	sort.Slice(report.Changed, func(i, j int) bool {
		return report.Changed[i].Slug < report.Changed[j].Slug
	})
	return report
}

func summarize(g model.Group) GroupSummary {
	return GroupSummary{
		Slug:       g.Slug,
		Title:      g.Title,
		ShortTitle: g.ShortTitle(),
		SourceURL:  g.SourceURL,
	}
}

func sortSummaries(s []GroupSummary) {
	sort.Slice(s, func(i, j int) bool { return s[i].Slug < s[j].Slug })
}

func compareGroup(before, after model.Group) GroupDiff {
	gd := GroupDiff{
		Slug:      after.Slug,
		Title:     after.Title,
		SourceURL: after.SourceURL,
	}
	gd.Fields = compareFields(before, after)
	gd.OfficerChanges = compareMembers(before.Officers, after.Officers, true)
	gd.MemberChanges = compareMembers(before.MembersList.Members, after.MembersList.Members, false)
	gd.BenefitChanges = compareBenefits(before.DetailedBenefits, after.DetailedBenefits)
	return gd
}

// scalarFields lists the compared scalar fields. Index date, single-word
// category and source URL churn on every fetch and are ignored, as are the
// member lists handled separately by identity.
func scalarFields(g model.Group) map[string]string {
	out := map[string]string{
		"title":                     g.Title,
		"purpose":                   g.Purpose,
		"registrable_benefits":      g.RegistrableBenefits,
		"contact__registered_name":  g.ContactDetails.RegisteredContactName,
		"contact__registered_email": g.ContactDetails.RegisteredContactEmail,
		"contact__enquiry_name":     g.ContactDetails.PublicEnquiryPointName,
		"contact__enquiry_email":    g.ContactDetails.PublicEnquiryPointEmail,
		"contact__secretariat":      g.ContactDetails.Secretariat,
		"contact__website":          g.ContactDetails.Website.URL,
		"members__source_method":    string(g.MembersList.SourceMethod),
	}
	if g.AGM != nil {
		out["agm__most_recent"] = g.AGM.DateOfMostRecentAGM
		out["agm__reporting_year"] = g.AGM.ReportingYear
		out["agm__next_deadline"] = g.AGM.NextReportingDeadline
		out["agm__published_statement"] = fmt.Sprintf("%t", g.AGM.PublishedIncomeExpenditure)
	}
	return out
}

func compareFields(before, after model.Group) []FieldChange {
	b := scalarFields(before)
	a := scalarFields(after)

	keys := make(map[string]bool, len(a))
	for k := range b {
		keys[k] = true
	}
	for k := range a {
		keys[k] = true
	}

	var out []FieldChange
	for k := range keys {
		if b[k] != a[k] {
			out = append(out, FieldChange{Key: k, OldValue: b[k], NewValue: a[k]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// memberKey is the cross-snapshot identity of a member record.
type memberKey struct {
	id            string
	lowConfidence bool
}

func keyOf(m model.Member) memberKey {
	id, resolved := m.IdentityKey()
	if !resolved {
		id = resolve.Normalize(id)
	}
	return memberKey{id: id, lowConfidence: !resolved}
}

func compareMembers(before, after []model.Member, officers bool) []MemberChange {
	// Distinct records can share a key when unresolved names normalize the
	// same way, so each key maps to all its records and surplus entries on
	// either side surface as added or removed.
	b := make(map[memberKey][]model.Member, len(before))
	for _, m := range before {
		k := keyOf(m)
		b[k] = append(b[k], m)
	}
	a := make(map[memberKey][]model.Member, len(after))
	for _, m := range after {
		k := keyOf(m)
		a[k] = append(a[k], m)
	}

	var out []MemberChange
	for key, curr := range a {
		prev := b[key]
		paired := len(prev)
		if len(curr) < paired {
			paired = len(curr)
		}
		for i := 0; i < paired; i++ {
			if officers && prev[i].Role != curr[i].Role {
				out = append(out, MemberChange{
					Kind:          RoleChanged,
					Identity:      key.id,
					Name:          curr[i].Name,
					OldRole:       prev[i].Role,
					NewRole:       curr[i].Role,
					LowConfidence: key.lowConfidence,
				})
			}
			if !prev[i].Removed && curr[i].Removed {
				out = append(out, MemberChange{
					Kind:          RemovedFlagged,
					Identity:      key.id,
					Name:          curr[i].Name,
					LowConfidence: key.lowConfidence,
				})
			} else if prev[i].Removed && !curr[i].Removed {
				out = append(out, MemberChange{
					Kind:          RemovedCleared,
					Identity:      key.id,
					Name:          curr[i].Name,
					LowConfidence: key.lowConfidence,
				})
			}
		}
		for _, m := range curr[paired:] {
			out = append(out, MemberChange{
				Kind:          MemberAdded,
				Identity:      key.id,
				Name:          m.Name,
				NewRole:       m.Role,
				LowConfidence: key.lowConfidence,
			})
		}
	}
	for key, prev := range b {
		paired := len(a[key])
		if len(prev) < paired {
			paired = len(prev)
		}
		for _, m := range prev[paired:] {
			out = append(out, MemberChange{
				Kind:          MemberRemoved,
				Identity:      key.id,
				Name:          m.Name,
				OldRole:       m.Role,
				LowConfidence: key.lowConfidence,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Identity != out[j].Identity {
			return out[i].Identity < out[j].Identity
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func compareBenefits(before, after []model.BenefitItem) []BenefitChange {
	key := func(b model.BenefitItem) string {
		return b.Source + "\x00" + b.Description + "\x00" + b.Value
	}
	b := make(map[string]model.BenefitItem, len(before))
	for _, item := range before {
		b[key(item)] = item
	}
	a := make(map[string]model.BenefitItem, len(after))
	for _, item := range after {
		a[key(item)] = item
	}

	var out []BenefitChange
	for k, item := range a {
		if _, ok := b[k]; !ok {
			out = append(out, BenefitChange{Kind: MemberAdded, Benefit: item})
		}
	}
	for k, item := range b {
		if _, ok := a[k]; !ok {
			out = append(out, BenefitChange{Kind: MemberRemoved, Benefit: item})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return key(out[i].Benefit) < key(out[j].Benefit)
	})
	return out
}
