package diff

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mysociety/appgtrack/internal/model"
	"github.com/mysociety/appgtrack/internal/register"
)

func baseGroup() model.Group {
	return model.Group{
		Slug:     "fair-banking",
		Title:    "Fair Banking APPG",
		Purpose:  "To promote fair banking.",
		Category: model.CategoryFinance,
		Officers: []model.Member{
			{Name: "Dr Simon Opher", IsOfficer: true, Role: "Chair", Type: model.MemberTypeMP, MNISID: "P3"},
			{Name: "Jane Smith", IsOfficer: true, Role: "Vice Chair", Type: model.MemberTypeMP, MNISID: "P1"},
		},
		MembersList: model.MemberList{
			SourceMethod: model.SourceOfficial,
			Members: []model.Member{
				{Name: "Dr Simon Opher", IsOfficer: true, Role: "Chair", Type: model.MemberTypeMP, MNISID: "P3"},
				{Name: "Jane Smith", IsOfficer: true, Role: "Vice Chair", Type: model.MemberTypeMP, MNISID: "P1"},
				{Name: "Lord Alton", Type: model.MemberTypeLord, TWFYID: "T7"},
			},
		},
		IndexDate: "241204",
		SourceURL: "https://example.org/fair-banking",
	}
}

func snapshotOf(date string, groups ...model.Group) register.Snapshot {
	return register.NewSnapshot(date, groups)
}

func TestCompare_IdenticalSnapshotsAreEmpty(t *testing.T) {
	a := snapshotOf("241204", baseGroup())
	b := snapshotOf("250430", baseGroup())

	report := Compare(a, b)

	assert.True(t, report.Empty())
	assert.Equal(t, "241204", report.PreviousDate)
	assert.Equal(t, "250430", report.CurrentDate)
}

func TestCompare_IgnoresIndexDateCategoryAndSourceURL(t *testing.T) {
	before := baseGroup()
	after := baseGroup()
	after.IndexDate = "250430"
	after.Category = model.CategoryEconomy
	after.SourceURL = "https://example.org/moved"

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	assert.True(t, report.Empty(), "per-fetch churn fields must not register as change")
}

func TestCompare_AddedRemovedSymmetry(t *testing.T) {
	zoos := model.Group{Slug: "zoos", Title: "Zoos APPG", Category: model.CategoryAnimals}
	a := snapshotOf("241204", baseGroup())
	b := snapshotOf("250430", baseGroup(), zoos)

	forward := Compare(a, b)
	backward := Compare(b, a)

	require.Len(t, forward.Added, 1)
	assert.Empty(t, forward.Removed)
	assert.Equal(t, "zoos", forward.Added[0].Slug)
	assert.Equal(t, forward.Added, backward.Removed)
	assert.Equal(t, forward.Removed, backward.Added)
}

func TestCompare_RoleChangeIsNotChurn(t *testing.T) {
	before := baseGroup()
	after := baseGroup()
	// Same person, new spelling and a promotion.
	after.Officers[0].Name = "Simon Opher"
	after.Officers[0].Role = "Co-Chair"
	after.MembersList.Members[0].Name = "Simon Opher"
	after.MembersList.Members[0].Role = "Co-Chair"

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	require.Len(t, report.Changed, 1)
	gd := report.Changed[0]

	require.Len(t, gd.OfficerChanges, 1)
	change := gd.OfficerChanges[0]
	assert.Equal(t, RoleChanged, change.Kind)
	assert.Equal(t, "P3", change.Identity)
	assert.Equal(t, "Chair", change.OldRole)
	assert.Equal(t, "Co-Chair", change.NewRole)
	assert.False(t, change.LowConfidence)

	// Identity comparison: no spurious added/removed entries.
	for _, c := range gd.OfficerChanges {
		assert.NotEqual(t, MemberAdded, c.Kind)
		assert.NotEqual(t, MemberRemoved, c.Kind)
	}
	assert.Empty(t, gd.MemberChanges, "plain members do not get role-change entries")
}

func TestCompare_MemberAddedAndRemoved(t *testing.T) {
	before := baseGroup()
	after := baseGroup()
	after.MembersList.Members = append(after.MembersList.Members[:2],
		model.Member{Name: "John Smith", Type: model.MemberTypeMP, MNISID: "P2"})

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	require.Len(t, report.Changed, 1)
	changes := report.Changed[0].MemberChanges
	require.Len(t, changes, 2)
	assert.Equal(t, MemberAdded, changes[0].Kind)
	assert.Equal(t, "P2", changes[0].Identity)
	assert.Equal(t, MemberRemoved, changes[1].Kind)
	assert.Equal(t, "T7", changes[1].Identity)
}

func TestCompare_RemovedFlagTransitions(t *testing.T) {
	before := baseGroup()
	after := baseGroup()
	after.MembersList.Members[2].Removed = true

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	require.Len(t, report.Changed, 1)
	changes := report.Changed[0].MemberChanges
	require.Len(t, changes, 1)
	assert.Equal(t, RemovedFlagged, changes[0].Kind)
	assert.Equal(t, "T7", changes[0].Identity)

	// The reverse transition shows up as unmarked.
	back := Compare(snapshotOf("250430", after), snapshotOf("250530", before))
	require.Len(t, back.Changed, 1)
	require.Len(t, back.Changed[0].MemberChanges, 1)
	assert.Equal(t, RemovedCleared, back.Changed[0].MemberChanges[0].Kind)
}

func TestCompare_UnresolvedMemberIsLowConfidence(t *testing.T) {
	before := baseGroup()
	after := baseGroup()
	after.MembersList.Members = append(after.MembersList.Members,
		model.Member{Name: "Ms Maya Zielinski", Type: model.MemberTypeOther})

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	require.Len(t, report.Changed, 1)
	changes := report.Changed[0].MemberChanges
	require.Len(t, changes, 1)
	assert.Equal(t, MemberAdded, changes[0].Kind)
	assert.Equal(t, "maya zielinski", changes[0].Identity)
	assert.True(t, changes[0].LowConfidence)
}

func TestCompare_SpellingChurnMatchesByNormalizedName(t *testing.T) {
	before := baseGroup()
	before.MembersList.Members = append(before.MembersList.Members,
		model.Member{Name: "Ms Maya Zielinski", Type: model.MemberTypeOther})
	after := baseGroup()
	after.MembersList.Members = append(after.MembersList.Members,
		model.Member{Name: "Maya Zielinski", Type: model.MemberTypeOther})

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	assert.True(t, report.Empty(), "honorific churn on an unresolved name is not membership change")
}

func TestCompare_DuplicateUnresolvedNamesNotCollapsed(t *testing.T) {
	before := baseGroup()
	before.MembersList.Members = append(before.MembersList.Members,
		model.Member{Name: "Sam Carter", Type: model.MemberTypeOther})
	after := baseGroup()
	// Two distinct unresolved records sharing one normalized name.
	after.MembersList.Members = append(after.MembersList.Members,
		model.Member{Name: "Sam Carter", Type: model.MemberTypeOther},
		model.Member{Name: "Mr Sam Carter", Type: model.MemberTypeOther})

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	require.Len(t, report.Changed, 1)
	changes := report.Changed[0].MemberChanges
	require.Len(t, changes, 1)
	assert.Equal(t, MemberAdded, changes[0].Kind)
	assert.Equal(t, "sam carter", changes[0].Identity)
	assert.True(t, changes[0].LowConfidence)

	back := Compare(snapshotOf("250430", after), snapshotOf("250530", before))
	require.Len(t, back.Changed, 1)
	require.Len(t, back.Changed[0].MemberChanges, 1)
	assert.Equal(t, MemberRemoved, back.Changed[0].MemberChanges[0].Kind)
}

func TestCompare_ScalarFieldChanges(t *testing.T) {
	before := baseGroup()
	after := baseGroup()
	after.Purpose = "To promote fair banking and credit."
	after.ContactDetails.Secretariat = "Fair Banking Trust"

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	require.Len(t, report.Changed, 1)
	fields := report.Changed[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, "contact__secretariat", fields[0].Key)
	assert.Equal(t, "purpose", fields[1].Key)
	assert.Equal(t, "To promote fair banking.", fields[1].OldValue)
	assert.Equal(t, "To promote fair banking and credit.", fields[1].NewValue)
}

func TestCompare_AGMFields(t *testing.T) {
	before := baseGroup()
	after := baseGroup()
	after.AGM = &model.AGMDetails{
		DateOfMostRecentAGM: "14/01/2025",
		ReportingYear:       "2025",
	}

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	require.Len(t, report.Changed, 1)
	keys := make([]string, 0)
	for _, f := range report.Changed[0].Fields {
		keys = append(keys, f.Key)
	}
	assert.Contains(t, keys, "agm__most_recent")
	assert.Contains(t, keys, "agm__reporting_year")
}

func TestCompare_BenefitChanges(t *testing.T) {
	before := baseGroup()
	before.DetailedBenefits = []model.BenefitItem{
		{Source: "Fair Banking Trust", Description: "Secretariat services", Value: "13501-15000"},
	}
	after := baseGroup()
	after.DetailedBenefits = []model.BenefitItem{
		{Source: "Fair Banking Trust", Description: "Secretariat services", Value: "15001-16500"},
	}

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	require.Len(t, report.Changed, 1)
	changes := report.Changed[0].BenefitChanges
	require.Len(t, changes, 2)
	assert.Equal(t, MemberAdded, changes[0].Kind)
	assert.Equal(t, "15001-16500", changes[0].Benefit.Value)
	assert.Equal(t, MemberRemoved, changes[1].Kind)
	assert.Equal(t, "13501-15000", changes[1].Benefit.Value)
}

func TestCompare_DeterministicOrdering(t *testing.T) {
	alpha := model.Group{Slug: "alpha", Title: "Alpha APPG", Category: model.CategoryOther}
	omega := model.Group{Slug: "omega", Title: "Omega APPG", Category: model.CategoryOther}

	a := snapshotOf("241204", baseGroup())
	b := snapshotOf("250430", omega, baseGroup(), alpha)

	report := Compare(a, b)
	require.Len(t, report.Added, 2)
	assert.Equal(t, "alpha", report.Added[0].Slug)
	assert.Equal(t, "omega", report.Added[1].Slug)
}

func TestReport_Save(t *testing.T) {
	dir := t.TempDir()
	before := baseGroup()
	after := baseGroup()
	after.Purpose = "Changed."
	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after))

	require.NoError(t, report.Save(dir))

	data, err := os.ReadFile(filepath.Join(dir, "250430.json"))
	require.NoError(t, err)
	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, report.PreviousDate, got.PreviousDate)
	require.Len(t, got.Changed, 1)
}

func TestReport_Markdown(t *testing.T) {
	zoos := model.Group{Slug: "zoos", Title: "Zoos APPG", Category: model.CategoryAnimals, IndexDate: "250430"}
	before := baseGroup()
	after := baseGroup()
	after.Officers[0].Role = "Co-Chair"
	after.MembersList.Members[0].Role = "Co-Chair"
	after.Purpose = "Changed."

	report := Compare(snapshotOf("241204", before), snapshotOf("250430", after, zoos))
	md := report.Markdown()

	assert.Contains(t, md, "241204")
	assert.Contains(t, md, "250430")
	assert.Contains(t, md, "Zoos APPG")
	assert.Contains(t, md, "Fair Banking APPG")
	assert.Contains(t, md, "Co-Chair")
	assert.False(t, strings.Contains(md, "\x00"))
}
