package register

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mysociety/appgtrack/internal/model"
	"github.com/mysociety/appgtrack/internal/resolve"
)

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("250430"))
	assert.True(t, ValidDate("000101"))
	assert.False(t, ValidDate("2025-04-30"))
	assert.False(t, ValidDate("25043"))
	assert.False(t, ValidDate("2504301"))
	assert.False(t, ValidDate(""))
	assert.False(t, ValidDate("25o430"))
}

func sampleGroups() []model.Group {
	return []model.Group{
		{Slug: "zoos", Title: "Zoos APPG", Category: model.CategoryAnimals},
		{Slug: "fair-banking", Title: "Fair Banking APPG", Category: model.CategoryFinance},
	}
}

func TestNewSnapshot_SortsAndCopies(t *testing.T) {
	groups := sampleGroups()

	snap := NewSnapshot("250430", groups)

	assert.Equal(t, []string{"fair-banking", "zoos"}, snap.Slugs())

	// The snapshot owns its copies.
	groups[0].Title = "mutated"
	g, err := snap.Group("zoos")
	require.NoError(t, err)
	assert.Equal(t, "Zoos APPG", g.Title)
}

func TestSnapshot_GroupNotFound(t *testing.T) {
	snap := NewSnapshot("250430", sampleGroups())

	_, err := snap.Group("absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshot_ByName(t *testing.T) {
	snap := NewSnapshot("250430", sampleGroups())

	byName := snap.ByName()
	require.Len(t, byName, 2)
	assert.Equal(t, "Zoos APPG", byName["zoos"].Title)
}

func TestMemStore_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMem()

	require.NoError(t, s.PutSnapshot(ctx, "250430", sampleGroups()))

	snap, err := s.Snapshot(ctx, "250430")
	require.NoError(t, err)
	assert.Equal(t, "250430", snap.Date)
	assert.Equal(t, []string{"fair-banking", "zoos"}, snap.Slugs())

	_, err = s.Snapshot(ctx, "250530")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_RejectsBadDate(t *testing.T) {
	s := NewMem()
	assert.Error(t, s.PutSnapshot(context.Background(), "2025-04-30", nil))
}

func TestMemStore_PutReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	s := NewMem()

	require.NoError(t, s.PutSnapshot(ctx, "250430", sampleGroups()))
	require.NoError(t, s.PutSnapshot(ctx, "250430", []model.Group{
		{Slug: "music", Title: "Music APPG", Category: model.CategoryArts},
	}))

	snap, err := s.Snapshot(ctx, "250430")
	require.NoError(t, err)
	assert.Equal(t, []string{"music"}, snap.Slugs())
}

func TestMemStore_DatesLatestPrevious(t *testing.T) {
	ctx := context.Background()
	s := NewMem()

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, date := range []string{"250530", "241204", "250430"} {
		require.NoError(t, s.PutSnapshot(ctx, date, sampleGroups()))
	}

	dates, err := s.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"241204", "250430", "250530"}, dates)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "250530", latest.Date)

	prev, err := s.Previous(ctx, "250430")
	require.NoError(t, err)
	assert.Equal(t, "241204", prev)

	prev, err = s.Previous(ctx, "241204")
	require.NoError(t, err)
	assert.Empty(t, prev, "earliest date has no previous")

	_, err = s.Previous(ctx, "230101")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStore_DecisionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMem()

	_, ok, err := s.Decision(ctx, "jane smith")
	require.NoError(t, err)
	assert.False(t, ok)

	d := resolve.Decision{
		ID: "d1", Key: "jane smith", Raw: "Jane Smith",
		Outcome: resolve.OutcomeMatched, PersonID: "P1", Score: 1.0, DecidedBy: "auto",
	}
	require.NoError(t, s.SaveDecision(ctx, d))

	got, ok, err := s.Decision(ctx, "jane smith")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, d, got)

	all, err := s.Decisions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
