package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func testPeople() []Person {
	return []Person{
		{ID: "P1", TWFYID: "T1", Names: []string{"Jane Smith", "Jane A Smith"}, Chamber: ChamberCommons, Active: true},
		{ID: "P2", Names: []string{"Jane Smith"}, Chamber: ChamberCommons, Active: false},
		{ID: "P3", Names: []string{"Lord Alton"}, Chamber: ChamberLords, Active: true},
		{ID: "P4", Names: []string{"Speaker's Chaplain"}},
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New([]Person{{Names: []string{"No ID"}}}, lower)
	assert.Error(t, err)

	_, err = New([]Person{{ID: "P1"}}, lower)
	assert.Error(t, err)

	_, err = New([]Person{
		{ID: "P1", Names: []string{"A"}},
		{ID: "P1", Names: []string{"B"}},
	}, lower)
	assert.Error(t, err)
}

func TestNew_DefaultsChamberToOther(t *testing.T) {
	r, err := New(testPeople(), lower)
	require.NoError(t, err)

	p, ok := r.ByID("P4")
	require.True(t, ok)
	assert.Equal(t, ChamberOther, p.Chamber)
}

func TestByNormalizedName_SharedVariantHoldersSorted(t *testing.T) {
	r, err := New(testPeople(), lower)
	require.NoError(t, err)

	holders := r.ByNormalizedName("jane smith")
	require.Len(t, holders, 2)
	assert.Equal(t, "P1", holders[0].ID)
	assert.Equal(t, "P2", holders[1].ID)

	assert.Empty(t, r.ByNormalizedName("nobody here"))
}

func TestPool(t *testing.T) {
	r, err := New(testPeople(), lower)
	require.NoError(t, err)

	commons := r.Pool(ChamberCommons)
	assert.Len(t, commons, 2)
	lords := r.Pool(ChamberLords)
	require.Len(t, lords, 1)
	assert.Equal(t, "P3", lords[0].ID)

	assert.Len(t, r.Pool(ChamberAny), r.Len())
	assert.Len(t, r.Pool(Chamber("senate")), r.Len())
}

func TestDisplayName(t *testing.T) {
	p := Person{ID: "P1", Names: []string{"Jane Smith", "Jane A Smith"}}
	assert.Equal(t, "Jane Smith", p.DisplayName())
	assert.Equal(t, "P9", Person{ID: "P9"}.DisplayName())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.json")
	doc := `[
		{"id": "P1", "twfy_id": "T1", "names": ["Jane Smith"], "chamber": "commons", "active": true},
		{"id": "P2", "names": ["Lord Alton"], "chamber": "lords", "active": true}
	]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := Load(path, lower)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	p, ok := r.ByID("P1")
	require.True(t, ok)
	assert.Equal(t, "T1", p.TWFYID)
	assert.True(t, p.Active)

	_, err = Load(filepath.Join(dir, "missing.json"), lower)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad, lower)
	assert.Error(t, err)
}
