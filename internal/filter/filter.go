// Package filter applies the ineligible-person deny-list to group records.
// Affected members are marked removed, never deleted, so the history keeps
// the distinction between "never a member" and "was a member, now excluded".
package filter

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mysociety/appgtrack/internal/model"
)

// DenyList is the set of person identifiers structurally barred from group
// membership. It is always sourced from configuration, never hard-coded.
type DenyList map[string]bool

// NewDenyList builds a deny-list from identifiers.
func NewDenyList(ids ...string) DenyList {
	d := make(DenyList, len(ids))
	for _, id := range ids {
		if id != "" {
			d[id] = true
		}
	}
	return d
}

// denyFile is the on-disk YAML shape of the deny-list.
type denyFile struct {
	Ineligible []string `yaml:"ineligible"`
}

// LoadDenyList reads a deny-list from a YAML file. A missing path is an
// empty deny-list, not an error.
func LoadDenyList(path string) (DenyList, error) {
	if path == "" {
		return NewDenyList(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDenyList(), nil
		}
		return nil, eris.Wrapf(err, "filter: read deny-list %s", path)
	}
	var f denyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "filter: parse deny-list %s", path)
	}
	return NewDenyList(f.Ineligible...), nil
}

// IDs returns the deny-listed identifiers in sorted order.
func (d DenyList) IDs() []string {
	out := make([]string, 0, len(d))
	for id := range d {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Apply returns a copy of the group with every officer and member whose
// resolved identifier is deny-listed marked removed. The input group is not
// mutated. Applying the same deny-list twice is a no-op the second time.
func Apply(g model.Group, deny DenyList) (model.Group, int) {
	out := g.Clone()
	flipped := 0
	flipped += mark(out.Officers, deny)
	flipped += mark(out.MembersList.Members, deny)
	if flipped > 0 {
		zap.L().Info("eligibility filter applied",
			zap.String("slug", g.Slug),
			zap.Int("marked_removed", flipped))
	}
	return out, flipped
}

// ApplyAll filters every group in a snapshot, returning new copies and the
// total number of records newly marked removed.
func ApplyAll(groups []model.Group, deny DenyList) ([]model.Group, int) {
	out := make([]model.Group, len(groups))
	total := 0
	for i, g := range groups {
		filtered, n := Apply(g, deny)
		out[i] = filtered
		total += n
	}
	return out, total
}

func mark(members []model.Member, deny DenyList) int {
	flipped := 0
	for i, m := range members {
		if m.Removed {
			continue
		}
		if (m.MNISID != "" && deny[m.MNISID]) || (m.TWFYID != "" && deny[m.TWFYID]) {
			members[i].Removed = true
			flipped++
		}
	}
	return flipped
}
