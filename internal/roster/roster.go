// Package roster holds the canonical list of parliamentarians that scraped
// names are resolved against. The roster is loaded once per run from an
// external people file and is read-only afterwards, so it can be shared by
// any number of matcher calls without locking.
package roster

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Chamber identifies which legislature chamber a person sits in.
type Chamber string

const (
	ChamberCommons Chamber = "commons"
	ChamberLords   Chamber = "lords"
	ChamberOther   Chamber = "other"
	// ChamberAny is a hint value meaning no chamber restriction.
	ChamberAny Chamber = ""
)

// Person is one canonical roster entry. ID is the primary stable external
// identifier (MNIS); TWFYID is a secondary cross-reference. Names holds
// every known variant, with the first entry treated as the display name.
type Person struct {
	ID      string   `json:"id"`
	TWFYID  string   `json:"twfy_id,omitempty"`
	Names   []string `json:"names"`
	Chamber Chamber  `json:"chamber"`
	Active  bool     `json:"active"`
}

// DisplayName returns the person's preferred name variant.
func (p Person) DisplayName() string {
	if len(p.Names) == 0 {
		return p.ID
	}
	return p.Names[0]
}

// Roster is an immutable index of persons keyed by identifier and by
// normalized name variant.
type Roster struct {
	people []Person
	byID   map[string]*Person
	byName map[string][]*Person
	pools  map[Chamber][]*Person
	normFn func(string) string
}

// New builds a roster from person records. normFn is the name normalizer
// used to key the variant index; it must match the one the matcher applies
// to scraped names. Duplicate variants across persons are kept: the variant
// index maps to all holders and disambiguation is the matcher's job.
func New(people []Person, normFn func(string) string) (*Roster, error) {
	r := &Roster{
		people: people,
		byID:   make(map[string]*Person, len(people)),
		byName: make(map[string][]*Person),
		pools:  make(map[Chamber][]*Person),
		normFn: normFn,
	}
	for i := range r.people {
		p := &r.people[i]
		if p.ID == "" {
			return nil, eris.Errorf("roster: person %q has no identifier", p.DisplayName())
		}
		if len(p.Names) == 0 {
			return nil, eris.Errorf("roster: person %s has no name variants", p.ID)
		}
		if p.Chamber == "" {
			p.Chamber = ChamberOther
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, eris.Errorf("roster: duplicate person identifier %s", p.ID)
		}
		r.byID[p.ID] = p
		r.pools[p.Chamber] = append(r.pools[p.Chamber], p)
		seen := make(map[string]bool, len(p.Names))
		for _, name := range p.Names {
			key := normFn(name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			r.byName[key] = append(r.byName[key], p)
		}
	}
	// Deterministic order for holders of a shared variant.
	for key := range r.byName {
		holders := r.byName[key]
		sort.Slice(holders, func(i, j int) bool { return holders[i].ID < holders[j].ID })
	}
	zap.L().Debug("roster built",
		zap.Int("people", len(r.people)),
		zap.Int("name_variants", len(r.byName)))
	return r, nil
}

// Load reads a roster from a JSON people file.
func Load(path string, normFn func(string) string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: read %s", path)
	}
	var people []Person
	if err := json.Unmarshal(data, &people); err != nil {
		return nil, eris.Wrapf(err, "roster: parse %s", path)
	}
	return New(people, normFn)
}

// Len returns the number of roster entries.
func (r *Roster) Len() int { return len(r.people) }

// ByID returns the person with the given primary identifier.
func (r *Roster) ByID(id string) (Person, bool) {
	p, ok := r.byID[id]
	if !ok {
		return Person{}, false
	}
	return *p, true
}

// ByNormalizedName returns every person holding the given normalized name
// variant, in stable identifier order.
func (r *Roster) ByNormalizedName(key string) []Person {
	holders := r.byName[key]
	out := make([]Person, len(holders))
	for i, p := range holders {
		out[i] = *p
	}
	return out
}

// Pool returns the candidate pool for a chamber hint. ChamberAny (or an
// unknown chamber) returns the full roster.
func (r *Roster) Pool(hint Chamber) []Person {
	pool, ok := r.pools[hint]
	if !ok {
		return r.All()
	}
	out := make([]Person, len(pool))
	for i, p := range pool {
		out[i] = *p
	}
	return out
}

// All returns every person in the roster.
func (r *Roster) All() []Person {
	out := make([]Person, len(r.people))
	copy(out, r.people)
	return out
}
