package resolve

import (
	"sort"

	"github.com/antzucaro/matchr"

	"github.com/mysociety/appgtrack/internal/roster"
)

// Candidate is one ranked roster match for a raw name.
type Candidate struct {
	Person roster.Person
	Score  float64
}

// MatcherConfig holds the similarity thresholds. Floor is the minimum
// similarity for a candidate to be proposed at all; AutoAccept is the higher
// bar exactly one candidate must clear for unattended acceptance.
// Conservative defaults; both are exercised by boundary tests.
type MatcherConfig struct {
	Floor         float64
	AutoAccept    float64
	MaxCandidates int
}

// DefaultMatcherConfig returns the default thresholds.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{Floor: 0.5, AutoAccept: 0.9, MaxCandidates: 5}
}

// Matcher proposes roster candidates for raw scraped names. It holds only
// read-only state and is safe to share.
type Matcher struct {
	roster *roster.Roster
	cfg    MatcherConfig
}

// NewMatcher creates a matcher over a loaded roster.
func NewMatcher(r *roster.Roster, cfg MatcherConfig) *Matcher {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMatcherConfig().MaxCandidates
	}
	return &Matcher{roster: r, cfg: cfg}
}

// Match returns roster candidates for a raw name, best first. An exact
// normalized-variant match scores 1.0 and short-circuits the similarity
// scan. Otherwise every name variant in the chamber pool is scored by
// normalized Levenshtein ratio, falling back to the full roster when the
// pool yields nothing above the floor. Ties are broken by active status,
// then score, then person identifier, so the ordering is deterministic.
// An empty result means no candidate cleared the floor.
func (m *Matcher) Match(raw string, hint roster.Chamber) []Candidate {
	key := Normalize(raw)
	if key == "" {
		return nil
	}

	if exact := m.roster.ByNormalizedName(key); len(exact) > 0 {
		out := make([]Candidate, 0, len(exact))
		for _, p := range exact {
			out = append(out, Candidate{Person: p, Score: 1.0})
		}
		sortCandidates(out)
		return out
	}

	out := m.scan(key, m.roster.Pool(hint))
	if len(out) == 0 && hint != roster.ChamberAny {
		out = m.scan(key, m.roster.All())
	}
	if len(out) > m.cfg.MaxCandidates {
		out = out[:m.cfg.MaxCandidates]
	}
	return out
}

// scan scores every variant of every person in the pool against key and
// keeps each person's best variant score, floor applied.
func (m *Matcher) scan(key string, pool []roster.Person) []Candidate {
	var out []Candidate
	for _, p := range pool {
		best := 0.0
		for _, name := range p.Names {
			if s := similarity(key, Normalize(name)); s > best {
				best = s
			}
		}
		if best >= m.cfg.Floor {
			out = append(out, Candidate{Person: p, Score: best})
		}
	}
	sortCandidates(out)
	return out
}

// similarity is the normalized Levenshtein ratio between two already
// normalized names: 1 - distance/maxlen, in [0, 1].
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	dist := matchr.Levenshtein(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

func sortCandidates(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Person.Active != b.Person.Active {
			return a.Person.Active
		}
		return a.Person.ID < b.Person.ID
	})
}
