// Package resolve reconciles raw scraped member names against the canonical
// roster: a pure normalizer, a similarity matcher, and a stateful session
// that caches decisions so a name is never adjudicated twice.
package resolve

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mysociety/appgtrack/internal/roster"
)

// Honorific prefixes stripped from names before comparison. Punctuation has
// already been collapsed to spaces at this point, so dotted forms like
// "Rt. Hon." arrive undotted. Longest first so compound titles win over
// their components.
var honorificPrefixes = []string{
	"the rt hon ",
	"rt hon ",
	"baroness ",
	"the lord ",
	"lord bishop ",
	"dame ",
	"lord ",
	"lady ",
	"baron ",
	"sir ",
	"dr ",
	"mrs ",
	"mr ",
	"ms ",
	"mp ",
}

// Postnominal suffixes stripped from names before comparison.
var postnominalSuffixes = []string{
	" mp / as",
	" cbe",
	" kcb",
	" obe",
	" qc",
	" kc",
	" mp",
}

var (
	punctRe = regexp.MustCompile(`[.,'’\x60"()-]+`)
	spaceRe = regexp.MustCompile(`\s+`)

	stripMarks = transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
)

// Normalize turns a raw scraped name into its canonical comparison form:
// lowercase, diacritics stripped, honorifics and postnominals removed,
// punctuation treated as spacing, whitespace collapsed. It is total and
// idempotent; an empty or all-title input normalizes to "".
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ReplaceAll(s, "ß", "ss")

	s = punctRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	// Repeat until stable: "the rt hon sir" stacks several prefixes.
	for changed := true; changed; {
		changed = false
		for _, prefix := range honorificPrefixes {
			if rest, ok := strings.CutPrefix(s, prefix); ok {
				s = strings.TrimSpace(rest)
				changed = true
			}
		}
		for _, suffix := range postnominalSuffixes {
			if rest, ok := strings.CutSuffix(s, suffix); ok {
				s = strings.TrimSpace(rest)
				changed = true
			}
		}
	}

	return s
}

// Peerage title words that indicate a Lords member. Checked as whole words
// against the lowered raw name, before honorific stripping.
var lordWords = []string{"lord", "baroness", "lady", "baron", "earl", "viscount", "countess"}

// ChamberHint infers a chamber from the honorifics present in a raw name.
// Peerage titles give a Lords hint; everything else gives no restriction,
// since "Dr" or "Sir" appear in both chambers.
func ChamberHint(raw string) roster.Chamber {
	lowered := strings.ToLower(raw)
	for _, field := range strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		for _, word := range lordWords {
			if field == word {
				return roster.ChamberLords
			}
		}
	}
	return roster.ChamberAny
}
