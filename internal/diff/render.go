package diff

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// GroupURL returns the Parliament publications URL for a group page in a
// given register edition.
func GroupURL(indexDate, slug string) string {
	return fmt.Sprintf("https://publications.parliament.uk/pa/cm/cmallparty/%s/%s.htm", indexDate, slug)
}

// Save writes the report as JSON named after the current snapshot date.
func (r Report) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "diff: create %s", dir)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return eris.Wrap(err, "diff: marshal report")
	}
	path := filepath.Join(dir, r.CurrentDate+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "diff: write %s", path)
	}
	return nil
}

// Markdown renders the report as a human-readable change page: summary
// counts, then added and removed groups, then a section per changed group.
func (r Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# APPG Register Changes: %s → %s\n\n", r.PreviousDate, r.CurrentDate)
	fmt.Fprintf(&b, "- **Added APPGs**: %d\n", len(r.Added))
	fmt.Fprintf(&b, "- **Removed APPGs**: %d\n", len(r.Removed))
	fmt.Fprintf(&b, "- **Updated APPGs**: %d\n\n", len(r.Changed))

	if len(r.Added) > 0 {
		b.WriteString("## Added APPGs\n\n")
		for _, g := range r.Added {
			url := g.SourceURL
			if url == "" {
				url = GroupURL(r.CurrentDate, g.Slug)
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", g.ShortTitle, url)
		}
		b.WriteString("\n")
	}

	if len(r.Removed) > 0 {
		b.WriteString("## Removed APPGs\n\n")
		for _, g := range r.Removed {
			url := g.SourceURL
			if url == "" {
				url = GroupURL(r.PreviousDate, g.Slug)
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", g.ShortTitle, url)
		}
		b.WriteString("\n")
	}

	if len(r.Changed) > 0 {
		b.WriteString("## Updated APPGs\n\n")
		for _, gd := range r.Changed {
			fmt.Fprintf(&b, "### Changes to %s\n\n", gd.Title)

			if len(gd.Fields) > 0 {
				b.WriteString("| Field | Previous Value | Current Value |\n")
				b.WriteString("|-------|---------------|---------------|\n")
				for _, fc := range gd.Fields {
					key := strings.ReplaceAll(fc.Key, "__", " › ")
					fmt.Fprintf(&b, "| %s | %s | %s |\n",
						key, escapePipes(fc.OldValue), escapePipes(fc.NewValue))
				}
				b.WriteString("\n")
			}

			writeMemberChanges(&b, "Officer changes", gd.OfficerChanges)
			writeMemberChanges(&b, "Membership changes", gd.MemberChanges)

			if len(gd.BenefitChanges) > 0 {
				b.WriteString("Benefit changes:\n\n")
				for _, bc := range gd.BenefitChanges {
					verb := "Added"
					if bc.Kind == MemberRemoved {
						verb = "Removed"
					}
					fmt.Fprintf(&b, "- %s benefit: %s %s %s\n",
						verb, bc.Benefit.Source, bc.Benefit.Description, bc.Benefit.Value)
				}
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func writeMemberChanges(b *strings.Builder, heading string, changes []MemberChange) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n\n", heading)
	for _, mc := range changes {
		suffix := ""
		if mc.LowConfidence {
			suffix = " (unresolved name, low confidence)"
		}
		switch mc.Kind {
		case MemberAdded:
			if mc.NewRole != "" {
				fmt.Fprintf(b, "- %s joined as %s%s\n", mc.Name, mc.NewRole, suffix)
			} else {
				fmt.Fprintf(b, "- %s joined%s\n", mc.Name, suffix)
			}
		case MemberRemoved:
			fmt.Fprintf(b, "- %s left%s\n", mc.Name, suffix)
		case RoleChanged:
			fmt.Fprintf(b, "- %s changed role from %s to %s%s\n", mc.Name, mc.OldRole, mc.NewRole, suffix)
		case RemovedFlagged:
			fmt.Fprintf(b, "- %s marked as removed%s\n", mc.Name, suffix)
		case RemovedCleared:
			fmt.Fprintf(b, "- %s reinstated%s\n", mc.Name, suffix)
		}
	}
	b.WriteString("\n")
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
