package model

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// WebsiteStatus records where a group's website URL came from.
type WebsiteStatus string

const (
	WebsiteRegister   WebsiteStatus = "register"
	WebsiteNoRegister WebsiteStatus = "no_register"
	WebsiteSearch     WebsiteStatus = "search"
	WebsiteNoSearch   WebsiteStatus = "no_search"
	WebsiteBadSearch  WebsiteStatus = "bad_search"
	WebsiteManual     WebsiteStatus = "manual"
)

// WebsiteSource is a group website URL plus how it was discovered.
type WebsiteSource struct {
	Status WebsiteStatus `json:"status"`
	URL    string        `json:"url,omitempty"`
}

// ContactDetails holds the contact and secretariat metadata from the register.
type ContactDetails struct {
	RegisteredContactName    string        `json:"registered_contact_name,omitempty"`
	RegisteredContactAddress string        `json:"registered_contact_address,omitempty"`
	RegisteredContactEmail   string        `json:"registered_contact_email,omitempty"`
	PublicEnquiryPointName   string        `json:"public_enquiry_point_name,omitempty"`
	PublicEnquiryPointEmail  string        `json:"public_enquiry_point_email,omitempty"`
	Secretariat              string        `json:"secretariat,omitempty"`
	Website                  WebsiteSource `json:"website"`
}

// AGMDetails holds the annual general meeting and reporting metadata.
type AGMDetails struct {
	DateOfMostRecentAGM        string `json:"date_of_most_recent_agm,omitempty"`
	PublishedIncomeExpenditure bool   `json:"published_income_expenditure_statement"`
	ReportingYear              string `json:"reporting_year,omitempty"`
	NextReportingDeadline      string `json:"next_reporting_deadline,omitempty"`
}

// BenefitItem is one registrable-benefit line item.
type BenefitItem struct {
	Source      string `json:"source,omitempty"`
	Description string `json:"description,omitempty"`
	Value       string `json:"value,omitempty"`
}

// Group is one APPG as recorded in a single register snapshot. Slug is the
// stable join key across snapshots and never changes once assigned. Officers
// are a marked subset of the membership: every officer also appears in
// MembersList with IsOfficer set.
type Group struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Purpose  string   `json:"purpose,omitempty"`
	Category Category `json:"category,omitempty"`

	Officers       []Member       `json:"officers"`
	MembersList    MemberList     `json:"members_list"`
	ContactDetails ContactDetails `json:"contact_details"`
	AGM            *AGMDetails    `json:"agm,omitempty"`

	RegistrableBenefits string        `json:"registrable_benefits,omitempty"`
	DetailedBenefits    []BenefitItem `json:"detailed_benefits,omitempty"`

	Categories []Category `json:"categories,omitempty"`

	IndexDate string `json:"index_date,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
}

var (
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)
	slugValidRe   = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	titlePrefixes = []string{
		"All-Party Parliamentary Group for ",
		"All-Party Parliamentary Group on ",
	}
	titleSuffix = " All-Party Parliamentary Group"
)

// Slugify derives a slug from a group title: lowercase with any run of
// non-alphanumeric characters collapsed to a single hyphen.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugInvalidRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ShortTitle strips the boilerplate "All-Party Parliamentary Group" phrasing
// for prose rendering, falling back to the slug when the title is empty.
func (g Group) ShortTitle() string {
	if g.Title == "" {
		return g.Slug
	}
	s := g.Title
	for _, prefix := range titlePrefixes {
		s = strings.Replace(s, prefix, "", 1)
	}
	s = strings.Replace(s, titleSuffix, "", 1)
	if s == "" {
		return g.Slug
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Validate checks the invariants scraped input must satisfy before a group
// is accepted into a snapshot. It repairs the one invariant that scraped
// sources routinely violate, officers missing from the membership list, by
// appending them, and rejects everything else.
func (g *Group) Validate() error {
	if g.Slug == "" {
		return eris.New("group: missing slug")
	}
	if !slugValidRe.MatchString(g.Slug) {
		return eris.Errorf("group %s: slug is not lowercase-hyphenated", g.Slug)
	}
	if g.Title == "" {
		return eris.Errorf("group %s: missing title", g.Slug)
	}
	if g.Category != "" && !g.Category.Valid() {
		return eris.Errorf("group %s: unknown category %q", g.Slug, g.Category)
	}
	for _, c := range g.Categories {
		if !c.Valid() {
			return eris.Errorf("group %s: unknown category %q", g.Slug, c)
		}
	}
	if g.MembersList.SourceMethod == "" {
		g.MembersList.SourceMethod = SourceEmpty
	}
	if !g.MembersList.SourceMethod.Valid() {
		return eris.Errorf("group %s: unknown source method %q", g.Slug, g.MembersList.SourceMethod)
	}
	for i, m := range g.Officers {
		if m.Name == "" {
			return eris.Errorf("group %s: officer %d has no name", g.Slug, i)
		}
		g.Officers[i].IsOfficer = true
		if m.Type == "" {
			g.Officers[i].Type = MemberTypeOther
		} else if !m.Type.Valid() {
			return eris.Errorf("group %s: officer %q has unknown member type %q", g.Slug, m.Name, m.Type)
		}
	}
	for i, m := range g.MembersList.Members {
		if m.Name == "" {
			return eris.Errorf("group %s: member %d has no name", g.Slug, i)
		}
		if m.Type == "" {
			g.MembersList.Members[i].Type = MemberTypeOther
		} else if !m.Type.Valid() {
			return eris.Errorf("group %s: member %q has unknown member type %q", g.Slug, m.Name, m.Type)
		}
	}
	g.ensureOfficersInMembers()
	return nil
}

// ensureOfficersInMembers appends any officer absent from the membership
// list, comparing by identity key. Officers are a marked subset of members.
func (g *Group) ensureOfficersInMembers() {
	present := make(map[string]bool, len(g.MembersList.Members))
	for i, m := range g.MembersList.Members {
		key, _ := m.IdentityKey()
		present[key] = true
		if m.IsOfficer {
			continue
		}
		for _, o := range g.Officers {
			okey, _ := o.IdentityKey()
			if okey == key {
				g.MembersList.Members[i].IsOfficer = true
				break
			}
		}
	}
	for _, o := range g.Officers {
		key, _ := o.IdentityKey()
		if !present[key] {
			g.MembersList.Members = append(g.MembersList.Members, o)
			present[key] = true
		}
	}
}

// Clone returns a deep copy of the group. Snapshots hold independent copies
// of every group so transformations never alias records across snapshots.
func (g Group) Clone() Group {
	out := g
	out.Officers = append([]Member(nil), g.Officers...)
	out.MembersList.Members = append([]Member(nil), g.MembersList.Members...)
	out.DetailedBenefits = append([]BenefitItem(nil), g.DetailedBenefits...)
	out.Categories = append([]Category(nil), g.Categories...)
	if g.AGM != nil {
		agm := *g.AGM
		out.AGM = &agm
	}
	return out
}

// BlankMembership resets the membership list to an explicit empty state,
// keeping the group itself. Used when a scraped list turns out to be wrong.
func (g *Group) BlankMembership() int {
	n := len(g.MembersList.Members)
	g.MembersList = MemberList{SourceMethod: SourceEmpty}
	return n
}
