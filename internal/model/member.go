package model

// MemberType tags which chamber (or neither) a scraped member claims to sit in.
// It is informational only: identity resolution trusts the roster, not this tag.
type MemberType string

const (
	MemberTypeMP    MemberType = "mp"
	MemberTypeLord  MemberType = "lord"
	MemberTypeOther MemberType = "other"
)

// Valid reports whether t is a known member type.
func (t MemberType) Valid() bool {
	switch t {
	case MemberTypeMP, MemberTypeLord, MemberTypeOther:
		return true
	}
	return false
}

// SourceMethod records how a membership list was obtained.
type SourceMethod string

const (
	SourceOfficial SourceMethod = "official"
	SourceManual   SourceMethod = "manual"
	SourceAISearch SourceMethod = "ai_search"
	SourceEmpty    SourceMethod = "empty"
)

// Valid reports whether m is a known source method.
func (m SourceMethod) Valid() bool {
	switch m {
	case SourceOfficial, SourceManual, SourceAISearch, SourceEmpty:
		return true
	}
	return false
}

// Member is one scraped membership record. Name is kept exactly as scraped;
// MNISID/TWFYID are filled in by reconciliation and stay empty until a person
// is resolved. Removed marks a member excluded after the fact (deny-listed or
// dropped from a later source) without erasing the historical record.
type Member struct {
	Name      string     `json:"name"`
	IsOfficer bool       `json:"is_officer"`
	Role      string     `json:"role,omitempty"`
	Party     string     `json:"party,omitempty"`
	Type      MemberType `json:"member_type"`
	MNISID    string     `json:"mnis_id,omitempty"`
	TWFYID    string     `json:"twfy_id,omitempty"`
	Removed   bool       `json:"removed"`
}

// Resolved reports whether the member has been matched to a roster person.
func (m Member) Resolved() bool {
	return m.MNISID != "" || m.TWFYID != ""
}

// IdentityKey returns the key used to compare this member across snapshots:
// the resolved primary identifier when present, otherwise the raw name. The
// second return is false when only the raw name is available, meaning any
// comparison made on it is low confidence.
func (m Member) IdentityKey() (string, bool) {
	if m.MNISID != "" {
		return m.MNISID, true
	}
	if m.TWFYID != "" {
		return m.TWFYID, true
	}
	return m.Name, false
}

// MemberList is a group's scraped membership with its provenance.
type MemberList struct {
	SourceMethod SourceMethod `json:"source_method"`
	SourceURL    string       `json:"source_url,omitempty"`
	LastUpdated  string       `json:"last_updated,omitempty"`
	Members      []Member     `json:"members"`
}
