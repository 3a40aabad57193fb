package resolve

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mysociety/appgtrack/internal/model"
	"github.com/mysociety/appgtrack/internal/roster"
)

// ErrConflictingIdentity marks a member whose declared chamber/type
// contradicts the roster entry of the person it resolved to.
var ErrConflictingIdentity = eris.New("resolve: conflicting identity")

// Outcome is the terminal state of a decision.
type Outcome string

const (
	// OutcomeMatched means the name resolved to a roster person.
	OutcomeMatched Outcome = "matched"
	// OutcomeManual means a person identifier was supplied by hand.
	OutcomeManual Outcome = "manual"
	// OutcomeUnmatched means the name was explicitly marked as having no
	// roster person. Cached like any other decision so it is never re-asked.
	OutcomeUnmatched Outcome = "unmatched"
)

// Decision is one persisted adjudication of a raw name. Key is the
// normalized form of Raw and is the cache key: identical raw names across
// runs hit the same decision.
type Decision struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Raw       string    `json:"raw"`
	Outcome   Outcome   `json:"outcome"`
	PersonID  string    `json:"person_id,omitempty"`
	TWFYID    string    `json:"twfy_id,omitempty"`
	Score     float64   `json:"score,omitempty"`
	DecidedBy string    `json:"decided_by"`
	DecidedAt time.Time `json:"decided_at"`
}

// Status says how a Resolve call arrived at its result.
type Status string

const (
	// StatusCached means the persisted decision cache already had the name.
	StatusCached Status = "cached"
	// StatusAuto means exactly one candidate cleared the auto-accept threshold.
	StatusAuto Status = "auto"
	// StatusDecided means the decision provider adjudicated the name.
	StatusDecided Status = "decided"
	// StatusPending means the name is still awaiting adjudication.
	StatusPending Status = "pending"
)

// Resolution is the per-name result of a Resolve call. Pending resolutions
// carry the ranked candidates so a caller can adjudicate later; committed
// ones carry the cached Decision.
type Resolution struct {
	Raw        string
	Key        string
	Status     Status
	Decision   Decision
	Candidates []Candidate
}

// ChoiceKind enumerates what a decision provider can do with a name.
type ChoiceKind int

const (
	// ChoiceSkip leaves the name pending.
	ChoiceSkip ChoiceKind = iota
	// ChoiceAccept accepts the candidate with the given person identifier.
	ChoiceAccept
	// ChoiceManual supplies a person identifier not in the candidate list.
	ChoiceManual
	// ChoiceUnmatched records that the name has no roster person.
	ChoiceUnmatched
)

// Choice is a decision provider's answer for one pending name.
type Choice struct {
	Kind     ChoiceKind
	PersonID string
}

// DecisionProvider adjudicates names the matcher could not settle. The
// session calls it synchronously; implementations may be an interactive
// prompt, a scripted batch policy, or a test double.
type DecisionProvider interface {
	Decide(raw string, candidates []Candidate) (Choice, error)
}

// SkipAll is the provider used for unattended runs: every uncertain name is
// left pending for later review.
type SkipAll struct{}

// Decide leaves every name pending.
func (SkipAll) Decide(string, []Candidate) (Choice, error) {
	return Choice{Kind: ChoiceSkip}, nil
}

// DecisionStore persists decisions across runs. Writes must be durable
// before SaveDecision returns, so an aborted session keeps every decision
// made up to that point.
type DecisionStore interface {
	Decision(ctx context.Context, key string) (Decision, bool, error)
	SaveDecision(ctx context.Context, d Decision) error
}

// Session is one reconciliation run over a batch of raw names. It wraps the
// matcher with the persisted decision cache and an in-session dedupe table,
// so a raw name is matched at most once per session and adjudicated at most
// once ever.
type Session struct {
	matcher  *Matcher
	store    DecisionStore
	provider DecisionProvider
	cfg      MatcherConfig
	seen     map[string]Resolution
	order    []string
	blank    []string
}

// NewSession creates a session. A nil provider behaves like SkipAll.
func NewSession(m *Matcher, store DecisionStore, provider DecisionProvider) *Session {
	if provider == nil {
		provider = SkipAll{}
	}
	return &Session{
		matcher:  m,
		store:    store,
		provider: provider,
		cfg:      m.cfg,
		seen:     make(map[string]Resolution),
	}
}

// Resolve adjudicates one raw name. Order of precedence: in-session result,
// persisted decision cache, a lone candidate above the auto-accept threshold,
// then the decision provider. Committed decisions are saved to the store
// before Resolve returns. Ambiguity and below-floor misses are results
// (pending), never errors; only store and provider failures propagate.
func (s *Session) Resolve(ctx context.Context, raw string, hint roster.Chamber) (Resolution, error) {
	key := Normalize(raw)
	if key == "" {
		// Nothing to match or cache, but the name still counts as pending.
		s.blank = append(s.blank, raw)
		return Resolution{Raw: raw, Status: StatusPending}, nil
	}
	if res, ok := s.seen[key]; ok {
		return res, nil
	}

	if d, ok, err := s.store.Decision(ctx, key); err != nil {
		return Resolution{}, eris.Wrapf(err, "resolve: decision lookup %q", key)
	} else if ok {
		res := Resolution{Raw: raw, Key: key, Status: StatusCached, Decision: d}
		s.remember(res)
		return res, nil
	}

	cands := s.matcher.Match(raw, hint)

	// Auto-accept when exactly one candidate clears the high-confidence
	// threshold. Weaker candidates above the floor do not block it; two or
	// more above the threshold is ambiguous and stays pending.
	confident := 0
	for _, c := range cands {
		if c.Score >= s.cfg.AutoAccept {
			confident++
		}
	}
	if confident == 1 {
		d, err := s.commit(ctx, raw, key, cands[0].Person, cands[0].Score, "auto", OutcomeMatched)
		if err != nil {
			return Resolution{}, err
		}
		res := Resolution{Raw: raw, Key: key, Status: StatusAuto, Decision: d}
		s.remember(res)
		return res, nil
	}

	choice, err := s.provider.Decide(raw, cands)
	if err != nil {
		return Resolution{}, eris.Wrapf(err, "resolve: provider %q", raw)
	}

	switch choice.Kind {
	case ChoiceAccept:
		picked, ok := s.candidate(cands, choice.PersonID)
		if !ok {
			return Resolution{}, eris.Errorf("resolve: accepted %q is not a candidate for %q", choice.PersonID, raw)
		}
		d, err := s.commit(ctx, raw, key, picked.Person, picked.Score, "provider", OutcomeMatched)
		if err != nil {
			return Resolution{}, err
		}
		res := Resolution{Raw: raw, Key: key, Status: StatusDecided, Decision: d}
		s.remember(res)
		return res, nil

	case ChoiceManual:
		p, ok := s.matcher.roster.ByID(choice.PersonID)
		if !ok {
			return Resolution{}, eris.Errorf("resolve: manual identifier %q not in roster", choice.PersonID)
		}
		d, err := s.commit(ctx, raw, key, p, 0, "manual", OutcomeManual)
		if err != nil {
			return Resolution{}, err
		}
		res := Resolution{Raw: raw, Key: key, Status: StatusDecided, Decision: d}
		s.remember(res)
		return res, nil

	case ChoiceUnmatched:
		d := Decision{
			ID:        uuid.New().String(),
			Key:       key,
			Raw:       raw,
			Outcome:   OutcomeUnmatched,
			DecidedBy: "provider",
			DecidedAt: time.Now().UTC(),
		}
		if err := s.store.SaveDecision(ctx, d); err != nil {
			return Resolution{}, eris.Wrapf(err, "resolve: save decision %q", key)
		}
		res := Resolution{Raw: raw, Key: key, Status: StatusDecided, Decision: d}
		s.remember(res)
		return res, nil

	default:
		res := Resolution{Raw: raw, Key: key, Status: StatusPending, Candidates: cands}
		s.remember(res)
		return res, nil
	}
}

// Annotate applies a resolution to a member record: identifiers are copied
// in for matched decisions, and the declared member type is checked against
// the roster chamber. A contradiction leaves the record as scraped and
// returns ErrConflictingIdentity; it is recorded, never overwritten.
func (s *Session) Annotate(member *model.Member, res Resolution) error {
	if res.Status == StatusPending {
		return nil
	}
	d := res.Decision
	if d.Outcome == OutcomeUnmatched {
		return nil
	}
	p, ok := s.matcher.roster.ByID(d.PersonID)
	if !ok {
		return eris.Errorf("resolve: decision %s references unknown person %s", d.ID, d.PersonID)
	}
	if conflict := identityConflict(member.Type, p.Chamber); conflict {
		zap.L().Warn("identity conflict",
			zap.String("name", member.Name),
			zap.String("declared_type", string(member.Type)),
			zap.String("person", p.ID),
			zap.String("chamber", string(p.Chamber)))
		return eris.Wrapf(ErrConflictingIdentity, "%q declared %s but %s sits in %s",
			member.Name, member.Type, p.ID, p.Chamber)
	}
	member.MNISID = p.ID
	member.TWFYID = p.TWFYID
	return nil
}

// identityConflict reports whether a declared member type contradicts a
// roster chamber. The "other" type never conflicts.
func identityConflict(declared model.MemberType, chamber roster.Chamber) bool {
	switch declared {
	case model.MemberTypeMP:
		return chamber == roster.ChamberLords
	case model.MemberTypeLord:
		return chamber == roster.ChamberCommons
	}
	return false
}

// Summary reports the state of the batch so far. Pending names are listed
// in sorted order and are never silently discarded.
type Summary struct {
	Total        int
	Cached       int
	Auto         int
	Decided      int
	Pending      int
	Unmatched    int
	PendingNames []string
}

// Summary returns counts for every name resolved in this session.
func (s *Session) Summary() Summary {
	var out Summary
	for _, key := range s.order {
		res := s.seen[key]
		out.Total++
		switch res.Status {
		case StatusCached:
			out.Cached++
		case StatusAuto:
			out.Auto++
		case StatusDecided:
			out.Decided++
		case StatusPending:
			out.Pending++
			out.PendingNames = append(out.PendingNames, res.Raw)
		}
		if res.Status != StatusPending && res.Decision.Outcome == OutcomeUnmatched {
			out.Unmatched++
		}
	}
	for _, raw := range s.blank {
		out.Total++
		out.Pending++
		out.PendingNames = append(out.PendingNames, raw)
	}
	sort.Strings(out.PendingNames)
	return out
}

func (s *Session) remember(res Resolution) {
	if _, ok := s.seen[res.Key]; !ok {
		s.order = append(s.order, res.Key)
	}
	s.seen[res.Key] = res
}

func (s *Session) candidate(cands []Candidate, personID string) (Candidate, bool) {
	for _, c := range cands {
		if c.Person.ID == personID {
			return c, true
		}
	}
	return Candidate{}, false
}

func (s *Session) commit(ctx context.Context, raw, key string, p roster.Person, score float64, by string, outcome Outcome) (Decision, error) {
	d := Decision{
		ID:        uuid.New().String(),
		Key:       key,
		Raw:       raw,
		Outcome:   outcome,
		PersonID:  p.ID,
		TWFYID:    p.TWFYID,
		Score:     score,
		DecidedBy: by,
		DecidedAt: time.Now().UTC(),
	}
	if err := s.store.SaveDecision(ctx, d); err != nil {
		return Decision{}, eris.Wrapf(err, "resolve: save decision %q", key)
	}
	return d, nil
}
