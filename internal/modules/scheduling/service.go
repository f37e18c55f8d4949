// README: Scheduling service; the single entry point that turns a request into ordered slot candidates.
package scheduling

import (
	"fmt"

	"github.com/rs/zerolog"

	"slotwise/internal/types"
)

// PolicySource resolves the tunables to use for an organization.
type PolicySource interface {
	PolicyFor(orgID types.ID) Policy
}

// Observer receives one callback per successful suggestion.
type Observer interface {
	ObserveSuggestion(risk RiskTier, source OriginSource, bufferMinutes, candidates int)
}

// StaticPolicies serves a default policy with optional per-organization overrides.
type StaticPolicies struct {
	def  Policy
	orgs map[types.ID]Policy
}

func NewStaticPolicies(def Policy, orgs map[types.ID]Policy) (*StaticPolicies, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("default policy: %w", err)
	}
	sp := &StaticPolicies{def: def.clone(), orgs: make(map[types.ID]Policy, len(orgs))}
	for id, p := range orgs {
		if !IsValidOrgID(id) {
			return nil, fmt.Errorf("policy override for malformed org id %q", id)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("policy for org %s: %w", id, err)
		}
		sp.orgs[id] = p.clone()
	}
	return sp, nil
}

func (s *StaticPolicies) PolicyFor(orgID types.ID) Policy {
	if p, ok := s.orgs[orgID]; ok {
		return p
	}
	return s.def
}

type Service struct {
	policies PolicySource
	observer Observer
	log      zerolog.Logger
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithPolicySource replaces the default single-policy source.
func WithPolicySource(src PolicySource) Option {
	return func(s *Service) { s.policies = src }
}

func NewService(policy Policy, opts ...Option) (*Service, error) {
	def, err := NewStaticPolicies(policy, nil)
	if err != nil {
		return nil, err
	}
	s := &Service{policies: def, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SuggestSlots validates req and returns the feasible candidates in
// chronological order. An empty result means no slot fits on that day; the
// only error returned is a *ValidationError.
func (s *Service) SuggestSlots(req Request) ([]SlotCandidate, error) {
	if err := validateOrgID(req.OrgID); err != nil {
		return nil, err
	}
	p := s.policies.PolicyFor(req.OrgID)
	v, err := validateRequest(req, p.Location)
	if err != nil {
		return nil, err
	}

	origin := resolveOrigin(req)
	distance := p.EstimateDistanceKm(origin.Point, req.Target)
	travel := p.TravelMinutes(distance)
	buffer := p.BufferMinutes(travel, v.risk)

	workStart, workEnd := p.workWindow(v.day)
	slots := p.generateCandidates(workStart, workEnd, req.DurationMinutes, buffer)
	confidence := p.Confidence(origin.Source, distance)

	out := make([]SlotCandidate, 0, len(slots))
	for _, sl := range slots {
		out = append(out, SlotCandidate{
			Start:         sl.start,
			End:           sl.end,
			BufferMinutes: buffer,
			Confidence:    confidence,
			Rationale: fmt.Sprintf("distance=%.2fkm travel=%dm buffer=%dm origin=%s risk=%s slot=%d/%d",
				distance, travel, buffer, origin.Source, v.risk, sl.index+1, len(p.StartOffsets)),
		})
	}

	s.log.Debug().
		Str("org_id", string(req.OrgID)).
		Str("day", req.Day).
		Str("origin", string(origin.Source)).
		Str("risk", string(v.risk)).
		Float64("distance_km", distance).
		Int("buffer_minutes", buffer).
		Int("candidates", len(out)).
		Msg("slots suggested")
	if s.observer != nil {
		s.observer.ObserveSuggestion(v.risk, origin.Source, buffer, len(out))
	}
	return out, nil
}
