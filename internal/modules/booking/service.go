// README: Booking service persists confirmed slot candidates and guards against double booking.
package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"slotwise/internal/modules/scheduling"
	"slotwise/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("booking not found")
	ErrConflict     = errors.New("booking state conflict")
	ErrOverlap      = errors.New("technician already booked in that window")
	ErrBadRequest   = errors.New("bad request")
)

// Repository is the persistence contract; *Store implements it.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	ListByOrg(ctx context.Context, orgID types.ID, from, to time.Time) ([]Booking, error)
	HasOverlap(ctx context.Context, technicianID types.ID, start, end time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

type Observer interface {
	ObserveBooking(action, result string)
}

type Service struct {
	repo     Repository
	policies scheduling.PolicySource
	observer Observer
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, policies scheduling.PolicySource, log zerolog.Logger, observer Observer) *Service {
	return &Service{repo: repo, policies: policies, observer: observer, log: log, now: time.Now}
}

type ConfirmCommand struct {
	OrgID        types.ID
	TechnicianID types.ID
	Target       types.Point
	Slot         scheduling.SlotCandidate
}

type CancelCommand struct {
	BookingID types.ID
	ActorType string
	ActorID   *types.ID
	Reason    string
}

// Confirm stores slot as a booking for the technician. The slot must sit
// inside the organization's work window and must not overlap another
// confirmed booking of the same technician.
func (s *Service) Confirm(ctx context.Context, cmd ConfirmCommand) (id types.ID, err error) {
	defer func() { s.observe("confirm", err) }()

	if !scheduling.IsValidOrgID(cmd.OrgID) || !scheduling.IsValidOrgID(cmd.TechnicianID) {
		return "", fmt.Errorf("%w: malformed org or technician id", ErrBadRequest)
	}
	if err := cmd.Target.Validate(); err != nil {
		return "", fmt.Errorf("%w: target %v", ErrBadRequest, err)
	}
	slot := cmd.Slot
	p := s.policies.PolicyFor(cmd.OrgID)
	if !p.WithinWorkWindow(slot.Start, slot.End) {
		return "", fmt.Errorf("%w: slot %s-%s outside business hours", ErrBadRequest,
			slot.Start.Format(time.RFC3339), slot.End.Format(time.RFC3339))
	}
	if slot.BufferMinutes < 0 || slot.BufferMinutes > p.MaxBufferMinutes {
		return "", fmt.Errorf("%w: buffer %d out of range", ErrBadRequest, slot.BufferMinutes)
	}
	if slot.Confidence < p.ConfidenceFloor || slot.Confidence > 1 {
		return "", fmt.Errorf("%w: confidence %v out of range", ErrBadRequest, slot.Confidence)
	}

	overlap, err := s.repo.HasOverlap(ctx, cmd.TechnicianID, slot.Start, slot.End)
	if err != nil {
		return "", err
	}
	if overlap {
		return "", ErrOverlap
	}

	now := s.now()
	b := &Booking{
		ID:            newID(),
		OrgID:         cmd.OrgID,
		TechnicianID:  cmd.TechnicianID,
		Status:        StatusConfirmed,
		StatusVersion: 0,
		Target:        cmd.Target,
		Start:         slot.Start,
		End:           slot.End,
		BufferMinutes: slot.BufferMinutes,
		Confidence:    slot.Confidence,
		Rationale:     slot.Rationale,
		CreatedAt:     now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return "", err
	}
	s.appendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusConfirmed,
		ActorType:  "org",
		ActorID:    &cmd.OrgID,
		CreatedAt:  now,
	})
	s.log.Info().
		Str("booking_id", string(b.ID)).
		Str("org_id", string(b.OrgID)).
		Str("technician_id", string(b.TechnicianID)).
		Time("start", b.Start).
		Msg("booking confirmed")
	return b.ID, nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (err error) {
	defer func() { s.observe("cancel", err) }()

	b, err := s.repo.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return ErrInvalidState
	}
	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	ok, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled, b.StatusVersion, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.appendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   StatusCancelled,
		ActorType:  cmd.ActorType,
		ActorID:    cmd.ActorID,
		CreatedAt:  s.now(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

// ListDay returns the organization's bookings starting on day (YYYY-MM-DD)
// in the policy time zone.
func (s *Service) ListDay(ctx context.Context, orgID types.ID, day string) ([]Booking, error) {
	if !scheduling.IsValidOrgID(orgID) {
		return nil, fmt.Errorf("%w: malformed org id", ErrBadRequest)
	}
	loc := s.policies.PolicyFor(orgID).Location
	from, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: day %q", ErrBadRequest, day)
	}
	to := time.Date(from.Year(), from.Month(), from.Day()+1, 0, 0, 0, 0, loc)
	return s.repo.ListByOrg(ctx, orgID, from, to)
}

// appendEvent records the audit trail; a failure does not undo the transition.
func (s *Service) appendEvent(ctx context.Context, e *Event) {
	if err := s.repo.AppendEvent(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("booking_id", string(e.BookingID)).Msg("append booking event")
	}
}

func (s *Service) observe(action string, err error) {
	if s.observer == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrOverlap):
		result = "overlap"
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState):
		result = "conflict"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrNotFound):
		result = "invalid"
	default:
		result = "error"
	}
	s.observer.ObserveBooking(action, result)
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
