// README: Location service records technicians' last job positions and serves them as travel origins.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotwise/internal/types"
)

var ErrBadRequest = errors.New("bad request")

// Redis GEO indexes only latitudes within this Web Mercator bound.
const maxGeoLatitude = 85.05112878

// DefaultMaxAge bounds how old a last-job position may be before it is ignored.
const DefaultMaxAge = 12 * time.Hour

type snapshotStore interface {
	SetLastJob(ctx context.Context, snap Snapshot) error
	GetLastJob(ctx context.Context, id types.ID) (Snapshot, bool, error)
	DeleteLastJob(ctx context.Context, id types.ID) error
}

type Service struct {
	store  snapshotStore
	maxAge time.Duration
	now    func() time.Time
}

func NewService(store snapshotStore, maxAge time.Duration) *Service {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Service{store: store, maxAge: maxAge, now: time.Now}
}

type Update struct {
	TechnicianID types.ID
	Position     types.Point
	// RecordedAt defaults to now when zero.
	RecordedAt time.Time
}

func (s *Service) RecordLastJob(ctx context.Context, u Update) error {
	if u.TechnicianID == "" {
		return fmt.Errorf("%w: missing technician id", ErrBadRequest)
	}
	if err := u.Position.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if u.Position.Lat > maxGeoLatitude || u.Position.Lat < -maxGeoLatitude {
		return fmt.Errorf("%w: latitude %v outside the storable range [-%v, %v]", ErrBadRequest, u.Position.Lat, maxGeoLatitude, maxGeoLatitude)
	}
	at := u.RecordedAt
	if at.IsZero() {
		at = s.now()
	}
	if at.After(s.now().Add(time.Minute)) {
		return fmt.Errorf("%w: recorded_at is in the future", ErrBadRequest)
	}
	return s.store.SetLastJob(ctx, Snapshot{TechnicianID: u.TechnicianID, Position: u.Position, RecordedAt: at})
}

// LastJob returns the technician's last job position when one is known and
// fresher than the configured max age.
func (s *Service) LastJob(ctx context.Context, id types.ID) (*types.Point, bool, error) {
	snap, ok, err := s.store.GetLastJob(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	if !snap.RecordedAt.IsZero() && s.now().Sub(snap.RecordedAt) > s.maxAge {
		return nil, false, nil
	}
	p := snap.Position
	return &p, true, nil
}

func (s *Service) Forget(ctx context.Context, id types.ID) error {
	return s.store.DeleteLastJob(ctx, id)
}
