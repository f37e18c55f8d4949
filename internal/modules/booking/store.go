// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"slotwise/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// exclusion_violation, raised by the per-technician overlap constraint.
const pgExclusionViolation = "23P01"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the bookings tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, org_id, technician_id, status, status_version,
			target_lat, target_lng, start_at, end_at,
			buffer_minutes, confidence, rationale, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13
		)`,
		string(b.ID),
		string(b.OrgID),
		string(b.TechnicianID),
		string(b.Status),
		b.StatusVersion,
		b.Target.Lat, b.Target.Lng,
		b.Start, b.End,
		b.BufferMinutes,
		b.Confidence,
		b.Rationale,
		b.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return ErrOverlap
	}
	return err
}

const selectBooking = `
	SELECT id, org_id, technician_id, status, status_version,
	       target_lat, target_lng, start_at, end_at,
	       buffer_minutes, confidence, rationale,
	       created_at, cancelled_at, cancellation_reason
	FROM bookings`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var cancelledAt sql.NullTime
	var cancelReason sql.NullString

	err := row.Scan(
		&b.ID, &b.OrgID, &b.TechnicianID, &b.Status, &b.StatusVersion,
		&b.Target.Lat, &b.Target.Lng, &b.Start, &b.End,
		&b.BufferMinutes, &b.Confidence, &b.Rationale,
		&b.CreatedAt, &cancelledAt, &cancelReason,
	)
	if err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	if cancelReason.Valid {
		b.CancelReason = &cancelReason.String
	}
	return &b, nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	b, err := scanBooking(s.db.QueryRow(ctx, selectBooking+` WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ListByOrg returns the bookings of orgID starting in [from, to), earliest first.
func (s *Store) ListByOrg(ctx context.Context, orgID types.ID, from, to time.Time) ([]Booking, error) {
	rows, err := s.db.Query(ctx, selectBooking+`
		WHERE org_id = $1 AND start_at >= $2 AND start_at < $3
		ORDER BY start_at, id`, string(orgID), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// HasOverlap reports whether technicianID already holds a confirmed booking
// intersecting [start, end).
func (s *Store) HasOverlap(ctx context.Context, technicianID types.ID, start, end time.Time) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE technician_id = $1
			  AND status = 'confirmed'
			  AND start_at < $3
			  AND end_at > $2
		)`, string(technicianID), start, end,
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    cancellation_reason = COALESCE($2, cancellation_reason)
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_state_events (
			booking_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.BookingID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
