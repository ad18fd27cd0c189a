package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arjun1665/SmartFleet/internal/fleet"
)

// candidateLimit bounds how many free slots the reservation manager walks
// before giving up on a snapshot.
const candidateLimit = 25

func (p *Postgres) ListAvailable(ctx context.Context, now time.Time, centerID string) ([]fleet.ServiceSlot, error) {
	query := `
		SELECT id, center_id, starts_at, ends_at, capacity, reserved, is_active
		FROM service_slots
		WHERE is_active AND starts_at >= $1 AND reserved < capacity`
	args := []any{now}
	if centerID != "" {
		query += ` AND center_id = $2`
		args = append(args, centerID)
	}
	query += ` ORDER BY starts_at ASC, id ASC LIMIT ` + fmt.Sprint(candidateLimit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	defer rows.Close()

	var slots []fleet.ServiceSlot
	for rows.Next() {
		var s fleet.ServiceSlot
		if err := rows.Scan(&s.ID, &s.CenterID, &s.StartsAt, &s.EndsAt, &s.Capacity, &s.Reserved, &s.Active); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// TryReserve performs the atomic compare-and-increment. The conditional
// UPDATE is the serialization point: the row lock taken by Postgres makes
// racing increments linearize, and the reserved < capacity predicate makes
// the loser's update match zero rows instead of overshooting.
func (p *Postgres) TryReserve(ctx context.Context, slotID uuid.UUID) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE service_slots
		SET reserved = reserved + 1
		WHERE id = $1 AND is_active AND reserved < capacity`, slotID)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve slot rows: %w", err)
	}
	return n == 1, nil
}

func (p *Postgres) InsertSlot(ctx context.Context, s *fleet.ServiceSlot) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO service_slots (id, center_id, starts_at, ends_at, capacity, reserved, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (center_id, starts_at, ends_at) DO NOTHING`,
		s.ID, s.CenterID, s.StartsAt, s.EndsAt, s.Capacity, s.Reserved, s.Active)
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (p *Postgres) GetSlot(ctx context.Context, id uuid.UUID) (*fleet.ServiceSlot, error) {
	var s fleet.ServiceSlot
	err := p.db.QueryRowContext(ctx, `
		SELECT id, center_id, starts_at, ends_at, capacity, reserved, is_active
		FROM service_slots WHERE id = $1`, id).
		Scan(&s.ID, &s.CenterID, &s.StartsAt, &s.EndsAt, &s.Capacity, &s.Reserved, &s.Active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return &s, nil
}

func (p *Postgres) InsertBooking(ctx context.Context, b *fleet.Booking) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bookings (id, customer_id, alert_id, slot_id, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`,
		b.ID, b.CustomerID, b.AlertID, b.SlotID, b.Status, b.Notes, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (p *Postgres) GetBooking(ctx context.Context, id uuid.UUID) (*fleet.Booking, error) {
	var b fleet.Booking
	var notes sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT id, customer_id, alert_id, slot_id, status, notes, created_at
		FROM bookings WHERE id = $1`, id).
		Scan(&b.ID, &b.CustomerID, &b.AlertID, &b.SlotID, &b.Status, &notes, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	b.Notes = notes.String
	return &b, nil
}
