package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/arjun1665/SmartFleet/internal/fleet"
)

func (p *Postgres) InsertTelemetry(ctx context.Context, ev *fleet.TelemetryEvent) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("marshal telemetry payload: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO telemetry_events (id, customer_id, vehicle_id, ts, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.CustomerID, ev.VehicleID, ev.Timestamp, payload, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}

func (p *Postgres) InsertFeatures(ctx context.Context, row *fleet.FeatureRow) error {
	features, err := json.Marshal(row.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO features (id, telemetry_event_id, version, features, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		row.ID, row.TelemetryEventID, row.Version, features, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feature row: %w", err)
	}
	return nil
}

func (p *Postgres) InsertAlert(ctx context.Context, alert *fleet.RiskAlert) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO alerts (id, telemetry_event_id, risk_score, risk_level, predicted_component, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		alert.ID, alert.TelemetryEventID, alert.RiskScore, alert.RiskLevel, alert.PredictedComponent, alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (p *Postgres) GetCustomer(ctx context.Context, id uuid.UUID) (*fleet.Customer, error) {
	var c fleet.Customer
	var email, phone sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &email, &phone)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	c.Email = email.String
	c.Phone = phone.String
	return &c, nil
}

func (p *Postgres) GetPreferences(ctx context.Context, customerID uuid.UUID) (*fleet.CustomerPreference, error) {
	var pref fleet.CustomerPreference
	err := p.db.QueryRowContext(ctx, `
		SELECT id, customer_id, language, channel, time_window
		FROM customer_preferences WHERE customer_id = $1`, customerID).
		Scan(&pref.ID, &pref.CustomerID, &pref.Language, &pref.Channel, &pref.TimeWindow)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &pref, nil
}

func (p *Postgres) InsertCustomer(ctx context.Context, c *fleet.Customer) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, phone)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (id) DO NOTHING`,
		c.ID, c.Name, c.Email, c.Phone)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (p *Postgres) InsertPreferences(ctx context.Context, pref *fleet.CustomerPreference) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO customer_preferences (id, customer_id, language, channel, time_window)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id) DO NOTHING`,
		pref.ID, pref.CustomerID, pref.Language, pref.Channel, pref.TimeWindow)
	if err != nil {
		return fmt.Errorf("insert preferences: %w", err)
	}
	return nil
}

func (p *Postgres) InsertDecision(ctx context.Context, d *fleet.SecurityDecision) error {
	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO security_audit (id, customer_id, request_id, action, allowed, reason, audit_metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		d.ID, d.CustomerID, d.RequestID, d.Action, d.Allowed, d.Reason, meta, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert security decision: %w", err)
	}
	return nil
}

func (p *Postgres) InsertRCACase(ctx context.Context, c *fleet.RCACase) error {
	similar, err := json.Marshal(c.SimilarCases)
	if err != nil {
		return fmt.Errorf("marshal similar cases: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO rca_cases (id, alert_id, summary, similar_cases, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.AlertID, c.Summary, similar, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rca case: %w", err)
	}
	return nil
}

func (p *Postgres) InsertFeedback(ctx context.Context, f *fleet.Feedback) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO feedback (id, booking_id, csat, technician_notes, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
		f.ID, f.BookingID, f.CSAT, f.TechnicianNotes, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}
