// Package journal persists emission history and per-subscriber delivery
// outcomes in SQLite.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Mode distinguishes how an emission was dispatched.
type Mode string

const (
	ModeSync  Mode = "sync"
	ModeAsync Mode = "async"
)

// Outcome classifies one delivery.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Emission is one recorded emit call.
type Emission struct {
	ID          string
	Signal      string
	Mode        Mode
	Payload     json.RawMessage
	Subscribers int
	Failures    int
	CreatedAt   time.Time
}

// Delivery is one subscriber outcome within an emission.
type Delivery struct {
	EmissionID string
	Token      string
	Outcome    Outcome
	Error      *string
	CreatedAt  time.Time
}

type Journal struct {
	db *sql.DB
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// RecordEmission inserts the emission row and any delivery rows in one
// transaction.
func (j *Journal) RecordEmission(ctx context.Context, em Emission, deliveries []Delivery) error {
	if em.ID == "" {
		return fmt.Errorf("emission id is empty")
	}
	if em.Signal == "" {
		return fmt.Errorf("emission signal is empty")
	}
	if em.Mode != ModeSync && em.Mode != ModeAsync {
		return fmt.Errorf("invalid emission mode: %q", em.Mode)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := em.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var payload any
	if len(em.Payload) > 0 {
		payload = string(em.Payload)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO emission(id, signal, mode, payload, subscribers, failures, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, em.ID, em.Signal, string(em.Mode), payload, em.Subscribers, em.Failures, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert emission: %w", err)
	}

	for i, d := range deliveries {
		if err := insertDelivery(ctx, tx, em.ID, i, d); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RecordDelivery appends a single delivery row for an emission that was
// already recorded. Used for asynchronous deliveries, which complete after
// the emission row is written.
func (j *Journal) RecordDelivery(ctx context.Context, d Delivery) error {
	if d.EmissionID == "" {
		return fmt.Errorf("delivery emission id is empty")
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM delivery WHERE emission_id = ?;", d.EmissionID).Scan(&n); err != nil {
		return fmt.Errorf("count deliveries: %w", err)
	}
	if err := insertDelivery(ctx, tx, d.EmissionID, n, d); err != nil {
		return err
	}

	if d.Outcome == OutcomeFailed {
		if _, err := tx.ExecContext(ctx,
			"UPDATE emission SET failures = failures + 1 WHERE id = ?;", d.EmissionID); err != nil {
			return fmt.Errorf("bump emission failures: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertDelivery(ctx context.Context, tx *sql.Tx, emissionID string, seq int, d Delivery) error {
	if d.Token == "" {
		return fmt.Errorf("delivery token is empty")
	}
	if d.Outcome != OutcomeOK && d.Outcome != OutcomeFailed {
		return fmt.Errorf("invalid delivery outcome: %q", d.Outcome)
	}

	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	id := fmt.Sprintf("%s-%d", emissionID, seq)
	_, err := tx.ExecContext(ctx, `
INSERT INTO delivery(id, emission_id, token, outcome, error, created_at)
VALUES(?, ?, ?, ?, ?, ?);
`, id, emissionID, d.Token, string(d.Outcome), d.Error, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// Recent returns the newest emissions, newest-first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Emission, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
SELECT id, signal, mode, payload, subscribers, failures, created_at
FROM emission
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent emissions: %w", err)
	}
	defer rows.Close()

	var out []Emission
	for rows.Next() {
		var (
			em         Emission
			mode       string
			payload    sql.NullString
			createdAtS string
		)
		if err := rows.Scan(&em.ID, &em.Signal, &mode, &payload, &em.Subscribers, &em.Failures, &createdAtS); err != nil {
			return nil, fmt.Errorf("scan emission: %w", err)
		}
		em.Mode = Mode(mode)
		if payload.Valid {
			em.Payload = json.RawMessage(payload.String)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAtS); err == nil {
			em.CreatedAt = t
		}
		out = append(out, em)
	}
	return out, rows.Err()
}

// Deliveries returns the delivery rows for one emission, oldest-first.
func (j *Journal) Deliveries(ctx context.Context, emissionID string) ([]Delivery, error) {
	if emissionID == "" {
		return nil, fmt.Errorf("emission id is empty")
	}

	rows, err := j.db.QueryContext(ctx, `
SELECT emission_id, token, outcome, error, created_at
FROM delivery
WHERE emission_id = ?
ORDER BY rowid ASC;
`, emissionID)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var (
			d          Delivery
			outcome    string
			errText    sql.NullString
			createdAtS string
		)
		if err := rows.Scan(&d.EmissionID, &d.Token, &outcome, &errText, &createdAtS); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.Outcome = Outcome(outcome)
		if errText.Valid {
			d.Error = &errText.String
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAtS); err == nil {
			d.CreatedAt = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Depth returns the total number of recorded emissions.
func (j *Journal) Depth(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM emission;").Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count emissions: %w", err)
	}
	return n, nil
}

// Prune deletes emissions (and their deliveries) older than retention.
// Returns the number of emissions removed.
func (j *Journal) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM delivery
WHERE emission_id IN (SELECT id FROM emission WHERE created_at < ?);
`, cutoff); err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM emission WHERE created_at < ?;", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune emissions: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return n, nil
}
