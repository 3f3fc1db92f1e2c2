// Package reports stores, writes and renders finished pipeline reports.
package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/commodities/internal/database"
	"github.com/aristath/commodities/internal/pipeline"
)

// ErrNotFound is returned when no archived report has the requested id
var ErrNotFound = errors.New("report not found")

// Summary is an archive listing entry
type Summary struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive keeps every finished report in the reports table
type Archive struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewArchive creates an archive on a migrated database
func NewArchive(db *database.DB, log zerolog.Logger) *Archive {
	return &Archive{
		db:  db.Conn(),
		log: log.With().Str("component", "archive").Logger(),
	}
}

// Save stores the envelope under its run id. Saving the same id twice replaces the payload.
func (a *Archive) Save(ctx context.Context, env pipeline.Envelope) error {
	if env.ID == "" {
		return fmt.Errorf("cannot archive report without id")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", env.ID, err)
	}

	err = database.WithTransaction(ctx, a.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reports (id, mode, created_at, payload)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET mode = excluded.mode, created_at = excluded.created_at, payload = excluded.payload
		`, env.ID, env.Mode, env.CreatedAt.Unix(), string(payload))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to archive report %s: %w", env.ID, err)
	}

	a.log.Debug().Str("id", env.ID).Str("mode", env.Mode).Int("bytes", len(payload)).Msg("Report archived")
	return nil
}

// Get loads one archived report
func (a *Archive) Get(ctx context.Context, id string) (*pipeline.Envelope, error) {
	var payload string
	err := a.db.QueryRowContext(ctx, `SELECT payload FROM reports WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}

	var env pipeline.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	return &env, nil
}

// List returns the newest reports first. A non-positive limit defaults to 20.
func (a *Archive) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, mode, created_at FROM reports
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0, limit)
	for rows.Next() {
		var s Summary
		var created int64
		if err := rows.Scan(&s.ID, &s.Mode, &created); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		s.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return out, nil
}
