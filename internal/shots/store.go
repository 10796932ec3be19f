package shots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/playmatatu/poolsim/internal/models"
)

const shotColumns = `id, client_id, request_hash, variant, table_name, strike, balls, trajectory,
	event_count, pocketed, duration_secs, created_at`

// PostgresStore keeps shots in the shots table with JSONB payloads.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, clientID string, r *Result) error {
	row, err := shotRow(clientID, r)
	if err != nil {
		return err
	}
	// lib/pq sends []byte as bytea, so the JSONB columns go over as text.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shots (id, client_id, request_hash, variant, table_name, strike, balls, trajectory,
			event_count, pocketed, duration_secs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8::jsonb, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, row.ID, row.ClientID, row.RequestHash, row.Variant, row.TableName,
		string(row.Strike), string(row.Balls), string(row.Trajectory),
		row.EventCount, row.Pocketed, row.DurationSecs, row.CreatedAt)
	return err
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*Result, error) {
	var row models.Shot
	err := s.db.GetContext(ctx, &row, `SELECT `+shotColumns+` FROM shots WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return resultFromRow(&row)
}

func shotRow(clientID string, r *Result) (*models.Shot, error) {
	strike, err := json.Marshal(r.Summary.Strike)
	if err != nil {
		return nil, err
	}
	balls, err := json.Marshal(r.Initial)
	if err != nil {
		return nil, err
	}
	traj, err := json.Marshal(r.Trajectory)
	if err != nil {
		return nil, err
	}
	return &models.Shot{
		ID:           r.ID,
		ClientID:     clientID,
		RequestHash:  r.RequestHash,
		Variant:      r.Summary.Variant,
		TableName:    r.Summary.Table,
		Strike:       strike,
		Balls:        balls,
		Trajectory:   traj,
		EventCount:   r.Summary.Events,
		Pocketed:     r.Summary.Pocketed,
		DurationSecs: r.Summary.Duration,
		CreatedAt:    r.CreatedAt,
	}, nil
}

func resultFromRow(row *models.Shot) (*Result, error) {
	r := &Result{
		ID:          row.ID,
		RequestHash: row.RequestHash,
		CreatedAt:   row.CreatedAt,
		Summary: Summary{
			Table:    row.TableName,
			Variant:  row.Variant,
			Duration: row.DurationSecs,
			Events:   row.EventCount,
			Pocketed: []string(row.Pocketed),
		},
	}
	if r.Summary.Pocketed == nil {
		r.Summary.Pocketed = []string{}
	}
	if err := json.Unmarshal(row.Strike, &r.Summary.Strike); err != nil {
		return nil, fmt.Errorf("shot %s strike: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Balls, &r.Initial); err != nil {
		return nil, fmt.Errorf("shot %s balls: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Trajectory, &r.Trajectory); err != nil {
		return nil, fmt.Errorf("shot %s trajectory: %w", row.ID, err)
	}
	r.Summary.First = firstContact(r.Summary.Strike.Ball, r.Trajectory.Events)
	return r, nil
}
