package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Shot is a persisted simulation: the request that produced it and the
// resulting trajectory, both as JSONB.
type Shot struct {
	ID           string          `db:"id" json:"id"`
	ClientID     string          `db:"client_id" json:"client_id"`
	RequestHash  string          `db:"request_hash" json:"request_hash"`
	Variant      string          `db:"variant" json:"variant,omitempty"`
	TableName    string          `db:"table_name" json:"table"`
	Strike       json.RawMessage `db:"strike" json:"strike"`
	Balls        json.RawMessage `db:"balls" json:"balls"`
	Trajectory   json.RawMessage `db:"trajectory" json:"trajectory"`
	EventCount   int             `db:"event_count" json:"event_count"`
	Pocketed     pq.StringArray  `db:"pocketed" json:"pocketed"`
	DurationSecs float64         `db:"duration_secs" json:"duration_secs"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// APIClient is a machine account allowed to request tokens.
type APIClient struct {
	ID         int          `db:"id" json:"id"`
	ClientID   string       `db:"client_id" json:"client_id"`
	SecretHash string       `db:"secret_hash" json:"-"`
	Name       string       `db:"name" json:"name"`
	IsActive   bool         `db:"is_active" json:"is_active"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	LastUsedAt sql.NullTime `db:"last_used_at" json:"last_used_at,omitempty"`
}
