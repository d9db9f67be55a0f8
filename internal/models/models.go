package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// TableSession is the persistent record of one table from rack to close
type TableSession struct {
	ID          int             `db:"id" json:"id"`
	TableToken  string          `db:"table_token" json:"table_token"`
	Status      string          `db:"status" json:"status"`
	ShotCount   int             `db:"shot_count" json:"shot_count"`
	CloseReason sql.NullString  `db:"close_reason" json:"close_reason,omitempty"`
	FinalState  json.RawMessage `db:"final_state" json:"final_state,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	ClosedAt    sql.NullTime    `db:"closed_at" json:"closed_at,omitempty"`
}

// Shot represents a single cue release on a table
type Shot struct {
	ID         int       `db:"id" json:"id"`
	SessionID  int       `db:"session_id" json:"session_id"`
	ShotNumber int       `db:"shot_number" json:"shot_number"`
	Angle      float64   `db:"angle" json:"angle"`
	CueOffset  float64   `db:"cue_offset" json:"cue_offset"`
	Power      float64   `db:"power" json:"power"`
	VelocityX  float64   `db:"velocity_x" json:"velocity_x"`
	VelocityZ  float64   `db:"velocity_z" json:"velocity_z"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TableEvent is a collision recorded while a shot played out
type TableEvent struct {
	ID        int       `db:"id" json:"id"`
	SessionID int       `db:"session_id" json:"session_id"`
	Frame     int64     `db:"frame" json:"frame"`
	EventType string    `db:"event_type" json:"event_type"`
	BallID    int       `db:"ball_id" json:"ball_id"`
	TargetID  int       `db:"target_id" json:"target_id"`
	Speed     float64   `db:"speed" json:"speed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AdminAccount is an operator allowed into the admin API
type AdminAccount struct {
	Phone       string         `db:"phone" json:"phone"`
	DisplayName sql.NullString `db:"display_name" json:"display_name,omitempty"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	AllowedIPs  pq.StringArray `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit is one row of the admin audit log
type AdminAudit struct {
	ID         int             `db:"id" json:"id"`
	AdminPhone string          `db:"admin_phone" json:"admin_phone"`
	IP         string          `db:"ip" json:"ip"`
	Route      string          `db:"route" json:"route"`
	Action     string          `db:"action" json:"action"`
	Details    json.RawMessage `db:"details" json:"details"`
	Success    bool            `db:"success" json:"success"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// RuntimeConfig is an operator override for a config value
type RuntimeConfig struct {
	Key         string         `db:"key" json:"key"`
	Value       string         `db:"value" json:"value"`
	ValueType   string         `db:"value_type" json:"value_type"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	UpdatedBy   sql.NullString `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
