package model

import (
	"encoding/json"
	"time"
)

const (
	TableName  = "audit_entries"
	EntityName = "audit"

	FieldSeq        = "seq"
	FieldEntityType = "entity_type"
	FieldEntityID   = "entity_id"
	FieldAction     = "action"
	FieldActor      = "actor"
	FieldPayload    = "payload"
	FieldRecordedAt = "recorded_at"

	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// AuditEntry is append-only. Seq is assigned by the database and reflects
// commit order because entries are written inside the mutation's critical
// section.
type AuditEntry struct {
	Seq        int64           `db:"seq"`
	EntityType string          `db:"entity_type"`
	EntityID   string          `db:"entity_id"`
	Action     string          `db:"action"`
	Actor      string          `db:"actor"`
	Payload    json.RawMessage `db:"payload"`
	RecordedAt time.Time       `db:"recorded_at"`
}
