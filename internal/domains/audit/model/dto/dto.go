package dto

import (
	"encoding/json"
	"time"

	"innkeeper/internal/domains/audit/model"
)

// Event is what mutating services hand to the recorder. Payload holds the
// post-commit snapshot for inserts, the changed-fields map for updates, and
// the entity id for deletes.
type Event struct {
	EntityType string
	EntityID   string
	Action     string
	Payload    any
}

type AuditEntryResponse struct {
	Seq        int64           `json:"seq"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	Actor      string          `json:"actor"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}

func (r *AuditEntryResponse) FromModel(model model.AuditEntry) {
	r.Seq = model.Seq
	r.EntityType = model.EntityType
	r.EntityID = model.EntityID
	r.Action = model.Action
	r.Actor = model.Actor
	r.Payload = model.Payload
	r.RecordedAt = model.RecordedAt
}

type GetAuditEntriesResponse struct {
	Entries   []AuditEntryResponse `json:"entries"`
	TotalData int                  `json:"total_data"`
}

func (r *GetAuditEntriesResponse) FromModels(models []model.AuditEntry) {
	r.TotalData = len(models)

	r.Entries = make([]AuditEntryResponse, len(models))
	for i, mod := range models {
		r.Entries[i].FromModel(mod)
	}
}
