package model

import "innkeeper/shared/model"

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID       = "id"
	FieldNumber   = "number"
	FieldType     = "type"
	FieldCapacity = "capacity"
	FieldRate     = "rate"
	FieldStatus   = "status"

	StatusAvailable    = "available"
	StatusOccupied     = "occupied"
	StatusMaintenance  = "maintenance"
	StatusOutOfService = "out_of_service"
)

type Room struct {
	ID       string  `db:"id"`
	Number   string  `db:"number"`
	Type     string  `db:"type"`
	Capacity int     `db:"capacity"`
	Rate     float64 `db:"rate"`
	Status   string  `db:"status"`
	model.Metadata
}

// Bookable reports whether the room can accept new bookings at all.
// Occupied rooms stay bookable for non-overlapping dates.
func (r *Room) Bookable() bool {
	return r.Status != StatusOutOfService
}
