package model

import (
	"time"

	"innkeeper/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID              = "id"
	FieldRoomID          = "room_id"
	FieldGuestID         = "guest_id"
	FieldCheckInDate     = "check_in_date"
	FieldCheckOutDate    = "check_out_date"
	FieldNumberOfGuests  = "number_of_guests"
	FieldStatus          = "status"
	FieldTotalPrice      = "total_price"
	FieldSpecialRequests = "special_requests"
	FieldCancelReason    = "cancel_reason"

	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusCheckedIn  = "checked_in"
	StatusCheckedOut = "checked_out"
	StatusCancelled  = "cancelled"
)

// allowedTransitions is the whole lifecycle. Checked-out and cancelled are
// terminal.
var allowedTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut},
}

func CanTransition(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// BlockingStatuses are the statuses that hold the room's dates against
// other bookings.
func BlockingStatuses() []string {
	return []string{StatusPending, StatusConfirmed, StatusCheckedIn}
}

func IsBlocking(status string) bool {
	for _, blocking := range BlockingStatuses() {
		if blocking == status {
			return true
		}
	}

	return false
}

// Booking holds a half-open date range: the room is occupied on
// [CheckInDate, CheckOutDate). Dates carry no time component.
type Booking struct {
	ID              string    `db:"id"`
	RoomID          string    `db:"room_id"`
	GuestID         string    `db:"guest_id"`
	CheckInDate     time.Time `db:"check_in_date"`
	CheckOutDate    time.Time `db:"check_out_date"`
	NumberOfGuests  int       `db:"number_of_guests"`
	Status          string    `db:"status"`
	TotalPrice      float64   `db:"total_price"`
	SpecialRequests string    `db:"special_requests"`
	CancelReason    string    `db:"cancel_reason"`
	model.Metadata
}

func (b *Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
}

// Overlaps reports whether the booking's range intersects [checkIn, checkOut).
// Back-to-back ranges sharing a boundary date do not overlap.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckInDate.Before(checkOut) && b.CheckOutDate.After(checkIn)
}

// StayedOn reports whether the booking occupies the room on the given night.
func (b *Booking) StayedOn(date time.Time) bool {
	return !date.Before(b.CheckInDate) && date.Before(b.CheckOutDate)
}
