package dto

import (
	"fmt"
	"time"

	"innkeeper/internal/domains/booking/model"
	"innkeeper/shared"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	gModel "innkeeper/shared/model"
	"innkeeper/shared/timezone"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	RoomID          string `json:"room_id"          validate:"required"`
	GuestID         string `json:"guest_id"         validate:"required"`
	CheckInDate     string `json:"check_in_date"    validate:"required,datetime=2006-01-02"`
	CheckOutDate    string `json:"check_out_date"   validate:"required,datetime=2006-01-02"`
	NumberOfGuests  int    `json:"number_of_guests" validate:"required,min=1"`
	SpecialRequests string `json:"special_requests" validate:"omitempty,max=1000"`
}

// Range parses the check-in and check-out dates.
func (c *CreateBookingRequest) Range() (checkIn, checkOut time.Time, err error) {
	checkIn, err = time.Parse(constant.DateOnlyFormat, c.CheckInDate)
	if err != nil {
		return checkIn, checkOut, fmt.Errorf("invalid check-in date: %w", err)
	}

	checkOut, err = time.Parse(constant.DateOnlyFormat, c.CheckOutDate)
	if err != nil {
		return checkIn, checkOut, fmt.Errorf("invalid check-out date: %w", err)
	}

	return checkIn, checkOut, nil
}

func (c *CreateBookingRequest) ToModel(user string, checkIn, checkOut time.Time, totalPrice float64) model.Booking {
	return model.Booking{
		ID:              uuid.NewString(),
		RoomID:          c.RoomID,
		GuestID:         c.GuestID,
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		NumberOfGuests:  c.NumberOfGuests,
		Status:          model.StatusPending,
		TotalPrice:      totalPrice,
		SpecialRequests: c.SpecialRequests,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// EditBookingRequest reshapes a pending or confirmed booking. Fields left
// empty keep their current value.
type EditBookingRequest struct {
	RoomID          string  `json:"room_id"          validate:"omitempty"`
	CheckInDate     string  `json:"check_in_date"    validate:"omitempty,datetime=2006-01-02"`
	CheckOutDate    string  `json:"check_out_date"   validate:"omitempty,datetime=2006-01-02"`
	NumberOfGuests  int     `json:"number_of_guests" validate:"omitempty,min=1"`
	SpecialRequests *string `json:"special_requests" validate:"omitempty,max=1000"`
}

type TransitionBookingRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed checked_in checked_out cancelled"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type BookingResponse struct {
	ID              string  `json:"id"`
	RoomID          string  `json:"room_id"`
	GuestID         string  `json:"guest_id"`
	CheckInDate     string  `json:"check_in_date"`
	CheckOutDate    string  `json:"check_out_date"`
	Nights          int     `json:"nights"`
	NumberOfGuests  int     `json:"number_of_guests"`
	Status          string  `json:"status"`
	TotalPrice      float64 `json:"total_price"`
	SpecialRequests string  `json:"special_requests,omitempty"`
	CancelReason    string  `json:"cancel_reason,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.RoomID = model.RoomID
	r.GuestID = model.GuestID
	r.CheckInDate = model.CheckInDate.Format(constant.DateOnlyFormat)
	r.CheckOutDate = model.CheckOutDate.Format(constant.DateOnlyFormat)
	r.Nights = model.Nights()
	r.NumberOfGuests = model.NumberOfGuests
	r.Status = model.Status
	r.TotalPrice = model.TotalPrice
	r.SpecialRequests = model.SpecialRequests
	r.CancelReason = model.CancelReason
	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

type AvailabilityResponse struct {
	RoomID       string `json:"room_id"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	Available    bool   `json:"available"`
}
