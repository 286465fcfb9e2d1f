package dto

import (
	"time"

	"innkeeper/internal/domains/guest/model"
	"innkeeper/shared"
	gDto "innkeeper/shared/dto"
	gModel "innkeeper/shared/model"
	"innkeeper/shared/timezone"

	"github.com/google/uuid"
)

type CreateGuestRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	Email     string `json:"email"      validate:"required,email,max=255"`
	Phone     string `json:"phone"      validate:"omitempty,max=30"`
	Notes     string `json:"notes"      validate:"omitempty,max=1000"`
}

func (c *CreateGuestRequest) ToModel(user string) model.Guest {
	return model.Guest{
		ID:        uuid.NewString(),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Notes:     c.Notes,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateGuestRequest struct {
	FirstName string `db:"first_name" json:"first_name" validate:"omitempty,max=100"`
	LastName  string `db:"last_name"  json:"last_name"  validate:"omitempty,max=100"`
	Email     string `db:"email"      json:"email"      validate:"omitempty,email,max=255"`
	Phone     string `db:"phone"      json:"phone"      validate:"omitempty,max=30"`
	Notes     string `db:"notes"      json:"notes"      validate:"omitempty,max=1000"`
}

type GuestResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
	gDto.Metadata
}

func (r *GuestResponse) FromModel(model model.Guest) {
	r.ID = model.ID
	r.FirstName = model.FirstName
	r.LastName = model.LastName
	r.Email = model.Email
	r.Phone = model.Phone
	r.Notes = model.Notes
	r.Metadata.FromModel(model.Metadata)
}

type GetGuestsResponse struct {
	Guests    []GuestResponse `json:"guests"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetGuestsResponse) FromModels(models []model.Guest, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Guests = make([]GuestResponse, len(models))
	for i, mod := range models {
		r.Guests[i].FromModel(mod)
	}
}

// GuestStatsResponse is derived from booking history on every call, never
// stored.
type GuestStatsResponse struct {
	GuestID    string     `json:"guest_id"`
	TotalStays int        `json:"total_stays"`
	LastVisit  *time.Time `json:"last_visit,omitempty"`
}
