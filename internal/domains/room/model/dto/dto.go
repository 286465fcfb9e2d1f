package dto

import (
	"innkeeper/internal/domains/room/model"
	"innkeeper/shared"
	gDto "innkeeper/shared/dto"
	gModel "innkeeper/shared/model"
	"innkeeper/shared/timezone"

	"github.com/google/uuid"
)

type CreateRoomRequest struct {
	Number   string  `json:"number"   validate:"required,max=20"`
	Type     string  `json:"type"     validate:"required,max=50"`
	Capacity int     `json:"capacity" validate:"required,min=1"`
	Rate     float64 `json:"rate"     validate:"required,min=0"`
	Status   string  `json:"status"   validate:"omitempty,oneof=available occupied maintenance out_of_service"`
}

func (c *CreateRoomRequest) ToModel(user string) model.Room {
	status := c.Status
	if status == "" {
		status = model.StatusAvailable
	}

	return model.Room{
		ID:       uuid.NewString(),
		Number:   c.Number,
		Type:     c.Type,
		Capacity: c.Capacity,
		Rate:     c.Rate,
		Status:   status,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateRoomRequest struct {
	Number   string   `db:"number"   json:"number"   validate:"omitempty,max=20"`
	Type     string   `db:"type"     json:"type"     validate:"omitempty,max=50"`
	Capacity *int     `db:"capacity" json:"capacity" validate:"omitempty,min=1"`
	Rate     *float64 `db:"rate"     json:"rate"     validate:"omitempty,min=0"`
	Status   string   `db:"status"   json:"status"   validate:"omitempty,oneof=available occupied maintenance out_of_service"`
}

type RoomResponse struct {
	ID       string  `json:"id"`
	Number   string  `json:"number"`
	Type     string  `json:"type"`
	Capacity int     `json:"capacity"`
	Rate     float64 `json:"rate"`
	Status   string  `json:"status"`
	gDto.Metadata
}

func (r *RoomResponse) FromModel(model model.Room) {
	r.ID = model.ID
	r.Number = model.Number
	r.Type = model.Type
	r.Capacity = model.Capacity
	r.Rate = model.Rate
	r.Status = model.Status
	r.Metadata.FromModel(model.Metadata)
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod)
	}
}
