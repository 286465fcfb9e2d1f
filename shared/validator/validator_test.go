package validator_test

import (
	"strings"
	"testing"

	"innkeeper/shared/validator"
)

type bookingRequest struct {
	RoomID         string `validate:"required"                      json:"room_id"`
	GuestEmail     string `validate:"omitempty,email"               json:"guest_email"`
	NumberOfGuests int    `validate:"gte=1,lte=20"                  json:"number_of_guests"`
	Status         string `validate:"omitempty,oneof=pending confirmed" json:"status"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name        string
		data        *bookingRequest
		expectError bool
		contains    string
	}{
		{
			name: "valid struct",
			data: &bookingRequest{
				RoomID:         "room-101",
				GuestEmail:     "guest@example.com",
				NumberOfGuests: 2,
				Status:         "pending",
			},
			expectError: false,
		},
		{
			name: "missing required field",
			data: &bookingRequest{
				NumberOfGuests: 2,
			},
			expectError: true,
			contains:    "RoomID is required",
		},
		{
			name: "invalid email",
			data: &bookingRequest{
				RoomID:         "room-101",
				GuestEmail:     "not-an-email",
				NumberOfGuests: 2,
			},
			expectError: true,
			contains:    "valid email",
		},
		{
			name: "guest count below minimum",
			data: &bookingRequest{
				RoomID:         "room-101",
				NumberOfGuests: 0,
			},
			expectError: true,
		},
		{
			name: "unknown status",
			data: &bookingRequest{
				RoomID:         "room-101",
				NumberOfGuests: 2,
				Status:         "teleported",
			},
			expectError: true,
			contains:    "must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(tt.data)

			if tt.expectError && err == nil {
				t.Fatal("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if tt.contains != "" && err != nil && !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("expected message to contain %q, got %q", tt.contains, err.Error())
			}
		})
	}
}

func TestValidate_DecodesJSON(t *testing.T) {
	body := strings.NewReader(`{"room_id":"room-101","number_of_guests":2}`)

	req := bookingRequest{}
	if err := validator.Validate(body, &req); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	if req.RoomID != "room-101" {
		t.Errorf("expected room_id to be decoded, got %q", req.RoomID)
	}
}

func TestValidate_RejectsMalformedJSON(t *testing.T) {
	body := strings.NewReader(`{"room_id":`)

	req := bookingRequest{}
	if err := validator.Validate(body, &req); err == nil {
		t.Fatal("expected decode error, got nil")
	}
}
