package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"innkeeper/shared/failure"
)

func TestFailure_Error(t *testing.T) {
	f := &failure.Failure{
		Kind:    failure.KindBadRequest,
		Code:    http.StatusBadRequest,
		Message: "test error message",
	}

	if f.Error() != "test error message" {
		t.Errorf("expected error message to be 'test error message', got %s", f.Error())
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind failure.Kind
		code int
	}{
		{
			name: "NotFound",
			err:  failure.NotFound("room not found"),
			kind: failure.KindNotFound,
			code: http.StatusNotFound,
		},
		{
			name: "InvalidRange",
			err:  failure.InvalidRange("check-out must be after check-in"),
			kind: failure.KindInvalidRange,
			code: http.StatusBadRequest,
		},
		{
			name: "CapacityExceeded",
			err:  failure.CapacityExceeded("guest count exceeds room capacity"),
			kind: failure.KindCapacityExceeded,
			code: http.StatusBadRequest,
		},
		{
			name: "RoomUnavailable",
			err:  failure.RoomUnavailable("room already booked for this range"),
			kind: failure.KindRoomUnavailable,
			code: http.StatusConflict,
		},
		{
			name: "InvalidTransition",
			err:  failure.InvalidTransition("cannot move from pending to checked_out"),
			kind: failure.KindInvalidTransition,
			code: http.StatusConflict,
		},
		{
			name: "Unavailable",
			err:  failure.Unavailable(errors.New("connection refused")),
			kind: failure.KindUnavailable,
			code: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failure.GetKind(tt.err); got != tt.kind {
				t.Errorf("expected kind to be %s, got %s", tt.kind, got)
			}
			if got := failure.GetCode(tt.err); got != tt.code {
				t.Errorf("expected code to be %d, got %d", tt.code, got)
			}
		})
	}
}

func TestGetKind_WrappedFailure(t *testing.T) {
	err := fmt.Errorf("creating booking: %w", failure.RoomUnavailable("overlap"))

	if !failure.IsKind(err, failure.KindRoomUnavailable) {
		t.Errorf("expected wrapped failure to keep its kind, got %s", failure.GetKind(err))
	}
}

func TestGetKind_PlainError(t *testing.T) {
	err := errors.New("database error")

	if got := failure.GetKind(err); got != failure.KindUnavailable {
		t.Errorf("expected plain errors to classify as unavailable, got %s", got)
	}

	if got := failure.GetCode(err); got != http.StatusInternalServerError {
		t.Errorf("expected code to be %d, got %d", http.StatusInternalServerError, got)
	}
}

func TestNilGuards(t *testing.T) {
	if failure.BadRequest(nil) != nil {
		t.Error("expected BadRequest(nil) to be nil")
	}
	if failure.Unavailable(nil) != nil {
		t.Error("expected Unavailable(nil) to be nil")
	}
}
