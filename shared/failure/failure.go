package failure

import (
	"errors"
	"net/http"
)

// Kind classifies a failure so callers can branch on the outcome rather
// than on a message string.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidRange      Kind = "invalid_range"
	KindCapacityExceeded  Kind = "capacity_exceeded"
	KindRoomUnavailable   Kind = "room_unavailable"
	KindInvalidTransition Kind = "invalid_transition"
	KindBadRequest        Kind = "bad_request"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindConflict          Kind = "conflict"
	KindUnavailable       Kind = "unavailable"
)

// Failure is a wrapper for error kinds and messages using standard HTTP response codes.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

var InvalidPageParam = &Failure{Kind: KindBadRequest, Code: http.StatusBadRequest, Message: "invalid page parameter"}
var InvalidLimitParam = &Failure{Kind: KindBadRequest, Code: http.StatusBadRequest, Message: "invalid limit parameter"}

// Error returns the failure message.
func (e *Failure) Error() string {
	return e.Message
}

// BadRequest returns a new Failure with code for bad requests.
func BadRequest(err error) error {
	if err != nil {
		return &Failure{
			Kind:    KindBadRequest,
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	return nil
}

// BadRequestFromString returns a new Failure with code for bad requests with message set from string.
func BadRequestFromString(msg string) error {
	return &Failure{
		Kind:    KindBadRequest,
		Code:    http.StatusBadRequest,
		Message: msg,
	}
}

// Unauthorized returns a new Failure with code for unauthorized requests.
func Unauthorized(msg string) error {
	return &Failure{
		Kind:    KindUnauthorized,
		Code:    http.StatusUnauthorized,
		Message: msg,
	}
}

// Forbidden returns a new Failure with code for forbidden requests.
func Forbidden(msg string) error {
	return &Failure{
		Kind:    KindForbidden,
		Code:    http.StatusForbidden,
		Message: msg,
	}
}

// NotFound returns a new Failure with code for entity not found.
func NotFound(entityName string) error {
	return &Failure{
		Kind:    KindNotFound,
		Code:    http.StatusNotFound,
		Message: entityName,
	}
}

// Conflict returns a new Failure with code for conflict situations.
func Conflict(message string) error {
	return &Failure{
		Kind:    KindConflict,
		Code:    http.StatusConflict,
		Message: message,
	}
}

// InvalidRange reports a date range whose checkout does not come after its checkin.
func InvalidRange(msg string) error {
	return &Failure{
		Kind:    KindInvalidRange,
		Code:    http.StatusBadRequest,
		Message: msg,
	}
}

// CapacityExceeded reports a guest count above the room capacity.
func CapacityExceeded(msg string) error {
	return &Failure{
		Kind:    KindCapacityExceeded,
		Code:    http.StatusBadRequest,
		Message: msg,
	}
}

// RoomUnavailable reports an overlap conflict with another active booking.
func RoomUnavailable(msg string) error {
	return &Failure{
		Kind:    KindRoomUnavailable,
		Code:    http.StatusConflict,
		Message: msg,
	}
}

// InvalidTransition reports an illegal booking state-machine edge.
func InvalidTransition(msg string) error {
	return &Failure{
		Kind:    KindInvalidTransition,
		Code:    http.StatusConflict,
		Message: msg,
	}
}

// Unavailable reports a storage or infrastructure failure. The operation
// performed no state change and may be retried.
func Unavailable(err error) error {
	if err != nil {
		return &Failure{
			Kind:    KindUnavailable,
			Code:    http.StatusServiceUnavailable,
			Message: err.Error(),
		}
	}

	return nil
}

// GetCode returns the error code of an error interface.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// GetKind returns the failure kind of an error interface. Errors that are
// not typed failures are infrastructure errors by definition.
func GetKind(err error) Kind {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Kind
	}

	return KindUnavailable
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && GetKind(err) == kind
}
