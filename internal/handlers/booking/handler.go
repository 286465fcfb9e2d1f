package booking

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"innkeeper/infras/otel"
	"innkeeper/internal/domains/booking/model"
	"innkeeper/internal/domains/booking/model/dto"
	"innkeeper/internal/domains/booking/service"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/failure"
	"innkeeper/shared/validator"
	"innkeeper/transport/http/response"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Patch("/{id}", handler.EditBooking)
		routerGroup.Post("/{id}/transition", handler.TransitionBooking)
		routerGroup.Post("/{id}/cancel", handler.CancelBooking)
	})

	router.Get("/rooms/{id}/availability", handler.GetRoomAvailability)
}

// CreateBooking books a room for a guest over a date range.
// @Summary Create a new booking
// @Description Create a booking for a room over the given date range. The booking starts in pending status and the total price is computed from the room rate.
// @Tags Booking
// @Accept json
// @Produce json
// @Param booking body dto.CreateBookingRequest true "Booking details"
// @Success 201 {object} response.Message "Booking created successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	var req dto.CreateBookingRequest
	if err := json.NewDecoder(request.Body).Decode(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to decode request body")

		response.WithError(writer, failure.BadRequest(err))

		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	actor, _ := ctx.Value(constant.ContextKeyActorID).(string)
	scope.AddEvent("Booking created successfully by " + actor)

	response.WithMessage(writer, http.StatusCreated, "Booking created successfully")
}

// GetBookings retrieves all bookings based on query parameters.
// @Summary Get all bookings
// @Description Retrieve all bookings with optional filtering and pagination.
// @Tags Booking
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param room_id query string false "Filter by room"
// @Param guest_id query string false "Filter by guest"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
func (handler *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
	}

	for _, field := range []string{model.FieldRoomID, model.FieldGuestID, model.FieldStatus} {
		if value := r.URL.Query().Get(field); value != "" {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				Field:    field,
				Operator: gDto.FilterOperatorEq,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	bookings, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Bookings retrieved successfully")

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetBookingByID retrieves a booking by its ID.
// @Summary Get a booking by ID
// @Description Retrieve a booking by its unique identifier.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	booking, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking retrieved successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// EditBooking modifies the room, dates, or guest count of a booking.
// @Summary Edit a booking
// @Description Edit a pending or confirmed booking. Date and room changes are re-validated for availability and the total price is recomputed.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param booking body dto.EditBookingRequest true "Fields to change"
// @Success 200 {object} response.Message "Booking updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [patch]
// @Security BearerAuth
func (handler *Handler) EditBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".EditBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	var req dto.EditBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to decode request body")

		response.WithError(w, failure.BadRequest(err))

		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Edit(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to edit booking")

		response.WithError(w, err)

		return
	}

	actor, _ := ctx.Value(constant.ContextKeyActorID).(string)
	scope.AddEvent("Booking updated successfully by " + actor)

	response.WithMessage(w, http.StatusOK, "Booking updated successfully")
}

// TransitionBooking moves a booking through its lifecycle.
// @Summary Transition a booking
// @Description Move a booking to the requested lifecycle status. Only transitions allowed by the lifecycle are accepted; check-in and check-out also update the room status.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param transition body dto.TransitionBookingRequest true "Target status"
// @Success 200 {object} response.Message "Booking transitioned successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/transition [post]
// @Security BearerAuth
func (handler *Handler) TransitionBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".TransitionBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	var req dto.TransitionBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to decode request body")

		response.WithError(w, failure.BadRequest(err))

		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Transition(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to transition booking")

		response.WithError(w, err)

		return
	}

	actor, _ := ctx.Value(constant.ContextKeyActorID).(string)
	scope.AddEvent("Booking transitioned successfully by " + actor)

	response.WithMessage(w, http.StatusOK, "Booking transitioned successfully")
}

// CancelBooking cancels a booking with an optional reason.
// @Summary Cancel a booking
// @Description Cancel a pending or confirmed booking. Cancelling an already cancelled booking is a no-op.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param cancellation body dto.CancelBookingRequest false "Cancellation reason"
// @Success 200 {object} response.Message "Booking cancelled successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	// The body is optional, cancelling without a reason is fine.
	var req dto.CancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && r.ContentLength > 0 {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to decode request body")

		response.WithError(w, failure.BadRequest(err))

		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Cancel(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel booking")

		response.WithError(w, err)

		return
	}

	actor, _ := ctx.Value(constant.ContextKeyActorID).(string)
	scope.AddEvent("Booking cancelled successfully by " + actor)

	response.WithMessage(w, http.StatusOK, "Booking cancelled successfully")
}

// GetRoomAvailability checks whether a room is free over a date range.
// @Summary Check room availability
// @Description Report whether the room has no blocking bookings over the given date range.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param check_in_date query string true "Check-in date (YYYY-MM-DD)"
// @Param check_out_date query string true "Check-out date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.AvailabilityResponse] "Availability"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id}/availability [get]
func (handler *Handler) GetRoomAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRoomAvailability")
	defer scope.End()

	roomID := chi.URLParam(r, constant.RequestParamID)
	checkInDate := r.URL.Query().Get(model.FieldCheckInDate)
	checkOutDate := r.URL.Query().Get(model.FieldCheckOutDate)

	availability, err := handler.service.Availability(ctx, roomID, checkInDate, checkOutDate)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check room availability")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Room availability checked successfully")

	response.WithJSON(w, http.StatusOK, availability)
}
