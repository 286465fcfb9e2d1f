package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"innkeeper/config"
	"innkeeper/infras/otel"
	auditModel "innkeeper/internal/domains/audit/model"
	auditDto "innkeeper/internal/domains/audit/model/dto"
	auditService "innkeeper/internal/domains/audit/service"
	"innkeeper/internal/domains/booking/model"
	"innkeeper/internal/domains/booking/model/dto"
	"innkeeper/internal/domains/booking/repository"
	guestModel "innkeeper/internal/domains/guest/model"
	guestRepo "innkeeper/internal/domains/guest/repository"
	roomModel "innkeeper/internal/domains/room/model"
	roomRepo "innkeeper/internal/domains/room/repository"
	"innkeeper/shared"
	"innkeeper/shared/cache"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/failure"
	"innkeeper/shared/lock"
	"innkeeper/shared/timezone"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	IsAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeBookingID string) (bool, error)
	Availability(ctx context.Context, roomID, checkInDate, checkOutDate string) (dto.AvailabilityResponse, error)
	Edit(ctx context.Context, req dto.EditBookingRequest, id string) error
	Transition(ctx context.Context, req dto.TransitionBookingRequest, id string) error
	Cancel(ctx context.Context, req dto.CancelBookingRequest, id string) error
}

type serviceImpl struct {
	repo      repository.Booking
	roomRepo  roomRepo.Room
	guestRepo guestRepo.Guest
	cfg       *config.Config
	cache     cache.RedisCache
	audit     auditService.Recorder
	locks     *lock.KeyedMutex
	otel      otel.Otel
}

func New(repo repository.Booking, roomRepo roomRepo.Room, guestRepo guestRepo.Guest, cfg *config.Config, cache cache.RedisCache, audit auditService.Recorder, locks *lock.KeyedMutex, otel otel.Otel) Booking {
	return &serviceImpl{
		repo:      repo,
		roomRepo:  roomRepo,
		guestRepo: guestRepo,
		cfg:       cfg,
		cache:     cache,
		audit:     audit,
		locks:     locks,
		otel:      otel,
	}
}

// Create validates and commits under the room's mutex so two requests for
// the same room cannot interleave between the availability check and the
// insert.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyActorID).(string)

	checkIn, checkOut, err := req.Range()
	if err != nil {
		return failure.InvalidRange(err.Error()) // nolint:wrapcheck
	}

	if !checkOut.After(checkIn) {
		return failure.InvalidRange("check-out date must be after check-in date") // nolint:wrapcheck
	}

	s.locks.Lock(req.RoomID)
	defer s.locks.Unlock(req.RoomID)

	room, err := s.fetchBookableRoom(ctx, req.RoomID)
	if err != nil {
		return err
	}

	if req.NumberOfGuests > room.Capacity {
		return failure.CapacityExceeded(fmt.Sprintf("room %s holds at most %d guests", room.Number, room.Capacity)) // nolint:wrapcheck
	}

	guestExists, err := s.guestRepo.Exist(ctx, shared.FilterByID(req.GuestID, guestModel.FieldID, guestModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if guest exists")

		return fmt.Errorf("failed to check if guest exists: %w", err)
	}

	if !guestExists {
		return failure.NotFound("guest not found") // nolint:wrapcheck
	}

	available, err := s.IsAvailable(ctx, req.RoomID, checkIn, checkOut, constant.Empty)
	if err != nil {
		return err
	}

	if !available {
		return failure.RoomUnavailable("room is already booked for the requested dates") // nolint:wrapcheck
	}

	booking := req.ToModel(user, checkIn, checkOut, room.Rate*float64(nights(checkIn, checkOut)))

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return fmt.Errorf("failed to create booking: %w", err)
	}

	s.audit.Record(ctx, auditDto.Event{
		EntityType: model.EntityName,
		EntityID:   booking.ID,
		Action:     auditModel.ActionInsert,
		Payload:    booking,
	})

	s.invalidateLists(ctx)

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

// IsAvailable is a pure read. Callers that go on to commit must hold the
// room's mutex around both the check and the write.
func (s *serviceImpl) IsAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeBookingID string) (available bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".IsAvailable")
	defer scope.End()
	defer scope.TraceIfError(err)

	overlapping, err := s.repo.FindOverlapping(ctx, roomID, checkIn, checkOut, excludeBookingID)
	if err != nil {
		log.Error().Err(err).Msg("failed to find overlapping bookings")

		return false, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}

	return len(overlapping) == 0, nil
}

func (s *serviceImpl) Availability(ctx context.Context, roomID, checkInDate, checkOutDate string) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Availability")
	defer scope.End()
	defer scope.TraceIfError(err)

	checkIn, err := time.Parse(constant.DateOnlyFormat, checkInDate)
	if err != nil {
		return res, failure.InvalidRange("invalid check-in date") // nolint:wrapcheck
	}

	checkOut, err := time.Parse(constant.DateOnlyFormat, checkOutDate)
	if err != nil {
		return res, failure.InvalidRange("invalid check-out date") // nolint:wrapcheck
	}

	if !checkOut.After(checkIn) {
		return res, failure.InvalidRange("check-out date must be after check-in date") // nolint:wrapcheck
	}

	exist, err := s.roomRepo.Exist(ctx, shared.FilterByID(roomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if room exists")

		return res, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		return res, failure.NotFound("room not found") // nolint:wrapcheck
	}

	available, err := s.IsAvailable(ctx, roomID, checkIn, checkOut, constant.Empty)
	if err != nil {
		return res, err
	}

	return dto.AvailabilityResponse{
		RoomID:       roomID,
		CheckInDate:  checkInDate,
		CheckOutDate: checkOutDate,
		Available:    available,
	}, nil
}

// Edit reshapes a pending or confirmed booking. Both the current and the
// target room key are locked in sorted order so concurrent edits cannot
// deadlock.
func (s *serviceImpl) Edit(ctx context.Context, req dto.EditBookingRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Edit")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyActorID).(string)

	current, err := s.fetchBooking(ctx, id)
	if err != nil {
		return err
	}

	// The room key is read before locking, so a concurrent edit can move
	// the booking in that window. Re-read under the lock and chase the new
	// room until the key is stable.
	var (
		targetRoomID string
		unlock       func()
	)

	for {
		lockedRoomID := current.RoomID

		targetRoomID = lockedRoomID
		if req.RoomID != constant.Empty {
			targetRoomID = req.RoomID
		}

		unlock = s.locks.LockKeys(lockedRoomID, targetRoomID)

		current, err = s.fetchBooking(ctx, id)
		if err != nil {
			unlock()

			return err
		}

		if current.RoomID == lockedRoomID {
			break
		}

		unlock()
	}

	defer unlock()

	if current.Status != model.StatusPending && current.Status != model.StatusConfirmed {
		return failure.InvalidTransition("only pending or confirmed bookings can be edited") // nolint:wrapcheck
	}

	checkIn := current.CheckInDate
	if req.CheckInDate != constant.Empty {
		if checkIn, err = time.Parse(constant.DateOnlyFormat, req.CheckInDate); err != nil {
			return failure.InvalidRange("invalid check-in date") // nolint:wrapcheck
		}
	}

	checkOut := current.CheckOutDate
	if req.CheckOutDate != constant.Empty {
		if checkOut, err = time.Parse(constant.DateOnlyFormat, req.CheckOutDate); err != nil {
			return failure.InvalidRange("invalid check-out date") // nolint:wrapcheck
		}
	}

	if !checkOut.After(checkIn) {
		return failure.InvalidRange("check-out date must be after check-in date") // nolint:wrapcheck
	}

	room, err := s.fetchBookableRoom(ctx, targetRoomID)
	if err != nil {
		return err
	}

	numberOfGuests := current.NumberOfGuests
	if req.NumberOfGuests > 0 {
		numberOfGuests = req.NumberOfGuests
	}

	if numberOfGuests > room.Capacity {
		return failure.CapacityExceeded(fmt.Sprintf("room %s holds at most %d guests", room.Number, room.Capacity)) // nolint:wrapcheck
	}

	available, err := s.IsAvailable(ctx, targetRoomID, checkIn, checkOut, id)
	if err != nil {
		return err
	}

	if !available {
		return failure.RoomUnavailable("room is already booked for the requested dates") // nolint:wrapcheck
	}

	updatedFields := map[string]any{
		model.FieldRoomID:         targetRoomID,
		model.FieldCheckInDate:    checkIn,
		model.FieldCheckOutDate:   checkOut,
		model.FieldNumberOfGuests: numberOfGuests,
		model.FieldTotalPrice:     room.Rate * float64(nights(checkIn, checkOut)),
		constant.FieldModifiedAt:  timezone.Now(),
		constant.FieldModifiedBy:  user,
	}

	if req.SpecialRequests != nil {
		updatedFields[model.FieldSpecialRequests] = *req.SpecialRequests
	}

	if err = s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to edit booking")

		return fmt.Errorf("failed to edit booking: %w", err)
	}

	s.audit.Record(ctx, auditDto.Event{
		EntityType: model.EntityName,
		EntityID:   id,
		Action:     auditModel.ActionUpdate,
		Payload:    updatedFields,
	})

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) Transition(ctx context.Context, req dto.TransitionBookingRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Transition")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyActorID).(string)

	current, unlock, err := s.lockBooking(ctx, id)
	if err != nil {
		return err
	}

	defer unlock()

	if !model.CanTransition(current.Status, req.Status) {
		return failure.InvalidTransition(fmt.Sprintf("cannot transition booking from %s to %s", current.Status, req.Status)) // nolint:wrapcheck
	}

	switch req.Status {
	case model.StatusCheckedIn:
		err = s.checkIn(ctx, current, user)
	case model.StatusCheckedOut:
		err = s.checkOut(ctx, current, user)
	default:
		err = s.updateStatus(ctx, current.ID, req.Status, user)
	}

	if err != nil {
		return err
	}

	s.audit.Record(ctx, auditDto.Event{
		EntityType: model.EntityName,
		EntityID:   id,
		Action:     auditModel.ActionUpdate,
		Payload:    map[string]any{model.FieldStatus: req.Status},
	})

	s.invalidate(ctx, id)

	return nil
}

// Cancel is an idempotent no-op on an already cancelled booking. Checked-in
// and checked-out bookings cannot be cancelled.
func (s *serviceImpl) Cancel(ctx context.Context, req dto.CancelBookingRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyActorID).(string)

	current, unlock, err := s.lockBooking(ctx, id)
	if err != nil {
		return err
	}

	defer unlock()

	if current.Status == model.StatusCancelled {
		return nil
	}

	if !model.CanTransition(current.Status, model.StatusCancelled) {
		return failure.InvalidTransition(fmt.Sprintf("cannot cancel a %s booking", current.Status)) // nolint:wrapcheck
	}

	updatedFields := map[string]any{
		model.FieldStatus:        model.StatusCancelled,
		model.FieldCancelReason:  req.Reason,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	if err = s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to cancel booking")

		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	s.audit.Record(ctx, auditDto.Event{
		EntityType: model.EntityName,
		EntityID:   id,
		Action:     auditModel.ActionUpdate,
		Payload:    map[string]any{model.FieldStatus: model.StatusCancelled, model.FieldCancelReason: req.Reason},
	})

	s.invalidate(ctx, id)

	return nil
}

// checkIn flips the booking to checked_in and the room to occupied in one
// transaction. Another booking already checked in on the room blocks it.
func (s *serviceImpl) checkIn(ctx context.Context, booking model.Booking, user string) error {
	occupied, err := s.repo.Count(ctx, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldRoomID,
				Operator: gDto.FilterOperatorEq,
				Value:    booking.RoomID,
			},
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldStatus,
				Operator: gDto.FilterOperatorEq,
				Value:    model.StatusCheckedIn,
			},
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldID,
				Operator: gDto.FilterOperatorNotEq,
				ArgName:  "exclude_id",
				Value:    booking.ID,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to count checked-in bookings")

		return fmt.Errorf("failed to count checked-in bookings: %w", err)
	}

	if occupied > 0 {
		return failure.RoomUnavailable("another booking is already checked in on this room") // nolint:wrapcheck
	}

	room, err := s.roomRepo.Get(ctx, shared.FilterByID(booking.RoomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return fmt.Errorf("failed to get room: %w", err)
	}

	// Maintenance and out-of-service markers are not overwritten.
	flip := room.Status == roomModel.StatusAvailable

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		bookingFields := map[string]any{
			model.FieldStatus:        model.StatusCheckedIn,
			constant.FieldModifiedAt: timezone.Now(),
			constant.FieldModifiedBy: user,
		}

		if err := s.repo.UpdateTx(ctx, tx, bookingFields, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to check in booking: %w", err)
		}

		if flip {
			roomFields := map[string]any{
				roomModel.FieldStatus:    roomModel.StatusOccupied,
				constant.FieldModifiedAt: timezone.Now(),
				constant.FieldModifiedBy: user,
			}

			if err := s.roomRepo.UpdateTx(ctx, tx, roomFields, shared.FilterByID(booking.RoomID, roomModel.FieldID, roomModel.TableName)); err != nil {
				return fmt.Errorf("failed to mark room occupied: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if flip {
		s.audit.Record(ctx, auditDto.Event{
			EntityType: roomModel.EntityName,
			EntityID:   booking.RoomID,
			Action:     auditModel.ActionUpdate,
			Payload:    map[string]any{roomModel.FieldStatus: roomModel.StatusOccupied},
		})
	}

	return nil
}

// checkOut flips the booking to checked_out and recomputes the room status
// from remaining checked-in bookings rather than assuming it.
func (s *serviceImpl) checkOut(ctx context.Context, booking model.Booking, user string) error {
	remaining, err := s.repo.Count(ctx, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldRoomID,
				Operator: gDto.FilterOperatorEq,
				Value:    booking.RoomID,
			},
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldStatus,
				Operator: gDto.FilterOperatorEq,
				Value:    model.StatusCheckedIn,
			},
			gDto.Filter{
				Table:    model.TableName,
				Field:    model.FieldID,
				Operator: gDto.FilterOperatorNotEq,
				ArgName:  "exclude_id",
				Value:    booking.ID,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to count checked-in bookings")

		return fmt.Errorf("failed to count checked-in bookings: %w", err)
	}

	room, err := s.roomRepo.Get(ctx, shared.FilterByID(booking.RoomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return fmt.Errorf("failed to get room: %w", err)
	}

	flip := remaining == 0 && room.Status == roomModel.StatusOccupied

	err = s.repo.WithTx(ctx, func(tx *sqlx.Tx) error {
		bookingFields := map[string]any{
			model.FieldStatus:        model.StatusCheckedOut,
			constant.FieldModifiedAt: timezone.Now(),
			constant.FieldModifiedBy: user,
		}

		if err := s.repo.UpdateTx(ctx, tx, bookingFields, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
			return fmt.Errorf("failed to check out booking: %w", err)
		}

		if flip {
			roomFields := map[string]any{
				roomModel.FieldStatus:    roomModel.StatusAvailable,
				constant.FieldModifiedAt: timezone.Now(),
				constant.FieldModifiedBy: user,
			}

			if err := s.roomRepo.UpdateTx(ctx, tx, roomFields, shared.FilterByID(booking.RoomID, roomModel.FieldID, roomModel.TableName)); err != nil {
				return fmt.Errorf("failed to mark room available: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if flip {
		s.audit.Record(ctx, auditDto.Event{
			EntityType: roomModel.EntityName,
			EntityID:   booking.RoomID,
			Action:     auditModel.ActionUpdate,
			Payload:    map[string]any{roomModel.FieldStatus: roomModel.StatusAvailable},
		})
	}

	return nil
}

func (s *serviceImpl) updateStatus(ctx context.Context, id, status, user string) error {
	updatedFields := map[string]any{
		model.FieldStatus:        status,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	if err := s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update booking status")

		return fmt.Errorf("failed to update booking status: %w", err)
	}

	return nil
}

// lockBooking serializes a mutation on the booking's current room. The room
// key is read before locking, so a concurrent edit can move the booking in
// that window; the booking is re-read under the lock and the lock
// re-acquired on the new room until the key is stable.
func (s *serviceImpl) lockBooking(ctx context.Context, id string) (model.Booking, func(), error) {
	current, err := s.fetchBooking(ctx, id)
	if err != nil {
		return current, nil, err
	}

	for {
		roomID := current.RoomID

		s.locks.Lock(roomID)

		current, err = s.fetchBooking(ctx, id)
		if err != nil {
			s.locks.Unlock(roomID)

			return current, nil, err
		}

		if current.RoomID == roomID {
			return current, func() { s.locks.Unlock(roomID) }, nil
		}

		s.locks.Unlock(roomID)
	}
}

func (s *serviceImpl) fetchBooking(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) fetchBookableRoom(ctx context.Context, id string) (roomModel.Room, error) {
	room, err := s.roomRepo.Get(ctx, shared.FilterByID(id, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")

		return room, fmt.Errorf("failed to get room: %w", err)
	}

	if room.ID == constant.Empty {
		return room, failure.NotFound("room not found") // nolint:wrapcheck
	}

	if !room.Bookable() {
		return room, failure.RoomUnavailable("room is out of service") // nolint:wrapcheck
	}

	return room, nil
}

func nights(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

func (s *serviceImpl) invalidateLists(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()
}
