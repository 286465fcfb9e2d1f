package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"innkeeper/config"
	"innkeeper/infras/otel/mocks"
	auditMocks "innkeeper/internal/domains/audit/mocks"
	auditDto "innkeeper/internal/domains/audit/model/dto"
	bookingMocks "innkeeper/internal/domains/booking/mocks"
	"innkeeper/internal/domains/booking/model"
	"innkeeper/internal/domains/booking/model/dto"
	"innkeeper/internal/domains/booking/service"
	guestMocks "innkeeper/internal/domains/guest/mocks"
	roomMocks "innkeeper/internal/domains/room/mocks"
	roomModel "innkeeper/internal/domains/room/model"
	cacheMocks "innkeeper/shared/cache/mocks"
	"innkeeper/shared/constant"
	"innkeeper/shared/failure"
	"innkeeper/shared/lock"
)

type fixture struct {
	svc       service.Booking
	repo      *bookingMocks.MockBooking
	roomRepo  *roomMocks.MockRoom
	guestRepo *guestMocks.MockGuest
	audit     *auditMocks.MockRecorder
	cache     *cacheMocks.MockRedisCache
	locks     *lock.KeyedMutex
}

func newFixture(ctrl *gomock.Controller) *fixture {
	f := &fixture{
		repo:      bookingMocks.NewMockBooking(ctrl),
		roomRepo:  roomMocks.NewMockRoom(ctrl),
		guestRepo: guestMocks.NewMockGuest(ctrl),
		audit:     auditMocks.NewMockRecorder(ctrl),
		cache:     cacheMocks.NewMockRedisCache(ctrl),
		locks:     lock.NewKeyedMutex(),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.svc = service.New(f.repo, f.roomRepo, f.guestRepo, cfg, f.cache, f.audit, f.locks, mocks.NewOtel())

	return f
}

func date(value string) time.Time {
	parsed, _ := time.Parse(constant.DateOnlyFormat, value)
	return parsed
}

func room101() roomModel.Room {
	return roomModel.Room{
		ID:       "room-101",
		Number:   "101",
		Type:     "double",
		Capacity: 2,
		Rate:     120,
		Status:   roomModel.StatusAvailable,
	}
}

func actorCtx() context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyActorID, "front-desk")
}

func TestBookingService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	t.Run("new booking is pending and priced per night", func(t *testing.T) {
		var inserted model.Booking

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(room101(), nil)

		f.guestRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		f.repo.EXPECT().
			FindOverlapping(gomock.Any(), "room-101", date("2025-01-10"), date("2025-01-12"), "").
			Return(nil, nil)

		f.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, booking model.Booking) error {
				inserted = booking
				return nil
			})

		f.audit.EXPECT().
			Record(gomock.Any(), gomock.Any())

		err := f.svc.Create(actorCtx(), dto.CreateBookingRequest{
			RoomID:         "room-101",
			GuestID:        "guest-x",
			CheckInDate:    "2025-01-10",
			CheckOutDate:   "2025-01-12",
			NumberOfGuests: 2,
		})

		assert.NoError(t, err)
		assert.Equal(t, model.StatusPending, inserted.Status)
		assert.Equal(t, 240.0, inserted.TotalPrice)
		assert.Equal(t, "front-desk", inserted.CreatedBy)
	})

	t.Run("overlapping booking is refused", func(t *testing.T) {
		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(room101(), nil)

		f.guestRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		f.repo.EXPECT().
			FindOverlapping(gomock.Any(), "room-101", date("2025-01-11"), date("2025-01-13"), "").
			Return([]model.Booking{{ID: "booking-a", Status: model.StatusPending}}, nil)

		err := f.svc.Create(actorCtx(), dto.CreateBookingRequest{
			RoomID:         "room-101",
			GuestID:        "guest-y",
			CheckInDate:    "2025-01-11",
			CheckOutDate:   "2025-01-13",
			NumberOfGuests: 1,
		})

		assert.Error(t, err)
		assert.Equal(t, failure.KindRoomUnavailable, failure.GetKind(err))
	})

	t.Run("guest count above capacity creates nothing", func(t *testing.T) {
		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(room101(), nil)

		err := f.svc.Create(actorCtx(), dto.CreateBookingRequest{
			RoomID:         "room-101",
			GuestID:        "guest-z",
			CheckInDate:    "2025-02-01",
			CheckOutDate:   "2025-02-03",
			NumberOfGuests: 3,
		})

		assert.Error(t, err)
		assert.Equal(t, failure.KindCapacityExceeded, failure.GetKind(err))
	})

	t.Run("inverted range is refused before touching the store", func(t *testing.T) {
		err := f.svc.Create(actorCtx(), dto.CreateBookingRequest{
			RoomID:         "room-101",
			GuestID:        "guest-x",
			CheckInDate:    "2025-01-12",
			CheckOutDate:   "2025-01-10",
			NumberOfGuests: 1,
		})

		assert.Error(t, err)
		assert.Equal(t, failure.KindInvalidRange, failure.GetKind(err))
	})

	t.Run("zero nights is refused", func(t *testing.T) {
		err := f.svc.Create(actorCtx(), dto.CreateBookingRequest{
			RoomID:         "room-101",
			GuestID:        "guest-x",
			CheckInDate:    "2025-01-10",
			CheckOutDate:   "2025-01-10",
			NumberOfGuests: 1,
		})

		assert.Error(t, err)
		assert.Equal(t, failure.KindInvalidRange, failure.GetKind(err))
	})

	t.Run("out of service room is refused", func(t *testing.T) {
		room := room101()
		room.Status = roomModel.StatusOutOfService

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(room, nil)

		err := f.svc.Create(actorCtx(), dto.CreateBookingRequest{
			RoomID:         "room-101",
			GuestID:        "guest-x",
			CheckInDate:    "2025-03-01",
			CheckOutDate:   "2025-03-03",
			NumberOfGuests: 1,
		})

		assert.Error(t, err)
		assert.Equal(t, failure.KindRoomUnavailable, failure.GetKind(err))
	})

	t.Run("unknown guest is refused", func(t *testing.T) {
		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(room101(), nil)

		f.guestRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := f.svc.Create(actorCtx(), dto.CreateBookingRequest{
			RoomID:         "room-101",
			GuestID:        "guest-missing",
			CheckInDate:    "2025-03-01",
			CheckOutDate:   "2025-03-03",
			NumberOfGuests: 1,
		})

		assert.Error(t, err)
		assert.Equal(t, failure.KindNotFound, failure.GetKind(err))
	})
}

// Back-to-back ranges share a boundary date and must both fit.
func TestBookingService_CreateBackToBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	f.roomRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(room101(), nil)

	f.guestRepo.EXPECT().
		Exist(gomock.Any(), gomock.Any()).
		Return(true, nil)

	existing := model.Booking{
		ID:           "booking-a",
		RoomID:       "room-101",
		CheckInDate:  date("2025-01-10"),
		CheckOutDate: date("2025-01-12"),
		Status:       model.StatusPending,
	}

	f.repo.EXPECT().
		FindOverlapping(gomock.Any(), "room-101", date("2025-01-12"), date("2025-01-14"), "").
		DoAndReturn(func(_ context.Context, _ string, checkIn, checkOut time.Time, _ string) ([]model.Booking, error) {
			if existing.Overlaps(checkIn, checkOut) {
				return []model.Booking{existing}, nil
			}
			return nil, nil
		})

	f.repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		Return(nil)

	f.audit.EXPECT().
		Record(gomock.Any(), gomock.Any())

	err := f.svc.Create(actorCtx(), dto.CreateBookingRequest{
		RoomID:         "room-101",
		GuestID:        "guest-y",
		CheckInDate:    "2025-01-12",
		CheckOutDate:   "2025-01-14",
		NumberOfGuests: 1,
	})

	assert.NoError(t, err)
}

// Exactly one of two fully overlapping concurrent creates may win the room.
func TestBookingService_ConcurrentCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	var committed []model.Booking

	f.roomRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(room101(), nil).
		AnyTimes()

	f.guestRepo.EXPECT().
		Exist(gomock.Any(), gomock.Any()).
		Return(true, nil).
		AnyTimes()

	// The store is deliberately unguarded: the per-room mutex inside the
	// service must serialize check plus insert.
	f.repo.EXPECT().
		FindOverlapping(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, roomID string, checkIn, checkOut time.Time, _ string) ([]model.Booking, error) {
			var overlapping []model.Booking
			for i := range committed {
				if committed[i].RoomID == roomID && committed[i].Overlaps(checkIn, checkOut) {
					overlapping = append(overlapping, committed[i])
				}
			}
			return overlapping, nil
		}).
		AnyTimes()

	f.repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, booking model.Booking) error {
			committed = append(committed, booking)
			return nil
		}).
		AnyTimes()

	f.audit.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		AnyTimes()

	req := dto.CreateBookingRequest{
		RoomID:         "room-101",
		GuestID:        "guest-x",
		CheckInDate:    "2025-01-10",
		CheckOutDate:   "2025-01-12",
		NumberOfGuests: 1,
	}

	var wg sync.WaitGroup
	results := make([]error, 2)

	for i := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = f.svc.Create(actorCtx(), req)
		}(i)
	}

	wg.Wait()

	var succeeded, unavailable int
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if failure.GetKind(err) == failure.KindRoomUnavailable {
			unavailable++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, unavailable)
	assert.Len(t, committed, 1)
}

// A committed booking blocks its own range unless excluded by id.
func TestBookingService_IsAvailableSelfBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	existing := model.Booking{
		ID:           "booking-a",
		RoomID:       "room-101",
		CheckInDate:  date("2025-01-10"),
		CheckOutDate: date("2025-01-12"),
		Status:       model.StatusPending,
	}

	f.repo.EXPECT().
		FindOverlapping(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, roomID string, checkIn, checkOut time.Time, excludeBookingID string) ([]model.Booking, error) {
			if existing.ID == excludeBookingID {
				return nil, nil
			}
			if existing.RoomID == roomID && existing.Overlaps(checkIn, checkOut) {
				return []model.Booking{existing}, nil
			}
			return nil, nil
		}).
		Times(2)

	available, err := f.svc.IsAvailable(context.Background(), "room-101", date("2025-01-10"), date("2025-01-12"), "")
	assert.NoError(t, err)
	assert.False(t, available)

	available, err = f.svc.IsAvailable(context.Background(), "room-101", date("2025-01-10"), date("2025-01-12"), "booking-a")
	assert.NoError(t, err)
	assert.True(t, available)
}

func TestBookingService_Transition(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	pending := model.Booking{
		ID:           "booking-a",
		RoomID:       "room-101",
		GuestID:      "guest-x",
		CheckInDate:  date("2025-01-10"),
		CheckOutDate: date("2025-01-12"),
		Status:       model.StatusPending,
	}

	t.Run("pending to confirmed", func(t *testing.T) {
		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(pending, nil).
			Times(2)

		f.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ interface{}) error {
				assert.Equal(t, model.StatusConfirmed, fields[model.FieldStatus])
				return nil
			})

		f.audit.EXPECT().
			Record(gomock.Any(), gomock.Any())

		err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusConfirmed}, "booking-a")
		assert.NoError(t, err)
	})

	t.Run("confirmed cannot skip to checked_out", func(t *testing.T) {
		confirmed := pending
		confirmed.Status = model.StatusConfirmed

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(confirmed, nil).
			Times(2)

		err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusCheckedOut}, "booking-a")
		assert.Error(t, err)
		assert.Equal(t, failure.KindInvalidTransition, failure.GetKind(err))
	})

	t.Run("missing booking", func(t *testing.T) {
		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Booking{}, nil)

		err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusConfirmed}, "missing")
		assert.Error(t, err)
		assert.Equal(t, failure.KindNotFound, failure.GetKind(err))
	})
}

func TestBookingService_CheckInCheckOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	confirmed := model.Booking{
		ID:           "booking-a",
		RoomID:       "room-101",
		GuestID:      "guest-x",
		CheckInDate:  date("2025-01-10"),
		CheckOutDate: date("2025-01-12"),
		Status:       model.StatusConfirmed,
	}

	t.Run("check-in flips the room to occupied", func(t *testing.T) {
		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(confirmed, nil).
			Times(2)

		f.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(0, nil)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(room101(), nil)

		f.repo.EXPECT().
			WithTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
				return fn(nil)
			})

		f.repo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ interface{}) error {
				assert.Equal(t, model.StatusCheckedIn, fields[model.FieldStatus])
				return nil
			})

		f.roomRepo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ interface{}) error {
				assert.Equal(t, roomModel.StatusOccupied, fields[roomModel.FieldStatus])
				return nil
			})

		// One entry for the booking transition, one for the room flip.
		f.audit.EXPECT().
			Record(gomock.Any(), gomock.Any()).
			Times(2)

		err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusCheckedIn}, "booking-a")
		assert.NoError(t, err)
	})

	t.Run("check-in refused while another booking is checked in", func(t *testing.T) {
		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(confirmed, nil).
			Times(2)

		f.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(1, nil)

		err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusCheckedIn}, "booking-a")
		assert.Error(t, err)
		assert.Equal(t, failure.KindRoomUnavailable, failure.GetKind(err))
	})

	t.Run("check-out frees the room when no stay remains", func(t *testing.T) {
		checkedIn := confirmed
		checkedIn.Status = model.StatusCheckedIn

		occupiedRoom := room101()
		occupiedRoom.Status = roomModel.StatusOccupied

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(checkedIn, nil).
			Times(2)

		f.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(0, nil)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(occupiedRoom, nil)

		f.repo.EXPECT().
			WithTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
				return fn(nil)
			})

		f.repo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ interface{}) error {
				assert.Equal(t, model.StatusCheckedOut, fields[model.FieldStatus])
				return nil
			})

		f.roomRepo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, fields map[string]any, _ interface{}) error {
				assert.Equal(t, roomModel.StatusAvailable, fields[roomModel.FieldStatus])
				return nil
			})

		f.audit.EXPECT().
			Record(gomock.Any(), gomock.Any()).
			Times(2)

		err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusCheckedOut}, "booking-a")
		assert.NoError(t, err)
	})

	t.Run("maintenance room status survives check-in", func(t *testing.T) {
		maintenanceRoom := room101()
		maintenanceRoom.Status = roomModel.StatusMaintenance

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(confirmed, nil).
			Times(2)

		f.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(0, nil)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(maintenanceRoom, nil)

		f.repo.EXPECT().
			WithTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
				return fn(nil)
			})

		f.repo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		f.audit.EXPECT().
			Record(gomock.Any(), gomock.Any())

		err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusCheckedIn}, "booking-a")
		assert.NoError(t, err)
	})
}

// A room flip is a mutation of its own and must land in the room's audit
// trail, not only the booking's.
func TestBookingService_RoomFlipAudited(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	confirmed := model.Booking{
		ID:           "booking-a",
		RoomID:       "room-101",
		GuestID:      "guest-x",
		CheckInDate:  date("2025-01-10"),
		CheckOutDate: date("2025-01-12"),
		Status:       model.StatusConfirmed,
	}

	entityTypes := func(events []auditDto.Event) []string {
		types := make([]string, 0, len(events))
		for _, event := range events {
			types = append(types, event.EntityType)
		}
		return types
	}

	t.Run("check-in records a room entry alongside the booking entry", func(t *testing.T) {
		var recorded []auditDto.Event

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(confirmed, nil).
			Times(2)

		f.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(0, nil)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(room101(), nil)

		f.repo.EXPECT().
			WithTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
				return fn(nil)
			})

		f.repo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		f.roomRepo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		f.audit.EXPECT().
			Record(gomock.Any(), gomock.Any()).
			Do(func(_ context.Context, event auditDto.Event) {
				recorded = append(recorded, event)
			}).
			Times(2)

		err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusCheckedIn}, "booking-a")
		assert.NoError(t, err)

		assert.Contains(t, entityTypes(recorded), model.EntityName)
		assert.Contains(t, entityTypes(recorded), roomModel.EntityName)

		for _, event := range recorded {
			if event.EntityType != roomModel.EntityName {
				continue
			}

			assert.Equal(t, "room-101", event.EntityID)

			payload, ok := event.Payload.(map[string]any)
			assert.True(t, ok)
			assert.Equal(t, roomModel.StatusOccupied, payload[roomModel.FieldStatus])
		}
	})

	t.Run("check-out records the room becoming available", func(t *testing.T) {
		checkedIn := confirmed
		checkedIn.Status = model.StatusCheckedIn

		occupiedRoom := room101()
		occupiedRoom.Status = roomModel.StatusOccupied

		var recorded []auditDto.Event

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(checkedIn, nil).
			Times(2)

		f.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(0, nil)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(occupiedRoom, nil)

		f.repo.EXPECT().
			WithTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
				return fn(nil)
			})

		f.repo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		f.roomRepo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		f.audit.EXPECT().
			Record(gomock.Any(), gomock.Any()).
			Do(func(_ context.Context, event auditDto.Event) {
				recorded = append(recorded, event)
			}).
			Times(2)

		err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusCheckedOut}, "booking-a")
		assert.NoError(t, err)

		assert.Contains(t, entityTypes(recorded), roomModel.EntityName)

		for _, event := range recorded {
			if event.EntityType != roomModel.EntityName {
				continue
			}

			payload, ok := event.Payload.(map[string]any)
			assert.True(t, ok)
			assert.Equal(t, roomModel.StatusAvailable, payload[roomModel.FieldStatus])
		}
	})

	t.Run("no room entry when the room does not flip", func(t *testing.T) {
		maintenanceRoom := room101()
		maintenanceRoom.Status = roomModel.StatusMaintenance

		var recorded []auditDto.Event

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(confirmed, nil).
			Times(2)

		f.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(0, nil)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(maintenanceRoom, nil)

		f.repo.EXPECT().
			WithTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fn func(tx *sqlx.Tx) error) error {
				return fn(nil)
			})

		f.repo.EXPECT().
			UpdateTx(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		f.audit.EXPECT().
			Record(gomock.Any(), gomock.Any()).
			Do(func(_ context.Context, event auditDto.Event) {
				recorded = append(recorded, event)
			})

		err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusCheckedIn}, "booking-a")
		assert.NoError(t, err)

		assert.Equal(t, []string{model.EntityName}, entityTypes(recorded))
	})
}

// An edit can move the booking to another room between the key read and the
// lock. The transition must end up holding the mutex of the room it actually
// mutates, not the one the booking was in before the lock.
func TestBookingService_TransitionFollowsRoomMove(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	inOldRoom := model.Booking{
		ID:      "booking-a",
		RoomID:  "room-101",
		GuestID: "guest-x",
		Status:  model.StatusPending,
	}

	inNewRoom := inOldRoom
	inNewRoom.RoomID = "room-202"

	// The booking moves to room-202 between the unlocked read and the first
	// read under the lock, then stays put.
	gomock.InOrder(
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(inOldRoom, nil),
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(inNewRoom, nil),
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(inNewRoom, nil),
	)

	newRoomAcquired := make(chan struct{})

	f.repo.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ map[string]any, _ interface{}) error {
			// The stale key must be free again while the mutation runs.
			f.locks.Lock("room-101")
			f.locks.Unlock("room-101")

			go func() {
				f.locks.Lock("room-202")
				defer f.locks.Unlock("room-202")
				close(newRoomAcquired)
			}()

			select {
			case <-newRoomAcquired:
				t.Error("room-202 mutex was free during the mutation")
			case <-time.After(50 * time.Millisecond):
			}

			return nil
		})

	f.audit.EXPECT().
		Record(gomock.Any(), gomock.Any())

	err := f.svc.Transition(actorCtx(), dto.TransitionBookingRequest{Status: model.StatusConfirmed}, "booking-a")
	assert.NoError(t, err)

	select {
	case <-newRoomAcquired:
	case <-time.After(time.Second):
		t.Fatal("room-202 mutex was not released after the transition")
	}
}

func TestBookingService_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	confirmed := model.Booking{
		ID:     "booking-a",
		RoomID: "room-101",
		Status: model.StatusConfirmed,
	}

	t.Run("cancel records the reason", func(t *testing.T) {
		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(confirmed, nil).
			Times(2)

		f.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ interface{}) error {
				assert.Equal(t, model.StatusCancelled, fields[model.FieldStatus])
				assert.Equal(t, "change of plans", fields[model.FieldCancelReason])
				return nil
			})

		f.audit.EXPECT().
			Record(gomock.Any(), gomock.Any())

		err := f.svc.Cancel(actorCtx(), dto.CancelBookingRequest{Reason: "change of plans"}, "booking-a")
		assert.NoError(t, err)
	})

	t.Run("cancelling twice is a no-op", func(t *testing.T) {
		cancelled := confirmed
		cancelled.Status = model.StatusCancelled

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(cancelled, nil).
			Times(2)

		err := f.svc.Cancel(actorCtx(), dto.CancelBookingRequest{Reason: "again"}, "booking-a")
		assert.NoError(t, err)
	})

	t.Run("checked-in booking cannot be cancelled", func(t *testing.T) {
		checkedIn := confirmed
		checkedIn.Status = model.StatusCheckedIn

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(checkedIn, nil).
			Times(2)

		err := f.svc.Cancel(actorCtx(), dto.CancelBookingRequest{}, "booking-a")
		assert.Error(t, err)
		assert.Equal(t, failure.KindInvalidTransition, failure.GetKind(err))
	})
}

func TestBookingService_Edit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	pending := model.Booking{
		ID:             "booking-a",
		RoomID:         "room-101",
		GuestID:        "guest-x",
		CheckInDate:    date("2025-01-10"),
		CheckOutDate:   date("2025-01-12"),
		NumberOfGuests: 2,
		Status:         model.StatusPending,
		TotalPrice:     240,
	}

	t.Run("moving rooms reprices the stay", func(t *testing.T) {
		suite := roomModel.Room{
			ID:       "room-201",
			Number:   "201",
			Type:     "suite",
			Capacity: 4,
			Rate:     300,
			Status:   roomModel.StatusAvailable,
		}

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(pending, nil).
			Times(2)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(suite, nil)

		f.repo.EXPECT().
			FindOverlapping(gomock.Any(), "room-201", date("2025-01-10"), date("2025-01-13"), "booking-a").
			Return(nil, nil)

		f.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ interface{}) error {
				assert.Equal(t, "room-201", fields[model.FieldRoomID])
				assert.Equal(t, 900.0, fields[model.FieldTotalPrice])
				return nil
			})

		f.audit.EXPECT().
			Record(gomock.Any(), gomock.Any())

		err := f.svc.Edit(actorCtx(), dto.EditBookingRequest{
			RoomID:       "room-201",
			CheckOutDate: "2025-01-13",
		}, "booking-a")

		assert.NoError(t, err)
	})

	t.Run("checked-in booking cannot be edited", func(t *testing.T) {
		checkedIn := pending
		checkedIn.Status = model.StatusCheckedIn

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(checkedIn, nil).
			Times(2)

		err := f.svc.Edit(actorCtx(), dto.EditBookingRequest{NumberOfGuests: 1}, "booking-a")
		assert.Error(t, err)
		assert.Equal(t, failure.KindInvalidTransition, failure.GetKind(err))
	})

	t.Run("edit into an occupied range is refused", func(t *testing.T) {
		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(pending, nil).
			Times(2)

		f.roomRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(room101(), nil)

		f.repo.EXPECT().
			FindOverlapping(gomock.Any(), "room-101", date("2025-01-10"), date("2025-01-20"), "booking-a").
			Return([]model.Booking{{ID: "booking-b", Status: model.StatusConfirmed}}, nil)

		err := f.svc.Edit(actorCtx(), dto.EditBookingRequest{CheckOutDate: "2025-01-20"}, "booking-a")
		assert.Error(t, err)
		assert.Equal(t, failure.KindRoomUnavailable, failure.GetKind(err))
	})
}

func TestBookingService_Availability(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFixture(ctrl)

	t.Run("free range", func(t *testing.T) {
		f.roomRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		f.repo.EXPECT().
			FindOverlapping(gomock.Any(), "room-101", date("2025-01-10"), date("2025-01-12"), "").
			Return(nil, nil)

		res, err := f.svc.Availability(context.Background(), "room-101", "2025-01-10", "2025-01-12")
		assert.NoError(t, err)
		assert.True(t, res.Available)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := f.svc.Availability(context.Background(), "room-101", "2025-01-12", "2025-01-10")
		assert.Error(t, err)
		assert.Equal(t, failure.KindInvalidRange, failure.GetKind(err))
	})

	t.Run("unknown room", func(t *testing.T) {
		f.roomRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		_, err := f.svc.Availability(context.Background(), "room-missing", "2025-01-10", "2025-01-12")
		assert.Error(t, err)
		assert.Equal(t, failure.KindNotFound, failure.GetKind(err))
	})
}
