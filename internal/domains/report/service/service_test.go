package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"innkeeper/config"
	"innkeeper/infras/otel/mocks"
	s3Mocks "innkeeper/infras/s3/mocks"
	bookingMocks "innkeeper/internal/domains/booking/mocks"
	bookingModel "innkeeper/internal/domains/booking/model"
	"innkeeper/internal/domains/report/service"
	roomMocks "innkeeper/internal/domains/room/mocks"
	roomModel "innkeeper/internal/domains/room/model"
	"innkeeper/shared/constant"
	"innkeeper/shared/failure"
)

func date(value string) time.Time {
	parsed, _ := time.Parse(constant.DateOnlyFormat, value)
	return parsed
}

func newService(ctrl *gomock.Controller, cfg *config.Config) (service.Report, *bookingMocks.MockBooking, *roomMocks.MockRoom, *s3Mocks.MockS3) {
	mockBookingRepo := bookingMocks.NewMockBooking(ctrl)
	mockRoomRepo := roomMocks.NewMockRoom(ctrl)
	mockS3 := s3Mocks.NewMockS3(ctrl)
	mockOtel := mocks.NewOtel()

	if cfg == nil {
		cfg = &config.Config{}
		cfg.Report.OccupancyStatuses = []string{bookingModel.StatusConfirmed, bookingModel.StatusCheckedIn}
	}

	svc := service.New(mockBookingRepo, mockRoomRepo, cfg, mockS3, mockOtel)

	return svc, mockBookingRepo, mockRoomRepo, mockS3
}

func booking(roomID, status, checkIn, checkOut string, totalPrice float64) bookingModel.Booking {
	return bookingModel.Booking{
		ID:           "booking-" + roomID + "-" + checkIn,
		RoomID:       roomID,
		GuestID:      "guest-1",
		CheckInDate:  date(checkIn),
		CheckOutDate: date(checkOut),
		Status:       status,
		TotalPrice:   totalPrice,
	}
}

func TestReportService_Occupancy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockBookingRepo, mockRoomRepo, _ := newService(ctrl, nil)

	t.Run("counts distinct rooms per night", func(t *testing.T) {
		mockRoomRepo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(2, nil)

		mockBookingRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]bookingModel.Booking{
				booking("room-1", bookingModel.StatusConfirmed, "2026-03-01", "2026-03-03", 200),
				booking("room-2", bookingModel.StatusCheckedIn, "2026-03-02", "2026-03-04", 300),
			}, nil)

		res, err := svc.Occupancy(context.Background(), date("2026-03-01"), 3)

		assert.NoError(t, err)
		assert.Equal(t, "2026-03-01", res.StartDate)
		assert.Len(t, res.Rows, 3)

		// Night 1: only room-1. Night 2: both. Night 3: only room-2, the
		// first booking checks out on the 3rd.
		assert.Equal(t, 1, res.Rows[0].Occupied)
		assert.Equal(t, 2, res.Rows[1].Occupied)
		assert.Equal(t, 1, res.Rows[2].Occupied)
		assert.Equal(t, 0.5, res.Rows[0].Rate)
		assert.Equal(t, 1.0, res.Rows[1].Rate)
	})

	t.Run("no rooms yields zero rate", func(t *testing.T) {
		mockRoomRepo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(0, nil)

		mockBookingRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]bookingModel.Booking{}, nil)

		res, err := svc.Occupancy(context.Background(), date("2026-03-01"), 1)

		assert.NoError(t, err)
		assert.Equal(t, 0.0, res.Rows[0].Rate)
	})

	t.Run("invalid window", func(t *testing.T) {
		_, err := svc.Occupancy(context.Background(), date("2026-03-01"), 0)

		assert.Error(t, err)
		assert.Equal(t, failure.KindInvalidRange, failure.GetKind(err))
	})
}

func TestReportService_RoomPerformance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockBookingRepo, mockRoomRepo, _ := newService(ctrl, nil)

	mockRoomRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]roomModel.Room{
			{ID: "room-1", Number: "101"},
			{ID: "room-2", Number: "102"},
		}, nil)

	mockBookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]bookingModel.Booking{
			booking("room-1", bookingModel.StatusCheckedOut, "2026-01-10", "2026-01-12", 240),
			booking("room-1", bookingModel.StatusConfirmed, "2026-02-01", "2026-02-05", 480),
		}, nil)

	res, err := svc.RoomPerformance(context.Background())

	assert.NoError(t, err)
	assert.Len(t, res.Rows, 2)

	assert.Equal(t, "101", res.Rows[0].Number)
	assert.Equal(t, 2, res.Rows[0].Bookings)
	assert.Equal(t, 6, res.Rows[0].TotalNights)
	assert.Equal(t, 3.0, res.Rows[0].AvgStayNights)

	// The window spans 2026-01-10 to 2026-02-05, 26 nights, 6 of them stayed.
	assert.InDelta(t, 6.0/26.0, res.Rows[0].AvgOccupancyRate, 1e-9)

	// Only the checked-out stay is realized revenue.
	assert.Equal(t, 240.0, res.Rows[0].Revenue)

	assert.Equal(t, 0, res.Rows[1].Bookings)
	assert.Equal(t, 0.0, res.Rows[1].Revenue)
	assert.Equal(t, 0.0, res.Rows[1].AvgOccupancyRate)
}

// Records covering the same night count that night once in the occupancy
// rate.
func TestReportService_RoomPerformanceOverlappingNights(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockBookingRepo, mockRoomRepo, _ := newService(ctrl, nil)

	mockRoomRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]roomModel.Room{{ID: "room-1", Number: "101"}}, nil)

	mockBookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]bookingModel.Booking{
			booking("room-1", bookingModel.StatusCheckedOut, "2026-01-10", "2026-01-12", 240),
			booking("room-1", bookingModel.StatusCheckedOut, "2026-01-11", "2026-01-13", 240),
		}, nil)

	res, err := svc.RoomPerformance(context.Background())

	assert.NoError(t, err)
	assert.Len(t, res.Rows, 1)

	// Three distinct nights over a three-night window, despite four booked
	// nights in total.
	assert.Equal(t, 4, res.Rows[0].TotalNights)
	assert.InDelta(t, 1.0, res.Rows[0].AvgOccupancyRate, 1e-9)
}

func TestReportService_FinancialSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockBookingRepo, _, _ := newService(ctrl, nil)

	t.Run("buckets by checkout month", func(t *testing.T) {
		mockBookingRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]bookingModel.Booking{
				booking("room-1", bookingModel.StatusCheckedOut, "2026-01-10", "2026-01-12", 240),
				booking("room-2", bookingModel.StatusCheckedOut, "2026-01-20", "2026-01-22", 300),
				booking("room-1", bookingModel.StatusCheckedOut, "2026-02-03", "2026-02-06", 360),
			}, nil)

		res, err := svc.FinancialSummary(context.Background(), date("2026-01-01"), date("2026-03-01"))

		assert.NoError(t, err)
		assert.Equal(t, 900.0, res.TotalRevenue)
		assert.Len(t, res.Months, 2)
		assert.Equal(t, "2026-01", res.Months[0].Month)
		assert.Equal(t, 2, res.Months[0].Bookings)
		assert.Equal(t, 540.0, res.Months[0].Revenue)
		assert.Equal(t, "2026-02", res.Months[1].Month)
		assert.Equal(t, 360.0, res.Months[1].Revenue)
	})

	t.Run("invalid window", func(t *testing.T) {
		_, err := svc.FinancialSummary(context.Background(), date("2026-03-01"), date("2026-03-01"))

		assert.Error(t, err)
		assert.Equal(t, failure.KindInvalidRange, failure.GetKind(err))
	})
}

// Room revenue and the financial summary apply the same realization rule, so
// their totals must agree over the same set of bookings.
func TestReportService_RevenueConsistency(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockBookingRepo, mockRoomRepo, _ := newService(ctrl, nil)

	all := []bookingModel.Booking{
		booking("room-1", bookingModel.StatusCheckedOut, "2026-01-10", "2026-01-12", 240),
		booking("room-2", bookingModel.StatusCheckedOut, "2026-01-15", "2026-01-18", 450),
		booking("room-2", bookingModel.StatusConfirmed, "2026-04-01", "2026-04-03", 260),
	}

	realized := []bookingModel.Booking{all[0], all[1]}

	mockRoomRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]roomModel.Room{{ID: "room-1", Number: "101"}, {ID: "room-2", Number: "102"}}, nil)

	mockBookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(all, nil)

	mockBookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(realized, nil)

	performance, err := svc.RoomPerformance(context.Background())
	assert.NoError(t, err)

	summary, err := svc.FinancialSummary(context.Background(), date("2026-01-01"), date("2026-12-31"))
	assert.NoError(t, err)

	sum := 0.0
	for _, row := range performance.Rows {
		sum += row.Revenue
	}

	assert.Equal(t, summary.TotalRevenue, sum)
}

func TestReportService_ExportOccupancyCSV(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockBookingRepo, mockRoomRepo, mockS3 := newService(ctrl, nil)

	t.Run("uploads rendered rows", func(t *testing.T) {
		mockRoomRepo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(1, nil)

		mockBookingRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]bookingModel.Booking{
				booking("room-1", bookingModel.StatusConfirmed, "2026-03-01", "2026-03-02", 120),
			}, nil)

		var uploaded string
		mockS3.EXPECT().
			UploadFileBytes(gomock.Any(), gomock.Any(), "reports", gomock.Any(), constant.ContentTypeCSV, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _, _, _ string, data []byte) (string, error) {
				uploaded = string(data)
				return "https://cdn.example.com/reports/occupancy.csv", nil
			})

		url, err := svc.ExportOccupancyCSV(context.Background(), date("2026-03-01"), 1)

		assert.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/reports/occupancy.csv", url)
		assert.True(t, strings.HasPrefix(uploaded, "date,occupied,total,rate\n"))
		assert.Contains(t, uploaded, "2026-03-01,1,1,1.0000")
	})

	t.Run("upload failure", func(t *testing.T) {
		mockRoomRepo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			Return(1, nil)

		mockBookingRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]bookingModel.Booking{}, nil)

		mockS3.EXPECT().
			UploadFileBytes(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", errors.New("storage unavailable"))

		_, err := svc.ExportOccupancyCSV(context.Background(), date("2026-03-01"), 1)

		assert.Error(t, err)
	})
}

func TestReportService_ExportFinancialCSV(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockBookingRepo, _, mockS3 := newService(ctrl, nil)

	mockBookingRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]bookingModel.Booking{
			booking("room-1", bookingModel.StatusCheckedOut, "2026-01-10", "2026-01-12", 240),
		}, nil)

	var uploaded string
	mockS3.EXPECT().
		UploadFileBytes(gomock.Any(), gomock.Any(), "reports", gomock.Any(), constant.ContentTypeCSV, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _, _, _ string, data []byte) (string, error) {
			uploaded = string(data)
			return "https://cdn.example.com/reports/financial.csv", nil
		})

	url, err := svc.ExportFinancialCSV(context.Background(), date("2026-01-01"), date("2026-02-01"))

	assert.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.Contains(t, uploaded, "month,bookings,revenue")
	assert.Contains(t, uploaded, "2026-01,1,240.00")
	assert.Contains(t, uploaded, "total,,240.00")
}
