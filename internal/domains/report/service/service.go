package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"innkeeper/config"
	"innkeeper/infras/otel"
	"innkeeper/infras/s3"
	bookingModel "innkeeper/internal/domains/booking/model"
	bookingRepo "innkeeper/internal/domains/booking/repository"
	"innkeeper/internal/domains/report/model/dto"
	roomModel "innkeeper/internal/domains/room/model"
	roomRepo "innkeeper/internal/domains/room/repository"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/shared/failure"
	"innkeeper/shared/timezone"
)

const exportDirectory = "reports"

// Report aggregates are read-only. Each one issues a single scan and folds
// in memory, so every report is internally consistent per call.
type Report interface {
	Occupancy(ctx context.Context, start time.Time, days int) (dto.OccupancyReportResponse, error)
	RoomPerformance(ctx context.Context) (dto.RoomPerformanceResponse, error)
	FinancialSummary(ctx context.Context, from, to time.Time) (dto.FinancialSummaryResponse, error)
	ExportOccupancyCSV(ctx context.Context, start time.Time, days int) (string, error)
	ExportFinancialCSV(ctx context.Context, from, to time.Time) (string, error)
}

type serviceImpl struct {
	bookingRepo bookingRepo.Booking
	roomRepo    roomRepo.Room
	cfg         *config.Config
	s3          s3.S3
	otel        otel.Otel
}

func New(bookingRepo bookingRepo.Booking, roomRepo roomRepo.Room, cfg *config.Config, s3 s3.S3, otel otel.Otel) Report {
	return &serviceImpl{
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		cfg:         cfg,
		s3:          s3,
		otel:        otel,
	}
}

func (s *serviceImpl) Occupancy(ctx context.Context, start time.Time, days int) (res dto.OccupancyReportResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Occupancy")
	defer scope.End()
	defer scope.TraceIfError(err)

	if days < 1 {
		return res, failure.InvalidRange("days must be at least 1") // nolint:wrapcheck
	}

	end := start.AddDate(0, 0, days)

	totalRooms, err := s.roomRepo.Count(ctx, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to count rooms")

		return res, fmt.Errorf("failed to count rooms: %w", err)
	}

	bookings, err := s.bookingRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    bookingModel.TableName,
				Field:    bookingModel.FieldStatus,
				Operator: gDto.FilterOperatorIn,
				Value:    s.cfg.Report.OccupancyStatuses,
			},
			gDto.Filter{
				Table:    bookingModel.TableName,
				Field:    bookingModel.FieldCheckInDate,
				Operator: gDto.FilterOperatorLess,
				ArgName:  "window_end",
				Value:    end,
			},
			gDto.Filter{
				Table:    bookingModel.TableName,
				Field:    bookingModel.FieldCheckOutDate,
				Operator: gDto.FilterOperatorGreater,
				ArgName:  "window_start",
				Value:    start,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings for occupancy report")

		return res, fmt.Errorf("failed to get bookings for occupancy report: %w", err)
	}

	res.StartDate = start.Format(constant.DateOnlyFormat)
	res.Days = days
	res.Rows = make([]dto.OccupancyDay, days)

	for i := range days {
		day := start.AddDate(0, 0, i)

		// A room counts once per night even with overlapping records.
		occupiedRooms := map[string]struct{}{}
		for j := range bookings {
			if bookings[j].StayedOn(day) {
				occupiedRooms[bookings[j].RoomID] = struct{}{}
			}
		}

		rate := 0.0
		if totalRooms > 0 {
			rate = float64(len(occupiedRooms)) / float64(totalRooms)
		}

		res.Rows[i] = dto.OccupancyDay{
			Date:     day.Format(constant.DateOnlyFormat),
			Occupied: len(occupiedRooms),
			Total:    totalRooms,
			Rate:     rate,
		}
	}

	return res, nil
}

// RoomPerformance folds every non-cancelled booking per room. Revenue only
// counts bookings that the financial rule recognizes, so room revenue sums
// match the financial summary over the same records.
func (s *serviceImpl) RoomPerformance(ctx context.Context) (res dto.RoomPerformanceResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RoomPerformance")
	defer scope.End()
	defer scope.TraceIfError(err)

	rooms, err := s.roomRepo.GetAll(ctx, gDto.QueryParams{SortBy: roomModel.FieldNumber, SortDir: gDto.SortDirAsc}, gDto.FilterGroup{})
	if err != nil {
		log.Error().Err(err).Msg("failed to get rooms for performance report")

		return res, fmt.Errorf("failed to get rooms for performance report: %w", err)
	}

	bookings, err := s.bookingRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Table:    bookingModel.TableName,
				Field:    bookingModel.FieldStatus,
				Operator: gDto.FilterOperatorNotEq,
				Value:    bookingModel.StatusCancelled,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings for performance report")

		return res, fmt.Errorf("failed to get bookings for performance report: %w", err)
	}

	type bucket struct {
		bookings     int
		revenue      float64
		nights       int
		stayedNights map[string]struct{}
	}

	var windowStart, windowEnd time.Time

	buckets := map[string]*bucket{}
	for i := range bookings {
		b, ok := buckets[bookings[i].RoomID]
		if !ok {
			b = &bucket{stayedNights: map[string]struct{}{}}
			buckets[bookings[i].RoomID] = b
		}

		b.bookings++
		b.nights += bookings[i].Nights()

		// Each night counts once even when records overlap.
		for n := range bookings[i].Nights() {
			night := bookings[i].CheckInDate.AddDate(0, 0, n)
			b.stayedNights[night.Format(constant.DateOnlyFormat)] = struct{}{}
		}

		if s.countsAsRevenue(bookings[i].Status) {
			b.revenue += bookings[i].TotalPrice
		}

		if windowStart.IsZero() || bookings[i].CheckInDate.Before(windowStart) {
			windowStart = bookings[i].CheckInDate
		}

		if bookings[i].CheckOutDate.After(windowEnd) {
			windowEnd = bookings[i].CheckOutDate
		}
	}

	windowNights := 0
	if !windowStart.IsZero() {
		windowNights = int(windowEnd.Sub(windowStart).Hours() / 24)
	}

	res.Rows = make([]dto.RoomPerformanceRow, len(rooms))
	for i := range rooms {
		row := dto.RoomPerformanceRow{
			RoomID: rooms[i].ID,
			Number: rooms[i].Number,
		}

		if b, ok := buckets[rooms[i].ID]; ok {
			row.Bookings = b.bookings
			row.Revenue = b.revenue
			row.TotalNights = b.nights
			row.AvgStayNights = float64(b.nights) / float64(b.bookings)

			if windowNights > 0 {
				row.AvgOccupancyRate = float64(len(b.stayedNights)) / float64(windowNights)
			}
		}

		res.Rows[i] = row
	}

	return res, nil
}

func (s *serviceImpl) FinancialSummary(ctx context.Context, from, to time.Time) (res dto.FinancialSummaryResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".FinancialSummary")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !to.After(from) {
		return res, failure.InvalidRange("to date must be after from date") // nolint:wrapcheck
	}

	bookings, err := s.bookingRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Table:    bookingModel.TableName,
				Field:    bookingModel.FieldStatus,
				Operator: gDto.FilterOperatorIn,
				Value:    s.revenueStatuses(),
			},
			gDto.Filter{
				Table:    bookingModel.TableName,
				Field:    bookingModel.FieldCheckOutDate,
				Operator: gDto.FilterOperatorGreaterEq,
				ArgName:  "window_start",
				Value:    from,
			},
			gDto.Filter{
				Table:    bookingModel.TableName,
				Field:    bookingModel.FieldCheckOutDate,
				Operator: gDto.FilterOperatorLess,
				ArgName:  "window_end",
				Value:    to,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings for financial summary")

		return res, fmt.Errorf("failed to get bookings for financial summary: %w", err)
	}

	res.FromDate = from.Format(constant.DateOnlyFormat)
	res.ToDate = to.Format(constant.DateOnlyFormat)

	months := map[string]*dto.MonthRevenue{}
	for i := range bookings {
		res.TotalRevenue += bookings[i].TotalPrice

		key := bookings[i].CheckOutDate.Format("2006-01")
		month, ok := months[key]
		if !ok {
			month = &dto.MonthRevenue{Month: key}
			months[key] = month
		}

		month.Bookings++
		month.Revenue += bookings[i].TotalPrice
	}

	res.Months = make([]dto.MonthRevenue, 0, len(months))
	for _, month := range months {
		res.Months = append(res.Months, *month)
	}

	sort.Slice(res.Months, func(i, j int) bool {
		return res.Months[i].Month < res.Months[j].Month
	})

	return res, nil
}

func (s *serviceImpl) ExportOccupancyCSV(ctx context.Context, start time.Time, days int) (url string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ExportOccupancyCSV")
	defer scope.End()
	defer scope.TraceIfError(err)

	report, err := s.Occupancy(ctx, start, days)
	if err != nil {
		return constant.Empty, err
	}

	records := [][]string{{"date", "occupied", "total", "rate"}}
	for _, row := range report.Rows {
		records = append(records, []string{
			row.Date,
			strconv.Itoa(row.Occupied),
			strconv.Itoa(row.Total),
			strconv.FormatFloat(row.Rate, 'f', 4, 64),
		})
	}

	fileName := fmt.Sprintf("occupancy_%s_%dd_%d.csv", report.StartDate, days, timezone.Now().Unix())

	return s.upload(ctx, fileName, records)
}

func (s *serviceImpl) ExportFinancialCSV(ctx context.Context, from, to time.Time) (url string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ExportFinancialCSV")
	defer scope.End()
	defer scope.TraceIfError(err)

	report, err := s.FinancialSummary(ctx, from, to)
	if err != nil {
		return constant.Empty, err
	}

	records := [][]string{{"month", "bookings", "revenue"}}
	for _, month := range report.Months {
		records = append(records, []string{
			month.Month,
			strconv.Itoa(month.Bookings),
			strconv.FormatFloat(month.Revenue, 'f', 2, 64),
		})
	}

	records = append(records, []string{"total", constant.Empty, strconv.FormatFloat(report.TotalRevenue, 'f', 2, 64)})

	fileName := fmt.Sprintf("financial_%s_%s_%d.csv", report.FromDate, report.ToDate, timezone.Now().Unix())

	return s.upload(ctx, fileName, records)
}

func (s *serviceImpl) upload(ctx context.Context, fileName string, records [][]string) (string, error) {
	var buf bytes.Buffer

	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		log.Error().Err(err).Msg("failed to render report CSV")

		return constant.Empty, fmt.Errorf("failed to render report CSV: %w", err)
	}

	url, err := s.s3.UploadFileBytes(ctx, constant.Empty, exportDirectory, fileName, constant.ContentTypeCSV, buf.Bytes())
	if err != nil {
		log.Error().Err(err).Msg("failed to upload report CSV")

		return constant.Empty, fmt.Errorf("failed to upload report CSV: %w", err)
	}

	return url, nil
}

func (s *serviceImpl) countsAsRevenue(status string) bool {
	for _, counted := range s.revenueStatuses() {
		if counted == status {
			return true
		}
	}

	return false
}

func (s *serviceImpl) revenueStatuses() []string {
	statuses := []string{bookingModel.StatusCheckedOut}
	if s.cfg.Report.FinancialIncludeCheckedIn {
		statuses = append(statuses, bookingModel.StatusCheckedIn)
	}

	return statuses
}
