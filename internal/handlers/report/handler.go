package report

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"innkeeper/infras/otel"
	"innkeeper/internal/domains/report/model/dto"
	"innkeeper/internal/domains/report/service"
	"innkeeper/shared/constant"
	"innkeeper/shared/failure"
	"innkeeper/transport/http/response"
)

const (
	requestParamStartDate = "start_date"
	requestParamDays      = "days"
	requestParamFromDate  = "from_date"
	requestParamToDate    = "to_date"

	defaultOccupancyDays = 7
)

type Handler struct {
	service service.Report
	otel    otel.Otel
}

func New(service service.Report, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/reports", func(routerGroup chi.Router) {
		routerGroup.Get("/occupancy", handler.GetOccupancy)
		routerGroup.Post("/occupancy/export", handler.ExportOccupancy)
		routerGroup.Get("/performance", handler.GetRoomPerformance)
		routerGroup.Get("/financial", handler.GetFinancialSummary)
		routerGroup.Post("/financial/export", handler.ExportFinancial)
	})
}

// GetOccupancy reports per-night occupancy over a window.
// @Summary Get the occupancy report
// @Description Report the number of occupied rooms for each night of the window, starting at start_date.
// @Tags Report
// @Accept json
// @Produce json
// @Param start_date query string true "Window start date (YYYY-MM-DD)"
// @Param days query integer false "Window length in nights (default 7)"
// @Success 200 {object} response.Data[dto.OccupancyReportResponse] "Occupancy per night"
// @Failure 400 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reports/occupancy [get]
// @Security BearerAuth
func (handler *Handler) GetOccupancy(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetOccupancy")
	defer scope.End()

	start, days, err := occupancyWindow(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse occupancy window")

		response.WithError(w, err)

		return
	}

	report, err := handler.service.Occupancy(ctx, start, days)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to build occupancy report")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Occupancy report built successfully")

	response.WithJSON(w, http.StatusOK, report)
}

// ExportOccupancy renders the occupancy report as CSV and uploads it.
// @Summary Export the occupancy report
// @Description Render the occupancy report as CSV, upload it to object storage, and return the download URL.
// @Tags Report
// @Accept json
// @Produce json
// @Param start_date query string true "Window start date (YYYY-MM-DD)"
// @Param days query integer false "Window length in nights (default 7)"
// @Success 200 {object} response.Data[dto.ExportResponse] "Download URL"
// @Failure 400 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reports/occupancy/export [post]
// @Security BearerAuth
func (handler *Handler) ExportOccupancy(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ExportOccupancy")
	defer scope.End()

	start, days, err := occupancyWindow(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse occupancy window")

		response.WithError(w, err)

		return
	}

	url, err := handler.service.ExportOccupancyCSV(ctx, start, days)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to export occupancy report")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Occupancy report exported successfully")

	response.WithJSON(w, http.StatusOK, dto.ExportResponse{URL: url})
}

// GetRoomPerformance reports bookings, revenue, and stay lengths per room.
// @Summary Get the room performance report
// @Description Report booking counts, realized revenue, and stay lengths for every room.
// @Tags Report
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[dto.RoomPerformanceResponse] "Per-room performance"
// @Failure 500 {object} response.Error
// @Router /v1/reports/performance [get]
// @Security BearerAuth
func (handler *Handler) GetRoomPerformance(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRoomPerformance")
	defer scope.End()

	report, err := handler.service.RoomPerformance(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to build room performance report")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Room performance report built successfully")

	response.WithJSON(w, http.StatusOK, report)
}

// GetFinancialSummary reports realized revenue bucketed by month.
// @Summary Get the financial summary
// @Description Report realized revenue over the window, bucketed by checkout month.
// @Tags Report
// @Accept json
// @Produce json
// @Param from_date query string true "Window start date, inclusive (YYYY-MM-DD)"
// @Param to_date query string true "Window end date, exclusive (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.FinancialSummaryResponse] "Monthly revenue"
// @Failure 400 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reports/financial [get]
// @Security BearerAuth
func (handler *Handler) GetFinancialSummary(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetFinancialSummary")
	defer scope.End()

	from, to, err := financialWindow(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse financial window")

		response.WithError(w, err)

		return
	}

	report, err := handler.service.FinancialSummary(ctx, from, to)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to build financial summary")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Financial summary built successfully")

	response.WithJSON(w, http.StatusOK, report)
}

// ExportFinancial renders the financial summary as CSV and uploads it.
// @Summary Export the financial summary
// @Description Render the financial summary as CSV, upload it to object storage, and return the download URL.
// @Tags Report
// @Accept json
// @Produce json
// @Param from_date query string true "Window start date, inclusive (YYYY-MM-DD)"
// @Param to_date query string true "Window end date, exclusive (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.ExportResponse] "Download URL"
// @Failure 400 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reports/financial/export [post]
// @Security BearerAuth
func (handler *Handler) ExportFinancial(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ExportFinancial")
	defer scope.End()

	from, to, err := financialWindow(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse financial window")

		response.WithError(w, err)

		return
	}

	url, err := handler.service.ExportFinancialCSV(ctx, from, to)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to export financial summary")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Financial summary exported successfully")

	response.WithJSON(w, http.StatusOK, dto.ExportResponse{URL: url})
}

func occupancyWindow(r *http.Request) (start time.Time, days int, err error) {
	start, err = time.Parse(constant.DateOnlyFormat, r.URL.Query().Get(requestParamStartDate))
	if err != nil {
		return start, 0, failure.BadRequestFromString("start_date must be a valid date in YYYY-MM-DD format") // nolint:wrapcheck
	}

	days = defaultOccupancyDays
	if raw := r.URL.Query().Get(requestParamDays); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			return start, 0, failure.BadRequestFromString("days must be an integer") // nolint:wrapcheck
		}
	}

	return start, days, nil
}

func financialWindow(r *http.Request) (from, to time.Time, err error) {
	from, err = time.Parse(constant.DateOnlyFormat, r.URL.Query().Get(requestParamFromDate))
	if err != nil {
		return from, to, failure.BadRequestFromString("from_date must be a valid date in YYYY-MM-DD format") // nolint:wrapcheck
	}

	to, err = time.Parse(constant.DateOnlyFormat, r.URL.Query().Get(requestParamToDate))
	if err != nil {
		return from, to, failure.BadRequestFromString("to_date must be a valid date in YYYY-MM-DD format") // nolint:wrapcheck
	}

	return from, to, nil
}
