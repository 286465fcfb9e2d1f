package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"innkeeper/infras/otel"
	"innkeeper/internal/domains/audit/service"
	"innkeeper/shared/constant"
	gDto "innkeeper/shared/dto"
	"innkeeper/transport/http/response"
)

type Handler struct {
	service service.Recorder
	otel    otel.Otel
}

func New(service service.Recorder, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/audit", func(routerGroup chi.Router) {
		routerGroup.Get("/{entityType}/{id}", handler.GetAuditHistory)
	})
}

// GetAuditHistory retrieves the audit trail of an entity.
// @Summary Get audit history for an entity
// @Description Retrieve the ordered audit trail of a single entity, oldest entry first.
// @Tags Audit
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type (room, guest, booking)"
// @Param id path string true "Entity ID"
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetAuditEntriesResponse] "Audit entries"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/audit/{entityType}/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetAuditHistory(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAuditHistory")
	defer scope.End()

	entityType := chi.URLParam(r, constant.RequestParamEntityType)
	entityID := chi.URLParam(r, constant.RequestParamID)

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, false)

	entries, err := handler.service.History(ctx, entityType, entityID, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get audit history")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Audit history retrieved successfully")

	response.WithJSON(w, http.StatusOK, entries)
}
