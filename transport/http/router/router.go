package router

import (
	"github.com/go-chi/chi/v5"

	"innkeeper/internal/handlers/audit"
	"innkeeper/internal/handlers/booking"
	"innkeeper/internal/handlers/guest"
	"innkeeper/internal/handlers/report"
	"innkeeper/internal/handlers/room"
	"innkeeper/transport/http/middleware"
)

type DomainHandlers struct {
	Room    room.Handler
	Guest   guest.Handler
	Booking booking.Handler
	Audit   audit.Handler
	Report  report.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	Auth           middleware.Auth
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Use(r.Auth.Auth)

		r.DomainHandlers.Room.Router(routerGroup)
		r.DomainHandlers.Guest.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Audit.Router(routerGroup)
		r.DomainHandlers.Report.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers, auth middleware.Auth) Router {
	return Router{
		DomainHandlers: domainHandlers,
		Auth:           auth,
	}
}
