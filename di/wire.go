//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"innkeeper/config"
	"innkeeper/infras/jwt"
	"innkeeper/infras/kafka"
	"innkeeper/infras/otel"
	"innkeeper/infras/postgres"
	"innkeeper/infras/redis"
	"innkeeper/infras/s3"
	"innkeeper/shared/cache"
	"innkeeper/shared/lock"
	"innkeeper/transport/http"
	"innkeeper/transport/http/middleware"
	"innkeeper/transport/http/router"

	auditRepository "innkeeper/internal/domains/audit/repository"
	auditService "innkeeper/internal/domains/audit/service"
	bookingRepository "innkeeper/internal/domains/booking/repository"
	bookingService "innkeeper/internal/domains/booking/service"
	guestRepository "innkeeper/internal/domains/guest/repository"
	guestService "innkeeper/internal/domains/guest/service"
	reportService "innkeeper/internal/domains/report/service"
	roomRepository "innkeeper/internal/domains/room/repository"
	roomService "innkeeper/internal/domains/room/service"

	auditHandler "innkeeper/internal/handlers/audit"
	bookingHandler "innkeeper/internal/handlers/booking"
	guestHandler "innkeeper/internal/handlers/guest"
	reportHandler "innkeeper/internal/handlers/report"
	roomHandler "innkeeper/internal/handlers/room"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	lock.NewKeyedMutex,
)

var auditDomain = wire.NewSet(
	auditRepository.New,
	auditService.New,
)

var roomDomain = wire.NewSet(
	roomRepository.New,
	roomService.New,
)

var guestDomain = wire.NewSet(
	guestRepository.New,
	guestService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var reportDomain = wire.NewSet(
	reportService.New,
)

var domains = wire.NewSet(
	auditDomain,
	roomDomain,
	guestDomain,
	bookingDomain,
	reportDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	roomHandler.New,
	guestHandler.New,
	bookingHandler.New,
	auditHandler.New,
	reportHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
