package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"innkeeper/infras/jwt"
	"innkeeper/infras/otel"
	"innkeeper/shared/constant"
	"innkeeper/shared/failure"
	"innkeeper/transport/http/response"
)

// Auth validates bearer tokens and stamps the actor onto the request
// context. Every audited mutation reads the actor from there.
type Auth interface {
	Auth(next http.Handler) http.Handler
}

type authImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
}

func NewAuthMiddleware(jwtService jwt.JWT, otel otel.Otel) Auth {
	return &authImpl{
		jwtService: jwtService,
		otel:       otel,
	}
}

func (m *authImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "auth.middleware")
		defer scope.End()

		token, err := jwt.ExtractTokenFromHeader(request.Header.Get(constant.RequestHeaderAuthorization))
		if err != nil {
			scope.TraceError(err)
			log.Warn().Err(err).Msg("missing or malformed authorization header")

			response.WithError(writer, failure.Unauthorized(err.Error()))

			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			scope.TraceError(err)
			log.Warn().Err(err).Msg("token validation failed")

			response.WithError(writer, failure.Unauthorized("invalid or expired token"))

			return
		}

		ctx = context.WithValue(ctx, constant.ContextKeyActorID, claims.ActorID)
		ctx = context.WithValue(ctx, constant.ContextKeyActorSub, claims.Email)
		ctx = context.WithValue(ctx, constant.ContextKeyTokenID, claims.TokenID)

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}
