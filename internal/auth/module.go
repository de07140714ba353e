// Package auth handles accounts, sign-in and token refresh.
package auth

import (
	"leadscout_backend/internal/auth/handler"
	"leadscout_backend/internal/auth/repository"
	"leadscout_backend/internal/auth/service"
	apphttp "leadscout_backend/internal/http"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	return &Module{handler: handler.New(svc, val), service: svc}
}

func (m *Module) Name() string {
	return "auth"
}

func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterRoutes(authGroup)

	ctx.Protected.GET("/users/me", m.handler.GetMe)
	ctx.Admin.GET("/users", m.handler.ListUsers)
}

var _ apphttp.Module = (*Module)(nil)
