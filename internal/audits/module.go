// Package audits exposes business audits over HTTP.
package audits

import (
	"leadscout_backend/internal/audits/handler"
	"leadscout_backend/internal/audits/repository"
	"leadscout_backend/internal/audits/service"
	apphttp "leadscout_backend/internal/http"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule wires the audit repository, service and handler. Optional
// collaborators (queue, storage, pitch writer, mailer, metrics) come in as
// service options.
func NewModule(pool *pgxpool.Pool, fetcher service.Fetcher, resolver service.LocationResolver, val *validator.Validator, log *logger.Logger, opts ...service.Option) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, fetcher, resolver, log, opts...)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

func (m *Module) Name() string {
	return "audits"
}

// Service exposes the audit service to the job worker and CLI.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the audit repository for background maintenance.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/audits"))
	m.handler.RegisterScoringRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
