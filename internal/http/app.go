// Package http defines what the router needs from the composition root.
package http

import (
	"context"
	nethttp "net/http"

	"leadscout_backend/platform/config"
	"leadscout_backend/platform/httpkit"
	"leadscout_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs /api/health; *pgxpool.Pool satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// MetricsProvider records request metrics and serves the scrape endpoint.
type MetricsProvider interface {
	httpkit.HTTPObserver
	Handler() nethttp.Handler
}

// App is assembled in cmd/api and handed to router.New. Health and Metrics
// are optional.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Metrics MetricsProvider
	Modules []Module
}
