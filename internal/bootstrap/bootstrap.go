// Package bootstrap holds the wiring shared by the api, scheduler and
// leadctl binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	auditservice "leadscout_backend/internal/audits/service"
	"leadscout_backend/internal/dataforseo"
	"leadscout_backend/internal/email"
	"leadscout_backend/internal/location"
	"leadscout_backend/internal/pitch"
	"leadscout_backend/internal/scheduler"
	"leadscout_backend/internal/sitesignals"
	"leadscout_backend/platform/cache"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/db"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/metrics"
	"leadscout_backend/platform/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditDeps are the collaborators of the audit service.
type AuditDeps struct {
	Fetcher  *dataforseo.Fetcher
	Resolver *location.Resolver
	Options  []auditservice.Option

	closers []func() error
}

// Close releases every connection opened by NewAuditDeps.
func (d *AuditDeps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

// WithRetry runs fn up to attempts times with quadratic backoff.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

// OpenPool connects to Postgres, retrying while the database comes up.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	})
	return pool, err
}

// NewResolver loads the configured gazetteers, falling back to the embedded
// tables when no path is set.
func NewResolver(cfg config.LocationConfig) (*location.Resolver, error) {
	places := location.DefaultGazetteer()
	if path := cfg.GetGazetteerPath(); path != "" {
		g, err := location.LoadGazetteer(path)
		if err != nil {
			return nil, fmt.Errorf("load gazetteer: %w", err)
		}
		places = g
	}

	regionPlaces := location.DefaultRegionGazetteer()
	if path := cfg.GetRegionGazetteerPath(); path != "" {
		g, err := location.LoadGazetteer(path)
		if err != nil {
			return nil, fmt.Errorf("load region gazetteer: %w", err)
		}
		regionPlaces = g
	}

	return location.NewResolver(places, location.Illinois(regionPlaces)), nil
}

// NewAuditDeps builds the upstream fetcher, resolver and every optional
// collaborator whose configuration is present. mgr may be nil.
func NewAuditDeps(ctx context.Context, cfg *config.Config, log *logger.Logger, mgr *metrics.Manager) (*AuditDeps, error) {
	deps := &AuditDeps{}

	resolver, err := NewResolver(cfg)
	if err != nil {
		return nil, err
	}
	deps.Resolver = resolver

	clientOpts := make([]dataforseo.Option, 0, 2)
	if mgr != nil {
		clientOpts = append(clientOpts, dataforseo.WithObserver(mgr))
		deps.Options = append(deps.Options, auditservice.WithObserver(mgr))
	}
	if cfg.GetRedisURL() != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
		if err != nil {
			log.Warn("upstream cache unavailable", "error", err)
		} else {
			clientOpts = append(clientOpts, dataforseo.WithCache(redisCache, cfg.GetUpstreamCacheTTL()))
			deps.closers = append(deps.closers, redisCache.Close)
		}
	}
	if !cfg.IsDataForSEOEnabled() {
		log.Warn("DataForSEO credentials not configured; audits will score empty bundles")
	}
	client := dataforseo.New(cfg, log, clientOpts...)
	deps.Fetcher = dataforseo.NewFetcher(client, sitesignals.New(), log)

	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOStore(cfg)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("init object store: %w", err)
		}
		if err := WithRetry(ctx, log, "ensure audit bundle bucket", 5, 2*time.Second, func() error {
			return store.EnsureBucket(ctx)
		}); err != nil {
			deps.Close()
			return nil, err
		}
		deps.Options = append(deps.Options, auditservice.WithObjectStore(store))
		log.Info("audit bundle archive enabled", "bucket", cfg.GetMinioBucketAuditBundles())
	}

	if cfg.GetRedisURL() != "" {
		queue, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Warn("audit queue unavailable; async audits disabled", "error", err)
		} else {
			deps.Options = append(deps.Options, auditservice.WithEnqueuer(queue))
			deps.closers = append(deps.closers, queue.Close)
		}
	}

	if cfg.IsPitchEnabled() {
		gen, err := pitch.New(ctx, cfg)
		if err != nil {
			log.Warn("pitch generator unavailable", "error", err)
		} else {
			deps.Options = append(deps.Options, auditservice.WithPitchWriter(gen))
		}
	}

	deps.Options = append(deps.Options, auditservice.WithMailer(email.NewSender(cfg)))
	return deps, nil
}
