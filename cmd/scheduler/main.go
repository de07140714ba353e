package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"leadscout_backend/internal/audits"
	"leadscout_backend/internal/bootstrap"
	"leadscout_backend/internal/scheduler"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenPool(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	deps, err := bootstrap.NewAuditDeps(ctx, cfg, log, nil)
	if err != nil {
		log.Error("failed to initialize audit dependencies", "error", err)
		panic("failed to initialize audit dependencies: " + err.Error())
	}
	defer deps.Close()

	auditsModule := audits.NewModule(pool, deps.Fetcher, deps.Resolver, validator.New(), log, deps.Options...)

	worker, err := scheduler.NewWorker(cfg, auditsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	sweeper := scheduler.NewStaleAuditSweeper(auditsModule.Repository(), log, 0, 0)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		defer stop()
		worker.Run(ctx)
	}()

	wg.Wait()
	log.Info("scheduler stopped")
}
