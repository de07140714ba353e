package scheduler

import (
	"context"
	"fmt"

	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// AuditRunner executes queued audits.
type AuditRunner interface {
	RunAudit(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner AuditRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner AuditRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 4
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(runner, log)
	w.server = server
	return w, nil
}

func newWorker(runner AuditRunner, log *logger.Logger) *Worker {
	w := &Worker{
		mux:    asynq.NewServeMux(),
		runner: runner,
		log:    log,
	}
	w.mux.HandleFunc(TaskRunAudit, w.handleRunAudit)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleRunAudit(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRunAuditPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	auditID, err := uuid.Parse(payload.AuditID)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.runner.RunAudit(ctx, auditID)
	if err == nil {
		return nil
	}
	if apperr.Is(err, apperr.KindNotFound) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if lastAttempt(ctx) {
		w.log.Error("audit run failed", "auditId", auditID.String(), "error", err)
		if markErr := w.runner.MarkFailed(context.WithoutCancel(ctx), auditID, "audit run failed"); markErr != nil {
			w.log.Warn("failed to mark audit failed", "auditId", auditID.String(), "error", markErr)
		}
	}
	return err
}

func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}
