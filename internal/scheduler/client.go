package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"leadscout_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	defaultQueue  = "default"
	auditMaxRetry = 3
	auditTimeout  = 10 * time.Minute
)

var errNoClient = errors.New("scheduler client not configured")

// Client enqueues audit runs for the worker process.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, errors.New("redis url not configured")
	}
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}
	return &Client{client: asynq.NewClient(opt), queue: queueName(cfg)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueAudit is idempotent per audit: the audit ID is the task ID, and a
// task that is already queued counts as success.
func (c *Client) EnqueueAudit(ctx context.Context, auditID uuid.UUID) error {
	if c == nil || c.client == nil {
		return errNoClient
	}

	task, err := NewRunAuditTask(RunAuditPayload{AuditID: auditID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(auditID.String()),
		asynq.MaxRetry(auditMaxRetry),
		asynq.Timeout(auditTimeout),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue audit %s: %w", auditID, err)
	}
	return nil
}

func queueName(cfg config.SchedulerConfig) string {
	if q := cfg.GetAsynqQueueName(); q != "" {
		return q
	}
	return defaultQueue
}

// redisClientOpt accepts redis:// and rediss:// URLs. tlsInsecure disables
// certificate checks, forcing TLS on even for redis:// URLs.
func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}

	tlsConfig := parsed.TLSConfig
	if tlsInsecure {
		if tlsConfig == nil {
			tlsConfig = &tls.Config{}
		} else {
			tlsConfig = tlsConfig.Clone()
		}
		tlsConfig.InsecureSkipVerify = true
	}

	return asynq.RedisClientOpt{
		Addr:      parsed.Addr,
		Username:  parsed.Username,
		Password:  parsed.Password,
		DB:        parsed.DB,
		TLSConfig: tlsConfig,
	}, nil
}
