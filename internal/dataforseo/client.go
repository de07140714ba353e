// Package dataforseo is the upstream client for the DataForSEO v3 API and
// the fetcher that assembles a scoring bundle from it.
package dataforseo

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadscout_backend/platform/cache"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"

	"golang.org/x/time/rate"
)

const (
	maxResponseBytes = 32 << 20

	statusOK          = 20000
	statusTaskCreated = 20100
	statusTaskHanded  = 40601
	statusTaskInQueue = 40602
)

// ErrDisabled is returned when no API credentials are configured.
var ErrDisabled = errors.New("dataforseo is not configured")

// APIError is a non-success status reported by the API.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("dataforseo %s: status %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("dataforseo %s: http status %d", e.Path, e.HTTPStatus)
}

// Observer receives call and cache measurements.
type Observer interface {
	ObserveUpstreamCall(endpoint string, ok bool, duration time.Duration)
	ObserveCacheLookup(hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveUpstreamCall(string, bool, time.Duration) {}
func (nopObserver) ObserveCacheLookup(bool)                         {}

// Client talks to the DataForSEO API. Rate-limit state lives on the client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	login      string
	password   string
	enabled    bool
	limiter    *rate.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	obs        Observer
	log        *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache caches successful live responses for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		if c != nil && ttl > 0 {
			cl.cache = c
			cl.cacheTTL = ttl
		}
	}
}

// WithObserver reports call metrics to obs.
func WithObserver(obs Observer) Option {
	return func(cl *Client) {
		if obs != nil {
			cl.obs = obs
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(cl *Client) {
		if h != nil {
			cl.httpClient = h
		}
	}
}

// New creates a client from configuration.
func New(cfg config.DataForSEOConfig, log *logger.Logger, opts ...Option) *Client {
	perMinute := cfg.GetDataForSEORequestsPerMinute()
	if perMinute <= 0 {
		perMinute = 120
	}
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.GetDataForSEOTimeout()},
		baseURL:    strings.TrimRight(cfg.GetDataForSEOBaseURL(), "/"),
		login:      cfg.GetDataForSEOLogin(),
		password:   cfg.GetDataForSEOPassword(),
		enabled:    cfg.IsDataForSEOEnabled(),
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), max(1, perMinute/12)),
		cache:      cache.Noop{},
		obs:        nopObserver{},
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether credentials are configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Post sends tasks to a live endpoint and decodes the response into out.
// Every task in the response must have succeeded.
func (c *Client) Post(ctx context.Context, path string, tasks any, out any) error {
	body, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}

	key := cacheKey(path, body)
	if cached, err := c.cache.Get(ctx, key); err == nil {
		c.obs.ObserveCacheLookup(true)
		return json.Unmarshal(cached, out)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		c.log.Warn("dataforseo cache read failed", "path", path, "error", err)
	}
	c.obs.ObserveCacheLookup(false)

	raw, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if err := checkTasks(path, raw, statusOK); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if err := c.cache.Set(ctx, key, raw, c.cacheTTL); err != nil {
		c.log.Warn("dataforseo cache write failed", "path", path, "error", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	raw, err := c.send(req, path)
	c.obs.ObserveUpstreamCall(endpointLabel(path), err == nil, time.Since(start))
	return raw, err
}

func (c *Client) send(req *http.Request, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataforseo %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{HTTPStatus: resp.StatusCode, Path: path}
	}

	var head envelopeStatus
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if head.StatusCode != statusOK {
		return nil, &APIError{HTTPStatus: resp.StatusCode, Code: head.StatusCode, Message: head.StatusMessage, Path: path}
	}
	return raw, nil
}

type taskStatus struct {
	ID            string `json:"id"`
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

type envelopeStatus struct {
	StatusCode    int          `json:"status_code"`
	StatusMessage string       `json:"status_message"`
	Tasks         []taskStatus `json:"tasks"`
}

// checkTasks requires every task in raw to carry one of the accepted codes.
func checkTasks(path string, raw []byte, accept ...int) error {
	var env envelopeStatus
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	for _, t := range env.Tasks {
		if !containsCode(accept, t.StatusCode) {
			return &APIError{HTTPStatus: http.StatusOK, Code: t.StatusCode, Message: t.StatusMessage, Path: path}
		}
	}
	return nil
}

func containsCode(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func cacheKey(path string, body []byte) string {
	sum := sha256.Sum256(append([]byte(path+"\n"), body...))
	return "dfs:" + hex.EncodeToString(sum[:])
}

// endpointLabel trims the version prefix and task ids so metric labels stay
// bounded.
func endpointLabel(path string) string {
	p := strings.TrimPrefix(path, "/v3/")
	if i := strings.Index(p, "/task_get/"); i >= 0 {
		p = p[:i] + "/task_get"
	}
	return p
}
