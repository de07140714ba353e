package dataforseo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"leadscout_backend/internal/scoring"
	"leadscout_backend/platform/cache"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okEnvelope = `{"status_code":20000,"status_message":"Ok.","tasks":[{"id":"t1","status_code":20000,"status_message":"Ok.","result":[%s]}]}`

func envelope(result string) string {
	return strings.Replace(okEnvelope, "%s", result, 1)
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		DataForSEOLogin:          "user@example.com",
		DataForSEOPassword:       "secret",
		DataForSEOBaseURL:        baseURL,
		DataForSEORequestsPerMin: 6000,
		DataForSEOTimeout:        5 * time.Second,
	}
}

func TestPostDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user@example.com", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, PathRankedKeywords, r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var tasks []map[string]any
		if assert.NoError(t, json.Unmarshal(body, &tasks)) && assert.Len(t, tasks, 1) {
			assert.Equal(t, "example.com", tasks[0]["target"])
		}

		_, _ = io.WriteString(w, envelope(`{"items":[{"keyword_data":{"keyword":"dentist"}}]}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), logger.Nop())
	env, err := c.RankedKeywords(context.Background(), Request{Domain: "example.com", LocationCode: 1016367})
	require.NoError(t, err)

	assert.Equal(t, 1, scoring.ExtractKeywordCount(scoring.Bundle{RankedKeywords: env}))
}

func TestPostErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
	}{
		{name: "http error", status: http.StatusInternalServerError, body: `oops`},
		{name: "top level status", status: http.StatusOK, body: `{"status_code":40100,"status_message":"Not authorized"}`, wantCode: 40100},
		{name: "task status", status: http.StatusOK, body: `{"status_code":20000,"tasks":[{"status_code":40501,"status_message":"Invalid Field"}]}`, wantCode: 40501},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := New(testConfig(srv.URL), logger.Nop())
			_, err := c.Backlinks(context.Background(), Request{Domain: "example.com"})

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestDisabledClientMakesNoCalls(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.DataForSEOPassword = ""
	c := New(cfg, logger.Nop())

	_, err := c.OnPage(context.Background(), Request{Domain: "example.com"})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.False(t, c.Enabled())
	assert.Zero(t, calls.Load())
}

func TestPostUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, envelope(`{"items":[{"url":"https://example.com/","onpage_score":77}]}`))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rc := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	c := New(testConfig(srv.URL), logger.Nop(), WithCache(rc, time.Hour))

	for i := 0; i < 3; i++ {
		env, err := c.OnPage(context.Background(), Request{Domain: "example.com"})
		require.NoError(t, err)
		assert.Equal(t, 77.0, scoring.ExtractOnPageScore(scoring.Bundle{OnPage: env}))
	}
	assert.Equal(t, int32(1), calls.Load())

	// A different task body is a different cache entry.
	_, err := c.OnPage(context.Background(), Request{Domain: "other.com"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestReviewsPollsUntilReady(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == PathReviewsTaskPost:
			_, _ = io.WriteString(w, `{"status_code":20000,"tasks":[{"id":"abc-123","status_code":20100,"status_message":"Task Created."}]}`)
		case r.Method == http.MethodGet && r.URL.Path == PathReviewsTaskGet+"abc-123":
			if polls.Add(1) < 3 {
				_, _ = io.WriteString(w, `{"status_code":20000,"tasks":[{"id":"abc-123","status_code":40602,"status_message":"Task In Queue."}]}`)
				return
			}
			_, _ = io.WriteString(w, envelope(`{"rating":{"value":4.8,"votes_count":64},"reviews_count":64,"items":[{"timestamp":"2024-05-01 10:00:00 +00:00","owner_answer":"Thanks"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), logger.Nop())
	env, err := c.Reviews(context.Background(), Request{BusinessName: "Bright Smile Dental", LocationCode: 1016367}, time.Millisecond)
	require.NoError(t, err)

	b := scoring.Bundle{Reviews: env}
	assert.Equal(t, 64, scoring.ExtractReviewCount(b))
	assert.Equal(t, 1.0, scoring.ExtractResponseRate(b))
	assert.Equal(t, int32(3), polls.Load())
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "backlinks/backlinks/live", endpointLabel(PathBacklinks))
	assert.Equal(t, "business_data/google/reviews/task_get", endpointLabel(PathReviewsTaskGet+"abc"))
}
