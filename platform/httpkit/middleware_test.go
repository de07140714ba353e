package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type jwtConfig string

func (c jwtConfig) GetJWTAccessSecret() string { return string(c) }

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/x", handlers...)
	return engine
}

func get(engine *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	userID := uuid.New()
	engine := newEngine(AuthRequired(jwtConfig("secret")), RequireRole("admin"), func(c *gin.Context) {
		id := MustGetIdentity(c)
		c.String(http.StatusOK, id.UserID().String())
	})

	valid := signToken(t, "secret", jwt.MapClaims{
		"sub": userID.String(), "type": "access", "roles": []string{"admin"},
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	rec := get(engine, "Bearer "+valid)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(engine, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(engine, "Bearer "+signToken(t, "other", jwt.MapClaims{
		"sub": userID.String(), "type": "access",
	})).Code)
	assert.Equal(t, http.StatusUnauthorized, get(engine, "Bearer "+signToken(t, "secret", jwt.MapClaims{
		"sub": userID.String(), "type": "refresh",
	})).Code)

	userToken := signToken(t, "secret", jwt.MapClaims{
		"sub": userID.String(), "type": "access", "roles": []string{"user"},
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	assert.Equal(t, http.StatusForbidden, get(engine, "Bearer "+userToken).Code)

	noExpiry := signToken(t, "secret", jwt.MapClaims{
		"sub": userID.String(), "type": "access", "roles": []string{"admin"},
	})
	assert.Equal(t, http.StatusUnauthorized, get(engine, "Bearer "+noExpiry).Code)
}

func TestRequestID(t *testing.T) {
	engine := newEngine(RequestID(), func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	rec := get(engine, "")
	minted := rec.Header().Get(HeaderRequestID)
	require.NotEmpty(t, minted)
	assert.Equal(t, minted, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "abc-123", rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(0.001), 2, logger.Nop())
	engine := newEngine(limiter.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(engine, "").Code)
	assert.Equal(t, http.StatusOK, get(engine, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(engine, "").Code)
}

func TestHandleError(t *testing.T) {
	engine := newEngine(func(c *gin.Context) {
		switch c.Query("kind") {
		case "domain":
			HandleError(c, apperr.NotFound("audit not found"))
		case "plain":
			HandleError(c, errors.New("pq: connection reset"))
		default:
			if !HandleError(c, nil) {
				c.Status(http.StatusNoContent)
			}
		}
	})

	do := func(kind string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x?kind="+kind, nil))
		return rec
	}

	rec := do("domain")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "audit not found")

	rec = do("plain")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")

	assert.Equal(t, http.StatusNoContent, do("").Code)
}

func TestSecurityHeaders(t *testing.T) {
	engine := newEngine(SecurityHeaders(), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := get(engine, "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
