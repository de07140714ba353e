package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	log.AuditEvent("a1", "example.com", 63, []string{"backlinks"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audit_completed", entry["msg"])
	assert.Equal(t, "example.com", entry["domain"])
	assert.Equal(t, float64(63), entry["lead_score"])
	assert.Equal(t, []interface{}{"backlinks"}, entry["failed_sources"])
}

func TestDevelopmentLoggerWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("development", &buf)

	log.Debug("visible in development")
	log.UpstreamFailure("dataforseo", "/v3/backlinks/summary/live", errors.New("timeout"))

	out := buf.String()
	assert.Contains(t, out, "visible in development")
	assert.Contains(t, out, "source=dataforseo")
	assert.False(t, strings.HasPrefix(out, "{"))
}

func TestAuthEventFailureIncludesReason(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	log.AuthEvent("sign_in", "owner@example.com", false, "password mismatch")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "password mismatch", entry["reason"])
}
