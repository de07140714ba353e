package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"leadscout_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type locationConfig struct {
	places string
	region string
}

func (c locationConfig) GetGazetteerPath() string       { return c.places }
func (c locationConfig) GetRegionGazetteerPath() string { return c.region }

func TestWithRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), logger.Nop(), "flaky", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryReturnsLastError(t *testing.T) {
	err := WithRetry(context.Background(), logger.Nop(), "db", 2, time.Millisecond, func() error {
		return errors.New("connection refused")
	})

	require.Error(t, err)
	assert.Equal(t, "db: connection refused", err.Error())
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, logger.Nop(), "db", 5, time.Second, func() error {
		t.Fatal("fn must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewResolverDefaults(t *testing.T) {
	resolver, err := NewResolver(locationConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1016367, resolver.Resolve("Chicago").Code)
}

func TestNewResolverLoadsGazetteerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.csv")
	csv := "Criteria ID,Name,Canonical Name,Parent ID,Country Code,Target Type,Status\n" +
		"1026201,Austin,\"Austin,Texas,United States\",21176,US,City,Active\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	resolver, err := NewResolver(locationConfig{places: path})
	require.NoError(t, err)
	assert.Equal(t, 1026201, resolver.Resolve("Austin, Texas").Code)
}

func TestNewResolverMissingFile(t *testing.T) {
	_, err := NewResolver(locationConfig{places: filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)
}
