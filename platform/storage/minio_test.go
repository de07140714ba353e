package storage

import (
	"context"
	"errors"
	"testing"

	"leadscout_backend/platform/config"
)

func TestNewMinIOStoreDisabled(t *testing.T) {
	_, err := NewMinIOStore(&config.Config{})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestNewMinIOStoreConfigured(t *testing.T) {
	cfg := &config.Config{
		MinIOEndpoint:           "localhost:9000",
		MinIOAccessKey:          "minio",
		MinIOSecretKey:          "minio123",
		MinioBucketAuditBundles: "audit-bundles",
	}
	store, err := NewMinIOStore(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.bucket != "audit-bundles" {
		t.Fatalf("bucket = %q", store.bucket)
	}
}

func TestNoopGet(t *testing.T) {
	if _, err := (Noop{}).Get(context.Background(), "x"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
