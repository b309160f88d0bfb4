package logging_test

import (
	"context"
	"testing"

	"romkeeper/internal/logging"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewJSONFormat(t *testing.T) {
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
}

func TestRunIDRoundTrip(t *testing.T) {
	ctx := logging.WithRunID(context.Background(), "run-42")
	id, ok := logging.RunIDFromContext(ctx)
	if !ok || id != "run-42" {
		t.Fatalf("expected run-42, got %q ok=%v", id, ok)
	}

	if _, ok := logging.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected no run id on empty context")
	}
}

func TestWithContextNilLogger(t *testing.T) {
	logger := logging.WithContext(context.Background(), nil)
	if logger == nil {
		t.Fatal("expected non-nil fallback logger")
	}
	logger.Info("no-op")
}
