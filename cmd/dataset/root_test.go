package main

import (
	"context"
	"testing"
)

func TestRun_ClosesLoggerOnError(t *testing.T) {
	t.Setenv("LOG_DIR", t.TempDir())

	err := run(context.Background(), []string{"split", "--ratio", "2"})
	if err == nil {
		t.Fatal("Expected invalid ratio to fail")
	}
	if log != nil {
		t.Error("Expected logger to be closed after a failed command")
	}
}

func TestRun_ClosesLoggerOnSuccess(t *testing.T) {
	t.Setenv("LOG_DIR", t.TempDir())

	if err := run(context.Background(), []string{"stats", t.TempDir()}); err != nil {
		t.Fatalf("Failed to run stats: %v", err)
	}
	if log != nil {
		t.Error("Expected logger to be closed after a successful command")
	}
}
