package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestDiscardIsSilent(t *testing.T) {
	logger := Discard()
	if logger == nil {
		t.Fatal("Discard returned nil")
	}
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should report all levels as disabled")
	}
	// Must not panic.
	logger.Info("hello", "key", "value")
}

func TestDefault(t *testing.T) {
	base := slog.New(discardHandler{})
	if got := Default(base); got != base {
		t.Error("Default should return the provided logger unchanged")
	}
	if got := Default(nil); got == nil {
		t.Error("Default(nil) should return a usable logger")
	}
}
