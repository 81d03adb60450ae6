package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewHonorsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Output: &buf})
	logger.Info("hidden")
	logger.Warn("refresh failed", KeySlotID, "s-1")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "refresh failed") || !strings.Contains(out, "slot_id=s-1") {
		t.Fatalf("expected warn line with slot field, got %q", out)
	}
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Options{Level: "chatty", Output: &buf})
	logger.Debug("debug line")
	logger.Info("info line")
	if strings.Contains(buf.String(), "debug line") || !strings.Contains(buf.String(), "info line") {
		t.Fatalf("expected info level, got %q", buf.String())
	}
}
