package logging

import (
	"io"
	"os"
	"strings"

	hclog "github.com/hashicorp/go-hclog"
)

// Canonical field names shared by every module.
const (
	KeySlotID     = "slot_id"
	KeyStep       = "step"
	KeyCompleted  = "completed_steps"
	KeyOutcome    = "outcome"
	KeyGeneration = "generation"
	KeyRequestID  = "request_id"
	KeyError      = "error"
)

// Options configures the root logger.
type Options struct {
	Level  string
	Output io.Writer
	JSON   bool
}

// New builds the root logger. Unknown levels fall back to info.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := hclog.LevelFromString(strings.TrimSpace(opts.Level))
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "shiftbuddy",
		Level:      level,
		Output:     out,
		JSONFormat: opts.JSON,
	})
}

// Discard returns a logger that drops everything; used by tests and the TUI.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}
