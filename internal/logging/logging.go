// Package logging builds the zap logger the CLI hands to every package.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level selects how much the CLI logs.
type Level int

const (
	// Quiet discards everything.
	Quiet Level = iota
	// Normal logs warnings and errors.
	Normal
	// Verbose logs debug diagnostics.
	Verbose
)

// LevelFor maps the --verbose and --quiet flags to a Level. --quiet wins.
func LevelFor(verbose, quiet bool) Level {
	switch {
	case quiet:
		return Quiet
	case verbose:
		return Verbose
	default:
		return Normal
	}
}

// New returns a console logger on stderr for level.
func New(level Level) *zap.Logger {
	return NewWriter(level, os.Stderr)
}

// NewWriter returns a console logger writing to w. Stdout is reserved for
// command output, so callers pass stderr or a test buffer.
func NewWriter(level Level, w io.Writer) *zap.Logger {
	if level == Quiet {
		return zap.NewNop()
	}

	threshold := zapcore.WarnLevel
	if level == Verbose {
		threshold = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	if level != Verbose {
		encCfg.CallerKey = ""
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		threshold,
	)

	opts := []zap.Option{}
	if level == Verbose {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...)
}
