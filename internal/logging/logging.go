// Package logging bootstraps the process-wide structured logger. It is
// initialized once at startup by the CLI entry points and threaded
// explicitly into every component that needs it, per the "explicit
// lifecycle" design note (spec.md §9): nothing in this module reaches for
// a package-level logger of its own.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the process logger is built.
type Options struct {
	// Debug enables development-mode logging (console encoder, debug
	// level, stack traces on warn+). Defaults to production JSON logging.
	Debug bool
}

// New builds a *zap.Logger configured for either production (JSON,
// info level) or debug (console, debug level) output, matching the
// cmd/nerd bootstrap shape in the example corpus.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// Nop returns a logger that discards everything, used as a safe default
// in tests and in components constructed without an explicit logger.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// IsDebugEnv reports whether the conventional LEGALMT_DEBUG env var asks
// for development-mode logging.
func IsDebugEnv() bool {
	return os.Getenv("LEGALMT_DEBUG") == "1" || os.Getenv("LEGALMT_DEBUG") == "true"
}
