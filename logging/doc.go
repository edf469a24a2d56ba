// Package logging provides a minimal logging interface and adapters for loanmesh.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// that the engine, flow and stages use, taking slog-style key/value pairs.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping a zap.Logger
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Backend: "zap"})
//	mesh := loanmesh.New(func(o *loanmesh.Options) { o.Logger = logger })
//
// Stages must never log one-time code values or full identity numbers.
package logging
