// Package pkg provides shared utilities for the xferreset transfer pipeline.
//
// This package contains common functionality used by the pipeline engine,
// the device backends and the command, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for setup, submission, transfer and reset failures
//   - The [TransferStatus] reported by every completed transfer
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentReset, "send reset", "transfers", n)
//
// # Errors
//
// Errors are sentinel values wrapped with context:
//
//	if errors.Is(err, pkg.ErrResourceExhausted) {
//	    // slot allocation failed during setup
//	}
package pkg
