// Package telemetry wraps zap for the structured logging used
// throughout the controller and cmd/ entry points.
package telemetry

import (
	"go.uber.org/zap"
)

// New builds a production zap logger for normal operation.
func New() (*zap.Logger, error) {
	return zap.NewProduction()
}

// NewDevelopment builds a console-friendly zap logger, used by the CLI
// when run interactively (not as a daemon).
func NewDevelopment() (*zap.Logger, error) {
	return zap.NewDevelopment()
}

// Nop returns a logger that discards everything, for tests that don't
// care about log output.
func Nop() *zap.Logger {
	return zap.NewNop()
}
