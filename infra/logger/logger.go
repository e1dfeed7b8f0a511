package logger

import corelogger "github.com/4Lajf/grafikonator-6000/core/logger"

// Alias the core interfaces for convenience.
// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// AuditLogger mirrors the core audit logger interface.
type AuditLogger = corelogger.AuditLogger

// NopLogger implements AuditLogger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)                 {}
func (NopLogger) Debugw(string, map[string]any)         {}
func (NopLogger) Infof(string, ...any)                  {}
func (NopLogger) Warnf(string, ...any)                  {}
func (NopLogger) Errorf(string, ...any)                 {}
func (NopLogger) Auditf(string, string, map[string]any) {}

// New returns an AuditLogger for the given component. The environment is
// detected via the APP_ENV variable.
func New(component string) AuditLogger {
	return NewZerologLogger(component)
}
