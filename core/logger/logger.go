package logger

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// AuditLogger records user-visible actions for the audit trail in addition
// to regular leveled logging.
type AuditLogger interface {
	Logger
	Auditf(action, subject string, fields map[string]any)
}
