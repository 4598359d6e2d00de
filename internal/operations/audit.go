package operations

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bankscli/internal/config"
)

// AuditLog appends "<timestamp> : <message>" lines to a text file.
// The file is opened and closed for every entry so the trail survives crashes.
type AuditLog struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// NewAuditLog creates an audit log writing to path
func NewAuditLog(path string, logger *slog.Logger) *AuditLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLog{
		path:   path,
		now:    time.Now,
		logger: logger.With(slog.String("component", "audit")),
	}
}

// WithClock replaces the time source
func (a *AuditLog) WithClock(now func() time.Time) *AuditLog {
	a.now = now
	return a
}

// Path returns the audit file location
func (a *AuditLog) Path() string {
	return a.path
}

// Log appends one entry
func (a *AuditLog) Log(message string) error {
	ts := a.now().Format(config.AuditTimestampFormat)

	a.logger.Info(message, slog.String("audit_ts", ts))

	if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
		return fmt.Errorf("create audit log directory: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%s : %s\n", ts, message); err != nil {
		f.Close()
		return fmt.Errorf("write audit log: %w", err)
	}
	return f.Close()
}
