package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Field names.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldQueryID    = "query_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldStatement  = "statement"
	FieldSelection  = "selection"
	FieldFiscalYear = "fiscal_year"
)

// Components.
const (
	ComponentCLI    = "cli"
	ComponentHTTP   = "http"
	ComponentLoader = "loader"
	ComponentEngine = "engine"
	ComponentAudit  = "audit"
	ComponentReload = "reload"
)

// Formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects the handler. Writer defaults to stderr so command output on
// stdout stays clean.
type Config struct {
	Level  string
	Format string
	Writer io.Writer
}

// New builds a logger from cfg.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case FormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

// ParseLevel accepts debug, info, warn or error. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Component returns logger tagged with a component name.
func Component(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String(FieldComponent, name))
}

// Err is the attribute for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
