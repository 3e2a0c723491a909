package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// ParseLevel converts a config string to a pterm log level.
func ParseLevel(s string) (pterm.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return pterm.LogLevelTrace, nil
	case "debug":
		return pterm.LogLevelDebug, nil
	case "info", "":
		return pterm.LogLevelInfo, nil
	case "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	case "off", "disabled":
		return pterm.LogLevelDisabled, nil
	default:
		return pterm.LogLevelDisabled, fmt.Errorf("unsupported log level %q", s)
	}
}

// ParseFormat converts a config string to a pterm log formatter.
func ParseFormat(s string) (pterm.LogFormatter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return pterm.LogFormatterColorful, nil
	case "json":
		return pterm.LogFormatterJSON, nil
	default:
		return pterm.LogFormatterColorful, fmt.Errorf("unsupported log format %q", s)
	}
}

// New builds a logger writing to out.
func New(level, format string, out io.Writer) (*pterm.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	fmtr, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return pterm.DefaultLogger.
		WithLevel(lvl).
		WithFormatter(fmtr).
		WithWriter(out).
		WithTime(false), nil
}
