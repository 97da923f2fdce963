package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// New returns a structured logger writing to w. Format is "json" or "text".
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)).With("service", "idledger"), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)).With("service", "idledger"), nil
	}
	return nil, fmt.Errorf("invalid log format %q", format)
}
