package badger

import (
	"fmt"
	"io"
	"log/slog"
)

// Logger adapts slog to badger's printf-style logger interface.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Logger{logger: logger}
}

func (l *Logger) Infof(msg string, args ...any) {
	l.logger.Info(fmt.Sprintf(msg, args...), "component", "ledger_store")
}

func (l *Logger) Warningf(msg string, args ...any) {
	l.logger.Warn(fmt.Sprintf(msg, args...), "component", "ledger_store")
}

func (l *Logger) Debugf(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...), "component", "ledger_store")
}

func (l *Logger) Errorf(msg string, args ...any) {
	l.logger.Error(fmt.Sprintf(msg, args...), "component", "ledger_store")
}
