// Package notify carries mutation outcomes from the core to whatever
// renders them (a UI toast, a log line). The core emits structured
// outcomes; presentation is the sink's problem.
package notify

import (
	"log/slog"
)

// Level classifies an outcome for presentation.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Outcome is a structured mutation result: a machine-readable code plus a
// human-readable message and the parameters the message was built from.
type Outcome struct {
	Level   Level
	Code    string
	Message string
	Args    []slog.Attr
}

// Notifier receives outcomes. Implementations must not block.
type Notifier interface {
	Notify(o Outcome)
}

// SlogNotifier logs every outcome through slog.
type SlogNotifier struct {
	Logger *slog.Logger
}

func (n SlogNotifier) Notify(o Outcome) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := make([]any, 0, 2+2*len(o.Args))
	attrs = append(attrs, "code", o.Code)
	for _, a := range o.Args {
		attrs = append(attrs, a.Key, a.Value.Any())
	}

	switch o.Level {
	case LevelWarning:
		logger.Warn(o.Message, attrs...)
	case LevelError:
		logger.Error(o.Message, attrs...)
	default:
		logger.Info(o.Message, attrs...)
	}
}

// Nop discards all outcomes.
type Nop struct{}

func (Nop) Notify(Outcome) {}
