package logging

import (
	"errors"

	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// SentryHook forwards log entries at the configured levels to Sentry.
type SentryHook struct {
	levels []log.Level
	hub    *sentry.Hub
}

// NewSentryHook reports entries at levels through the current Sentry hub.
func NewSentryHook(levels []log.Level) *SentryHook {
	return &SentryHook{levels: levels, hub: sentry.CurrentHub()}
}

// Levels implements log.Hook.
func (h *SentryHook) Levels() []log.Level {
	return h.levels
}

// Fire implements log.Hook. An error field is reported as an exception,
// anything else as a message.
func (h *SentryHook) Fire(entry *log.Entry) error {
	hub := h.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentryLevel(entry.Level))
		extra := make(map[string]any, len(entry.Data))
		for k, v := range entry.Data {
			if k == log.ErrorKey {
				continue
			}
			extra[k] = v
		}
		scope.SetExtras(extra)

		if err, ok := entry.Data[log.ErrorKey].(error); ok {
			hub.CaptureException(errors.Join(errors.New(entry.Message), err))
			return
		}
		hub.CaptureMessage(entry.Message)
	})
	return nil
}

func sentryLevel(l log.Level) sentry.Level {
	switch l {
	case log.PanicLevel, log.FatalLevel:
		return sentry.LevelFatal
	case log.ErrorLevel:
		return sentry.LevelError
	case log.WarnLevel:
		return sentry.LevelWarning
	case log.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
