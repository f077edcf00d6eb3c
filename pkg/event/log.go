package event

import (
	"strings"

	"github.com/mwantia/gosort/pkg/log"
)

// LogSink writes events to a logger. Failures are logged as errors, skipped
// watch directories as warnings and everything else at info or debug.
type LogSink struct {
	log log.LoggerService
}

func NewLogSink(logger log.LoggerService) *LogSink {
	return &LogSink{log: logger}
}

func (s *LogSink) Emit(e Event) {
	msg := "%s: %s"
	args := []any{e.Kind, e.Path}
	if e.Detail != "" {
		msg += " (%s)"
		args = append(args, e.Detail)
	}
	if len(e.Targets) > 0 {
		msg += " -> [%s]"
		args = append(args, strings.Join(e.Targets, ", "))
	}

	switch {
	case e.Kind.Failure():
		s.log.Error(msg, args...)
	case e.Kind == WatchSkipped || e.Kind == ConfigSkipped:
		s.log.Warn(msg, args...)
	case e.Kind == Moved:
		s.log.Info(msg, args...)
	default:
		s.log.Debug(msg, args...)
	}
}
