package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies an observable outcome.
type Kind string

const (
	NoMatch       Kind = "no_match"
	Conflict      Kind = "conflict"
	InPlace       Kind = "in_place"
	SourceMissing Kind = "source_missing"
	Moved         Kind = "moved"
	MoveFailed    Kind = "move_failed"
	RuleFailed    Kind = "rule_failed"
	GroupRejected Kind = "group_rejected"
	WatchSkipped  Kind = "watch_skipped"
	WatchFailed   Kind = "watch_failed"
	ConfigSkipped Kind = "config_skipped"
	ConfigFailed  Kind = "config_failed"
)

// Failure reports whether the kind represents something an operator has to
// look at.
func (k Kind) Failure() bool {
	switch k {
	case Conflict, MoveFailed, RuleFailed, GroupRejected, WatchFailed, ConfigFailed:
		return true
	}
	return false
}

// Event is a structured record emitted on every no-op, conflict and failure
// path of the pipeline.
type Event struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Path        string    `json:"path"`
	Detail      string    `json:"detail,omitempty"`
	Targets     []string  `json:"targets,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Time        time.Time `json:"time"`
}

func New(kind Kind, path, detail string, targets ...string) Event {
	return Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Path:    path,
		Detail:  detail,
		Targets: targets,
		Time:    time.Now().UTC(),
	}
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

func (f SinkFunc) Emit(e Event) {
	f(e)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type multiSink []Sink

// Multi fans every event out to all non-nil sinks.
func Multi(sinks ...Sink) Sink {
	ms := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			ms = append(ms, s)
		}
	}
	return ms
}

func (ms multiSink) Emit(e Event) {
	for _, s := range ms {
		s.Emit(e)
	}
}
