package event

import "sync"

// Recorder keeps every emitted event in memory.
type Recorder struct {
	mutex  sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(e Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.events = append(r.events, e)
}

// Events returns a copy of all recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kind returns all recorded events of the given kind.
func (r *Recorder) Kind(kind Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Count(kind Kind) int {
	return len(r.Kind(kind))
}

func (r *Recorder) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.events = nil
}
