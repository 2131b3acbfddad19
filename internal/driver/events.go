package driver

// EventKind classifies driver progress events.
type EventKind uint8

const (
	// EventStart marks an item entering its phase.
	EventStart EventKind = iota
	// EventDone marks an item completing cleanly.
	EventDone
	// EventFail marks an item completing with errors.
	EventFail
)

// Event is one progress notification: a load of one manifest file or a
// resolution of one query. Item is the file path or query text.
type Event struct {
	Kind EventKind
	Item string
	Note string
}

// EventFunc receives progress events. Implementations must be safe for
// concurrent calls; the driver emits from worker goroutines.
type EventFunc func(Event)

func emit(fn EventFunc, ev Event) {
	if fn != nil {
		fn(ev)
	}
}
