package tsd

import "fmt"

// EventKind tags an Event.
type EventKind int

const (
	// ItemResolved carries the relative path of an installed definition file.
	ItemResolved EventKind = iota + 1
	// ToolMissing means the tsd executable could not be found. Terminal.
	ToolMissing
	// Finished means the process exited. Terminal.
	Finished
	// Aborted means the run was cancelled and the process killed. Terminal.
	Aborted
)

func (k EventKind) String() string {
	switch k {
	case ItemResolved:
		return "item-resolved"
	case ToolMissing:
		return "tool-missing"
	case Finished:
		return "finished"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Terminal reports whether no event can follow one of this kind.
func (k EventKind) Terminal() bool {
	return k == ToolMissing || k == Finished || k == Aborted
}

// Event is one step of a run's output stream: zero or more ItemResolved
// followed by exactly one terminal event.
type Event struct {
	Kind     EventKind
	Path     string
	ExitCode int
}

func (e Event) String() string {
	switch e.Kind {
	case ItemResolved:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Path)
	case Finished:
		return fmt.Sprintf("%s(%d)", e.Kind, e.ExitCode)
	default:
		return e.Kind.String()
	}
}

// Sink receives the events of one run. Calls are never concurrent.
type Sink func(Event)
