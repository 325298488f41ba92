package sim

import "fmt"

// EventKind identifies which variant an Event is.
// The numeric value is the tie-break rank for events planned at the same time.
type EventKind int

const (
	// EventEndOfSimulation is never placed on the calendar; Step returns it
	// once the calendar has drained.
	EventEndOfSimulation EventKind = iota
	// EventNewRequest fires when a source generates its next request. ID is the source index.
	EventNewRequest
	// EventDeviceRelease fires when a device finishes service. ID is the device index.
	EventDeviceRelease
)

func (k EventKind) String() string {
	switch k {
	case EventEndOfSimulation:
		return "EndOfSimulation"
	case EventNewRequest:
		return "NewRequest"
	case EventDeviceRelease:
		return "DeviceRelease"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a planned state transition.
type Event struct {
	Time int64     // Planned simulation time (in ticks)
	Kind EventKind // Variant
	ID   int       // Source index for NewRequest, device index for DeviceRelease
}

// NewRequestEvent plans the next arrival from source at time.
func NewRequestEvent(time int64, source int) Event {
	return Event{Time: time, Kind: EventNewRequest, ID: source}
}

// DeviceReleaseEvent plans the end of service on device at time.
func DeviceReleaseEvent(time int64, device int) Event {
	return Event{Time: time, Kind: EventDeviceRelease, ID: device}
}

// EndOfSimulationEvent is the synthetic event Step returns once the calendar is empty.
func EndOfSimulationEvent(time int64) Event {
	return Event{Time: time, Kind: EventEndOfSimulation}
}

// Less orders events by time, then kind rank, then id.
func (e Event) Less(o Event) bool {
	if e.Time != o.Time {
		return e.Time < o.Time
	}
	if e.Kind != o.Kind {
		return e.Kind < o.Kind
	}
	return e.ID < o.ID
}

func (e Event) String() string {
	switch e.Kind {
	case EventNewRequest:
		return fmt.Sprintf("[tick %07d] source %d made new request", e.Time, e.ID)
	case EventDeviceRelease:
		return fmt.Sprintf("[tick %07d] device %d is released", e.Time, e.ID)
	default:
		return fmt.Sprintf("[tick %07d] simulation ended", e.Time)
	}
}
