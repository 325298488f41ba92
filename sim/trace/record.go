// Package trace provides decision-trace recording for a simulation run.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// ServiceRecord captures a request starting service on a device.
type ServiceRecord struct {
	Clock    int64
	SourceID int
	Sequence int64
	DeviceID int
	Duration int64
	Wait     int64 // time spent in the buffer before service (0 when served on arrival)
}

// RejectionRecord captures a request leaving the system unserved.
type RejectionRecord struct {
	Clock    int64
	SourceID int
	Sequence int64
	Wait     int64
	Evicted  bool // true when pushed out of the buffer, false when refused on arrival
}
