// Defines the Request struct that models a single request travelling
// from its source through the buffer to a device.

package sim

import "fmt"

// Request is an immutable value generated by a source.
// Requests are copied on every move (buffer slot, device slot); no two
// containers ever share one.
type Request struct {
	SourceID       int   // Index of the generating source
	Sequence       int64 // Per-source sequence number, starting at 0
	GenerationTime int64 // Clock value at generation
}

// String renders the request as "<source>-<sequence>".
func (r Request) String() string {
	return fmt.Sprintf("%d-%d", r.SourceID, r.Sequence)
}

// WaitTime returns how long the request has existed at clock now.
func (r Request) WaitTime(now int64) int64 {
	return now - r.GenerationTime
}
