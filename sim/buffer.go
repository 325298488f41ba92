package sim

import (
	"fmt"
	"sort"
)

// BufferPolicy holds requests that found every device busy.
// Implementations decide which request is dropped when space runs out and
// which waiting request is served next. The Simulator is agnostic to which
// strategy is in use.
type BufferPolicy interface {
	// Admit stores req. When storing it forces a request out (req itself,
	// or an evicted one), that request is returned with ok=true.
	Admit(req Request) (rejected Request, ok bool)
	// SelectNext removes and returns the request to serve next.
	// Returns false when the buffer is empty.
	SelectNext() (Request, bool)
	// Buffered returns a copy of the waiting requests sorted by
	// (GenerationTime, SourceID), independent of storage order.
	Buffered() []Request
	// Len returns the number of waiting requests.
	Len() int
	// Capacity returns the configured capacity.
	Capacity() int
	// Reset empties the buffer and clears any selection state.
	Reset()
}

// sortForDisplay orders requests by (GenerationTime, SourceID, Sequence).
func sortForDisplay(reqs []Request) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].GenerationTime != reqs[j].GenerationTime {
			return reqs[i].GenerationTime < reqs[j].GenerationTime
		}
		if reqs[i].SourceID != reqs[j].SourceID {
			return reqs[i].SourceID < reqs[j].SourceID
		}
		return reqs[i].Sequence < reqs[j].Sequence
	})
}

// NewBufferPolicy creates a buffer policy by name.
// Valid names are defined in ValidBufferPolicies (policy.go).
// An empty string defaults to "priority".
func NewBufferPolicy(name string, capacity, sources int) (BufferPolicy, error) {
	if !IsValidBufferPolicy(name) {
		return nil, fmt.Errorf("%w: unknown buffer policy %q", ErrInvalidConfig, name)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: buffer capacity must be positive, got %d", ErrInvalidConfig, capacity)
	}
	switch name {
	case "", BufferPriority:
		return NewPriorityBuffer(capacity), nil
	case BufferRoundRobin:
		if sources <= 0 {
			return nil, fmt.Errorf("%w: round-robin buffer needs at least one source", ErrInvalidConfig)
		}
		return NewRoundRobinBuffer(capacity, sources), nil
	default:
		panic(fmt.Sprintf("unhandled buffer policy %q", name))
	}
}
