package sim

import "container/heap"

// eventHeap implements heap.Interface over Event.Less.
type eventHeap []Event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].Less(h[j]) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// Calendar is the set of future events, ordered by Event.Less.
// Ordering: time → kind rank → id
type Calendar struct {
	events eventHeap
}

// NewCalendar creates an empty calendar.
func NewCalendar() *Calendar {
	return &Calendar{events: make(eventHeap, 0)}
}

// Len returns the number of pending events.
func (c *Calendar) Len() int {
	return len(c.events)
}

// Empty reports whether no events are pending.
func (c *Calendar) Empty() bool {
	return len(c.events) == 0
}

// Schedule adds an event.
func (c *Calendar) Schedule(e Event) {
	heap.Push(&c.events, e)
}

// PopNext removes and returns the minimum event.
// Returns false when the calendar is empty.
func (c *Calendar) PopNext() (Event, bool) {
	if len(c.events) == 0 {
		return Event{}, false
	}
	return heap.Pop(&c.events).(Event), true
}

// Peek returns the minimum event without removing it.
func (c *Calendar) Peek() (Event, bool) {
	if len(c.events) == 0 {
		return Event{}, false
	}
	return c.events[0], true
}

// Purge removes every event of the given kind and returns how many were removed.
func (c *Calendar) Purge(kind EventKind) int {
	kept := c.events[:0]
	for _, e := range c.events {
		if e.Kind != kind {
			kept = append(kept, e)
		}
	}
	removed := len(c.events) - len(kept)
	c.events = kept
	heap.Init(&c.events)
	return removed
}

// Pending returns a copy of the pending events in calendar order.
func (c *Calendar) Pending() []Event {
	cp := make(eventHeap, len(c.events))
	copy(cp, c.events)
	out := make([]Event, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, heap.Pop(&cp).(Event))
	}
	return out
}

// Clear drops all pending events.
func (c *Calendar) Clear() {
	c.events = c.events[:0]
}
