package sim

// PriorityBuffer is a fixed array of slots.
// A request arriving to a full buffer is rejected on arrival; nothing stored
// is ever evicted. The next request served is the one with the smallest
// (SourceID, GenerationTime), so lower-indexed sources take precedence.
type PriorityBuffer struct {
	slots []*Request
	used  int
}

// NewPriorityBuffer creates a PriorityBuffer with capacity slots.
func NewPriorityBuffer(capacity int) *PriorityBuffer {
	return &PriorityBuffer{slots: make([]*Request, capacity)}
}

// Admit stores req in the first empty slot, or reports req itself as
// rejected when every slot is occupied.
func (b *PriorityBuffer) Admit(req Request) (Request, bool) {
	for i, slot := range b.slots {
		if slot == nil {
			r := req
			b.slots[i] = &r
			b.used++
			return Request{}, false
		}
	}
	return req, true
}

// SelectNext vacates and returns the occupied slot with the lexicographically
// smallest (SourceID, GenerationTime).
func (b *PriorityBuffer) SelectNext() (Request, bool) {
	best := -1
	for i, slot := range b.slots {
		if slot == nil {
			continue
		}
		if best < 0 || precedes(*slot, *b.slots[best]) {
			best = i
		}
	}
	if best < 0 {
		return Request{}, false
	}
	req := *b.slots[best]
	b.slots[best] = nil
	b.used--
	return req, true
}

// precedes orders by (SourceID, GenerationTime); ties keep the lower slot index.
func precedes(a, b Request) bool {
	if a.SourceID != b.SourceID {
		return a.SourceID < b.SourceID
	}
	return a.GenerationTime < b.GenerationTime
}

func (b *PriorityBuffer) Buffered() []Request {
	out := make([]Request, 0, b.used)
	for _, slot := range b.slots {
		if slot != nil {
			out = append(out, *slot)
		}
	}
	sortForDisplay(out)
	return out
}

// Slots returns a copy of the slot array; empty slots are nil.
func (b *PriorityBuffer) Slots() []*Request {
	out := make([]*Request, len(b.slots))
	for i, slot := range b.slots {
		if slot != nil {
			r := *slot
			out[i] = &r
		}
	}
	return out
}

func (b *PriorityBuffer) Len() int      { return b.used }
func (b *PriorityBuffer) Capacity() int { return len(b.slots) }

func (b *PriorityBuffer) Reset() {
	for i := range b.slots {
		b.slots[i] = nil
	}
	b.used = 0
}
