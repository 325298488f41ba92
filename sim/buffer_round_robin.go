package sim

// RoundRobinBuffer keeps one stack per source and a shared capacity.
//
// At capacity, admission evicts the newest request of the lowest-indexed
// non-empty source before storing the incoming one. Selection pops the newest
// request of the cursor source; when that source is empty it scans from
// source 0 and moves the cursor past the source it served. Within a source
// requests are therefore served last-in-first-out.
type RoundRobinBuffer struct {
	stacks   [][]Request
	capacity int
	used     int
	cursor   int
}

// NewRoundRobinBuffer creates a RoundRobinBuffer for the given number of sources.
func NewRoundRobinBuffer(capacity, sources int) *RoundRobinBuffer {
	return &RoundRobinBuffer{
		stacks:   make([][]Request, sources),
		capacity: capacity,
	}
}

func (b *RoundRobinBuffer) Admit(req Request) (Request, bool) {
	var evicted Request
	var ok bool
	if b.used >= b.capacity {
		for i := range b.stacks {
			if len(b.stacks[i]) > 0 {
				evicted = b.pop(i)
				ok = true
				break
			}
		}
	}
	b.stacks[req.SourceID] = append(b.stacks[req.SourceID], req)
	b.used++
	return evicted, ok
}

func (b *RoundRobinBuffer) SelectNext() (Request, bool) {
	if b.used == 0 {
		return Request{}, false
	}
	if b.cursor < len(b.stacks) && len(b.stacks[b.cursor]) > 0 {
		return b.pop(b.cursor), true
	}
	for i := range b.stacks {
		if len(b.stacks[i]) > 0 {
			b.cursor = i + 1
			return b.pop(i), true
		}
	}
	return Request{}, false
}

// pop removes the newest request of source i.
func (b *RoundRobinBuffer) pop(i int) Request {
	stack := b.stacks[i]
	req := stack[len(stack)-1]
	b.stacks[i] = stack[:len(stack)-1]
	b.used--
	return req
}

func (b *RoundRobinBuffer) Buffered() []Request {
	out := make([]Request, 0, b.used)
	for _, stack := range b.stacks {
		out = append(out, stack...)
	}
	sortForDisplay(out)
	return out
}

// Cursor returns the source index selection will try first. A cursor past
// the last source means selection scans from source 0.
func (b *RoundRobinBuffer) Cursor() int { return b.cursor }

func (b *RoundRobinBuffer) Len() int      { return b.used }
func (b *RoundRobinBuffer) Capacity() int { return b.capacity }

func (b *RoundRobinBuffer) Reset() {
	for i := range b.stacks {
		b.stacks[i] = nil
	}
	b.used = 0
	b.cursor = 0
}
