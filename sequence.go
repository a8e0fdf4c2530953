package pope

import "sync"

// sequenceAllocator hands out strictly monotonically increasing 64-bit
// sequence numbers, one counter per partition, starting at 0 (spec.md §4.2).
//
// The zero value is ready to use.
type sequenceAllocator struct {
	mu       sync.Mutex
	counters map[uint32]uint64
}

// next returns the next sequence number for partitionID. Callers MUST hold
// the partition's queue.seqMu for the duration of allocation plus the
// subsequent enqueue (spec.md §4.2, §5): that joint invariant is what makes
// queue order equal submission order.
func (a *sequenceAllocator) next(partitionID uint32) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.counters == nil {
		a.counters = make(map[uint32]uint64)
	}
	seq := a.counters[partitionID]
	a.counters[partitionID] = seq + 1
	return seq
}
