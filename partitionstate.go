package pope

import (
	"slices"
	"sync"
	"time"
)

// partitionState is the reorder buffer that releases callbacks in strictly
// ascending sequence order, regardless of the order in which the underlying
// store completes the corresponding writes (spec.md §4.4, C4). This is the
// central invariant of the whole engine.
type partitionState struct {
	mu sync.Mutex

	started         bool
	nextExpectedSeq uint64

	pendingCallbacks map[uint64]Callback
	persisted        map[uint64]bool // seq -> ok, for sequences whose Put completed but whose callback hasn't fired
	enqueueTimes     map[uint64]int64
	diskTimes        map[uint64]int64
}

func newPartitionState() *partitionState {
	return &partitionState{
		pendingCallbacks: make(map[uint64]Callback),
		persisted:        make(map[uint64]bool),
		enqueueTimes:     make(map[uint64]int64),
		diskTimes:        make(map[uint64]int64),
	}
}

// register records a pending callback for seq, ahead of the write that will
// eventually complete it (spec.md §4.4 submit path, steps 2-4). It must be
// called while the partition's seqMu is held (spec.md §5), so that
// registration order matches allocation order.
func (s *partitionState) register(seq uint64, cb Callback, enqueuedAt int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.nextExpectedSeq = seq
		s.started = true
	}
	if cb != nil {
		s.pendingCallbacks[seq] = cb
	}
	s.enqueueTimes[seq] = enqueuedAt
}

// release describes one callback ready to fire, in sequence order.
type release struct {
	seq        uint64
	ok         bool
	cb         Callback
	enqueuedAt int64
	diskAt     int64
}

// notifyPersisted records that seq's write completed with result ok, then
// walks nextExpectedSeq forward through any now-contiguous run of persisted
// sequences, returning the callbacks ready to fire, in order (spec.md §4.4
// completion path). The caller invokes the returned callbacks outside any
// lock.
func (s *partitionState) notifyPersisted(seq uint64, ok bool, diskAt int64) []release {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persisted[seq] = ok
	s.diskTimes[seq] = diskAt

	var out []release
	for {
		result, done := s.persisted[s.nextExpectedSeq]
		if !done {
			break
		}
		seq := s.nextExpectedSeq
		delete(s.persisted, seq)

		cb := s.pendingCallbacks[seq]
		delete(s.pendingCallbacks, seq)

		out = append(out, release{
			seq:        seq,
			ok:         result,
			cb:         cb,
			enqueuedAt: s.enqueueTimes[seq],
			diskAt:     s.diskTimes[seq],
		})
		delete(s.enqueueTimes, seq)
		delete(s.diskTimes, seq)

		s.nextExpectedSeq = seq + 1
	}

	return out
}

// drainAll forcibly releases every still-pending callback with ok=false,
// in ascending sequence order, for use during Engine.Shutdown (spec.md §4.7,
// §7 ShutdownDrain). Sequences that are already persisted-but-unreleased
// keep their real outcome; only truly never-completed sequences are forced
// to false.
func (s *partitionState) drainAll() []release {
	s.mu.Lock()
	defer s.mu.Unlock()

	seqs := make([]uint64, 0, len(s.pendingCallbacks))
	for seq := range s.pendingCallbacks {
		seqs = append(seqs, seq)
	}
	slices.Sort(seqs)

	out := make([]release, 0, len(seqs))
	for _, seq := range seqs {
		ok, persisted := s.persisted[seq]
		if !persisted {
			ok = false
		}
		out = append(out, release{
			seq:        seq,
			ok:         ok,
			cb:         s.pendingCallbacks[seq],
			enqueuedAt: s.enqueueTimes[seq],
			diskAt:     s.diskTimes[seq],
		})
		delete(s.pendingCallbacks, seq)
		delete(s.persisted, seq)
		delete(s.enqueueTimes, seq)
		delete(s.diskTimes, seq)
	}

	return out
}

func nowNano() int64 { return time.Now().UnixNano() }
