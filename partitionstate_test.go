package pope

import (
	"math/rand"
	"sync"
	"testing"
)

// S1 — Reorder buffer correctness (spec.md §8): 100 submissions complete
// out of order, but callbacks must fire with indices 0,1,2,...,99.
func TestPartitionState_OrderedRelease_S1(t *testing.T) {
	const n = 100

	state := newPartitionState()

	var mu sync.Mutex
	var released []uint64

	for seq := uint64(0); seq < n; seq++ {
		seq := seq
		state.register(seq, func(ok bool) {
			mu.Lock()
			defer mu.Unlock()
			released = append(released, seq)
			if !ok {
				t.Errorf("seq %d: callback fired with ok=false", seq)
			}
		}, 0)
	}

	order := rand.New(rand.NewSource(1)).Perm(n)

	for _, seq := range order {
		for _, rel := range state.notifyPersisted(uint64(seq), true, 0) {
			rel.cb(rel.ok)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(released) != n {
		t.Fatalf("released %d callbacks, want %d", len(released), n)
	}
	for i, seq := range released {
		if seq != uint64(i) {
			t.Fatalf("released[%d] = %d, want %d (out of order release)", i, seq, i)
		}
	}
}

// Property 1 — per-partition ordered delivery, exercised directly against
// the out-of-order completion API.
func TestPartitionState_GapBlocksRelease(t *testing.T) {
	state := newPartitionState()

	var released []uint64
	for seq := uint64(0); seq < 3; seq++ {
		seq := seq
		state.register(seq, func(bool) { released = append(released, seq) }, 0)
	}

	// seq 1 and 2 complete before seq 0: nothing should release yet.
	if rel := state.notifyPersisted(1, true, 0); len(rel) != 0 {
		t.Fatalf("expected no release with a gap at seq 0, got %v", rel)
	}
	if rel := state.notifyPersisted(2, true, 0); len(rel) != 0 {
		t.Fatalf("expected no release with a gap at seq 0, got %v", rel)
	}

	// completing seq 0 must release 0, 1, 2 in order, in one call.
	rel := state.notifyPersisted(0, true, 0)
	if len(rel) != 3 {
		t.Fatalf("expected 3 releases once the gap closes, got %d", len(rel))
	}
	for i, r := range rel {
		if r.seq != uint64(i) {
			t.Fatalf("release[%d].seq = %d, want %d", i, r.seq, i)
		}
	}
}

func TestPartitionState_DrainAll_OrdersBySequence(t *testing.T) {
	state := newPartitionState()

	for _, seq := range []uint64{5, 1, 3} {
		seq := seq
		state.register(seq, func(bool) {}, 0)
	}

	rel := state.drainAll()
	if len(rel) != 3 {
		t.Fatalf("drainAll returned %d releases, want 3", len(rel))
	}
	for i, want := range []uint64{1, 3, 5} {
		if rel[i].seq != want {
			t.Fatalf("drainAll[%d].seq = %d, want %d", i, rel[i].seq, want)
		}
		if rel[i].ok {
			t.Fatalf("drainAll[%d].ok = true, want false (never persisted)", i)
		}
	}
}

func TestPartitionState_DrainAll_PreservesKnownOutcome(t *testing.T) {
	state := newPartitionState()
	state.register(0, func(bool) {}, 0)
	state.register(1, func(bool) {}, 0)

	// seq 1 persisted successfully but can't release yet (gap at 0).
	if rel := state.notifyPersisted(1, true, 0); len(rel) != 0 {
		t.Fatalf("unexpected early release: %v", rel)
	}

	rel := state.drainAll()
	if len(rel) != 2 {
		t.Fatalf("drainAll returned %d releases, want 2", len(rel))
	}
	if rel[0].seq != 0 || rel[0].ok {
		t.Fatalf("drainAll[0] = %+v, want seq=0 ok=false", rel[0])
	}
	if rel[1].seq != 1 || !rel[1].ok {
		t.Fatalf("drainAll[1] = %+v, want seq=1 ok=true", rel[1])
	}
}
