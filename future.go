package pope

import "context"

// Callback is invoked once a submitted request's ordered position is
// reached (spec.md §4.4). Callbacks run on a worker goroutine: a callback
// that blocks delays only the partitions owned by that worker (spec.md §5).
// Callbacks MUST NOT panic; a panic is not recovered on the worker
// goroutine and terminates the process.
type Callback func(ok bool)

// Future resolves to the outcome of a single Submit call. Unlike Callback,
// Future resolution follows physical write completion order, not sequence
// order (spec.md §4.7); use Callback when ordering matters.
//
// Future is modeled on the teacher's microbatch.JobResult: a closed-over
// done channel plus a stored result, safe to Wait on from any number of
// goroutines.
type Future struct {
	done chan struct{}
	ok   bool
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// newResolvedFuture returns a Future that is already resolved to ok. Used
// for the NotInitialized and InvalidPartition accommodation paths
// (spec.md §7), which never touch the queue.
func newResolvedFuture(ok bool) *Future {
	f := &Future{done: make(chan struct{}), ok: ok}
	close(f.done)
	return f
}

func (f *Future) resolve(ok bool) {
	f.ok = ok
	close(f.done)
}

// Wait blocks until the Future resolves, or ctx is canceled.
func (f *Future) Wait(ctx context.Context) (bool, error) {
	select {
	case <-f.done:
		return f.ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Done returns a channel closed once the Future has resolved, for use in
// select statements.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// request is one pending write, per spec.md §3. It carries no callback:
// once registered with partitionState, the callback lives there exclusively
// until ordered release, which is what prevents duplicate invocation
// (spec.md §9).
type request struct {
	key         []byte
	payload     []byte
	partitionID uint32
	seq         uint64
	enqueuedAt  int64 // UnixNano
	future      *Future
}
