package pope

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-pope/log"
)

// workerWaitTimeout is the bounded wait used by an idle worker, purely to
// observe the shutdown flag; it has no other functional meaning
// (spec.md §5 "Cancellation & timeouts").
const workerWaitTimeout = 10 * time.Millisecond

// workerPool is a fixed set of goroutines, each servicing a fixed subset of
// partitions in round-robin fashion (spec.md §4.5, C5). Worker w owns every
// partition p where p % numWorkers == w.
type workerPool struct {
	queues  []*partitionQueue
	states  []*partitionState
	store   *storeShard
	logger  log.Logger
	limiter *catrate.Limiter

	pending  *atomic.Int64
	shutdown chan struct{}
	wg       sync.WaitGroup
}

func newWorkerPool(queues []*partitionQueue, states []*partitionState, store *storeShard, logger log.Logger, pending *atomic.Int64) *workerPool {
	return &workerPool{
		queues:   queues,
		states:   states,
		store:    store,
		logger:   logger,
		limiter:  catrate.NewLimiter(map[time.Duration]int{time.Minute: 5}),
		pending:  pending,
		shutdown: make(chan struct{}),
	}
}

// start spawns numWorkers goroutines, each owning partitions p where
// p % numWorkers == w (spec.md §4.5).
func (p *workerPool) start(numWorkers int) {
	for w := 0; w < numWorkers; w++ {
		owned := make([]uint32, 0, len(p.queues)/numWorkers+1)
		for partitionID := w; partitionID < len(p.queues); partitionID += numWorkers {
			owned = append(owned, uint32(partitionID))
		}

		p.wg.Add(1)
		go func(owned []uint32) {
			defer p.wg.Done()
			p.run(owned)
		}(owned)
	}
}

// run is the body of a single worker's loop (spec.md §4.5):
//   - for each owned partition in a stable order, tryPop once; on a hit,
//     process it and restart the owned-partition scan;
//   - if nothing was popped this pass, waitPop on the first owned partition;
//   - exit once shutdown is signaled and every owned queue is empty.
func (p *workerPool) run(owned []uint32) {
	if len(owned) == 0 {
		return
	}

	for {
		processed := false
		for _, partitionID := range owned {
			if req, ok := p.queues[partitionID].tryPop(); ok {
				p.process(partitionID, req)
				processed = true
				break
			}
		}
		if processed {
			continue
		}

		if req, ok := p.queues[owned[0]].waitPop(workerWaitTimeout); ok {
			p.process(owned[0], req)
			continue
		}

		select {
		case <-p.shutdown:
			if p.allOwnedEmpty(owned) {
				return
			}
		default:
		}
	}
}

// allOwnedEmpty reports whether every owned queue currently looks empty.
// It is only consulted after shutdown has been signaled, as the final
// check before a worker exits; any request that arrives in the race window
// between this check and exit is picked up by Engine.Shutdown's drain
// instead (spec.md §4.7).
func (p *workerPool) allOwnedEmpty(owned []uint32) bool {
	for _, partitionID := range owned {
		if !p.queues[partitionID].empty() {
			return false
		}
	}
	return true
}

// debugTimingCategory namespaces the write-timing log's rate-limit budget
// away from the write-failure warning's, even though both share the same
// Limiter instance.
type debugTimingCategory uint32

// process writes one request to its partition's store, feeds the outcome
// into that partition's ordered-release state, resolves its Future, and
// fires every callback the release unblocks, in sequence order
// (spec.md §4.4 completion path, §4.5 "Processing a request").
func (p *workerPool) process(partitionID uint32, req *request) {
	err := p.store.put(partitionID, req.key, req.payload)
	ok := err == nil
	diskAt := nowNano()

	if !ok {
		if _, allowed := p.limiter.Allow(partitionID); allowed {
			p.logger.WithField(`partition`, partitionID).
				WithField(`seq`, req.seq).
				WithError(err).
				Warn(`pope: write failed`)
		}
	}

	req.future.resolve(ok)
	p.pending.Add(-1)

	releases := p.states[partitionID].notifyPersisted(req.seq, ok, diskAt)
	releasedAt := nowNano()
	for _, rel := range releases {
		if _, allowed := p.limiter.Allow(debugTimingCategory(partitionID)); allowed {
			p.logger.WithField(`partition`, partitionID).
				WithField(`seq`, rel.seq).
				WithField(`disk_ms`, float64(rel.diskAt-rel.enqueuedAt)/1e6).
				WithField(`release_ms`, float64(releasedAt-rel.enqueuedAt)/1e6).
				Debug(`pope: write timing`)
		}
		if rel.cb != nil {
			rel.cb(rel.ok)
		}
	}
}

// stop signals every worker to exit once its owned queues drain, and blocks
// until all of them have returned.
func (p *workerPool) stop() {
	close(p.shutdown)
	p.wg.Wait()
}
