package pope

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-pope/log"
)

// engineState models the three observable lifecycle states from spec.md
// §3. Transitions are one-way forward within a "generation"; reinit after
// shutdown starts a fresh generation back at stateUninitialized.
type engineState int32

const (
	stateUninitialized engineState = iota
	stateRunning
	stateShuttingDown
)

// EngineConfig configures Engine.Init. Mirrors the teacher's
// microbatch.BatcherConfig convention: a plain struct whose required fields
// are validated eagerly (panicking on invalid input) rather than failing
// silently mid-run, and whose optional fields have documented defaults.
type EngineConfig struct {
	// BasePath is the filesystem prefix each partition's store is opened
	// under, as "<BasePath>_partition<i>". Required.
	BasePath string

	// NumPartitions is the number of partitions (and stores) to open.
	// Required, must be >= 1.
	NumPartitions int

	// NumWorkers is the number of worker goroutines. Required, must be >= 1.
	// May be less than NumPartitions (workers then own multiple partitions);
	// values above NumPartitions are accepted but waste goroutines
	// (spec.md §4.7).
	NumWorkers int

	// ShardID and NumShards are stamped into every key and into the
	// metadata record.
	ShardID   uint32
	NumShards uint32

	// Logger receives lifecycle and failure diagnostics. Defaults to
	// log.Discard{} if nil.
	Logger log.Logger
}

// Engine is the public façade: C7 PersistenceEngine. It owns every other
// component (KeyCodec usage, SequenceAllocator, PartitionQueues,
// PartitionStates, WorkerPool, StoreShard) and exposes init/shutdown/
// submit/flush/metadata per spec.md §4.7.
//
// The zero value is a valid, uninitialized Engine: Submit on it succeeds
// trivially, per the "replica accommodation" in spec.md §3/§7.
type Engine struct {
	mu sync.Mutex // serializes Init/Shutdown transitions only

	state engineState
	epoch atomic.Uint32

	cfg EngineConfig
	seq sequenceAllocator

	queues []*partitionQueue
	states []*partitionState
	store  *storeShard
	pool   *workerPool

	pending atomic.Int64
	logger  log.Logger
}

// NewEngine returns an uninitialized Engine, ready for Init.
func NewEngine() *Engine {
	return &Engine{logger: log.Discard{}}
}

// Init opens the engine's stores, spawns its worker pool, and transitions
// it to running (spec.md §4.7). Init is idempotent: if the engine is
// already running, it returns nil without reconfiguring anything.
//
// Precondition: cfg.NumWorkers >= 1 and cfg.NumPartitions >= 1; violating
// either panics, mirroring microbatch.NewBatcher's eager validation of
// contradictory config.
func (e *Engine) Init(cfg EngineConfig) error {
	if cfg.NumPartitions < 1 {
		panic(`pope: NumPartitions must be >= 1`)
	}
	if cfg.NumWorkers < 1 {
		panic(`pope: NumWorkers must be >= 1`)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if atomic.LoadInt32((*int32)(&e.state)) == int32(stateRunning) {
		return nil
	}

	if cfg.Logger != nil {
		e.logger = cfg.Logger
	} else if e.logger == nil {
		e.logger = log.Discard{}
	}

	store, err := openStoreShard(cfg.BasePath, cfg.NumPartitions)
	if err != nil {
		e.logger.WithError(err).Warn(`pope: failed to open partition stores`)
		return err
	}

	queues := make([]*partitionQueue, cfg.NumPartitions)
	states := make([]*partitionState, cfg.NumPartitions)
	for i := range queues {
		queues[i] = newPartitionQueue()
		states[i] = newPartitionState()
	}

	e.cfg = cfg
	e.seq = sequenceAllocator{}
	e.queues = queues
	e.states = states
	e.store = store
	e.pending.Store(0)
	e.epoch.Store(1) // matches original_source's default: epoch 0 is never stamped into a key

	e.pool = newWorkerPool(queues, states, store, e.logger, &e.pending)
	e.pool.start(cfg.NumWorkers)

	atomic.StoreInt32((*int32)(&e.state), int32(stateRunning))

	e.logger.WithField(`partitions`, cfg.NumPartitions).
		WithField(`workers`, cfg.NumWorkers).
		Info(`pope: engine initialized`)

	if err := e.writeMetadataLocked(); err != nil {
		e.logger.WithError(err).Warn(`pope: failed to write initial metadata`)
	}

	return nil
}

// running reports whether the engine is currently accepting work.
func (e *Engine) running() bool {
	return atomic.LoadInt32((*int32)(&e.state)) == int32(stateRunning)
}

// Submit schedules payload for durable append under partitionID, returning
// a Future that resolves once the underlying write completes (regardless
// of ordering) and, if cb is non-nil, invoking cb once ordered release
// reaches this request's sequence (spec.md §4.7).
//
//   - If the engine is uninitialized, the request succeeds trivially: the
//     future resolves true and cb (if any) fires true with no side effect.
//     This accommodates replicas that never durably log (spec.md §3, §7).
//   - If partitionID >= NumPartitions, the request fails trivially: future
//     resolves false, cb fires false, nothing is enqueued.
func (e *Engine) Submit(payload []byte, partitionID uint32, cb Callback) *Future {
	if !e.running() {
		if cb != nil {
			cb(true)
		}
		return newResolvedFuture(true)
	}

	if int(partitionID) >= len(e.queues) {
		if cb != nil {
			cb(false)
		}
		return newResolvedFuture(false)
	}

	ps := e.states[partitionID]
	pq := e.queues[partitionID]

	pq.seqMu.Lock()
	defer pq.seqMu.Unlock()

	seq := e.seq.next(partitionID)
	enqueuedAt := nowNano()
	ps.register(seq, cb, enqueuedAt)

	req := &request{
		key:         EncodeKey(e.cfg.ShardID, partitionID, e.epoch.Load(), seq),
		payload:     payload,
		partitionID: partitionID,
		seq:         seq,
		enqueuedAt:  enqueuedAt,
		future:      newFuture(),
	}

	e.pending.Add(1)
	pq.push(req)

	return req.future
}

// SetEpoch atomically updates the epoch stamped into every key submitted
// from this point on. If the new value differs from the previous one, the
// metadata record is rewritten. Per spec.md §9 (an accepted open question),
// this is not fenced against in-flight Submit calls: some writes already in
// flight may land under the old epoch, some under the new.
func (e *Engine) SetEpoch(epoch uint32) {
	old := e.epoch.Swap(epoch)
	if old == epoch || !e.running() {
		return
	}
	if err := e.WriteMetadata(e.cfg.ShardID, e.cfg.NumShards); err != nil {
		e.logger.WithError(err).Warn(`pope: failed to rewrite metadata after epoch change`)
	}
}

// Epoch returns the epoch currently being stamped into keys.
func (e *Engine) Epoch() uint32 { return e.epoch.Load() }

// PendingWrites returns the number of submitted requests whose Future has
// not yet resolved, across all partitions.
func (e *Engine) PendingWrites() uint64 {
	n := e.pending.Load()
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// FlushAll flushes every partition store's memtable and WAL, returning true
// iff every partition succeeded.
func (e *Engine) FlushAll() bool {
	if !e.running() {
		return false
	}
	if err := e.store.flushAll(); err != nil {
		e.logger.WithError(err).Warn(`pope: flush_all reported failures`)
		return false
	}
	return true
}

// WriteMetadata composes the metadata record and writes it under "meta"
// into partition 0, recording shardID/numShards for future epoch-driven
// rewrites (spec.md §4.7).
func (e *Engine) WriteMetadata(shardID, numShards uint32) error {
	e.cfg.ShardID = shardID
	e.cfg.NumShards = numShards
	return e.writeMetadataLocked()
}

// writeMetadataLocked performs the actual write; callers must ensure the
// engine is running and e.cfg is up to date.
func (e *Engine) writeMetadataLocked() error {
	if !e.running() {
		return fmt.Errorf(`pope: cannot write metadata, engine not running`)
	}
	raw := encodeMetadata(
		e.epoch.Load(), e.cfg.ShardID, e.cfg.NumShards,
		uint64(len(e.queues)), uint64(e.cfg.NumWorkers),
		time.Now(),
	)
	return e.store.put(0, []byte(metaKey), raw)
}

// ReadMetadata reads back the metadata record written under basePath,
// without requiring a running Engine. It is the one recovery/replay-shaped
// operation the spec allows (spec.md §1 Non-goals).
func ReadMetadata(basePath string) (Metadata, error) {
	return readStoreMetadata(basePath)
}

// Shutdown stops accepting new durable effect, drains every partition
// queue (resolving remaining futures and firing remaining callbacks with
// false, in sequence order), flushes the WAL, and closes every store
// (spec.md §4.7, §7 ShutdownDrain). After Shutdown returns, the Engine may
// be re-initialized via Init.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !atomic.CompareAndSwapInt32((*int32)(&e.state), int32(stateRunning), int32(stateShuttingDown)) {
		return
	}

	e.pool.stop()

	for partitionID, pq := range e.queues {
		for _, req := range pq.drain() {
			req.future.resolve(false)
			e.pending.Add(-1)
		}
		for _, rel := range e.states[partitionID].drainAll() {
			if rel.cb != nil {
				rel.cb(false)
			}
		}
	}

	if err := e.store.flushAll(); err != nil {
		e.logger.WithError(err).Warn(`pope: flush on shutdown reported failures`)
	}
	e.store.closeAll()

	e.logger.Info(`pope: engine shut down`)

	atomic.StoreInt32((*int32)(&e.state), int32(stateUninitialized))
}
