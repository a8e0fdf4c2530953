package pope

import (
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
)

// storeShard owns one embedded pebble store per partition, eliminating the
// shared-instance contention the spec calls out in §3 ("the design choice
// that eliminates the contention observed with a single shared store").
//
// Options tune for heavy sequential ingest of large values, mirroring
// original_source/src/mako/rocksdb_persistence.cc's RocksDB::Options:
// large memtables, no compression by default, moderate byte-interval sync.
// WAL is enabled; sync-on-write is off; durability between explicit Flush
// calls is best-effort (spec.md §4.6).
type storeShard struct {
	dbs []*pebble.DB
}

// storeShardOptions builds the per-partition pebble.Options used to open
// every shard. Exposed as a function (rather than inlined) so tests can
// exercise the exact option values.
func storeShardOptions() *pebble.Options {
	const (
		memTableSize = 256 << 20 // 256MiB, matching write_buffer_size
		bytesPerSync = 2 << 20   // 2MiB, matching bytes_per_sync/wal_bytes_per_sync
		numLevels    = 7
	)
	opts := &pebble.Options{
		MemTableSize:                memTableSize,
		MemTableStopWritesThreshold: 6, // matches max_write_buffer_number
		BytesPerSync:                bytesPerSync,
		WALBytesPerSync:             bytesPerSync,
		Levels:                      make([]pebble.LevelOptions, numLevels),
	}
	for i := range opts.Levels {
		opts.Levels[i].Compression = pebble.NoCompression // matches compression: kNoCompression
	}
	return opts
}

// openStoreShard opens one store per partition at "<basePath>_partition<i>".
// If any store after the first fails to open, every previously-opened store
// is closed before returning the error (spec.md §9, the partial-init-cleanup
// open question; see SPEC_FULL.md §O).
func openStoreShard(basePath string, numPartitions int) (*storeShard, error) {
	shard := &storeShard{dbs: make([]*pebble.DB, 0, numPartitions)}

	for i := 0; i < numPartitions; i++ {
		path := fmt.Sprintf(`%s_partition%d`, basePath, i)
		if err := os.MkdirAll(path, 0o755); err != nil {
			shard.closeAll()
			return nil, fmt.Errorf(`%w: partition %d: %w`, ErrStoreOpenFailed, i, err)
		}
		db, err := pebble.Open(path, storeShardOptions())
		if err != nil {
			shard.closeAll()
			return nil, fmt.Errorf(`%w: partition %d: %w`, ErrStoreOpenFailed, i, err)
		}
		shard.dbs = append(shard.dbs, db)
	}

	return shard, nil
}

func (s *storeShard) closeAll() {
	for _, db := range s.dbs {
		if db != nil {
			_ = db.Close()
		}
	}
	s.dbs = nil
}

// put writes key/value into partitionID's store.
func (s *storeShard) put(partitionID uint32, key, value []byte) error {
	return s.dbs[partitionID].Set(key, value, pebble.NoSync)
}

// get reads key from partitionID's store. Used only by the metadata
// readback helper (spec.md §1 Non-goals: "no reads on the hot path").
func (s *storeShard) get(partitionID uint32, key []byte) ([]byte, error) {
	value, closer, err := s.dbs[partitionID].Get(key)
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), value...)
	_ = closer.Close()
	return out, nil
}

// flushAll flushes every partition's memtable to an sstable, then waits for
// the write-ahead log to sync, matching rocksdb_persistence.cc's flushAll
// (Flush then FlushWAL per shard). Returns the first error encountered, but
// still attempts every shard.
func (s *storeShard) flushAll() error {
	var firstErr error
	for i, db := range s.dbs {
		if db == nil {
			continue
		}
		if err := db.Flush(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf(`pope: flush partition %d: %w`, i, err)
			}
			continue
		}
		if err := db.LogData(nil, pebble.Sync); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf(`pope: sync WAL partition %d: %w`, i, err)
			}
		}
	}
	return firstErr
}

// readStoreMetadata opens partition 0 of basePath read-only-in-effect (it
// still uses the normal pebble.Open, as pebble has no separate read-only
// open mode needed here) and reads back the metadata record, without
// touching any other partition. This is the one reading operation the spec
// permits outside the hot path (spec.md §1, §4.6 "a static
// read_metadata(base_path) helper").
func readStoreMetadata(basePath string) (Metadata, error) {
	path := fmt.Sprintf(`%s_partition0`, basePath)
	db, err := pebble.Open(path, storeShardOptions())
	if err != nil {
		return Metadata{}, fmt.Errorf(`%w: %w`, ErrStoreOpenFailed, err)
	}
	defer db.Close()

	raw, closer, err := db.Get([]byte(metaKey))
	if err != nil {
		return Metadata{}, fmt.Errorf(`pope: read metadata: %w`, err)
	}
	defer closer.Close()

	return decodeMetadata(raw)
}
