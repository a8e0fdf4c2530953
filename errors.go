package pope

import "errors"

// ErrStoreOpenFailed is returned by Init when a partition's embedded store
// could not be opened. Init leaves the engine uninitialized and closes any
// partitions opened earlier in the same call (spec.md §7 StoreOpenFailed).
// It is the only Engine-level condition carried as a sentinel error: both
// InvalidPartition and the uninitialized/shutting-down accommodation are
// reported through the Future/Callback boolean instead (spec.md §7), never
// through a returned error.
var ErrStoreOpenFailed = errors.New(`pope: store open failed`)
