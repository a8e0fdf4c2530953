package pope

import "sync"

// globalEngine backs Instance, the thin process-wide accessor described in
// spec.md §9's design notes ("reimplement as an explicitly-owned engine
// value threaded into callers; keep a thin optional singleton accessor for
// the replica accommodation path"). Most callers should prefer threading an
// explicit *Engine through their own constructors instead.
var (
	globalEngineOnce sync.Once
	globalEngine     *Engine
)

// Instance returns the process-wide Engine, constructing it (uninitialized)
// on first use. It exists for callers that only need the "replica
// accommodation" behavior of an uninitialized Engine (spec.md §3) and have
// no natural place to own an *Engine value themselves; it is never required
// to call Init on the returned value.
func Instance() *Engine {
	globalEngineOnce.Do(func() {
		globalEngine = NewEngine()
	})
	return globalEngine
}
