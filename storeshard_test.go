package pope

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spec.md §4.6: stores default to no compression.
func TestStoreShardOptions_NoCompressionAtEveryLevel(t *testing.T) {
	opts := storeShardOptions()
	require.NotEmpty(t, opts.Levels)
	for i, level := range opts.Levels {
		assert.Equalf(t, pebble.NoCompression, level.Compression, "level %d", i)
	}
}

func TestStoreShard_PutGetFlush(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pope")

	shard, err := openStoreShard(base, 2)
	require.NoError(t, err)
	defer shard.closeAll()

	key := EncodeKey(0, 1, 1, 0)
	require.NoError(t, shard.put(1, key, []byte("hello")))

	got, err := shard.get(1, key)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	require.NoError(t, shard.flushAll())
}

func TestStoreShard_PartialInitCleanup(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pope")

	// Open a conflicting plain file where partition 1's directory would go,
	// forcing MkdirAll to fail for partition 1 after partition 0 succeeds.
	conflict := base + "_partition1"
	if err := os.WriteFile(conflict, []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	shard, err := openStoreShard(base, 3)
	if err == nil {
		shard.closeAll()
		t.Fatal("expected openStoreShard to fail when a partition directory can't be created")
	}
}
