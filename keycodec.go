package pope

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// metaKey is the reserved key, written only into partition 0's store, that
// holds the metadata record (spec.md §3).
const metaKey = "meta"

// EncodeKey encodes (shardID, partitionID, epoch, seq) into the fixed-width
// ASCII key format specified by spec.md §6:
//
//	"sss:ppp:eeeeeeee:ssssssssssssssss"
//
// 3-digit shard, 3-digit partition, 8-digit epoch, 16-digit sequence, all
// zero-padded decimal, colon-separated. Byte-lexicographic order of the
// result equals numeric order within each field, which is what makes
// ordered scans per (shard, partition, epoch) possible. Decoding is not
// part of the contract; only encoding is (spec.md §4.1).
func EncodeKey(shardID, partitionID, epoch uint32, seq uint64) []byte {
	return fmt.Appendf(nil, "%03d:%03d:%08d:%016d", shardID, partitionID, epoch, seq)
}

// keyLen is the exact byte length of a key produced by EncodeKey:
// 3+1+3+1+8+1+16.
const keyLen = 33

// Metadata is the decoded form of the metadata record written by
// Engine.WriteMetadata and read back by ReadMetadata.
type Metadata struct {
	Epoch         uint32
	ShardID       uint32
	NumShards     uint32
	NumPartitions uint64
	NumWorkers    uint64
	Timestamp     time.Time
}

// encodeMetadata composes the comma-separated "key:value,..." metadata
// record described in spec.md §3 and §6. Field order matches the original
// mako implementation, but per spec.md §6 a reader must tolerate any
// ordering, so this is not part of the contract.
func encodeMetadata(epoch, shardID, numShards uint32, numPartitions, numWorkers uint64, now time.Time) []byte {
	return fmt.Appendf(nil,
		"epoch:%d,shard_id:%d,num_shards:%d,num_partitions:%d,num_workers:%d,timestamp:%d",
		epoch, shardID, numShards, numPartitions, numWorkers, now.Unix(),
	)
}

// decodeMetadata parses a metadata record produced by encodeMetadata. It
// tolerates any ordering of the key:value pairs, per spec.md §6.
func decodeMetadata(raw []byte) (Metadata, error) {
	fields := make(map[string]string, 6)
	for _, pair := range strings.Split(string(raw), ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		fields[key] = value
	}

	var (
		md  Metadata
		err error
	)
	getUint := func(name string, bitSize int) uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = strconv.ParseUint(fields[name], 10, bitSize)
		if err != nil {
			err = fmt.Errorf(`pope: metadata field %q: %w`, name, err)
		}
		return v
	}

	md.Epoch = uint32(getUint(`epoch`, 32))
	md.ShardID = uint32(getUint(`shard_id`, 32))
	md.NumShards = uint32(getUint(`num_shards`, 32))
	md.NumPartitions = getUint(`num_partitions`, 64)
	md.NumWorkers = getUint(`num_workers`, 64)
	ts := int64(getUint(`timestamp`, 64))
	if err != nil {
		return Metadata{}, err
	}
	md.Timestamp = time.Unix(ts, 0)

	return md, nil
}
