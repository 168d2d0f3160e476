package board

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Zobrist keys for position hashing. The lattice and the content alphabet
// are unbounded, so keys are derived on demand by hashing the (offset,
// content) pair under a fixed seed instead of being drawn from a table.
const zobristSeed = 0x98F107A2BEEF1234

// ZobristCell returns the key for content c on cell v.
func ZobristCell(v Vec, c Content) uint64 {
	var buf [20]byte
	binary.LittleEndian.PutUint64(buf[0:], zobristSeed)
	binary.LittleEndian.PutUint32(buf[8:], uint32(int32(v.X)))
	binary.LittleEndian.PutUint32(buf[12:], uint32(int32(v.Y)))
	binary.LittleEndian.PutUint32(buf[16:], uint32(c))
	return mix(xxhash.Sum64(buf[:]))
}

// xorshift64* finaliser
func mix(x uint64) uint64 {
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	return x * 0x2545F4914F6CDD1D
}
