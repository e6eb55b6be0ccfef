package hash

import "github.com/cespare/xxhash/v2"

// String hashes an arbitrary byte-string key down to a uint32 using
// xxhash's 64-bit digest, folded by XOR. Used by the trace package to
// turn CSV record keys (opaque strings) into the uint32 the lru/ghost
// engines operate on; xxhash's avalanche properties make the result
// suitable for ghost.Sampled the same way Ghash/XXHash32/Murmur3 are.
func String(key string) uint32 {
	h := xxhash.Sum64String(key)
	return uint32(h) ^ uint32(h>>32)
}

// Bytes is the []byte counterpart of String.
func Bytes(key []byte) uint32 {
	h := xxhash.Sum64(key)
	return uint32(h) ^ uint32(h>>32)
}
