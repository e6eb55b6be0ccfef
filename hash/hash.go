// Package hash provides the key-hash contract the lru/ghost engines run
// on: a single-argument callable returning a 32-bit unsigned image of the
// key. Four implementations are provided, ported from the upstream
// gcache C++ library's hash.h: an identity mapping (for pre-hashed
// callers), a CRC32-based "ghash" (the library default), and two
// avalanche-mixing finalizers modeled after XXHash and MurmurHash3.
//
// Sampling (ghost.Sampled) relies on the hash's high-order bits being
// close to uniformly distributed; ghash, XXHash32 and Murmur3 all
// qualify, Identity does not (its top bits are only as random as the
// caller's key distribution).
package hash

import "hash/crc32"

// Func32 hashes a key of type K into a uint32. Implementations must be
// pure and allocation-free: they run on every insert/lookup/access.
type Func32[K comparable] func(K) uint32

// Identity returns x unchanged. Only appropriate when the caller already
// passes pre-hashed uint32 values; sampling correctness is not guaranteed
// since the top bits are not necessarily uniform.
func Identity(x uint32) uint32 { return x }

// crc32Table matches the castagnoli/ieee-independent seed the upstream
// library mixes into its hardware CRC32 intrinsic; here it is the
// standard library's IEEE polynomial, seeded the same way.
var crc32Table = crc32.MakeTable(crc32.IEEE)

const ghashSeed uint32 = 0x537

// Ghash is the library's default hash: a CRC32 checksum of the seed XOR'd
// with the key, mirroring the SSE4.2 `_mm_crc32_u32` intrinsic the
// original C++ implementation uses when available.
func Ghash(x uint32) uint32 {
	b := [4]byte{byte(x), byte(x >> 8), byte(x >> 16), byte(x >> 24)}
	return crc32.Update(ghashSeed, crc32Table, b[:])
}

// XXHash32 is an avalanche finalizer modeled after xxHash's 32-bit mix
// step (github.com/Cyan4973/xxHash), not the full streaming algorithm.
func XXHash32(x uint32) uint32 {
	x ^= x >> 15
	x *= 0x85EBCA77
	x ^= x >> 13
	x *= 0xC2B2AE3D
	x ^= x >> 16
	return x
}

// Murmur3 is an avalanche finalizer modeled after MurmurHash3's 32-bit
// mix step (github.com/aappleby/smhasher).
func Murmur3(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x85EBCA6B
	x ^= x >> 13
	x *= 0xC2B2AE35
	x ^= x >> 16
	return x
}
