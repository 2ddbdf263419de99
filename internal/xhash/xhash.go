// Package xhash centralizes the 64-bit hashing primitives shared by the
// string interning engine: bucket assignment, slice key hashing, and carrier
// assignment in the async dictionary. internal/bloom does not use it; the
// wrapped Bloom library hashes keys itself.
package xhash

import "github.com/cespare/xxhash/v2"

// Sum64 hashes an arbitrary byte string. The empty string is defined to hash
// to 0, matching the in-memory string hash's empty-key contract.
func Sum64(key []byte) uint64 {
	if len(key) == 0 {
		return 0
	}
	return xxhash.Sum64(key)
}

// Mix is a reversible 64-bit permutation (Murmur3 finalizer) used to derive
// independent hash values from a single xxHash digest without re-hashing the
// input bytes. Bucket assignment rejects a sum in the disallowed-remainder
// range by repeatedly mixing, mirroring compactindex's rejection sampling.
func Mix(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// BucketIndex maps a precomputed hash to one of numBuckets slots using
// rejection sampling to avoid modulo bias, the same scheme compactindex uses
// for its bucket table.
func BucketIndex(hash uint64, numBuckets uint64) uint64 {
	if numBuckets == 0 {
		return 0
	}
	r := (-numBuckets) % numBuckets
	for hash < r {
		hash = Mix(hash)
	}
	return hash % numBuckets
}

// Family derives n independent hash values for a Bloom filter from a single
// digest via repeated mixing (Kirsch-Mitzenmacher double hashing avoided in
// favor of full remixing, since the mix is cheap and collision-free enough
// for the filter's false-positive budget).
func Family(hash uint64, n int) []uint64 {
	out := make([]uint64, n)
	h := hash
	for i := 0; i < n; i++ {
		h = Mix(h)
		out[i] = h
	}
	return out
}
