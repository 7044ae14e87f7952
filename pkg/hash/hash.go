// Package hash contains the hash functions behind the hash() builtin and the
// keys of dicts and sets.
//
// Hashes are 32 bits wide and combined with the DJB scheme. Values that
// compare equal across types, like 1, 1.0 and Decimal('1'), must be hashed
// through the same function by their callers.
package hash

import (
	"math"
	"unsafe"
)

// Init is the initial accumulator of Combine.
const Init uint32 = 5381

// Combine mixes h into the accumulator acc.
func Combine(acc, h uint32) uint32 {
	return acc<<5 + acc + h
}

// DJB combines hs in order, starting from Init.
func DJB(hs ...uint32) uint32 {
	acc := Init
	for _, h := range hs {
		acc = Combine(acc, h)
	}
	return acc
}

// Uint64 folds u into 32 bits.
func Uint64(u uint64) uint32 {
	return Combine(uint32(u>>32), uint32(u))
}

// Float64 hashes the bits of f. Callers hash integral floats as integers.
func Float64(f float64) uint32 {
	return Uint64(math.Float64bits(f))
}

// Pointer hashes the address p, for values compared by identity.
func Pointer(p unsafe.Pointer) uint32 {
	return Uint64(uint64(uintptr(p)))
}

// String hashes the bytes of s.
func String(s string) uint32 {
	h := Init
	for i := 0; i < len(s); i++ {
		h = Combine(h, uint32(s[i]))
	}
	return h
}
