package utils

import (
	"hash/fnv"
	"strconv"
)

// Fingerprint is a stable 64-bit FNV-1a hash of s.
func Fingerprint(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// ShortFingerprint renders the first 8 hex digits of Fingerprint for logs.
func ShortFingerprint(s string) string {
	v := strconv.FormatUint(Fingerprint(s), 16)
	for len(v) < 16 {
		v = "0" + v
	}
	return v[:8]
}
