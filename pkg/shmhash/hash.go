package shmhash

// djb2Hash is Dan Bernstein's string hash: h = h*33 + c, seeded at 5381,
// wrapping on uint64 overflow. Keys are hashed as raw bytes, not
// NUL-terminated C strings, so unlike the original a zero byte inside a key
// does not truncate the hash.
func djb2Hash(key []byte) uint64 {
	h := uint64(5381)
	for _, b := range key {
		h = h*33 + uint64(b)
	}
	return h
}
