package shmhash

import "encoding/binary"

// A record occupies recordPrefixSize bytes of hash/key_size/value_size
// fields, followed by the key bytes, a NUL terminator, the value bytes, and
// a second NUL terminator. The terminators are never required for correct
// reads (key_size and value_size are authoritative) but keep the arena
// dumpable with a text tool, matching the original C layout.
type recordPrefix struct {
	hash      uint64
	keySize   uint64
	valueSize uint64
}

func (r *region) recordAt(offset uint64) recordPrefix {
	buf := r.buf[offset:]
	return recordPrefix{
		hash:      binary.LittleEndian.Uint64(buf[0:8]),
		keySize:   binary.LittleEndian.Uint64(buf[8:16]),
		valueSize: binary.LittleEndian.Uint64(buf[16:24]),
	}
}

func (r *region) recordKey(offset uint64, rec recordPrefix) []byte {
	start := offset + recordPrefixSize
	return r.buf[start : start+rec.keySize]
}

func (r *region) recordValue(offset uint64, rec recordPrefix) []byte {
	start := offset + recordPrefixSize + rec.keySize + 1
	return r.buf[start : start+rec.valueSize]
}

// recordExtent is the total number of bytes a record with the given key and
// value sizes occupies in the data arena, including its prefix and the two
// NUL terminators.
func recordExtent(keySize, valueSize uint64) uint64 {
	return recordPrefixSize + keySize + valueSize + 2
}

func (r *region) writeRecord(offset, hash, keySize, valueSize uint64, key, value []byte) {
	buf := r.buf[offset:]
	binary.LittleEndian.PutUint64(buf[0:8], hash)
	binary.LittleEndian.PutUint64(buf[8:16], keySize)
	binary.LittleEndian.PutUint64(buf[16:24], valueSize)

	pos := offset + recordPrefixSize
	copy(r.buf[pos:], key)
	r.buf[pos+keySize] = 0

	pos += keySize + 1
	copy(r.buf[pos:], value)
	r.buf[pos+valueSize] = 0
}
