package shmhash

import "testing"

func Test_Djb2Hash_Is_Deterministic(t *testing.T) {
	t.Parallel()

	a := djb2Hash([]byte("user:42"))
	b := djb2Hash([]byte("user:42"))
	if a != b {
		t.Fatalf("djb2Hash is not deterministic: %d != %d", a, b)
	}
}

func Test_Djb2Hash_Known_Value(t *testing.T) {
	t.Parallel()

	// h0 = 5381; h = h*33 + c, for the single byte 'a' (0x61 = 97).
	want := uint64(5381)*33 + 97
	if got := djb2Hash([]byte("a")); got != want {
		t.Fatalf("djb2Hash(\"a\") = %d, want %d", got, want)
	}
}

func Test_Djb2Hash_Does_Not_Truncate_On_Embedded_Zero_Byte(t *testing.T) {
	t.Parallel()

	withZero := []byte{'a', 0, 'b'}
	justA := []byte{'a'}
	if djb2Hash(withZero) == djb2Hash(justA) {
		t.Fatal("hash of a key with an embedded NUL must not collapse to the hash of its prefix")
	}
}
