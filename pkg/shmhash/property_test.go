package shmhash_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/regioncache/shmhash/internal/model"
	"github.com/regioncache/shmhash/pkg/shmhash"
)

// Test_Property_Random_Operations_Match_Reference_Model runs a long,
// deterministic sequence of randomized Insert/Delete/Search calls against a
// real region and against model.Store, a plain-map reference, and requires
// the two to agree throughout. The region is sized generously so capacity
// exhaustion (covered by dedicated scenario tests) never interferes with
// the comparison.
func Test_Property_Random_Operations_Match_Reference_Model(t *testing.T) {
	t.Parallel()

	h := newTestHandle(t, 1<<20, 1024, 512)
	ref := model.New()

	rng := rand.New(rand.NewSource(1))
	keys := make([]string, 64)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%02d", i)
	}

	const iterations = 2000
	for i := 0; i < iterations; i++ {
		key := keys[rng.Intn(len(keys))]

		switch rng.Intn(3) {
		case 0: // Insert
			value := fmt.Sprintf("value-%d", rng.Intn(1000))
			require.NoError(t, h.Insert([]byte(key), []byte(value)), "iteration %d", i)
			ref.Insert(key, value)

		case 1: // Delete
			err := h.Delete([]byte(key))
			if ref.Delete(key) {
				require.NoError(t, err, "iteration %d", i)
			} else {
				require.ErrorIs(t, err, shmhash.ErrNotFound, "iteration %d", i)
			}

		case 2: // Search
			value, err := h.Search([]byte(key))
			wantValue, wantOK := ref.Search(key)
			if wantOK {
				require.NoError(t, err, "iteration %d", i)
				require.Equal(t, wantValue, string(value), "iteration %d", i)
			} else {
				require.ErrorIs(t, err, shmhash.ErrNotFound, "iteration %d", i)
			}
		}
	}

	stat, err := h.Stat()
	require.NoError(t, err)
	require.EqualValues(t, ref.Len(), stat.UsedBuckets, "live bucket count must match the reference model")

	got := make(map[string]string)
	for _, key := range keys {
		if value, err := h.Search([]byte(key)); err == nil {
			got[key] = string(value)
		}
	}
	require.Empty(t, cmp.Diff(ref.Snapshot(), got), "region contents must match the reference model")
}
