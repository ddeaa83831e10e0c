package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/regioncache/shmhash/internal/config"
)

func Test_Load_Returns_Default_When_File_Is_Missing(t *testing.T) {
	t.Parallel()

	profile, err := config.Load(filepath.Join(t.TempDir(), "missing.json"), config.Profile{})
	require.NoError(t, err)
	require.Equal(t, config.Default(), profile)
}

func Test_Load_Rejects_Invalid_JSONC(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(path, []byte("{ not json "), 0o600))

	_, err := config.Load(path, config.Profile{})
	require.Error(t, err)
}

func Test_Load_Merges_CLI_Overrides_Over_File_Contents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	require.NoError(t, config.Save(path, config.Profile{Name: "saved", MemorySize: 1 << 16, MaxBuckets: 64}))

	profile, err := config.Load(path, config.Profile{MaxBuckets: 128})
	require.NoError(t, err)
	require.Equal(t, "saved", profile.Name)
	require.EqualValues(t, 1<<16, profile.MemorySize)
	require.EqualValues(t, 128, profile.MaxBuckets, "CLI override should win over the saved file")
}

func Test_Save_Then_Load_Round_Trips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "profile.json")

	want := config.Profile{Name: "prod", MemorySize: 1 << 24, MaxBuckets: 8192, MaxFreeBlocks: 1024, LockPath: "/tmp/shmhash.lock"}
	require.NoError(t, config.Save(path, want))

	got, err := config.Load(path, config.Profile{})
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func Test_Save_Rejects_Profile_With_Empty_Name(t *testing.T) {
	t.Parallel()

	err := config.Save(filepath.Join(t.TempDir(), "profile.json"), config.Profile{})
	require.ErrorIs(t, err, config.ErrProfileNameEmpty)
}
