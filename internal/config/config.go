// Package config loads and saves the sizing profile the shmhash CLI uses to
// create a region, the way the teacher's root-level config.go
// loads its ticket-tracker settings: a JSONC file parsed with hujson,
// layered under CLI overrides, saved back atomically.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// ErrProfileNameEmpty is returned by Validate when Name is blank.
var ErrProfileNameEmpty = errors.New("config: profile name must not be empty")

// Profile describes a region sizing/behavior preset a CLI user can save and
// reload by name.
type Profile struct {
	Name          string `json:"name"`
	MemorySize    uint64 `json:"memory_size"`
	MaxBuckets    uint64 `json:"max_buckets,omitempty"`
	MaxFreeBlocks uint64 `json:"max_free_blocks,omitempty"`
	LockPath      string `json:"lock_path,omitempty"`
}

// FileName is the default profile file name, read from and saved to the
// current directory when no profile name is given.
const FileName = ".shmhash.json"

// Default returns the built-in profile used when no file is found and no
// CLI override is given.
func Default() Profile {
	return Profile{
		Name:       "default",
		MemorySize: 1 << 20,
		MaxBuckets: 4096,
	}
}

// Validate reports whether p is usable.
func (p Profile) Validate() error {
	if p.Name == "" {
		return ErrProfileNameEmpty
	}
	return nil
}

// Load reads a JSONC profile file at path, falling back to Default when the
// file does not exist. CLI overrides, when non-zero, take precedence over
// whatever was loaded.
func Load(path string, overrides Profile) (Profile, error) {
	profile := Default()

	data, err := os.ReadFile(path) //nolint:gosec // CLI-provided path
	switch {
	case err == nil:
		standardized, stdErr := hujson.Standardize(data)
		if stdErr != nil {
			return Profile{}, fmt.Errorf("config: invalid JSONC in %s: %w", path, stdErr)
		}
		if jsonErr := json.Unmarshal(standardized, &profile); jsonErr != nil {
			return Profile{}, fmt.Errorf("config: invalid profile in %s: %w", path, jsonErr)
		}
	case os.IsNotExist(err):
		// No saved profile yet: keep the built-in default.
	default:
		return Profile{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	profile = merge(profile, overrides)
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func merge(base, overlay Profile) Profile {
	if overlay.Name != "" {
		base.Name = overlay.Name
	}
	if overlay.MemorySize != 0 {
		base.MemorySize = overlay.MemorySize
	}
	if overlay.MaxBuckets != 0 {
		base.MaxBuckets = overlay.MaxBuckets
	}
	if overlay.MaxFreeBlocks != 0 {
		base.MaxFreeBlocks = overlay.MaxFreeBlocks
	}
	if overlay.LockPath != "" {
		base.LockPath = overlay.LockPath
	}
	return base
}

// Save durably writes profile to path as indented JSON, using a temp file
// plus rename so a crash mid-write never leaves a truncated profile behind.
func Save(path string, profile Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal profile: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
