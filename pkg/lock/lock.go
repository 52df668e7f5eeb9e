// Package lock implements the freeze artifact: a digest of the source module
// bound to the exact target IR a build produced. Replay verifies the digest
// and reuses the stored IR without a single generation call, which is what
// makes frozen builds bit-identical.
package lock

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"sculpt/pkg/sourceir"
	"sculpt/pkg/targetir"
)

// FileName is the lock artifact, written to the project root by freeze.
const FileName = "sculpt.lock"

// Lock binds a source digest to the accepted target IR and the provider
// that produced it.
type Lock struct {
	Provider string       `json:"provider"`
	Model    string       `json:"model"`
	Target   string       `json:"target"`
	IRHash   string       `json:"ir_hash"`
	TargetIR *targetir.IR `json:"target_ir"`
}

// Create builds the lock for an accepted build. The digest is the source
// module's canonical digest, so permuting map-key order in the input never
// invalidates a lock.
func Create(src *sourceir.Module, providerName, model, target string, ir *targetir.IR) (*Lock, error) {
	hash, err := src.Digest()
	if err != nil {
		return nil, err
	}
	return &Lock{
		Provider: providerName,
		Model:    model,
		Target:   target,
		IRHash:   hash,
		TargetIR: ir,
	}, nil
}

// Verify recomputes the current digest and requires exact equality with the
// stored one. A mismatch is fatal and reports both digests.
func (l *Lock) Verify(src *sourceir.Module) error {
	current, err := src.Digest()
	if err != nil {
		return err
	}
	if current != l.IRHash {
		return fmt.Errorf("IR hash mismatch: lock %s, current %s", l.IRHash, current)
	}
	return nil
}

// Store reads and writes the lock file of one project root.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a lock store rooted at dir.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

// Path returns the lock file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Exists reports whether a lock file is present.
func (s *Store) Exists() bool {
	ok, err := afero.Exists(s.fs, s.Path())
	return err == nil && ok
}

// Write persists the lock atomically: temp file in the same directory, sync,
// then rename. A replay racing a freeze observes either the old lock or the
// new one, never a partial write.
func (s *Store) Write(l *Lock) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lock: %w", err)
	}
	data = append(data, '\n')
	return writeFileAtomic(s.fs, s.Path(), data)
}

// Read loads and validates the lock. Malformed or truncated content fails
// closed; it can never pass as a hash match downstream.
func (s *Store) Read() (*Lock, error) {
	data, err := afero.ReadFile(s.fs, s.Path())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	var l Lock
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%s is corrupted: %w", FileName, err)
	}
	if l.IRHash == "" || l.TargetIR == nil {
		return nil, fmt.Errorf("%s is incomplete", FileName)
	}
	return &l, nil
}

// Remove deletes the lock file if present.
func (s *Store) Remove() error {
	if !s.Exists() {
		return nil
	}
	return s.fs.Remove(s.Path())
}

func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, ".tmp-lock-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer fs.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}
