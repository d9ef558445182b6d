package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File is a mutex-guarded flat JSON document on disk. Writes go through a
// temp file and rename so a crash mid-save never truncates the document.
type File struct {
	mu   sync.Mutex
	path string
}

// Open returns a handle for the JSON document at path. The file does not
// need to exist yet; Load reports ErrNotExist in that case.
func Open(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("jsonstore: path is required")
	}
	return &File{path: path}, nil
}

// ErrNotExist is returned by Load when the backing file is absent.
var ErrNotExist = fs.ErrNotExist

// Load decodes the document into dest.
func (f *File) Load(dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("jsonstore: decode %s: %w", f.path, err)
	}
	return nil
}

// LoadOr decodes the document into dest, leaving dest untouched when the
// file does not exist yet.
func (f *File) LoadOr(dest any) error {
	err := f.Load(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Save writes src as indented JSON, replacing the previous document.
func (f *File) Save(src any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonstore: encode %s: %w", f.path, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jsonstore: ensure dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("jsonstore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jsonstore: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonstore: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonstore: replace %s: %w", f.path, err)
	}
	return nil
}

// Path returns the location of the backing file.
func (f *File) Path() string {
	return f.path
}
