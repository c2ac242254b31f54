package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File stores the key/value pairs as a single JSON document on disk,
// the moral equivalent of a named preferences file. Writes replace the
// whole document via a temp file and rename so a crash mid-write leaves
// either the old or the new document, never a torn one.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile opens (or prepares to create) the preferences file at path.
// The file itself is created lazily on the first SetString.
func NewFile(path string) (*File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &File{path: path}, nil
}

// Path returns the location of the backing file.
func (f *File) Path() string {
	return f.path
}

// GetString reads the value stored under key. A missing file decodes as
// an empty document.
func (f *File) GetString(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

// SetString writes value under key, rewriting the whole document.
func (f *File) SetString(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc[key] = value

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace preferences: %w", err)
	}
	return nil
}

// Close is a no-op; the file is not held open between operations.
func (f *File) Close() error {
	return nil
}

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	doc := map[string]string{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}
	return doc, nil
}
