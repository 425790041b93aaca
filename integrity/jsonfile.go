package integrity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFileName is the record file written next to the downloads.
const DefaultFileName = "extension_hashes.json"

// JSONFile is a Store backed by a single JSON object on disk, indented
// with four spaces. Every Put rewrites the whole file through a
// temporary file and a rename.
type JSONFile struct {
	path string
	mu   sync.Mutex
}

// NewJSONFile returns a JSONFile at path. The file need not exist.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the record file location.
func (j *JSONFile) Path() string {
	return j.path
}

func (j *JSONFile) Get(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	hashes, err := j.load()
	if err != nil {
		return "", false, err
	}

	h, ok := hashes[name]
	return h, ok, nil
}

func (j *JSONFile) Put(ctx context.Context, name, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	hashes, err := j.load()
	if err != nil {
		return err
	}
	hashes[name] = hash

	return j.save(hashes)
}

// All returns every record in the file.
func (j *JSONFile) All(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return j.load()
}

func (j *JSONFile) Close() error { return nil }

// load reads the record, treating a missing or empty file as empty.
func (j *JSONFile) load() (map[string]string, error) {
	hashes := make(map[string]string)

	data, err := os.ReadFile(j.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return hashes, nil
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", j.path, err)
	case len(data) == 0:
		return hashes, nil
	}

	if err := json.Unmarshal(data, &hashes); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, j.path, err)
	}
	// A "null" document decodes to a nil map.
	if hashes == nil {
		hashes = make(map[string]string)
	}

	return hashes, nil
}

func (j *JSONFile) save(hashes map[string]string) error {
	data, err := json.MarshalIndent(hashes, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	dir := filepath.Dir(j.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(j.path)+".*.temp")
	if err != nil {
		return fmt.Errorf("creating temp record: %w", err)
	}

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp record: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting record permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), j.path); err != nil {
		return fmt.Errorf("replacing %s: %w", j.path, err)
	}

	success = true
	return nil
}
