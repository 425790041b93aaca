package integrity

import (
	"fmt"
	"path/filepath"
)

// Backend selects a Store implementation.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendBolt   Backend = "bolt"
	BackendMemory Backend = "memory"
)

// StoreCloser is a Store holding resources that must be released.
type StoreCloser interface {
	Store
	Close() error
}

// Open returns the Store for backend. An empty path places the default
// file for that backend in dir.
func Open(backend Backend, path, dir string) (StoreCloser, error) {
	switch backend {
	case BackendJSON, "":
		if path == "" {
			path = filepath.Join(dir, DefaultFileName)
		}
		return NewJSONFile(path), nil
	case BackendBolt:
		if path == "" {
			path = filepath.Join(dir, DefaultBoltFileName)
		}
		b, err := OpenBolt(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	case BackendMemory:
		return NewMemory(), nil
	}

	return nil, fmt.Errorf("unknown integrity backend %q", backend)
}
