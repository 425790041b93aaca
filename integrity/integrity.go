package integrity

import (
	"context"
	"errors"
	"fmt"
)

// Store persists file name to digest records.
type Store interface {
	// Get returns the recorded digest for name, with ok false when the
	// name has never been recorded.
	Get(ctx context.Context, name string) (hash string, ok bool, err error)
	// Put records hash for name, replacing any previous value.
	Put(ctx context.Context, name, hash string) error
}

// ErrCorruptRecord reports a record file that could not be decoded.
var ErrCorruptRecord = errors.New("corrupt integrity record")

// Observation is the outcome of comparing a fresh digest with the
// recorded one.
type Observation struct {
	Name     string
	Previous string
	Current  string
	// First is set when no digest had been recorded for Name.
	First bool
	// Changed is set when a recorded digest differs from Current.
	Changed bool
}

// Observe compares hash with the digest recorded for name and then
// records hash. A changed digest is reported, not treated as an error.
func Observe(ctx context.Context, store Store, name, hash string) (Observation, error) {
	prev, ok, err := store.Get(ctx, name)
	if err != nil {
		return Observation{}, fmt.Errorf("reading record for %s: %w", name, err)
	}

	obs := Observation{
		Name:     name,
		Previous: prev,
		Current:  hash,
		First:    !ok,
		Changed:  ok && prev != hash,
	}

	if err := store.Put(ctx, name, hash); err != nil {
		return obs, fmt.Errorf("recording %s: %w", name, err)
	}

	return obs, nil
}
