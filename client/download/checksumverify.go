package download

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// digest accumulates the SHA-256 of everything written through it and,
// when expected is set, checks the result against a pinned value.
type digest struct {
	hash     hash.Hash
	expected string
}

func newDigest(expected string) *digest {
	return &digest{hash: sha256.New(), expected: expected}
}

func (d *digest) Write(p []byte) (int, error) {
	return d.hash.Write(p)
}

func (d *digest) Sum() string {
	return hex.EncodeToString(d.hash.Sum(nil))
}

func (d *digest) Verify() error {
	if d.expected == "" {
		return nil
	}

	actual := d.Sum()
	if actual != d.expected {
		return &Error{
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("expected %s, got %s", d.expected, actual),
		}
	}

	return nil
}

// HashFile returns the hex-encoded SHA-256 of the file at path. It
// produces the same digest Handle computes while streaming.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	d := newDigest("")
	if _, err := io.CopyBuffer(d, f, make([]byte, DefaultBufferSize)); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}

	return d.Sum(), nil
}
