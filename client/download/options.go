package download

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Option defines optional settings for downloading files.
//
// WithChecksum pins the expected hex SHA-256 of the body; a mismatch
// fails the download and discards the temp file.
//
// WithProgressBar renders a single updating progress line to w.
// WithProgressLog logs progress through the logger given to Handle.
//
// WithSkipExisting causes Handle to return the digest of the existing
// destination file instead of downloading it again.
//
// WithBufferSize sets the chunk size used for copying.
type Option func(*options) error

type options struct {
	expected     string
	bar          *barConfig
	progressLog  bool
	skipExisting bool
	bufferSize   int
}

type barConfig struct {
	w           io.Writer
	description string
}

func WithChecksum(expected string) Option {
	return func(opts *options) error {
		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		expected = strings.ToLower(expected)
		if b, err := hex.DecodeString(expected); err != nil || len(b) != 32 {
			return fmt.Errorf("expected checksum %q is not a hex sha256 digest", expected)
		}

		opts.expected = expected
		return nil
	}
}

func WithProgressBar(w io.Writer, description string) Option {
	return func(opts *options) error {
		if w == nil {
			return errors.New("progress writer must not be nil")
		}
		opts.bar = &barConfig{w: w, description: description}
		return nil
	}
}

func WithProgressLog() Option {
	return func(opts *options) error {
		opts.progressLog = true
		return nil
	}
}

func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}

func WithBufferSize(n int) Option {
	return func(opts *options) error {
		if n <= 0 {
			return fmt.Errorf("buffer size must be positive, got %d", n)
		}
		opts.bufferSize = n
		return nil
	}
}
