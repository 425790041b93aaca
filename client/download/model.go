package download

import (
	"errors"
	"fmt"
)

// TempSuffix is appended to the destination path while bytes are in flight.
const TempSuffix = ".temp"

// DefaultBufferSize is the chunk size used to copy the body to disk.
const DefaultBufferSize = 8 << 10 // 8KB

var (
	ErrContentLengthMismatch = errors.New("content length mismatch")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrDownloadCancelled     = errors.New("download cancelled")
)

// Error wraps one of the package sentinels with detail about the failure.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Summary describes a finished download.
type Summary struct {
	// Path is the final location of the file.
	Path string
	// Bytes is the number of bytes written to Path.
	Bytes int64
	// Declared is the Content-Length reported by the server, -1 or 0 when unknown.
	Declared int64
	// SHA256 is the hex-encoded digest of the file contents.
	SHA256 string
	// Skipped reports that an existing file was kept and nothing was fetched.
	Skipped bool
}
