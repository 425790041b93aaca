package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Handle streams body to "<destPath>.temp", hashing every chunk as it
// is written, and renames the temp file to destPath once all declared
// bytes arrived. On any error the temp file is removed.
//
// contentLength is the value announced by the server; zero or negative
// means unknown and disables the length check.
func Handle(ctx context.Context, body io.Reader, contentLength int64, destPath string, logger *slog.Logger, optFns ...Option) (*Summary, error) {
	opts := options{bufferSize: DefaultBufferSize}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	if opts.skipExisting {
		if _, err := os.Stat(destPath); err == nil {
			sum, err := HashFile(destPath)
			if err != nil {
				return nil, fmt.Errorf("hashing existing file: %w", err)
			}
			logger.Info("skipping existing file", "path", destPath)

			fi, err := os.Stat(destPath)
			if err != nil {
				return nil, fmt.Errorf("stat existing file: %w", err)
			}

			return &Summary{Path: destPath, Bytes: fi.Size(), Declared: contentLength, SHA256: sum, Skipped: true}, nil
		}
	}

	body = &contextReader{ctx: ctx, r: body}

	tempPath := destPath + TempSuffix
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}
		if !successful {
			if err := os.Remove(tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Error("failed to remove temp file", "path", tempPath, "error", err)
			}
		}
	}()

	sum := newDigest(opts.expected)
	writers := []io.Writer{file, sum}
	progress, finish := opts.sinks(logger, filepath.Base(destPath), contentLength)
	writer := io.MultiWriter(append(writers, progress...)...)

	n, err := io.CopyBuffer(writer, body, make([]byte, opts.bufferSize))
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %w", ErrDownloadCancelled, err)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, &Error{
				Err:    ErrContentLengthMismatch,
				Detail: fmt.Sprintf("body ended early after %d of %d bytes", n, contentLength),
			}
		}

		return nil, fmt.Errorf("copying file body: %w", err)
	}

	if contentLength > 0 && n != contentLength {
		return nil, &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", contentLength, n),
		}
	}

	if err := sum.Verify(); err != nil {
		return nil, err
	}

	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, destPath); err != nil {
		return nil, fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true
	finish()

	return &Summary{
		Path:     destPath,
		Bytes:    n,
		Declared: contentLength,
		SHA256:   sum.Sum(),
	}, nil
}

// contextReader stops a copy between reads once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
