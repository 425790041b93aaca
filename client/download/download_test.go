package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func assertNotExist(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected %s to not exist, stat err: %v", path, err)
	}
}

func TestHandle_RoundTrip(t *testing.T) {
	body := bytes.Repeat([]byte("vsix-payload-"), 4096) // larger than one chunk
	destPath := filepath.Join(t.TempDir(), "pub.ext.vsix")

	got, err := Handle(t.Context(), bytes.NewReader(body), int64(len(body)), destPath, discardLogger())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	want := &Summary{
		Path:     destPath,
		Bytes:    int64(len(body)),
		Declared: int64(len(body)),
		SHA256:   sha256Hex(body),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	onDisk, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if !bytes.Equal(onDisk, body) {
		t.Errorf("file contents mismatch; got %d bytes, want %d", len(onDisk), len(body))
	}

	assertNotExist(t, destPath+TempSuffix)
}

func TestHandle_UnknownLength(t *testing.T) {
	body := []byte("no content length")
	destPath := filepath.Join(t.TempDir(), "unknown.vsix")

	for _, declared := range []int64{-1, 0} {
		got, err := Handle(t.Context(), bytes.NewReader(body), declared, destPath, discardLogger())
		if err != nil {
			t.Fatalf("declared %d: expected no error, got: %v", declared, err)
		}
		if got.Bytes != int64(len(body)) {
			t.Errorf("declared %d: bytes = %d, want %d", declared, got.Bytes, len(body))
		}
	}
}

func TestHandle_ShortBody(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "short.vsix")

	_, err := Handle(t.Context(), strings.NewReader("hello"), 10, destPath, discardLogger())
	if !errors.Is(err, ErrContentLengthMismatch) {
		t.Fatalf("expected ErrContentLengthMismatch, got: %v", err)
	}

	var dlErr *Error
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected *Error, got %T", err)
	}

	assertNotExist(t, destPath)
	assertNotExist(t, destPath+TempSuffix)
}

func TestHandle_UnexpectedEOF(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "eof.vsix")
	body := io.MultiReader(strings.NewReader("partial"), errReader{io.ErrUnexpectedEOF})

	_, err := Handle(t.Context(), body, 100, destPath, discardLogger())
	if !errors.Is(err, ErrContentLengthMismatch) {
		t.Fatalf("expected ErrContentLengthMismatch, got: %v", err)
	}

	assertNotExist(t, destPath)
	assertNotExist(t, destPath+TempSuffix)
}

func TestHandle_ReadError(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "broken.vsix")
	boom := errors.New("connection reset")

	_, err := Handle(t.Context(), errReader{boom}, 0, destPath, discardLogger())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got: %v", err)
	}

	assertNotExist(t, destPath+TempSuffix)
}

func TestHandle_Checksum(t *testing.T) {
	body := []byte("pinned content")

	testCases := []struct {
		name     string
		expected string
		expErr   error
	}{
		{name: "match", expected: sha256Hex(body)},
		{name: "match upper case", expected: strings.ToUpper(sha256Hex(body))},
		{name: "mismatch", expected: sha256Hex([]byte("other")), expErr: ErrChecksumMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			destPath := filepath.Join(t.TempDir(), "pinned.vsix")

			_, err := Handle(t.Context(), bytes.NewReader(body), int64(len(body)), destPath, discardLogger(), WithChecksum(tc.expected))
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("exp err %v; got: %v", tc.expErr, err)
			}

			if tc.expErr != nil {
				assertNotExist(t, destPath)
			}
			assertNotExist(t, destPath+TempSuffix)
		})
	}
}

func TestHandle_InvalidOptions(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "opts.vsix")

	testCases := []struct {
		name string
		opt  Option
	}{
		{name: "empty checksum", opt: WithChecksum("")},
		{name: "non hex checksum", opt: WithChecksum("not-a-digest")},
		{name: "short checksum", opt: WithChecksum("abcd")},
		{name: "zero buffer", opt: WithBufferSize(0)},
		{name: "nil bar writer", opt: WithProgressBar(nil, "x")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Handle(t.Context(), strings.NewReader("x"), 1, destPath, discardLogger(), tc.opt); err == nil {
				t.Fatal("expected option error, got nil")
			}
			assertNotExist(t, destPath+TempSuffix)
		})
	}
}

func TestHandle_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	destPath := filepath.Join(t.TempDir(), "cancelled.vsix")

	_, err := Handle(ctx, strings.NewReader("never read"), 10, destPath, discardLogger())
	if !errors.Is(err, ErrDownloadCancelled) {
		t.Fatalf("expected ErrDownloadCancelled, got: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got: %v", err)
	}

	assertNotExist(t, destPath)
	assertNotExist(t, destPath+TempSuffix)
}

func TestHandle_SkipExisting(t *testing.T) {
	existing := []byte("already here")
	destPath := filepath.Join(t.TempDir(), "existing.vsix")
	if err := os.WriteFile(destPath, existing, 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	got, err := Handle(t.Context(), errReader{errors.New("must not read")}, 99, destPath, discardLogger(), WithSkipExisting())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	want := &Summary{Path: destPath, Bytes: int64(len(existing)), Declared: 99, SHA256: sha256Hex(existing), Skipped: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestHandle_ReplacesExisting(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "replace.vsix")
	if err := os.WriteFile(destPath, []byte("old old old"), 0o644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	body := []byte("new")
	if _, err := Handle(t.Context(), bytes.NewReader(body), int64(len(body)), destPath, discardLogger()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("got %q, want %q", got, body)
	}
}

func TestHandle_Progress(t *testing.T) {
	body := bytes.Repeat([]byte("abcdefghij"), 1000)
	destPath := filepath.Join(t.TempDir(), "progress.vsix")

	var logs, bar bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	_, err := Handle(t.Context(), bytes.NewReader(body), int64(len(body)), destPath, logger,
		WithProgressLog(),
		WithProgressBar(&bar, "progress.vsix"),
		WithBufferSize(1024),
	)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !strings.Contains(logs.String(), "download complete") {
		t.Errorf("expected completion log, got:\n%s", logs.String())
	}
	if !strings.Contains(bar.String(), "progress.vsix") {
		t.Errorf("expected bar output to carry description, got %q", bar.String())
	}
}

func TestHashFile_MatchesStream(t *testing.T) {
	body := bytes.Repeat([]byte{0x00, 0x01, 0xfe, 0xff}, 10000)
	destPath := filepath.Join(t.TempDir(), "hash.vsix")

	sum, err := Handle(t.Context(), bytes.NewReader(body), int64(len(body)), destPath, discardLogger())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	got, err := HashFile(destPath)
	if err != nil {
		t.Fatalf("hashing file: %v", err)
	}

	if got != sum.SHA256 {
		t.Errorf("post-hoc digest %s differs from streamed digest %s", got, sum.SHA256)
	}
}

func TestHashFile_Missing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got: %v", err)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
