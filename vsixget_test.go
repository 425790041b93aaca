package vsixget_test

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/adamwoolhether/vsixget"
	"github.com/adamwoolhether/vsixget/config"
	"github.com/adamwoolhether/vsixget/integrity"
	"github.com/adamwoolhether/vsixget/marketplace"
)

func TestNewResolver(t *testing.T) {
	testCases := []struct {
		mode    string
		expType any
		expErr  bool
	}{
		{mode: "direct", expType: &marketplace.DirectResolver{}},
		{mode: "query", expType: &marketplace.QueryResolver{}},
		{mode: "scrape", expErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.mode, func(t *testing.T) {
			cfg := config.Default()
			cfg.Marketplace.Mode = tc.mode

			c, err := vsixget.NewClient()
			if err != nil {
				t.Fatalf("creating client: %v", err)
			}

			r, err := vsixget.NewResolver(cfg, c, slog.New(slog.DiscardHandler))
			if tc.expErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}

			if got, want := fmt.Sprintf("%T", r), fmt.Sprintf("%T", tc.expType); got != want {
				t.Errorf("resolver type = %s, want %s", got, want)
			}
		})
	}
}

func TestNewFetcher_QueryModeWithBolt(t *testing.T) {
	body := []byte("query mode package")

	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/_apis/public/gallery/extensionquery":
			if ua := r.Header.Get("User-Agent"); ua != "vsixget-test" {
				t.Errorf("User-Agent = %q", ua)
			}
			fmt.Fprintf(w, `{"results":[{"extensions":[{"versions":[{"version":"1.2.3","files":[{"source":%q}]}]}]}]}`,
				ts.URL+"/files/pub.ext-1.2.3.vsix")
		case "/files/pub.ext-1.2.3.vsix":
			_, _ = w.Write(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	dir := filepath.Join(t.TempDir(), "nested", "out")

	cfg := config.Default()
	cfg.Marketplace.BaseURL = ts.URL
	cfg.Marketplace.Mode = "query"
	cfg.Marketplace.UserAgent = "vsixget-test"
	cfg.Download.Dir = dir
	cfg.Download.Progress = true
	cfg.Integrity.Backend = "bolt"
	cfg.Throttle.RPS = 50
	cfg.Throttle.Burst = 5

	f, closeStore, err := vsixget.NewFetcher(cfg, slog.New(slog.DiscardHandler), nil)
	if err != nil {
		t.Fatalf("creating fetcher: %v", err)
	}

	res, err := f.Fetch(t.Context(), "pub.ext")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if err := closeStore(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	if res.Descriptor.Version != "1.2.3" || res.Path != filepath.Join(dir, "pub.ext-1.2.3.vsix") {
		t.Errorf("unexpected result: %+v", res)
	}

	b, err := integrity.OpenBolt(filepath.Join(dir, integrity.DefaultBoltFileName))
	if err != nil {
		t.Fatalf("opening bolt: %v", err)
	}
	defer b.Close()

	got, ok, err := b.Get(t.Context(), "pub.ext-1.2.3.vsix")
	if err != nil || !ok || got != res.SHA256 {
		t.Errorf("bolt record = %q, %v, %v; want %q", got, ok, err, res.SHA256)
	}
}

func TestNewFetcher_PinnedChecksumMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tampered"))
	}))
	defer ts.Close()

	dir := t.TempDir()

	cfg := config.Default()
	cfg.Marketplace.BaseURL = ts.URL
	cfg.Download.Dir = dir
	cfg.Download.Progress = false
	cfg.Download.SHA256 = "0000000000000000000000000000000000000000000000000000000000000000"

	f, closeStore, err := vsixget.NewFetcher(cfg, slog.New(slog.DiscardHandler), nil)
	if err != nil {
		t.Fatalf("creating fetcher: %v", err)
	}
	defer closeStore()

	if _, err := f.Fetch(t.Context(), "pub.ext"); err == nil {
		t.Fatal("expected checksum error")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("expected empty dir, found %v", names)
	}
}
