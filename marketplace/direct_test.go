package marketplace_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/vsixget/marketplace"
)

func TestDirectResolver_Resolve(t *testing.T) {
	r, err := marketplace.NewDirect()
	if err != nil {
		t.Fatalf("creating resolver: %v", err)
	}

	got, err := r.Resolve(t.Context(), "ms-python.python")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	exp := &marketplace.Descriptor{
		ID:       "ms-python.python",
		Source:   "https://marketplace.visualstudio.com/_apis/public/gallery/publishers/ms-python/vsextensions/python/latest/vspackage",
		FileName: "ms-python.python.vsix",
		Variant:  marketplace.VariantDirect,
		Version:  "latest",
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectResolver_BaseURLWithPath(t *testing.T) {
	r, err := marketplace.NewDirect(marketplace.WithBaseURL("http://127.0.0.1:8080/mirror/"))
	if err != nil {
		t.Fatalf("creating resolver: %v", err)
	}

	got, err := r.Resolve(t.Context(), "golang.go")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	exp := "http://127.0.0.1:8080/mirror/_apis/public/gallery/publishers/golang/vsextensions/go/latest/vspackage"
	if got.Source != exp {
		t.Errorf("Source = %q, want %q", got.Source, exp)
	}
}

func TestDirectResolver_InvalidIdentifierNoNetwork(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	r, err := marketplace.NewDirect(marketplace.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("creating resolver: %v", err)
	}

	for _, id := range []string{"", "nodot", "a.b.c", "../x.y", "pub.", ".ext"} {
		_, err := r.Resolve(t.Context(), id)
		if !errors.Is(err, marketplace.ErrInvalidIdentifier) {
			t.Errorf("Resolve(%q): expected ErrInvalidIdentifier, got: %v", id, err)
		}

		var resolveErr *marketplace.ResolveError
		if !errors.As(err, &resolveErr) || resolveErr.Variant != marketplace.VariantDirect {
			t.Errorf("Resolve(%q): expected *ResolveError from direct, got %T", id, err)
		}
	}

	if n := hits.Load(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestNewDirect_InvalidOptions(t *testing.T) {
	testCases := []struct {
		name string
		opt  marketplace.Option
	}{
		{name: "relative base", opt: marketplace.WithBaseURL("/just/a/path")},
		{name: "ftp base", opt: marketplace.WithBaseURL("ftp://example.com")},
		{name: "bad url", opt: marketplace.WithBaseURL("http://[::1")},
		{name: "nil logger", opt: marketplace.WithLogger(nil)},
		{name: "nil client", opt: marketplace.WithClient(nil)},
		{name: "empty api version", opt: marketplace.WithAPIVersion("")},
		{name: "negative flags", opt: marketplace.WithFlags(-1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := marketplace.NewDirect(tc.opt); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
