package client_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adamwoolhether/vsixget/client"
	"github.com/adamwoolhether/vsixget/client/download"
)

func ExampleBuild() {
	c, err := client.Build(
		client.WithConnectTimeout(30*time.Second),
		client.WithReadTimeout(30*time.Second),
		client.WithUserAgent("example/1.0"),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	_ = c
	fmt.Println("client built")
	// Output: client built
}

func ExampleRequest() {
	type criteria struct {
		FilterType int    `json:"filterType"`
		Value      string `json:"value"`
	}

	req, err := client.Request(context.Background(), "https://example.com/_apis/public/gallery/extensionquery", http.MethodPost,
		client.WithPayload(criteria{FilterType: 7, Value: "ms-python.python"}),
		client.WithHeaders(map[string][]string{"Accept": {"application/json;api-version=7.1-preview.1"}}),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(req.Method, req.URL.Path, req.Header.Get("Content-Type"))
	// Output: POST /_apis/public/gallery/extensionquery application/json
}

func ExampleClient_Do() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	}))
	defer ts.Close()

	c, _ := client.Build()
	req, _ := client.Request(context.Background(), ts.URL, http.MethodGet)

	var resp struct{ Status string }
	if err := c.Do(req, http.StatusOK, client.WithDestination(&resp)); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(resp.Status)
	// Output: ok
}

func ExampleClient_Download() {
	body := []byte("PK vsix bytes")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	dir, _ := os.MkdirTemp("", "example")
	defer os.RemoveAll(dir)

	c, _ := client.Build()
	req, _ := client.Request(context.Background(), ts.URL, http.MethodGet)

	sum, err := c.Download(req, http.StatusOK, filepath.Join(dir, "pub.ext.vsix"), download.WithBufferSize(1024))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(sum.Bytes, sum.SHA256[:12])
	// Output: 13 947d8edac30b
}
