// Package vsixget assembles a [fetch.Fetcher] from a [config.Config]:
// the HTTP client, the marketplace resolver, the integrity store and
// the download options.
package vsixget

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/adamwoolhether/vsixget/client"
	"github.com/adamwoolhether/vsixget/client/download"
	"github.com/adamwoolhether/vsixget/config"
	"github.com/adamwoolhether/vsixget/fetch"
	"github.com/adamwoolhether/vsixget/integrity"
	"github.com/adamwoolhether/vsixget/marketplace"
)

// NewClient instantiates a new *Client with the provided options.
// Without options it gets its own http.Client over a cloned transport
// with [client.DefaultTimeout] connect limits.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// NewFetcher builds a Fetcher for cfg. When progress is enabled a bar
// is drawn on progress, or progress is logged if progress is nil. The
// returned close func releases the integrity store.
func NewFetcher(cfg *config.Config, logger *slog.Logger, progress io.Writer) (*fetch.Fetcher, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Download.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating download dir: %w", err)
	}

	c, err := NewClient(clientOptions(cfg, logger)...)
	if err != nil {
		return nil, nil, err
	}

	resolver, err := NewResolver(cfg, c, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := integrity.Open(integrity.Backend(cfg.Integrity.Backend), cfg.Integrity.Path, cfg.Download.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening integrity store: %w", err)
	}

	dlOpts := []download.Option{download.WithBufferSize(cfg.Download.BufferSize)}
	if cfg.Download.SHA256 != "" {
		dlOpts = append(dlOpts, download.WithChecksum(cfg.Download.SHA256))
	}

	opts := []fetch.Option{
		fetch.WithResolver(resolver),
		fetch.WithClient(c),
		fetch.WithStore(store),
		fetch.WithDir(cfg.Download.Dir),
		fetch.WithLogger(logger),
	}
	if cfg.Download.Progress {
		if progress != nil {
			opts = append(opts, fetch.WithProgressBar(progress))
		} else {
			dlOpts = append(dlOpts, download.WithProgressLog())
		}
	}
	opts = append(opts, fetch.WithDownloadOptions(dlOpts...))

	f, err := fetch.New(opts...)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return f, store.Close, nil
}

// NewResolver returns the resolver selected by cfg.Marketplace.Mode.
func NewResolver(cfg *config.Config, c *client.Client, logger *slog.Logger) (marketplace.Resolver, error) {
	opts := []marketplace.Option{
		marketplace.WithBaseURL(cfg.Marketplace.BaseURL),
		marketplace.WithClient(c),
		marketplace.WithLogger(logger),
	}
	if cfg.Download.StrictNames {
		opts = append(opts, marketplace.WithStrictNames())
	}

	switch marketplace.Variant(cfg.Marketplace.Mode) {
	case marketplace.VariantQuery:
		r, err := marketplace.NewQuery(opts...)
		if err != nil {
			return nil, err
		}
		return r, nil
	case marketplace.VariantDirect, "":
		r, err := marketplace.NewDirect(opts...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	return nil, fmt.Errorf("unknown marketplace mode %q", cfg.Marketplace.Mode)
}

func clientOptions(cfg *config.Config, logger *slog.Logger) []client.Option {
	opts := []client.Option{
		client.WithLogger(logger),
		client.WithConnectTimeout(cfg.Download.Timeout),
		client.WithReadTimeout(cfg.Download.Timeout),
	}
	if cfg.Marketplace.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(cfg.Marketplace.UserAgent))
	}
	if cfg.Throttle.RPS > 0 {
		opts = append(opts, client.WithThrottle(cfg.Throttle.RPS, cfg.Throttle.Burst))
	}

	return opts
}
