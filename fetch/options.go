package fetch

import (
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/vsixget/client"
	"github.com/adamwoolhether/vsixget/client/download"
	"github.com/adamwoolhether/vsixget/integrity"
	"github.com/adamwoolhether/vsixget/marketplace"
)

// Option is a functional option for [New].
type Option func(*options) error

type options struct {
	resolver    marketplace.Resolver
	client      *client.Client
	store       integrity.Store
	dir         string
	logger      *slog.Logger
	tracer      trace.Tracer
	strictNames bool
	progress    io.Writer
	dlOpts      []download.Option
}

// WithResolver sets how identifiers become package URLs. The default
// is a [marketplace.DirectResolver].
func WithResolver(r marketplace.Resolver) Option {
	return func(o *options) error {
		if r == nil {
			return errors.New("resolver must not be nil")
		}
		o.resolver = r
		return nil
	}
}

// WithClient sets the HTTP client used for package downloads.
func WithClient(c *client.Client) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("client must not be nil")
		}
		o.client = c
		return nil
	}
}

// WithStore sets the integrity record. The default is a
// [integrity.JSONFile] in the download directory.
func WithStore(s integrity.Store) Option {
	return func(o *options) error {
		if s == nil {
			return errors.New("store must not be nil")
		}
		o.store = s
		return nil
	}
}

// WithDir sets the directory packages are written to.
func WithDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.New("dir must not be empty")
		}
		o.dir = dir
		return nil
	}
}

// WithLogger injects a custom [slog.Logger].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer for pipeline spans. The default is the
// global otel tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithStrictNames rejects file names that sanitization would alter. It
// applies to the default resolver only.
func WithStrictNames() Option {
	return func(o *options) error {
		o.strictNames = true
		return nil
	}
}

// WithProgressBar renders a progress line to w labelled with the
// resolved file name.
func WithProgressBar(w io.Writer) Option {
	return func(o *options) error {
		if w == nil {
			return errors.New("progress writer must not be nil")
		}
		o.progress = w
		return nil
	}
}

// WithDownloadOptions passes extra options to every download.
func WithDownloadOptions(opts ...download.Option) Option {
	return func(o *options) error {
		o.dlOpts = append(o.dlOpts, opts...)
		return nil
	}
}
