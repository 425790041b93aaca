package marketplace

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/adamwoolhether/vsixget/client"
)

// DefaultAPIVersion is sent in the Accept header of extension queries.
const DefaultAPIVersion = "7.1-preview.1"

// DefaultQueryFlags asks for versions, files and category/tag data of
// the latest version only.
const DefaultQueryFlags = 0x1 | 0x2 | 0x4 | 0x800

// Option is a functional option for [NewDirect] and [NewQuery].
type Option func(*options) error

type options struct {
	baseURL    *url.URL
	strict     bool
	client     *client.Client
	apiVersion string
	flags      int
	logger     *slog.Logger
}

func defaultOptions() (options, error) {
	u, err := url.Parse(DefaultBaseURL)
	if err != nil {
		return options{}, err
	}

	return options{
		baseURL:    u,
		apiVersion: DefaultAPIVersion,
		flags:      DefaultQueryFlags,
		logger:     slog.Default(),
	}, nil
}

func applyOptions(optFns []Option) (options, error) {
	opts, err := defaultOptions()
	if err != nil {
		return options{}, err
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return options{}, fmt.Errorf("applying marketplace option: %w", err)
		}
	}

	return opts, nil
}

// WithBaseURL points the resolver at another marketplace host.
func WithBaseURL(raw string) Option {
	return func(o *options) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing base url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base url %q must be http or https", raw)
		}
		if u.Host == "" {
			return fmt.Errorf("base url %q has no host", raw)
		}
		o.baseURL = u
		return nil
	}
}

// WithStrictNames rejects file names that sanitization would alter
// instead of rewriting them.
func WithStrictNames() Option {
	return func(o *options) error {
		o.strict = true
		return nil
	}
}

// WithClient sets the HTTP client used by [QueryResolver].
func WithClient(c *client.Client) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("client must not be nil")
		}
		o.client = c
		return nil
	}
}

// WithAPIVersion overrides the api-version sent with extension queries.
func WithAPIVersion(v string) Option {
	return func(o *options) error {
		if v == "" {
			return errors.New("api version must not be empty")
		}
		o.apiVersion = v
		return nil
	}
}

// WithFlags overrides the extension query flags bitmask.
func WithFlags(flags int) Option {
	return func(o *options) error {
		if flags < 0 {
			return errors.New("flags must not be negative")
		}
		o.flags = flags
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
