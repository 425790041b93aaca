package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/adamwoolhether/vsixget/client/download"
	"github.com/adamwoolhether/vsixget/client/throttle"
)

// execFn represents a func to operate on a response.
type execFn func(ctx context.Context, response *http.Response) error

// Client wraps the std-lib *http.Client.
// It builds its own *http.Client and *http.Transport, which
// can be customized via optional funcs.
type Client struct {
	c           *http.Client
	logger      *slog.Logger
	readTimeout time.Duration
}

// Build returns a Client configured by optFns. Without options the
// client uses a transport with [DefaultTimeout] connect limits and a
// [DefaultTimeout] read watchdog.
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		c:           &http.Client{},
		logger:      slog.Default(),
		readTimeout: DefaultTimeout,
	}

	if opts.client != nil {
		client.c = opts.client
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.readTimeout != nil {
		client.readTimeout = *opts.readTimeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	connectTimeout := DefaultTimeout
	if opts.connectTimeout != nil {
		connectTimeout = *opts.connectTimeout
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = defaultTransport(connectTimeout)
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	transport = runHeaders{base: transport}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

func defaultTransport(timeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.TLSHandshakeTimeout = timeout
	t.ResponseHeaderTimeout = timeout

	return t
}

// Do will fire the request, and write response to the given dest object if any.
func (c *Client) Do(req *http.Request, expCode int, opts ...DoOption) error {
	var settings doOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return err
		}
	}

	doFunc := func(_ context.Context, resp *http.Response) error {
		if settings.responseBody != nil {
			d := json.NewDecoder(resp.Body)

			if settings.useJSONNum {
				d.UseNumber()
			}

			if err := d.Decode(settings.responseBody); err != nil {
				return fmt.Errorf("%w: %w", ErrDecodeBody, err)
			}
		}

		return nil
	}

	return c.exec(req, expCode, doFunc)
}

// Download executes a request whose response body is streamed to destPath.
// Data streams to "<destPath>.temp", which is renamed to destPath on
// success or removed on failure.
func (c *Client) Download(req *http.Request, expCode int, destPath string, opts ...download.Option) (*download.Summary, error) {
	if destPath == "" {
		return nil, errors.New("destPath must not be empty")
	}

	var summary *download.Summary
	dlFunc := func(ctx context.Context, resp *http.Response) error {
		sum, err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, c.logger, opts...)
		if err != nil {
			return fmt.Errorf("download: %w", err)
		}
		summary = sum

		return nil
	}

	if err := c.exec(req, expCode, dlFunc); err != nil {
		return nil, err
	}

	return summary, nil
}

// exec runs the request and injected function on success after validating the expected status code.
func (c *Client) exec(req *http.Request, expCode int, fn execFn) error {
	ctx, cancel := context.WithCancelCause(req.Context())
	defer cancel(nil)

	resp, err := c.c.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("exec http do: %w", err)
	}

	body := resp.Body
	if c.readTimeout > 0 {
		sr := newStallReader(body, c.readTimeout, func() { cancel(ErrReadTimeout) })
		defer sr.stop()
		resp.Body = sr
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err := io.Copy(io.Discard, resp.Body); err != nil {
				c.logger.Debug("failed to discard unused body", "error", err)
			}
		}
		if err := body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != expCode {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		return newStatusError(resp.StatusCode, string(b))
	}

	if err := fn(ctx, resp); err != nil {
		discardBody = false
		if errors.Is(context.Cause(ctx), ErrReadTimeout) {
			return fmt.Errorf("exec fn: %w after %v: %w", ErrReadTimeout, c.readTimeout, err)
		}
		return fmt.Errorf("exec fn: %w", err)
	}

	return nil
}

// Request instantiates an *http.Request with the provided information.
// A payload is JSON-encoded and Content-Type defaults to `application/json`
// unless overridden with WithContentType.
func Request(ctx context.Context, reqURL string, method string, opts ...RequestOption) (*http.Request, error) {
	var settings requestOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	var payload io.Reader = http.NoBody
	if settings.body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(settings.body); err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
		payload = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, payload)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	switch {
	case settings.contentType != nil:
		req.Header.Set("Content-Type", *settings.contentType)
	case settings.body != nil:
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range settings.headers {
		for _, element := range v {
			req.Header.Add(k, element)
		}
	}

	return req, nil
}
