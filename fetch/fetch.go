package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/vsixget/client"
	"github.com/adamwoolhether/vsixget/client/download"
	"github.com/adamwoolhether/vsixget/integrity"
	"github.com/adamwoolhether/vsixget/marketplace"
)

const tracerName = "github.com/adamwoolhether/vsixget/fetch"

// Stage names the pipeline step an [Error] came from.
type Stage string

const (
	StageResolve  Stage = "resolve"
	StageDownload Stage = "download"
	StageRecord   Stage = "record"
)

// Error wraps a pipeline failure with the identifier and stage.
type Error struct {
	ID    string
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.ID, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result describes a completed fetch.
type Result struct {
	Descriptor  *marketplace.Descriptor
	Path        string
	Bytes       int64
	Declared    int64
	SHA256      string
	Skipped     bool
	Observation integrity.Observation
	RunID       string
}

// Fetcher downloads extensions into a directory and tracks their digests.
type Fetcher struct {
	resolver marketplace.Resolver
	client   *client.Client
	store    integrity.Store
	dir      string
	logger   *slog.Logger
	tracer   trace.Tracer
	progress io.Writer
	dlOpts   []download.Option
}

// New returns a Fetcher configured by optFns.
func New(optFns ...Option) (*Fetcher, error) {
	opts := options{
		dir:    ".",
		logger: slog.Default(),
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying fetch option: %w", err)
		}
	}

	if opts.tracer == nil {
		opts.tracer = otel.Tracer(tracerName)
	}

	if opts.resolver == nil {
		mOpts := []marketplace.Option{marketplace.WithLogger(opts.logger)}
		if opts.strictNames {
			mOpts = append(mOpts, marketplace.WithStrictNames())
		}
		r, err := marketplace.NewDirect(mOpts...)
		if err != nil {
			return nil, fmt.Errorf("building resolver: %w", err)
		}
		opts.resolver = r
	}

	if opts.client == nil {
		c, err := client.Build(client.WithLogger(opts.logger))
		if err != nil {
			return nil, fmt.Errorf("building client: %w", err)
		}
		opts.client = c
	}

	if opts.store == nil {
		opts.store = integrity.NewJSONFile(filepath.Join(opts.dir, integrity.DefaultFileName))
	}

	return &Fetcher{
		resolver: opts.resolver,
		client:   opts.client,
		store:    opts.store,
		dir:      opts.dir,
		logger:   opts.logger,
		tracer:   opts.tracer,
		progress: opts.progress,
		dlOpts:   opts.dlOpts,
	}, nil
}

// Fetch resolves id, downloads its package and records the digest.
func (f *Fetcher) Fetch(ctx context.Context, id string) (*Result, error) {
	runID := uuid.NewString()
	ctx = client.WithRunValues(ctx, &client.RunValues{RunID: runID, Started: time.Now()})
	logger := f.logger.With("run_id", runID, "id", id)

	ctx, span := f.tracer.Start(ctx, "fetch", trace.WithAttributes(
		attribute.String("vsix.id", id),
		attribute.String("vsix.run_id", runID),
	))
	defer span.End()

	d, err := f.resolve(ctx, id)
	if err != nil {
		return nil, f.fail(span, logger, &Error{ID: id, Stage: StageResolve, Err: err})
	}

	dest := filepath.Join(f.dir, d.FileName)
	sum, err := f.download(ctx, logger, d, dest)
	if err != nil {
		return nil, f.fail(span, logger, &Error{ID: id, Stage: StageDownload, Err: err})
	}

	obs, err := integrity.Observe(ctx, f.store, d.FileName, sum.SHA256)
	if err != nil {
		return nil, f.fail(span, logger, &Error{ID: id, Stage: StageRecord, Err: err})
	}

	switch {
	case obs.Changed:
		logger.Warn("extension content changed since last run",
			"file", d.FileName, "previous", obs.Previous, "current", obs.Current)
	case obs.First:
		logger.Info("recorded extension hash", "file", d.FileName, "sha256", obs.Current)
	default:
		logger.Debug("extension content unchanged", "file", d.FileName)
	}

	span.SetAttributes(
		attribute.Int64("vsix.bytes", sum.Bytes),
		attribute.String("vsix.sha256", sum.SHA256),
		attribute.Bool("vsix.changed", obs.Changed),
	)

	return &Result{
		Descriptor:  d,
		Path:        sum.Path,
		Bytes:       sum.Bytes,
		Declared:    sum.Declared,
		SHA256:      sum.SHA256,
		Skipped:     sum.Skipped,
		Observation: obs,
		RunID:       runID,
	}, nil
}

func (f *Fetcher) resolve(ctx context.Context, id string) (*marketplace.Descriptor, error) {
	ctx, span := f.tracer.Start(ctx, "fetch.resolve")
	defer span.End()

	d, err := f.resolver.Resolve(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	if d.FileName == "" || filepath.Base(d.FileName) != d.FileName {
		err := fmt.Errorf("%w: %q is not a bare file name", marketplace.ErrUnsafeFileName, d.FileName)
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("vsix.source", d.Source),
		attribute.String("vsix.variant", string(d.Variant)),
	)

	return d, nil
}

func (f *Fetcher) download(ctx context.Context, logger *slog.Logger, d *marketplace.Descriptor, dest string) (*download.Summary, error) {
	ctx, span := f.tracer.Start(ctx, "fetch.download", trace.WithAttributes(
		attribute.String("vsix.path", dest),
	))
	defer span.End()

	req, err := client.Request(ctx, d.Source, http.MethodGet)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	opts := f.dlOpts
	if f.progress != nil {
		opts = append(opts[:len(opts):len(opts)], download.WithProgressBar(f.progress, d.FileName))
	}

	logger.Debug("downloading package", "source", d.Source, "path", dest)

	sum, err := f.client.Download(req, http.StatusOK, dest, opts...)
	if err != nil {
		var statusErr *client.UnexpectedStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			err = fmt.Errorf("%w: %w", marketplace.ErrNotFound, err)
		}
		recordError(span, err)
		return nil, err
	}

	logger.Info("package saved", "path", sum.Path, "bytes", sum.Bytes, "sha256", sum.SHA256)

	return sum, nil
}

func (f *Fetcher) fail(span trace.Span, logger *slog.Logger, err error) error {
	recordError(span, err)
	logger.Debug("fetch failed", "error", err)
	return err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
