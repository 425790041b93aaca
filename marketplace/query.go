package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/adamwoolhether/vsixget/client"
)

// filterTypeExtensionName matches extensions by "publisher.extension".
const filterTypeExtensionName = 7

type queryCriterion struct {
	FilterType int    `json:"filterType"`
	Value      string `json:"value"`
}

type queryFilter struct {
	Criteria []queryCriterion `json:"criteria"`
}

type queryRequest struct {
	Filters []queryFilter `json:"filters"`
	Flags   int           `json:"flags"`
}

type queryFile struct {
	AssetType string `json:"assetType"`
	Source    string `json:"source"`
}

type queryVersion struct {
	Version string      `json:"version"`
	Files   []queryFile `json:"files"`
}

type queryExtension struct {
	Versions []queryVersion `json:"versions"`
}

type queryResult struct {
	Extensions []queryExtension `json:"extensions"`
}

type queryResponse struct {
	Results []queryResult `json:"results"`
}

// QueryResolver asks the gallery extension query endpoint for the
// package source of the latest version.
type QueryResolver struct {
	endpoint   string
	strict     bool
	client     *client.Client
	apiVersion string
	flags      int
	logger     *slog.Logger
}

// NewQuery returns a QueryResolver configured by optFns. Without
// [WithClient] a default [client.Client] is built.
func NewQuery(optFns ...Option) (*QueryResolver, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}

	c := opts.client
	if c == nil {
		c, err = client.Build(client.WithLogger(opts.logger))
		if err != nil {
			return nil, fmt.Errorf("building query client: %w", err)
		}
	}

	endpoint := *opts.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + "/_apis/public/gallery/extensionquery"
	endpoint.RawPath = ""

	return &QueryResolver{
		endpoint:   endpoint.String(),
		strict:     opts.strict,
		client:     c,
		apiVersion: opts.apiVersion,
		flags:      opts.flags,
		logger:     opts.logger,
	}, nil
}

// Resolve queries the marketplace for id and returns the source of the
// first file of its latest version.
func (r *QueryResolver) Resolve(ctx context.Context, id string) (*Descriptor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &ResolveError{ID: id, Variant: VariantQuery, Err: fmt.Errorf("%w: empty identifier", ErrInvalidIdentifier)}
	}

	d, err := r.resolve(ctx, id)
	if err != nil {
		return nil, &ResolveError{ID: id, Variant: VariantQuery, Err: err}
	}

	return d, nil
}

func (r *QueryResolver) resolve(ctx context.Context, id string) (*Descriptor, error) {
	body := queryRequest{
		Filters: []queryFilter{{
			Criteria: []queryCriterion{{FilterType: filterTypeExtensionName, Value: id}},
		}},
		Flags: r.flags,
	}

	req, err := client.Request(ctx, r.endpoint, http.MethodPost,
		client.WithPayload(body),
		client.WithHeaders(map[string][]string{
			"Accept": {"application/json;api-version=" + r.apiVersion},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	r.logger.Debug("querying marketplace", "id", id, "endpoint", r.endpoint)

	var resp queryResponse
	if err := r.client.Do(req, http.StatusOK, client.WithDestination(&resp)); err != nil {
		if errors.Is(err, client.ErrDecodeBody) {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("querying marketplace: %w", err)
	}

	version, source, err := resp.latestSource()
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: source %q: %w", ErrMalformedResponse, source, err)
	}
	if !strings.HasSuffix(u.Path, PackageExt) {
		return nil, fmt.Errorf("%w: %s", ErrNotPackage, source)
	}

	name, err := FileName(u, id, r.strict)
	if err != nil {
		return nil, err
	}

	return &Descriptor{
		ID:       id,
		Source:   source,
		FileName: name,
		Variant:  VariantQuery,
		Version:  version,
	}, nil
}

// latestSource walks results[0].extensions[0].versions[0].files[0].
func (qr queryResponse) latestSource() (string, string, error) {
	if len(qr.Results) == 0 || len(qr.Results[0].Extensions) == 0 {
		return "", "", ErrNotFound
	}

	ext := qr.Results[0].Extensions[0]
	if len(ext.Versions) == 0 {
		return "", "", fmt.Errorf("%w: no versions", ErrMalformedResponse)
	}

	v := ext.Versions[0]
	if len(v.Files) == 0 {
		return "", "", fmt.Errorf("%w: no files", ErrMalformedResponse)
	}
	if v.Files[0].Source == "" {
		return "", "", fmt.Errorf("%w: empty source", ErrMalformedResponse)
	}

	return v.Version, v.Files[0].Source, nil
}
