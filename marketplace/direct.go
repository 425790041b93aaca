package marketplace

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// DirectResolver builds the marketplace's "latest package" URL from
// the identifier alone.
type DirectResolver struct {
	base   *url.URL
	strict bool
	logger *slog.Logger
}

// NewDirect returns a DirectResolver configured by optFns.
func NewDirect(optFns ...Option) (*DirectResolver, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}

	return &DirectResolver{
		base:   opts.baseURL,
		strict: opts.strict,
		logger: opts.logger,
	}, nil
}

// Resolve returns the package URL for id. It never touches the network.
func (r *DirectResolver) Resolve(_ context.Context, raw string) (*Descriptor, error) {
	id, err := ParseIdentifier(raw)
	if err != nil {
		return nil, &ResolveError{ID: raw, Variant: VariantDirect, Err: err}
	}

	source := PackageURL(r.base, id)

	name, err := FileName(source, id.String(), r.strict)
	if err != nil {
		return nil, &ResolveError{ID: raw, Variant: VariantDirect, Err: err}
	}

	r.logger.Debug("resolved package url", "id", id.String(), "source", source.String())

	return &Descriptor{
		ID:       id.String(),
		Source:   source.String(),
		FileName: name,
		Variant:  VariantDirect,
		Version:  "latest",
	}, nil
}

// PackageURL returns the "latest" package URL for id under base.
func PackageURL(base *url.URL, id Identifier) *url.URL {
	u := *base
	u.Path = fmt.Sprintf("%s/_apis/public/gallery/publishers/%s/vsextensions/%s/latest/vspackage",
		strings.TrimRight(base.Path, "/"), id.Publisher, id.Name)
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""

	return &u
}
