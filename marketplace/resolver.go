package marketplace

import (
	"context"
	"errors"
	"fmt"
)

// DefaultBaseURL is the public Visual Studio Code Marketplace.
const DefaultBaseURL = "https://marketplace.visualstudio.com"

// Variant names a resolution strategy.
type Variant string

const (
	VariantDirect Variant = "direct"
	VariantQuery  Variant = "query"
)

var (
	// ErrInvalidIdentifier is returned before any network call for an
	// identifier that cannot name an extension.
	ErrInvalidIdentifier = errors.New("invalid extension identifier")
	// ErrNotFound reports a query that matched no extension.
	ErrNotFound = errors.New("extension not found")
	// ErrMalformedResponse reports a query response missing the
	// version, file or source fields.
	ErrMalformedResponse = errors.New("malformed marketplace response")
	// ErrNotPackage reports a source URL that does not point at a .vsix file.
	ErrNotPackage = errors.New("source is not a vsix package")
	// ErrUnsafeFileName reports a file name that cannot be used safely.
	ErrUnsafeFileName = errors.New("unsafe file name")
)

// Resolver maps an identifier to a downloadable package.
type Resolver interface {
	Resolve(ctx context.Context, id string) (*Descriptor, error)
}

// Descriptor describes where a package lives and what to call it locally.
type Descriptor struct {
	ID       string
	Source   string
	FileName string
	Variant  Variant
	Version  string
}

// ResolveError wraps a resolution failure with the identifier and the
// resolver that produced it.
type ResolveError struct {
	ID      string
	Variant Variant
	Err     error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolving %q (%s): %v", e.ID, e.Variant, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
