package marketplace

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode"
)

// PackageExt is the file extension of an extension package.
const PackageExt = ".vsix"

// Sanitize drops every rune that is not a letter, digit, '.', '_', '-'
// or space, then trims trailing whitespace. The result is still only
// fit for use as a name inside a known directory.
func Sanitize(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '.', r == '_', r == '-', r == ' ':
			return r
		}
		return -1
	}, name)

	return strings.TrimRightFunc(cleaned, unicode.IsSpace)
}

// FileName picks the local name for a package downloaded from source.
// The last path segment is used when it already ends in .vsix,
// otherwise "<id>.vsix". In strict mode a candidate that Sanitize
// would change is rejected rather than rewritten.
func FileName(source *url.URL, id string, strict bool) (string, error) {
	candidate := id + PackageExt
	if source != nil {
		if last, err := url.PathUnescape(path.Base(source.EscapedPath())); err == nil && strings.HasSuffix(last, PackageExt) {
			candidate = last
		}
	}

	name := Sanitize(candidate)
	if strict && name != candidate {
		return "", fmt.Errorf("%w: %q contains disallowed characters", ErrUnsafeFileName, candidate)
	}

	switch name {
	case "", ".", "..", PackageExt:
		return "", fmt.Errorf("%w: %q", ErrUnsafeFileName, candidate)
	}

	// A stem of only spaces or dots names nothing usable.
	if stem := strings.Trim(strings.TrimSuffix(name, PackageExt), " ."); stem == "" {
		return "", fmt.Errorf("%w: %q has no name before %s", ErrUnsafeFileName, candidate, PackageExt)
	}

	return name, nil
}
