package marketplace

import (
	"fmt"
	"strings"

	"github.com/adamwoolhether/vsixget/validate"
)

// Identifier names an extension as publisher and extension name.
type Identifier struct {
	Publisher string `json:"publisher" validate:"required,extpart"`
	Name      string `json:"extension" validate:"required,extpart"`
}

// ParseIdentifier splits s on its single '.' and validates both halves.
// Nothing is sent over the network for a malformed identifier.
func ParseIdentifier(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ".") != 1 {
		return Identifier{}, fmt.Errorf("%w: %q must have the form publisher.extension", ErrInvalidIdentifier, s)
	}

	publisher, name, _ := strings.Cut(s, ".")
	id := Identifier{Publisher: publisher, Name: name}
	if err := validate.Check(id); err != nil {
		return Identifier{}, fmt.Errorf("%w: %q: %w", ErrInvalidIdentifier, s, err)
	}

	return id, nil
}

func (id Identifier) String() string {
	return id.Publisher + "." + id.Name
}
