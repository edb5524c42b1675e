package pagemap

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which tree drives the outline.
type Mode string

const (
	// ModeAccessibility builds a role-keyed outline from the accessibility tree.
	ModeAccessibility Mode = "accessibility"
	// ModeDOM builds a tag-keyed outline from the DOM snapshot.
	ModeDOM Mode = "dom"
)

// ErrUnknownMode is returned by ParseMode and Build for unsupported modes.
var ErrUnknownMode = errors.New("unknown page map mode")

// ParseMode parses a mode name. The empty string selects ModeAccessibility.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "accessibility", "ax", "a11y":
		return ModeAccessibility, nil
	case "dom":
		return ModeDOM, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) String() string { return string(m) }

func (m Mode) valid() bool { return m == ModeAccessibility || m == ModeDOM }
