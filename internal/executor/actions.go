package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/input"
)

// ErrUnknownAction is returned for action types the executor does not know
var ErrUnknownAction = errors.New("unknown action type")

// Action represents a single browser automation action
type Action struct {
	Type       string   `json:"action"`               // click, fill, type, press, upload, hover, scroll, wait, navigate
	ID         string   `json:"id,omitempty"`         // Element identifier from the page outline
	Text       string   `json:"text,omitempty"`       // Text to fill/type
	Key        string   `json:"key,omitempty"`        // Key name for press (Enter, Tab, Escape, ...)
	Files      []string `json:"files,omitempty"`      // Local paths for upload
	X          int      `json:"x,omitempty"`          // Horizontal scroll delta
	Y          int      `json:"y,omitempty"`          // Vertical scroll delta
	URL        string   `json:"url,omitempty"`        // URL for navigate action
	Duration   int      `json:"wait,omitempty"`       // Wait duration in ms after action
	Checkpoint bool     `json:"checkpoint,omitempty"` // Re-observe the page after this action
}

// String renders the action for progress output
func (a Action) String() string {
	switch a.Type {
	case "navigate":
		return "navigate " + a.URL
	case "wait":
		return fmt.Sprintf("wait %dms", a.Duration)
	case "scroll":
		return fmt.Sprintf("scroll %d,%d", a.X, a.Y)
	case "press":
		return "press " + a.Key
	}
	s := a.Type + " " + a.ID
	if a.Text != "" {
		s += fmt.Sprintf(" %q", a.Text)
	}
	return s
}

// needsElement reports whether the action targets an identifier
func (a Action) needsElement() bool {
	switch a.Type {
	case "click", "fill", "type", "upload", "hover":
		return true
	case "scroll":
		return a.ID != ""
	}
	return false
}

// Validate checks that the action carries what its type needs
func (a Action) Validate() error {
	switch a.Type {
	case "click", "hover", "fill", "type":
		if a.ID == "" {
			return fmt.Errorf("%s needs an id", a.Type)
		}
	case "upload":
		if a.ID == "" || len(a.Files) == 0 {
			return fmt.Errorf("upload needs an id and files")
		}
	case "press":
		if _, ok := keyByName(a.Key); !ok {
			return fmt.Errorf("unknown key %q", a.Key)
		}
	case "navigate":
		if a.URL == "" {
			return fmt.Errorf("navigate needs a url")
		}
	case "wait", "scroll":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, a.Type)
	}
	return nil
}

var keys = map[string]input.Key{
	"enter":      input.Enter,
	"tab":        input.Tab,
	"escape":     input.Escape,
	"backspace":  input.Backspace,
	"delete":     input.Delete,
	"arrowup":    input.ArrowUp,
	"arrowdown":  input.ArrowDown,
	"arrowleft":  input.ArrowLeft,
	"arrowright": input.ArrowRight,
	"pageup":     input.PageUp,
	"pagedown":   input.PageDown,
	"space":      input.Space,
}

func keyByName(name string) (input.Key, bool) {
	k, ok := keys[strings.ToLower(name)]
	return k, ok
}
