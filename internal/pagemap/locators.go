package pagemap

import (
	"errors"
	"fmt"

	"github.com/steve-z-wang/webtask-sub000/internal/dom"
)

// ErrNotFound is returned when an identifier is not part of the build being
// consulted, usually because it came from an earlier build. Callers should
// observe the page again and retry.
var ErrNotFound = errors.New("identifier not found")

// Locators maps the identifiers of one build to nodes of the decoded,
// unfiltered document.
type Locators struct {
	buildID string
	doc     *dom.Document
	targets map[string]int
	order   []string
}

// Target is a resolvable identifier and its original element.
type Target struct {
	ID   string
	Node *dom.Node
}

// Resolve returns the absolute XPath of the element behind id.
func (l *Locators) Resolve(id string) (string, error) {
	n, err := l.Node(id)
	if err != nil {
		return "", err
	}
	return n.XPath(), nil
}

// Node returns the original element behind id.
func (l *Locators) Node(id string) (*dom.Node, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	idx, ok := l.targets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	n := l.doc.Node(idx)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return n, nil
}

// Targets lists resolvable identifiers in outline order.
func (l *Locators) Targets() []Target {
	if l == nil {
		return nil
	}
	out := make([]Target, 0, len(l.order))
	for _, id := range l.order {
		if n := l.doc.Node(l.targets[id]); n != nil {
			out = append(out, Target{ID: id, Node: n})
		}
	}
	return out
}

// IDs lists resolvable identifiers in outline order.
func (l *Locators) IDs() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.order...)
}

func (l *Locators) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// BuildID is the id of the build that produced these locators.
func (l *Locators) BuildID() string {
	if l == nil {
		return ""
	}
	return l.buildID
}
