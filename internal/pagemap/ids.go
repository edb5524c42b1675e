package pagemap

import (
	"strconv"

	"github.com/steve-z-wang/webtask-sub000/internal/ax"
	"github.com/steve-z-wang/webtask-sub000/internal/dom"
	"github.com/steve-z-wang/webtask-sub000/internal/filter"
	"github.com/steve-z-wang/webtask-sub000/internal/tree"
)

// assignment is the result of numbering a filtered tree: labels by the
// filtered node's ID, and resolvable identifiers in outline order with their
// original document index.
type assignment struct {
	labels  map[int]string
	order   []string
	targets map[string]int
}

type counter map[string]int

func (c counter) next(kind string) string {
	n := c[kind]
	c[kind] = n + 1
	return kind + "-" + strconv.Itoa(n)
}

// assignDOMIDs numbers elements per tag in pre-order. Every identifier
// resolves: filtered DOM nodes keep the index of the node they were cloned
// from.
func assignDOMIDs(root *dom.Node) assignment {
	a := assignment{labels: map[int]string{}, targets: map[string]int{}}
	kinds := counter{}
	tree.Walk(root, func(n *dom.Node, _ int) bool {
		if n.Type != dom.ElementNode {
			return true
		}
		id := kinds.next(n.Tag)
		a.labels[n.ID] = id
		a.order = append(a.order, id)
		a.targets[id] = n.ID
		return true
	})
	return a
}

// assignAXIDs numbers accessibility nodes per role in pre-order. Text roles
// are skipped. An identifier resolves only when its backend id names an
// element of doc.
func assignAXIDs(root *ax.Node, doc *dom.Document, rules *filter.Rules) assignment {
	a := assignment{labels: map[int]string{}, targets: map[string]int{}}
	kinds := counter{}
	tree.Walk(root, func(n *ax.Node, _ int) bool {
		role := n.RoleName()
		if rules.IsTextRole(role) {
			return true
		}
		id := kinds.next(role)
		a.labels[n.ID] = id
		if n.BackendID == 0 {
			return true
		}
		if el := doc.ByBackendID(n.BackendID); el != nil {
			a.order = append(a.order, id)
			a.targets[id] = el.ID
		}
		return true
	})
	return a
}
