package filter

import (
	"strings"

	"github.com/steve-z-wang/webtask-sub000/internal/dom"
	"github.com/steve-z-wang/webtask-sub000/internal/tree"
)

// DOM runs the full DOM pipeline: visibility, attribute pruning, semantic
// pruning, then wrapper collapse. The input tree is left untouched.
func (r *Rules) DOM(root *dom.Node) *dom.Node {
	out := r.Visibility(root)
	out = r.PruneAttributes(out)
	out = r.PruneNonSemantic(out)
	return r.CollapseWrappers(out)
}

// Visibility deletes elements absent from the layout tree, together with
// their subtrees, except the unrendered input types the rules keep.
func (r *Rules) Visibility(root *dom.Node) *dom.Node {
	return tree.Filter(root, func(n *dom.Node) bool {
		return n.Type == dom.ElementNode && !n.Rendered && !r.KeepUnrendered(n)
	}, tree.Delete)
}

// PruneAttributes drops every attribute that is not semantic. It applies to
// the root as well.
func (r *Rules) PruneAttributes(root *dom.Node) *dom.Node {
	var prune func(n *dom.Node) *dom.Node
	prune = func(n *dom.Node) *dom.Node {
		children := make([]*dom.Node, 0, len(n.Children()))
		for _, c := range n.Children() {
			children = append(children, prune(c))
		}
		out := n.Clone(children)
		if n.Type == dom.ElementNode {
			out.Attrs = r.semanticAttrs(n.Attrs)
		}
		return out
	}
	return prune(root)
}

func (r *Rules) semanticAttrs(attrs []dom.Attr) []dom.Attr {
	var kept []dom.Attr
	for _, a := range attrs {
		if r.IsSemanticAttribute(a.Name) {
			kept = append(kept, a)
		}
	}
	return kept
}

// PruneNonSemantic promotes away elements with no semantic value and blank
// text nodes.
func (r *Rules) PruneNonSemantic(root *dom.Node) *dom.Node {
	return tree.Filter(root, func(n *dom.Node) bool {
		return !r.HasSemanticValue(n)
	}, tree.Promote)
}

// CollapseWrappers replaces an attribute-less, non-interactive element that
// has exactly one element child and no meaningful text with that child. The
// root is never replaced.
func (r *Rules) CollapseWrappers(root *dom.Node) *dom.Node {
	children := make([]*dom.Node, 0, len(root.Children()))
	for _, c := range root.Children() {
		children = append(children, r.collapse(c))
	}
	return root.Clone(children)
}

func (r *Rules) collapse(n *dom.Node) *dom.Node {
	children := make([]*dom.Node, 0, len(n.Children()))
	for _, c := range n.Children() {
		children = append(children, r.collapse(c))
	}
	if n.Type == dom.ElementNode && len(n.Attrs) == 0 && !r.IsInteractive(n) {
		var only *dom.Node
		elements, text := 0, false
		for _, c := range children {
			switch {
			case c.Type == dom.ElementNode:
				elements++
				only = c
			case strings.TrimSpace(c.Text) != "":
				text = true
			}
		}
		if elements == 1 && !text {
			return only
		}
	}
	return n.Clone(children)
}
