package filter

import (
	"strings"

	"github.com/steve-z-wang/webtask-sub000/internal/ax"
	"github.com/steve-z-wang/webtask-sub000/internal/tree"
)

// AX runs the accessibility pipeline: ignored nodes, duplicate text, then
// structural wrappers.
func (r *Rules) AX(root *ax.Node) *ax.Node {
	out := r.DropIgnored(root)
	out = r.DropDuplicateText(out)
	return r.DropWrapperRoles(out)
}

// DropIgnored promotes away nodes the browser marked as ignored.
func (r *Rules) DropIgnored(root *ax.Node) *ax.Node {
	return tree.Filter(root, func(n *ax.Node) bool { return n.Ignored }, tree.Promote)
}

// DropDuplicateText removes text-role nodes whose text already appears in the
// name of their nearest named ancestor. Matching is a plain substring check.
func (r *Rules) DropDuplicateText(root *ax.Node) *ax.Node {
	return tree.Filter(root, func(n *ax.Node) bool {
		if !r.IsTextRole(n.RoleName()) {
			return false
		}
		text := n.Label()
		if text == "" {
			return false
		}
		for p := n.Parent(); p != nil; p = p.Parent() {
			if name := p.Label(); name != "" {
				return strings.Contains(name, text)
			}
		}
		return false
	}, tree.KeepWrapper)
}

// DropWrapperRoles promotes away generic and presentational containers.
func (r *Rules) DropWrapperRoles(root *ax.Node) *ax.Node {
	return tree.Filter(root, func(n *ax.Node) bool {
		return r.IsWrapperRole(n.RoleName())
	}, tree.Promote)
}
