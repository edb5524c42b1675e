// Package tree holds the predicate-driven rewrite shared by the DOM and
// accessibility trees.
package tree

import "fmt"

// Node is implemented by tree node types the filter engine can rebuild.
type Node[T any] interface {
	Children() []T
	// Clone returns a copy with the node's own data and identity and the given
	// children. The copy has no parent; each child's parent becomes the copy.
	Clone(children []T) T
}

// Policy selects what happens to a node matched by a removal predicate.
type Policy int

const (
	// Promote drops the node and splices its filtered children into its place.
	Promote Policy = iota
	// Delete drops the node and its entire subtree without descending into it.
	Delete
	// KeepWrapper drops the node only when none of its children survive.
	KeepWrapper
)

func (p Policy) String() string {
	switch p {
	case Promote:
		return "promote"
	case Delete:
		return "delete"
	case KeepWrapper:
		return "keep_wrapper"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Filter rewrites the tree under root, removing nodes for which remove
// returns true according to policy. The root itself is always kept. The input
// tree is never modified: every node of the result is a fresh Clone.
func Filter[T Node[T]](root T, remove func(T) bool, policy Policy) T {
	return root.Clone(filterChildren(root, remove, policy))
}

func filterChildren[T Node[T]](n T, remove func(T) bool, policy Policy) []T {
	var out []T
	for _, child := range n.Children() {
		out = append(out, filterNode(child, remove, policy)...)
	}
	return out
}

func filterNode[T Node[T]](n T, remove func(T) bool, policy Policy) []T {
	if policy == Delete {
		if remove(n) {
			return nil
		}
		return []T{n.Clone(filterChildren(n, remove, policy))}
	}

	children := filterChildren(n, remove, policy)
	if remove(n) {
		if policy == Promote || len(children) == 0 {
			return children
		}
	}
	return []T{n.Clone(children)}
}

// Walk visits the tree in pre-order, the order children were appended.
// Returning false from fn skips the node's descendants.
func Walk[T Node[T]](root T, fn func(n T, depth int) bool) {
	walk(root, 0, fn)
}

func walk[T Node[T]](n T, depth int, fn func(T, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children() {
		walk(child, depth+1, fn)
	}
}

// Count returns the number of nodes in the tree, root included.
func Count[T Node[T]](root T) int {
	total := 0
	Walk(root, func(T, int) bool {
		total++
		return true
	})
	return total
}
