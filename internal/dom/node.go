// Package dom decodes a CDP DOMSnapshot into an element/text tree.
package dom

import (
	"strconv"
	"strings"
)

// NodeType mirrors the DOM nodeType values the decoder keeps.
type NodeType int

const (
	ElementNode NodeType = 1
	TextNode    NodeType = 3
)

// BoundingBox is a layout rectangle in CSS pixels, relative to the document.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Attr is a single element attribute. Order follows the snapshot.
type Attr struct {
	Name  string
	Value string
}

// Node is an element or a text node. ID is the node's index in the snapshot
// it was decoded from and is preserved by Clone, so a filtered copy can always
// be traced back to its original through Document.Node.
type Node struct {
	ID   int
	Type NodeType
	Tag  string
	// Text holds the trimmed content of text nodes.
	Text  string
	Attrs []Attr
	// Rendered reports whether the node appeared in the snapshot's layout tree.
	Rendered  bool
	Bounds    *BoundingBox
	Styles    map[string]string
	BackendID int

	parent   *Node
	children []*Node
}

// Element returns a detached element node, mostly for tests and placeholders.
func Element(tag string, attrs ...Attr) *Node {
	return &Node{ID: -1, Type: ElementNode, Tag: tag, Attrs: attrs}
}

// Text returns a detached text node.
func Text(content string) *Node {
	return &Node{ID: -1, Type: TextNode, Text: content}
}

// Append attaches children to n and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

func (n *Node) Children() []*Node { return n.children }

func (n *Node) Parent() *Node { return n.parent }

// Clone copies n with the given children. Attribute and style storage is
// shared with n and must be treated as read-only.
func (n *Node) Clone(children []*Node) *Node {
	c := *n
	c.parent = nil
	c.children = nil
	if len(children) > 0 {
		c.children = make([]*Node, len(children))
		copy(c.children, children)
	}
	for _, child := range c.children {
		child.parent = &c
	}
	return &c
}

func (n *Node) IsElement() bool { return n.Type == ElementNode }

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// ElementChildren returns the element children of n in order.
func (n *Node) ElementChildren() []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// XPath returns the absolute sibling-indexed path of an element, e.g.
// /html/body/div[2]/button. The position is omitted when the element is the
// only child of its parent with that tag. Paths are only meaningful on nodes
// of the decoded document, not on filtered copies.
func (n *Node) XPath() string {
	var steps []string
	for cur := n; cur != nil; cur = cur.parent {
		steps = append(steps, cur.step())
	}
	var b strings.Builder
	for i := len(steps) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(steps[i])
	}
	return b.String()
}

func (n *Node) step() string {
	if n.Type == TextNode {
		return "text()"
	}
	if n.parent == nil {
		return n.Tag
	}
	pos, total := 0, 0
	for _, sib := range n.parent.children {
		if sib.Type != ElementNode || sib.Tag != n.Tag {
			continue
		}
		total++
		if sib == n {
			pos = total
		}
	}
	if total <= 1 {
		return n.Tag
	}
	return n.Tag + "[" + strconv.Itoa(pos) + "]"
}
