// Package ax decodes the result of Accessibility.getFullAXTree.
package ax

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-rod/rod/lib/proto"
)

// Value is a typed CDP accessibility value. Raw holds whatever JSON value the
// browser sent: a string, bool, number, or something structured.
type Value struct {
	Type string
	Raw  any
}

// String renders scalar values. Structured values render with fmt.
func (v Value) String() string {
	switch x := v.Raw.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func (v Value) IsZero() bool { return v.String() == "" }

// Property is a named accessibility property such as focusable or checked.
type Property struct {
	Name  string
	Value Value
}

// Node is one accessibility node. ID is its position in the decoded list and
// survives Clone.
type Node struct {
	ID             int
	NodeID         string
	BackendID      int
	Ignored        bool
	IgnoredReasons []string
	Role           Value
	Name           Value
	Description    Value
	Value          Value
	Properties     []Property

	parent   *Node
	children []*Node
}

func (n *Node) Children() []*Node { return n.children }

func (n *Node) Parent() *Node { return n.parent }

// Clone copies n with the given children.
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

// Append attaches children to n and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// RoleName is the node's role as a plain string.
func (n *Node) RoleName() string { return n.Role.String() }

// Label is the node's accessible name as a plain string.
func (n *Node) Label() string { return n.Name.String() }

// Tree is a decoded accessibility tree.
type Tree struct {
	Root  *Node
	nodes []*Node
}

// Node returns the node decoded at position id, or nil when it is unreachable.
func (t *Tree) Node(id int) *Node {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

func (t *Tree) Len() int {
	total := 0
	for _, n := range t.nodes {
		if n != nil {
			total++
		}
	}
	return total
}

// Decode links the flat node list into a tree. The root is the first node
// whose parent id is empty or unknown, falling back to the first node. Child
// ids pointing at unknown nodes are skipped, and a node listed as a child of
// more than one parent stays with the first. An empty result decodes to a bare
// RootWebArea.
func Decode(res *proto.AccessibilityGetFullAXTreeResult) *Tree {
	var raw []*proto.AccessibilityAXNode
	if res != nil {
		for _, n := range res.Nodes {
			if n != nil {
				raw = append(raw, n)
			}
		}
	}
	if len(raw) == 0 {
		root := &Node{Role: Value{Type: "role", Raw: "RootWebArea"}}
		return &Tree{Root: root, nodes: []*Node{root}}
	}

	nodes := make([]*Node, len(raw))
	byID := make(map[proto.AccessibilityAXNodeID]*Node, len(raw))
	for i, r := range raw {
		n := decodeNode(i, r)
		nodes[i] = n
		if _, dup := byID[r.NodeID]; !dup {
			byID[r.NodeID] = n
		}
	}

	var root *Node
	for i, r := range raw {
		if r.ParentID == "" || byID[r.ParentID] == nil {
			root = nodes[i]
			break
		}
	}
	if root == nil {
		root = nodes[0]
	}

	for i, r := range raw {
		parent := nodes[i]
		for _, cid := range r.ChildIDs {
			child := byID[cid]
			if child == nil || child == parent || child == root || child.parent != nil {
				continue
			}
			parent.Append(child)
		}
	}

	t := &Tree{Root: root, nodes: make([]*Node, len(raw))}
	var keep func(n *Node)
	keep = func(n *Node) {
		t.nodes[n.ID] = n
		for _, c := range n.children {
			keep(c)
		}
	}
	keep(root)
	return t
}

func decodeNode(i int, r *proto.AccessibilityAXNode) *Node {
	n := &Node{
		ID:          i,
		NodeID:      string(r.NodeID),
		BackendID:   int(r.BackendDOMNodeID),
		Ignored:     r.Ignored,
		Role:        decodeValue(r.Role),
		Name:        decodeValue(r.Name),
		Description: decodeValue(r.Description),
		Value:       decodeValue(r.Value),
	}
	if n.Role.IsZero() {
		n.Role = Value{Type: "role", Raw: "unknown"}
	}
	for _, p := range r.IgnoredReasons {
		if p != nil {
			n.IgnoredReasons = append(n.IgnoredReasons, string(p.Name))
		}
	}
	for _, p := range r.Properties {
		if p == nil {
			continue
		}
		n.Properties = append(n.Properties, Property{Name: string(p.Name), Value: decodeValue(p.Value)})
	}
	return n
}

func decodeValue(v *proto.AccessibilityAXValue) Value {
	if v == nil {
		return Value{}
	}
	return Value{Type: string(v.Type), Raw: v.Value.Val()}
}
