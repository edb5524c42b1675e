// Package axtest builds Accessibility.getFullAXTree results for tests.
package axtest

import (
	"strconv"

	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// Builder assembles a flat AX node list the way Chrome reports it: every
// node carries its parent id and its parent lists it in childIds.
type Builder struct {
	nodes []*proto.AccessibilityAXNode
	byID  map[string]*proto.AccessibilityAXNode
}

func New() *Builder {
	return &Builder{byID: make(map[string]*proto.AccessibilityAXNode)}
}

// Node appends a node under parent ("" for the root) and returns its id.
// backend is the DOM backend node id, 0 for none.
func (b *Builder) Node(parent, role, name string, backend int) string {
	id := strconv.Itoa(len(b.nodes) + 1)
	n := &proto.AccessibilityAXNode{
		NodeID:           proto.AccessibilityAXNodeID(id),
		Role:             Val("role", role),
		BackendDOMNodeID: proto.DOMBackendNodeID(backend),
	}
	if name != "" {
		n.Name = Val("computedString", name)
	}
	if parent != "" {
		n.ParentID = proto.AccessibilityAXNodeID(parent)
		if p := b.byID[parent]; p != nil {
			p.ChildIDs = append(p.ChildIDs, n.NodeID)
		}
	}
	b.nodes = append(b.nodes, n)
	b.byID[id] = n
	return id
}

// Ignore marks a node as ignored.
func (b *Builder) Ignore(id string) {
	b.byID[id].Ignored = true
	b.byID[id].IgnoredReasons = append(b.byID[id].IgnoredReasons, &proto.AccessibilityAXProperty{
		Name:  proto.AccessibilityAXPropertyName("uninteresting"),
		Value: Val("boolean", true),
	})
}

// Prop adds a property to a node.
func (b *Builder) Prop(id, name, typ string, value any) {
	b.byID[id].Properties = append(b.byID[id].Properties, &proto.AccessibilityAXProperty{
		Name:  proto.AccessibilityAXPropertyName(name),
		Value: Val(typ, value),
	})
}

// Describe sets a node's description.
func (b *Builder) Describe(id, text string) {
	b.byID[id].Description = Val("computedString", text)
}

// Edit gives direct access to a node.
func (b *Builder) Edit(id string, fn func(n *proto.AccessibilityAXNode)) {
	fn(b.byID[id])
}

func (b *Builder) Result() *proto.AccessibilityGetFullAXTreeResult {
	return &proto.AccessibilityGetFullAXTreeResult{Nodes: b.nodes}
}

// Val builds an AX value.
func Val(typ string, v any) *proto.AccessibilityAXValue {
	return &proto.AccessibilityAXValue{Type: proto.AccessibilityAXValueType(typ), Value: gson.New(v)}
}
