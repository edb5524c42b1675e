// Package domtest builds DOMSnapshot.captureSnapshot results for tests.
package domtest

import (
	"github.com/go-rod/rod/lib/proto"
)

// Builder assembles a single-document snapshot. Index 0 is the #document
// node; elements and text appended under it get consecutive indexes and a
// backend node id of index+1.
type Builder struct {
	strs   []string
	lookup map[string]proto.DOMSnapshotStringIndex
	nodes  proto.DOMSnapshotNodeTreeSnapshot
	layout proto.DOMSnapshotLayoutTreeSnapshot
}

// Document is the index of the #document node.
const Document = 0

func New() *Builder {
	b := &Builder{lookup: make(map[string]proto.DOMSnapshotStringIndex)}
	b.add(-1, 9, "#document", "", nil)
	return b
}

// Element appends a rendered element with a default 100x20 box and
// visible styles. attrs alternates names and values.
func (b *Builder) Element(parent int, tag string, attrs ...string) int {
	i := b.add(parent, 1, tag, "", attrs)
	b.Layout(i, 0, 0, 100, 20, "block", "visible", "1")
	return i
}

// Hidden appends an element that has no layout entry.
func (b *Builder) Hidden(parent int, tag string, attrs ...string) int {
	return b.add(parent, 1, tag, "", attrs)
}

// Text appends a text node.
func (b *Builder) Text(parent int, value string) int {
	return b.add(parent, 3, "#text", value, nil)
}

// Layout records a layout entry for node i. styles follow dom.ComputedStyles.
func (b *Builder) Layout(i int, x, y, w, h float64, styles ...string) {
	b.layout.NodeIndex = append(b.layout.NodeIndex, i)
	b.layout.Bounds = append(b.layout.Bounds, proto.DOMSnapshotRectangle{x, y, w, h})
	row := proto.DOMSnapshotArrayOfStrings{}
	for _, s := range styles {
		row = append(row, b.str(s))
	}
	b.layout.Styles = append(b.layout.Styles, row)
}

// Result returns the snapshot built so far.
func (b *Builder) Result() *proto.DOMSnapshotCaptureSnapshotResult {
	nodes := b.nodes
	layout := b.layout
	return &proto.DOMSnapshotCaptureSnapshotResult{
		Documents: []*proto.DOMSnapshotDocumentSnapshot{{Nodes: &nodes, Layout: &layout}},
		Strings:   append([]string(nil), b.strs...),
	}
}

func (b *Builder) add(parent, nodeType int, name, value string, attrs []string) int {
	i := len(b.nodes.NodeType)
	b.nodes.ParentIndex = append(b.nodes.ParentIndex, parent)
	b.nodes.NodeType = append(b.nodes.NodeType, nodeType)
	b.nodes.NodeName = append(b.nodes.NodeName, b.str(name))
	valueIdx := proto.DOMSnapshotStringIndex(-1)
	if value != "" {
		valueIdx = b.str(value)
	}
	b.nodes.NodeValue = append(b.nodes.NodeValue, valueIdx)
	b.nodes.BackendNodeID = append(b.nodes.BackendNodeID, proto.DOMBackendNodeID(i+1))
	row := proto.DOMSnapshotArrayOfStrings{}
	for _, a := range attrs {
		row = append(row, b.str(a))
	}
	b.nodes.Attributes = append(b.nodes.Attributes, row)
	return i
}

func (b *Builder) str(s string) proto.DOMSnapshotStringIndex {
	if i, ok := b.lookup[s]; ok {
		return i
	}
	i := proto.DOMSnapshotStringIndex(len(b.strs))
	b.strs = append(b.strs, s)
	b.lookup[s] = i
	return i
}
