package dom

import (
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

// ComputedStyles are the computed style properties requested from
// DOMSnapshot.captureSnapshot. Layout style arrays are positional against
// this list.
var ComputedStyles = []string{"display", "visibility", "opacity"}

// Document is a decoded snapshot. Nodes are owned by the document and must
// not be modified; filters work on clones.
type Document struct {
	Root *Node

	nodes     []*Node
	byBackend map[int]*Node
}

// NewDocument wraps a hand-built tree, numbering its nodes in pre-order.
func NewDocument(root *Node) *Document {
	d := &Document{Root: root}
	var number func(n *Node)
	number = func(n *Node) {
		n.ID = len(d.nodes)
		d.nodes = append(d.nodes, n)
		for _, c := range n.children {
			number(c)
		}
	}
	number(root)
	d.index()
	return d
}

// Node returns the node decoded at the given snapshot index, or nil when the
// index was dropped or never existed.
func (d *Document) Node(id int) *Node {
	if id < 0 || id >= len(d.nodes) {
		return nil
	}
	return d.nodes[id]
}

// ByBackendID returns the element carrying the given backend node id.
func (d *Document) ByBackendID(id int) *Node {
	return d.byBackend[id]
}

// Len returns the number of nodes reachable from the root.
func (d *Document) Len() int {
	total := 0
	for _, n := range d.nodes {
		if n != nil {
			total++
		}
	}
	return total
}

func (d *Document) index() {
	d.byBackend = make(map[int]*Node)
	for _, n := range d.nodes {
		if n != nil && n.Type == ElementNode && n.BackendID != 0 {
			if _, dup := d.byBackend[n.BackendID]; !dup {
				d.byBackend[n.BackendID] = n
			}
		}
	}
}

type stringTable []string

func (s stringTable) get(i proto.DOMSnapshotStringIndex) string {
	if i < 0 || int(i) >= len(s) {
		return ""
	}
	return s[int(i)]
}

type layoutInfo struct {
	bounds *BoundingBox
	styles map[string]string
}

func at[T any](xs []T, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(xs) {
		return zero, false
	}
	return xs[i], true
}

// Decode builds a Document from the first document of a snapshot. It never
// fails: missing arrays read as empty, out-of-range string indexes read as
// "", and a snapshot without elements decodes to a bare <html> root.
func Decode(snap *proto.DOMSnapshotCaptureSnapshotResult) *Document {
	if snap == nil || len(snap.Documents) == 0 || snap.Documents[0] == nil || snap.Documents[0].Nodes == nil {
		return placeholder()
	}
	strs := stringTable(snap.Strings)
	tree := snap.Documents[0].Nodes
	layout := decodeLayout(snap.Documents[0].Layout, strs)

	count := len(tree.NodeType)
	nodes := make([]*Node, count)

	for i := 0; i < count; i++ {
		switch NodeType(tree.NodeType[i]) {
		case ElementNode:
			n := &Node{ID: i, Type: ElementNode, Tag: "unknown"}
			if name, ok := at(tree.NodeName, i); ok {
				if tag := strings.ToLower(strs.get(name)); tag != "" {
					n.Tag = tag
				}
			}
			if raw, ok := at(tree.Attributes, i); ok {
				for j := 0; j+1 < len(raw); j += 2 {
					name := strs.get(raw[j])
					if name == "" {
						continue
					}
					n.Attrs = append(n.Attrs, Attr{Name: name, Value: strs.get(raw[j+1])})
				}
			}
			if info, ok := layout[i]; ok {
				n.Rendered = true
				n.Bounds = info.bounds
				n.Styles = info.styles
			}
			if id, ok := at(tree.BackendNodeID, i); ok {
				n.BackendID = int(id)
			}
			nodes[i] = n
		case TextNode:
			v, _ := at(tree.NodeValue, i)
			text := strings.TrimSpace(strs.get(v))
			if text == "" {
				continue
			}
			n := &Node{ID: i, Type: TextNode, Text: text}
			if id, ok := at(tree.BackendNodeID, i); ok {
				n.BackendID = int(id)
			}
			nodes[i] = n
		}
	}

	parentOf := func(i int) *Node {
		p, ok := at(tree.ParentIndex, i)
		if !ok || p == i {
			return nil
		}
		if parent, ok := at(nodes, p); ok && parent != nil && parent.Type == ElementNode {
			return parent
		}
		return nil
	}

	// Linking in index order keeps children in document order.
	var root *Node
	for i, n := range nodes {
		if n == nil {
			continue
		}
		if parent := parentOf(i); parent != nil {
			parent.Append(n)
			continue
		}
		if root == nil && n.Type == ElementNode {
			root = n
		}
	}
	if root == nil {
		// Every element had a resolvable parent, which only happens with a
		// cyclic parent array. Break the cycle at the first element.
		for _, n := range nodes {
			if n != nil && n.Type == ElementNode {
				root = n
				break
			}
		}
		if root == nil {
			return placeholder()
		}
		detach(root)
	}

	d := &Document{Root: root, nodes: make([]*Node, count)}
	var keep func(n *Node)
	keep = func(n *Node) {
		d.nodes[n.ID] = n
		for _, c := range n.children {
			keep(c)
		}
	}
	keep(root)
	d.index()
	return d
}

func detach(n *Node) {
	p := n.parent
	if p == nil {
		return
	}
	kept := p.children[:0]
	for _, c := range p.children {
		if c != n {
			kept = append(kept, c)
		}
	}
	p.children = kept
	n.parent = nil
}

func decodeLayout(l *proto.DOMSnapshotLayoutTreeSnapshot, strs stringTable) map[int]layoutInfo {
	out := make(map[int]layoutInfo)
	if l == nil {
		return out
	}
	for i, idx := range l.NodeIndex {
		if _, seen := out[idx]; seen {
			continue
		}
		var info layoutInfo
		if rect, ok := at(l.Bounds, i); ok && len(rect) >= 4 {
			info.bounds = &BoundingBox{X: rect[0], Y: rect[1], Width: rect[2], Height: rect[3]}
		}
		if styles, ok := at(l.Styles, i); ok {
			for j, si := range styles {
				if j >= len(ComputedStyles) {
					break
				}
				if v := strs.get(si); v != "" {
					if info.styles == nil {
						info.styles = make(map[string]string)
					}
					info.styles[ComputedStyles[j]] = v
				}
			}
		}
		out[idx] = info
	}
	return out
}

func placeholder() *Document {
	return NewDocument(Element("html"))
}
