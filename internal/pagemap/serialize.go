package pagemap

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/steve-z-wang/webtask-sub000/internal/ax"
	"github.com/steve-z-wang/webtask-sub000/internal/dom"
	"github.com/steve-z-wang/webtask-sub000/internal/filter"
)

// DefaultMaxValueLength is the rune count above which attribute and property
// values are truncated.
const DefaultMaxValueLength = 200

const ellipsis = "…"

// elide shortens inline data URLs to their header and truncates values longer
// than max runes. max <= 0 disables truncation.
func elide(v string, max int) string {
	if len(v) >= 5 && strings.EqualFold(v[:5], "data:") {
		if i := strings.IndexByte(v, ','); i >= 0 {
			return v[:i+1] + ellipsis
		}
		return "data:" + ellipsis
	}
	if max > 0 && utf8.RuneCountInString(v) > max {
		return string([]rune(v)[:max]) + ellipsis
	}
	return v
}

type outline struct {
	b strings.Builder
}

func (o *outline) line(depth int, s string) {
	if o.b.Len() > 0 {
		o.b.WriteByte('\n')
	}
	o.b.WriteString(strings.Repeat("  ", depth))
	o.b.WriteString("- ")
	o.b.WriteString(s)
}

func (o *outline) String() string { return o.b.String() }

// serializeDOM renders a filtered DOM tree. label picks the leading token of
// each element line.
func serializeDOM(root *dom.Node, label func(*dom.Node) string, maxLen int) string {
	o := &outline{}
	var walk func(n *dom.Node, depth int)
	walk = func(n *dom.Node, depth int) {
		if n.Type == dom.TextNode {
			o.line(depth, `"`+n.Text+`"`)
			return
		}
		s := label(n)
		if len(n.Attrs) > 0 {
			parts := make([]string, 0, len(n.Attrs))
			for _, a := range n.Attrs {
				parts = append(parts, a.Name+`="`+elide(a.Value, maxLen)+`"`)
			}
			s += " (" + strings.Join(parts, " ") + ")"
		}
		o.line(depth, s)
		for _, c := range n.Children() {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return o.String()
}

// serializeAX renders a filtered accessibility tree. Text-role nodes become
// quoted lines without a label.
func serializeAX(root *ax.Node, label func(*ax.Node) string, rules *filter.Rules, maxLen int) string {
	o := &outline{}
	var walk func(n *ax.Node, depth int)
	walk = func(n *ax.Node, depth int) {
		if rules.IsTextRole(n.RoleName()) {
			if name := n.Label(); name != "" {
				o.line(depth, `"`+name+`"`)
			}
		} else {
			parts := []string{label(n)}
			if name := n.Label(); name != "" {
				parts = append(parts, `"`+name+`"`)
			}
			if desc := n.Description.String(); desc != "" {
				parts = append(parts, `description="`+elide(desc, maxLen)+`"`)
			}
			for _, p := range n.Properties {
				if s, ok := propertyText(p, maxLen); ok {
					parts = append(parts, s)
				}
			}
			o.line(depth, strings.Join(parts, " "))
		}
		for _, c := range n.Children() {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return o.String()
}

// propertyText renders true booleans, numbers, and non-empty strings. Other
// values are omitted.
func propertyText(p ax.Property, maxLen int) (string, bool) {
	switch v := p.Value.Raw.(type) {
	case bool:
		if v {
			return p.Name + "=true", true
		}
	case string:
		if v != "" {
			return p.Name + "=" + elide(v, maxLen), true
		}
	case float64, int, int64, json.Number:
		return p.Name + "=" + p.Value.String(), true
	}
	return "", false
}

// RawOutline renders a decoded, unfiltered document with tag names in place
// of identifiers. It is meant for debugging what the filters removed.
func RawOutline(doc *dom.Document, maxLen int) string {
	return serializeDOM(doc.Root, func(n *dom.Node) string { return n.Tag }, maxLen)
}
