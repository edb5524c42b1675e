// Package filter reduces decoded DOM and accessibility trees to the nodes an
// agent can read or act on.
package filter

import (
	"strings"

	"github.com/steve-z-wang/webtask-sub000/internal/dom"
)

// Policy is the configurable part of the rules. Empty lists fall back to the
// defaults. Attribute entries ending in "*" match by prefix.
type Policy struct {
	SemanticAttributes []string `yaml:"semantic_attributes" validate:"dive,required"`
	InteractiveTags    []string `yaml:"interactive_tags" validate:"dive,required"`
	InteractiveRoles   []string `yaml:"interactive_roles" validate:"dive,required"`
	// InteractiveAttributes mark an element as interactive by presence alone.
	InteractiveAttributes []string `yaml:"interactive_attributes" validate:"dive,required"`
	// KeepUnrenderedInputs lists input types kept even without a layout box.
	KeepUnrenderedInputs []string `yaml:"keep_unrendered_inputs" validate:"dive,required"`
	NonSemanticTags      []string `yaml:"non_semantic_tags" validate:"dive,required"`
	// TextRoles are AX roles carrying bare text; they get no identifier.
	TextRoles []string `yaml:"text_roles" validate:"dive,required"`
	// WrapperRoles are AX roles promoted away in accessibility mode.
	WrapperRoles []string `yaml:"wrapper_roles" validate:"dive,required"`
}

// DefaultPolicy returns the built-in rules.
func DefaultPolicy() Policy {
	return Policy{
		SemanticAttributes: []string{
			"role", "aria-*", "type", "name", "placeholder", "value", "accept",
			"alt", "title", "disabled", "checked", "selected", "tabindex",
			"onclick", "href",
		},
		InteractiveTags: []string{"a", "button", "input", "select", "textarea", "label"},
		InteractiveRoles: []string{
			"button", "link", "checkbox", "radio", "switch", "tab", "menuitem",
			"menuitemcheckbox", "menuitemradio", "option", "textbox", "searchbox",
			"combobox", "slider", "spinbutton",
		},
		InteractiveAttributes: []string{"tabindex", "aria-haspopup", "onclick"},
		KeepUnrenderedInputs:  []string{"file", "hidden"},
		NonSemanticTags:       []string{"script", "style"},
		TextRoles:             []string{"StaticText", "InlineTextBox"},
		WrapperRoles:          []string{"none", "generic", "presentation"},
	}
}

type set map[string]struct{}

func newSet(items []string, fallback []string) set {
	if len(items) == 0 {
		items = fallback
	}
	s := make(set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

// Rules holds the compiled knowledge the filters consult.
type Rules struct {
	attrExact      set
	attrPrefixes   []string
	tags           set
	roles          set
	interactiveAtt set
	unrendered     set
	nonSemantic    set
	textRoles      set
	wrapperRoles   set
}

// NewRules compiles p.
func NewRules(p Policy) *Rules {
	def := DefaultPolicy()
	r := &Rules{
		attrExact:      set{},
		tags:           newSet(p.InteractiveTags, def.InteractiveTags),
		roles:          newSet(p.InteractiveRoles, def.InteractiveRoles),
		interactiveAtt: newSet(p.InteractiveAttributes, def.InteractiveAttributes),
		unrendered:     newSet(p.KeepUnrenderedInputs, def.KeepUnrenderedInputs),
		nonSemantic:    newSet(p.NonSemanticTags, def.NonSemanticTags),
		textRoles:      newSet(p.TextRoles, def.TextRoles),
		wrapperRoles:   newSet(p.WrapperRoles, def.WrapperRoles),
	}
	attrs := p.SemanticAttributes
	if len(attrs) == 0 {
		attrs = def.SemanticAttributes
	}
	for _, a := range attrs {
		if prefix, ok := strings.CutSuffix(a, "*"); ok {
			r.attrPrefixes = append(r.attrPrefixes, prefix)
			continue
		}
		r.attrExact[a] = struct{}{}
	}
	return r
}

// Default returns rules compiled from DefaultPolicy.
func Default() *Rules { return NewRules(DefaultPolicy()) }

// IsSemanticAttribute reports whether an attribute survives pruning.
func (r *Rules) IsSemanticAttribute(name string) bool {
	if r.attrExact.has(name) {
		return true
	}
	for _, p := range r.attrPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// IsInteractive reports whether an element is something a user can act on.
func (r *Rules) IsInteractive(n *dom.Node) bool {
	if n.Type != dom.ElementNode {
		return false
	}
	if r.tags.has(n.Tag) {
		return true
	}
	if role, ok := n.Attr("role"); ok && r.roles.has(role) {
		return true
	}
	for _, a := range n.Attrs {
		if r.interactiveAtt.has(a.Name) {
			return true
		}
	}
	return false
}

// HasSemanticValue reports whether an element is worth keeping on its own.
func (r *Rules) HasSemanticValue(n *dom.Node) bool {
	if n.Type == dom.TextNode {
		return strings.TrimSpace(n.Text) != ""
	}
	if r.nonSemantic.has(n.Tag) {
		return false
	}
	if role, _ := n.Attr("role"); isPresentational(role) {
		return false
	}
	if r.IsInteractive(n) {
		return true
	}
	for _, a := range n.Attrs {
		if r.IsSemanticAttribute(a.Name) {
			return true
		}
	}
	return false
}

func isPresentational(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "none", "presentation":
		return true
	}
	return false
}

// KeepUnrendered reports whether an element without a layout box is kept.
func (r *Rules) KeepUnrendered(n *dom.Node) bool {
	if n.Tag != "input" {
		return false
	}
	typ, _ := n.Attr("type")
	return r.unrendered.has(strings.ToLower(typ))
}

// IsTextRole reports whether an AX role carries bare text.
func (r *Rules) IsTextRole(role string) bool { return r.textRoles.has(role) }

// IsWrapperRole reports whether an AX role is a structural wrapper.
func (r *Rules) IsWrapperRole(role string) bool { return r.wrapperRoles.has(role) }

// IsInteractiveRole reports whether an AX role names an actionable widget.
func (r *Rules) IsInteractiveRole(role string) bool { return r.roles.has(role) }
