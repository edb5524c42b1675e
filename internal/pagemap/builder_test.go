package pagemap_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steve-z-wang/webtask-sub000/internal/ax/axtest"
	"github.com/steve-z-wang/webtask-sub000/internal/dom/domtest"
	"github.com/steve-z-wang/webtask-sub000/internal/filter"
	"github.com/steve-z-wang/webtask-sub000/internal/pagemap"
)

// loginPage is <html><div><button>Login</button></div><div></div></html>.
func loginPage() *proto.DOMSnapshotCaptureSnapshotResult {
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	first := b.Element(html, "DIV", "class", "row")
	btn := b.Element(first, "BUTTON")
	b.Text(btn, "Login")
	b.Element(html, "DIV")
	return b.Result()
}

func TestBuildDOMResolvesAgainstOriginalTree(t *testing.T) {
	pm := pagemap.NewBuilder().BuildSnapshot(loginPage(), nil, pagemap.ModeDOM)

	assert.Equal(t, "- html-0\n  - button-0\n    - \"Login\"", pm.Text)
	assert.False(t, pm.Empty)

	path, err := pm.Resolve("button-0")
	require.NoError(t, err)
	assert.Equal(t, "/html/div[1]/button", path)

	path, err = pm.Resolve("html-0")
	require.NoError(t, err)
	assert.Equal(t, "/html", path)

	assert.Equal(t, []string{"html-0", "button-0"}, pm.Locators.IDs())
}

func TestBuildDOMKeepsHiddenInput(t *testing.T) {
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	form := b.Element(html, "FORM", "class", "login")
	b.Hidden(form, "INPUT", "type", "hidden", "name", "csrf", "value", "abc")
	btn := b.Element(form, "BUTTON", "type", "submit")
	b.Text(btn, "Go")

	pm := pagemap.NewBuilder().BuildSnapshot(b.Result(), nil, pagemap.ModeDOM)

	assert.Equal(t, `- html-0
  - input-0 (type="hidden" name="csrf" value="abc")
  - button-0 (type="submit")
    - "Go"`, pm.Text)
	path, err := pm.Resolve("input-0")
	require.NoError(t, err)
	assert.Equal(t, "/html/form/input", path)
}

func TestBuildDOMIdentifiersAreUnique(t *testing.T) {
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	for i := 0; i < 3; i++ {
		li := b.Element(html, "LI", "role", "option")
		b.Element(li, "A", "href", fmt.Sprintf("/p/%d", i))
	}

	pm := pagemap.NewBuilder().BuildSnapshot(b.Result(), nil, pagemap.ModeDOM)
	ids := pm.Locators.IDs()
	assert.Equal(t, []string{"html-0", "li-0", "a-0", "li-1", "a-1", "li-2", "a-2"}, ids)

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], id)
		seen[id] = true
		_, err := pm.Resolve(id)
		assert.NoError(t, err)
	}

	path, err := pm.Resolve("a-2")
	require.NoError(t, err)
	assert.Equal(t, "/html/li[3]/a", path)
}

func TestBuildIsPure(t *testing.T) {
	b := pagemap.NewBuilder()
	snap := loginPage()
	first := b.BuildSnapshot(snap, nil, pagemap.ModeDOM)
	second := b.BuildSnapshot(snap, nil, pagemap.ModeDOM)

	assert.Equal(t, first.Text, second.Text)
	assert.NotEqual(t, first.BuildID, second.BuildID)
	assert.Equal(t, first.BuildID, first.Locators.BuildID())
}

func TestStaleIdentifier(t *testing.T) {
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	b.Element(html, "BUTTON", "type", "button")
	b.Element(html, "BUTTON", "type", "submit")

	builder := pagemap.NewBuilder()
	before := builder.BuildSnapshot(b.Result(), nil, pagemap.ModeDOM)
	_, err := before.Resolve("button-1")
	require.NoError(t, err)

	after := builder.BuildSnapshot(loginPage(), nil, pagemap.ModeDOM)
	_, err = after.Resolve("button-1")
	assert.ErrorIs(t, err, pagemap.ErrNotFound)
	assert.Contains(t, err.Error(), "button-1")
}

func TestBuildEmpty(t *testing.T) {
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	b.Hidden(html, "SCRIPT")
	div := b.Element(html, "DIV", "class", "x")
	b.Text(div, "   ")

	pm := pagemap.NewBuilder().BuildSnapshot(b.Result(), nil, pagemap.ModeDOM)
	assert.True(t, pm.Empty)
	assert.Equal(t, pagemap.EmptyDiagnostic, pm.Text)
	assert.Equal(t, 0, pm.Locators.Len())
	_, err := pm.Resolve("html-0")
	assert.ErrorIs(t, err, pagemap.ErrNotFound)

	for _, mode := range []pagemap.Mode{pagemap.ModeAccessibility, pagemap.ModeDOM} {
		pm := pagemap.NewBuilder().BuildSnapshot(nil, nil, mode)
		assert.True(t, pm.Empty, mode)
	}
}

// shopPage returns a DOM snapshot and a matching accessibility tree. Backend
// ids are DOM index+1.
func shopPage() (*proto.DOMSnapshotCaptureSnapshotResult, *proto.AccessibilityGetFullAXTreeResult) {
	d := domtest.New()
	html := d.Element(domtest.Document, "HTML") // backend 2
	body := d.Element(html, "BODY")             // backend 3
	btn := d.Element(body, "BUTTON")            // backend 4
	d.Text(btn, "Login")                        // backend 5
	d.Element(body, "INPUT", "type", "checkbox") // backend 6

	a := axtest.New()
	root := a.Node("", "RootWebArea", "Shop", 1)
	wrapper := a.Node(root, "generic", "", 3)
	a.Ignore(wrapper)
	login := a.Node(wrapper, "button", "Login", 4)
	a.Prop(login, "focusable", "booleanOrUndefined", true)
	a.Prop(login, "disabled", "boolean", false)
	a.Node(login, "StaticText", "Login", 5)
	box := a.Node(wrapper, "checkbox", "Remember me", 6)
	a.Prop(box, "checked", "tristate", "false")
	a.Describe(box, "Keeps you signed in")
	a.Node(root, "link", "Help", 0)
	note := a.Node(root, "paragraph", "", 0)
	a.Node(note, "StaticText", "Free shipping", 0)
	return d.Result(), a.Result()
}

func TestBuildAccessibility(t *testing.T) {
	domSnap, axTree := shopPage()
	pm := pagemap.NewBuilder().BuildSnapshot(domSnap, axTree, pagemap.ModeAccessibility)

	assert.Equal(t, `- RootWebArea-0 "Shop"
  - button-0 "Login" focusable=true
  - checkbox-0 "Remember me" description="Keeps you signed in" checked=false
  - link-0 "Help"
  - paragraph-0
    - "Free shipping"`, pm.Text)

	path, err := pm.Resolve("button-0")
	require.NoError(t, err)
	assert.Equal(t, "/html/body/button", path)

	path, err = pm.Resolve("checkbox-0")
	require.NoError(t, err)
	assert.Equal(t, "/html/body/input", path)

	_, err = pm.Resolve("link-0")
	assert.ErrorIs(t, err, pagemap.ErrNotFound, "no DOM counterpart")
	_, err = pm.Resolve("RootWebArea-0")
	assert.ErrorIs(t, err, pagemap.ErrNotFound, "the #document node is not an element")

	assert.Equal(t, []string{"button-0", "checkbox-0"}, pm.Locators.IDs())
	assert.Equal(t, 5, pm.Stats.Identifiers)
	assert.Equal(t, 2, pm.Stats.Resolvable)
}

func TestBuildWithoutTruncation(t *testing.T) {
	long := strings.Repeat("a", 300)
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	b.Element(html, "BUTTON", "title", long)

	pm := pagemap.NewBuilder(pagemap.WithMaxValueLength(-1)).BuildSnapshot(b.Result(), nil, pagemap.ModeDOM)
	assert.Contains(t, pm.Text, `title="`+long+`"`)

	pm = pagemap.NewBuilder().BuildSnapshot(b.Result(), nil, pagemap.ModeDOM)
	assert.Contains(t, pm.Text, `title="`+long[:200]+`…"`)
}

func TestBuildWithCustomRules(t *testing.T) {
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	b.Element(html, "DIV", "data-testid", "promo")

	rules := filter.NewRules(filter.Policy{SemanticAttributes: []string{"data-testid"}})
	pm := pagemap.NewBuilder(pagemap.WithRules(rules)).BuildSnapshot(b.Result(), nil, pagemap.ModeDOM)
	assert.Equal(t, "- html-0\n  - div-0 (data-testid=\"promo\")", pm.Text)
}

type fakeSource struct {
	url     string
	dom     *proto.DOMSnapshotCaptureSnapshotResult
	ax      *proto.AccessibilityGetFullAXTreeResult
	domErr  error
	axErr   error
	axCalls int
}

func (f *fakeSource) DOMSnapshot(context.Context) (*proto.DOMSnapshotCaptureSnapshotResult, error) {
	return f.dom, f.domErr
}

func (f *fakeSource) AXTree(context.Context) (*proto.AccessibilityGetFullAXTreeResult, error) {
	f.axCalls++
	return f.ax, f.axErr
}

func (f *fakeSource) URL() string { return f.url }

func TestBuildFromSource(t *testing.T) {
	domSnap, axTree := shopPage()
	src := &fakeSource{url: "https://shop.example/", dom: domSnap, ax: axTree}
	b := pagemap.NewBuilder()

	pm, err := b.Build(context.Background(), src, pagemap.ModeDOM)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/", pm.URL)
	assert.Equal(t, pagemap.ModeDOM, pm.Mode)
	assert.Equal(t, 0, src.axCalls)

	pm, err = b.Build(context.Background(), src, "")
	require.NoError(t, err)
	assert.Equal(t, pagemap.ModeAccessibility, pm.Mode)
	assert.Equal(t, 1, src.axCalls)

	_, err = b.Build(context.Background(), src, "visual")
	assert.ErrorIs(t, err, pagemap.ErrUnknownMode)
}

func TestBuildSourceErrors(t *testing.T) {
	boom := errors.New("target closed")
	b := pagemap.NewBuilder()

	_, err := b.Build(context.Background(), &fakeSource{domErr: boom}, pagemap.ModeDOM)
	assert.ErrorIs(t, err, boom)

	domSnap, _ := shopPage()
	_, err = b.Build(context.Background(), &fakeSource{dom: domSnap, axErr: boom}, pagemap.ModeAccessibility)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "accessibility tree")
}

func TestRender(t *testing.T) {
	pm := pagemap.NewBuilder().BuildSnapshot(loginPage(), nil, pagemap.ModeDOM)
	pm.URL = "https://shop.example/login"
	assert.Equal(t, "Page:\n  URL: https://shop.example/login\n\n"+pm.Text, pm.Render())

	empty := pagemap.NewBuilder().BuildSnapshot(nil, nil, pagemap.ModeDOM)
	empty.URL = "https://shop.example/loading"
	assert.Contains(t, empty.Render(), "Possible causes:")

	blank := pagemap.NewBuilder().BuildSnapshot(nil, nil, pagemap.ModeDOM)
	blank.URL = "about:blank"
	out := blank.Render()
	assert.Contains(t, out, "URL: (no page loaded)")
	assert.Contains(t, out, "No URL loaded yet")
	assert.NotContains(t, out, "Possible causes:")
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]pagemap.Mode{
		"":              pagemap.ModeAccessibility,
		"accessibility": pagemap.ModeAccessibility,
		"AX":            pagemap.ModeAccessibility,
		"dom":           pagemap.ModeDOM,
	} {
		got, err := pagemap.ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := pagemap.ParseMode("pixels")
	assert.ErrorIs(t, err, pagemap.ErrUnknownMode)
}
