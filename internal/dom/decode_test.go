package dom_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steve-z-wang/webtask-sub000/internal/dom"
	"github.com/steve-z-wang/webtask-sub000/internal/dom/domtest"
	"github.com/steve-z-wang/webtask-sub000/internal/tree"
)

func loadSnapshot(t *testing.T, name string) *proto.DOMSnapshotCaptureSnapshotResult {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	var snap proto.DOMSnapshotCaptureSnapshotResult
	require.NoError(t, json.Unmarshal(raw, &snap))
	return &snap
}

func TestDecodeFixture(t *testing.T) {
	doc := dom.Decode(loadSnapshot(t, "login.json"))

	require.NotNil(t, doc.Root)
	assert.Equal(t, "html", doc.Root.Tag)
	v, ok := doc.Root.Attr("lang")
	assert.True(t, ok)
	assert.Equal(t, "en", v)

	body := doc.Node(4)
	require.NotNil(t, body)
	assert.Equal(t, "body", body.Tag)
	assert.Same(t, doc.Root, body.Parent())

	login := doc.Node(6)
	require.NotNil(t, login)
	assert.True(t, login.Rendered)
	require.NotNil(t, login.Bounds)
	assert.Equal(t, dom.BoundingBox{X: 20, Y: 15, Width: 80, Height: 30}, *login.Bounds, "first layout entry wins")
	assert.Equal(t, "inline-block", login.Styles["display"])
	assert.Equal(t, "1", login.Styles["opacity"])

	require.Len(t, login.Children(), 1)
	assert.Equal(t, "Login", login.Children()[0].Text)

	hidden := doc.Node(10)
	require.NotNil(t, hidden)
	assert.False(t, hidden.Rendered)
	assert.Nil(t, hidden.Bounds)

	assert.False(t, doc.Node(2).Rendered, "head has no layout entry")
	assert.Same(t, login, doc.ByBackendID(7))
	assert.Nil(t, doc.ByBackendID(8), "text nodes are not indexed by backend id")
}

func TestDecodeXPath(t *testing.T) {
	doc := dom.Decode(loadSnapshot(t, "login.json"))

	assert.Equal(t, "/html", doc.Root.XPath())
	assert.Equal(t, "/html/body/div[1]/button", doc.Node(6).XPath())
	assert.Equal(t, "/html/body/div[2]", doc.Node(8).XPath())
	assert.Equal(t, "/html/body/button", doc.Node(10).XPath())
	assert.Equal(t, "/html/head/title", doc.Node(3).XPath())
}

func TestDecodeChildrenKeepDocumentOrder(t *testing.T) {
	doc := dom.Decode(loadSnapshot(t, "login.json"))
	body := doc.Node(4)

	var tags []string
	for _, c := range body.Children() {
		tags = append(tags, c.Tag)
	}
	assert.Equal(t, []string{"div", "div", "button"}, tags)
}

func TestDecodeEmptyInputs(t *testing.T) {
	for name, snap := range map[string]*proto.DOMSnapshotCaptureSnapshotResult{
		"nil":          nil,
		"no documents": {},
		"no nodes":     {Documents: []*proto.DOMSnapshotDocumentSnapshot{{}}},
	} {
		t.Run(name, func(t *testing.T) {
			doc := dom.Decode(snap)
			require.NotNil(t, doc.Root)
			assert.Equal(t, "html", doc.Root.Tag)
			assert.Empty(t, doc.Root.Children())
		})
	}
}

func TestDecodeDropsBlankText(t *testing.T) {
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	b.Text(html, "   \n\t ")
	p := b.Element(html, "P")
	b.Text(p, " hi ")

	doc := dom.Decode(b.Result())
	require.Len(t, doc.Root.Children(), 1)
	para := doc.Root.Children()[0]
	assert.Equal(t, "p", para.Tag)
	require.Len(t, para.Children(), 1)
	assert.Equal(t, "hi", para.Children()[0].Text)
}

func TestDecodeOutOfRangeStrings(t *testing.T) {
	b := domtest.New()
	b.Element(domtest.Document, "HTML", "id", "main")
	snap := b.Result()
	snap.Documents[0].Nodes.NodeName[1] = 999
	snap.Documents[0].Nodes.Attributes[1][1] = -7

	doc := dom.Decode(snap)
	assert.Equal(t, "unknown", doc.Root.Tag)
	v, ok := doc.Root.Attr("id")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestDecodeRootFallsBackToFirstElement(t *testing.T) {
	b := domtest.New()
	a := b.Element(domtest.Document, "DIV")
	c := b.Element(a, "SPAN")
	snap := b.Result()
	// a and c point at each other and the #document node is gone.
	snap.Documents[0].Nodes.NodeType[0] = 10
	snap.Documents[0].Nodes.ParentIndex[a] = c

	doc := dom.Decode(snap)
	require.NotNil(t, doc.Root)
	assert.Equal(t, "div", doc.Root.Tag)
	assert.Nil(t, doc.Root.Parent())
	require.Len(t, doc.Root.Children(), 1)
	assert.Equal(t, "span", doc.Root.Children()[0].Tag)
	assert.Empty(t, doc.Root.Children()[0].Children())
}

func TestDecodeDropsOrphans(t *testing.T) {
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	b.Element(html, "MAIN")
	stray := b.Element(domtest.Document, "TEMPLATE")
	b.Text(stray, "unreachable")

	doc := dom.Decode(b.Result())
	assert.Equal(t, "html", doc.Root.Tag)
	assert.Nil(t, doc.Node(stray))
	assert.Equal(t, 2, doc.Len())
}

func TestCloneKeepsIdentity(t *testing.T) {
	root := dom.Element("html").Append(dom.Element("body").Append(dom.Text("x")))
	doc := dom.NewDocument(root)

	body := doc.Node(1)
	cp := body.Clone(nil)
	assert.Equal(t, body.ID, cp.ID)
	assert.Nil(t, cp.Parent())
	assert.Len(t, body.Children(), 1, "original is untouched")
	assert.Same(t, body, doc.Node(cp.ID))
}

func TestFilteringKeepsOriginalPaths(t *testing.T) {
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	div := b.Element(html, "DIV")
	btn := b.Element(div, "BUTTON")
	doc := dom.Decode(b.Result())

	button := doc.Node(btn)
	require.NotNil(t, button)
	assert.Equal(t, "/html/div/button", button.XPath())

	out := tree.Filter(doc.Root, func(n *dom.Node) bool { return n.Tag == "div" }, tree.Promote)
	require.Len(t, out.Children(), 1)
	assert.Equal(t, "/html/button", out.Children()[0].XPath())

	assert.Equal(t, "/html/div/button", button.XPath(), "original tree is not re-parented")
	assert.Same(t, doc.Node(div), button.Parent())
	assert.Len(t, doc.Node(div).Children(), 1)
}

func TestDecodeKeepsEmptyAttributeValues(t *testing.T) {
	b := domtest.New()
	html := b.Element(domtest.Document, "HTML")
	btn := b.Element(html, "BUTTON", "disabled", "", "type", "submit")
	doc := dom.Decode(b.Result())

	button := doc.Node(btn)
	require.NotNil(t, button)
	assert.Equal(t, []dom.Attr{{Name: "disabled", Value: ""}, {Name: "type", Value: "submit"}}, button.Attrs)
	assert.True(t, button.HasAttr("disabled"))
}
