// Package pagemap turns a browser snapshot into an outline an LLM can read,
// plus the locators needed to act on the identifiers it mentions.
package pagemap

import (
	"strings"
	"time"
)

// EmptyDiagnostic replaces the outline when nothing survives filtering.
const EmptyDiagnostic = `ERROR: No visible interactive elements found on this page.

Possible causes:
- The page is still loading
- The page has no interactive elements
- All elements were filtered out`

const noURLDiagnostic = `ERROR: No URL loaded yet.
Navigate to a URL before observing the page.`

// PageMap is the result of one build.
type PageMap struct {
	BuildID string `json:"buildId"`
	URL     string `json:"url,omitempty"`
	Mode    Mode   `json:"mode"`
	// Text is the outline, or EmptyDiagnostic when Empty is set.
	Text     string    `json:"text"`
	Empty    bool      `json:"empty"`
	Stats    Stats     `json:"stats"`
	Locators *Locators `json:"-"`
}

// Stats describes how much of the snapshot survived a build.
type Stats struct {
	Decoded     int           `json:"decoded"`
	Kept        int           `json:"kept"`
	Identifiers int           `json:"identifiers"`
	Resolvable  int           `json:"resolvable"`
	Duration    time.Duration `json:"duration"`
}

// Resolve returns the XPath behind an identifier of this build.
func (p *PageMap) Resolve(id string) (string, error) {
	return p.Locators.Resolve(id)
}

// Render returns the outline prefixed with a page header, the form handed to
// an LLM.
func (p *PageMap) Render() string {
	var b strings.Builder
	b.WriteString("Page:\n")
	if isBlank(p.URL) {
		b.WriteString("  URL: (no page loaded)\n\n")
		if p.Empty {
			b.WriteString(noURLDiagnostic)
			return b.String()
		}
	} else {
		b.WriteString("  URL: " + p.URL + "\n\n")
	}
	b.WriteString(p.Text)
	return b.String()
}

func isBlank(url string) bool {
	return url == "" || url == "about:blank"
}
