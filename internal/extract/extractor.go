package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Context length limits.
const (
	// MaxContextLen is the hard cap on a candidate's context snippet.
	// Embedding models truncate long inputs anyway; a tight cap keeps the
	// snippet focused on the prose actually surrounding the anchor.
	MaxContextLen = 320

	// contextWindow is the number of characters kept on each side of the
	// anchor text when an oversized block is trimmed to a window.
	contextWindow = 120

	// headFallbackLen is the prefix kept when the anchor text cannot be
	// located inside its block.
	headFallbackLen = 240
)

// skipPrefixes lists non-article namespace prefixes that are never useful
// hops. Any title containing ":" is excluded anyway, but the explicit list
// documents intent and guards against namespace aliases without colons in
// future MediaWiki versions.
var skipPrefixes = []string{
	"File:", "Wikipedia:", "Help:", "Special:",
	"Talk:", "Template:", "Category:", "Portal:",
}

// mainPage is the landing page title, excluded because it links to
// everything and carries no semantic signal.
const mainPage = "Main_Page"

// Candidate is one outgoing link with the prose surrounding its anchor.
type Candidate struct {
	// Title is the target article title in canonical URL form.
	Title string

	// Context is the trimmed snippet around the anchor. Never empty.
	Context string
}

// Extract parses article HTML and returns link candidates in document
// order, deduplicated on title (first occurrence wins).
//
// Design decision: We return an ordered slice rather than a map because
// two downstream rules depend on document order: the per-step candidate
// cap keeps the first N, and the scorer breaks score ties by insertion
// order. A Go map would destroy both.
func Extract(document string) []Candidate {
	if strings.TrimSpace(document) == "" {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		// x/net/html recovers from almost anything; a hard parse error
		// means the document is not usable at all.
		return nil
	}

	candidates := make([]Candidate, 0, 64)
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Script and style subtrees are not content.
			if n.Data == "script" || n.Data == "style" {
				return
			}
			if n.Data == "a" {
				if c, ok := candidateFromAnchor(n); ok && !seen[c.Title] {
					seen[c.Title] = true
					candidates = append(candidates, c)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return candidates
}

// candidateFromAnchor builds a candidate from one <a> element, applying
// all namespace and context filters. The second return value is false when
// the anchor does not yield a usable candidate.
func candidateFromAnchor(n *html.Node) (Candidate, bool) {
	href := getAttr(n, "href")
	if !strings.HasPrefix(href, "/wiki/") {
		return Candidate{}, false
	}
	title := strings.TrimPrefix(href, "/wiki/")

	if !isArticleTitle(title) {
		return Candidate{}, false
	}

	anchorText := nodeText(n)
	blockText := anchorText
	if n.Parent != nil {
		blockText = nodeText(n.Parent)
	}
	if blockText == "" {
		// A link inside a caption-less image or empty container carries
		// no usable signal.
		return Candidate{}, false
	}

	context := deriveContext(blockText, anchorText)
	if context == "" {
		return Candidate{}, false
	}

	return Candidate{Title: title, Context: context}, true
}

// isArticleTitle reports whether the title names a regular article.
func isArticleTitle(title string) bool {
	if title == "" || title == mainPage {
		return false
	}
	// Fragment-only and same-page anchors, plus every namespaced page.
	if strings.ContainsAny(title, ":#") {
		return false
	}
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(title, prefix) {
			return false
		}
	}
	return true
}

// deriveContext trims an oversized block to a window around the anchor
// text. The window is symmetric; when the anchor text cannot be located
// (case differences beyond simple folding, generated text), the head of
// the block is kept instead.
func deriveContext(blockText, anchorText string) string {
	context := blockText
	if len(context) > MaxContextLen {
		idx := -1
		if anchorText != "" {
			idx = strings.Index(strings.ToLower(context), strings.ToLower(anchorText))
		}
		if idx >= 0 {
			start := max(0, idx-contextWindow)
			end := min(len(context), idx+len(anchorText)+contextWindow)
			context = context[start:end]
		} else {
			context = context[:headFallbackLen]
		}
		// Byte slicing may cut a multi-byte rune at either edge.
		context = strings.ToValidUTF8(context, "")
	}
	return strings.TrimSpace(context)
}

// nodeText returns the collapsed text content of a node's subtree,
// excluding script and style regions. Whitespace runs become single
// spaces.
func nodeText(n *html.Node) string {
	var sb strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(sb.String()), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
