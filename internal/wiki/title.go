package wiki

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// articlePathPrefix is the URL path prefix shared by all article pages.
const articlePathPrefix = "/wiki/"

// TitleFromURL extracts the article title from a full Wikipedia URL.
// The title is returned in its canonical URL form (underscores, percent
// escapes preserved). If the URL does not contain an article path, the
// input is returned unchanged so that bare titles pass through.
func TitleFromURL(rawURL string) string {
	idx := strings.Index(rawURL, articlePathPrefix)
	if idx < 0 {
		return rawURL
	}
	return rawURL[idx+len(articlePathPrefix):]
}

// Normalize converts a human-entered title into canonical URL form.
// Spaces become underscores and the string is normalized to Unicode NFC,
// matching MediaWiki's own title canonicalization. Articles with mixed
// Unicode representations would otherwise dedupe incorrectly in the
// visited set.
func Normalize(title string) string {
	title = strings.TrimSpace(title)
	title = norm.NFC.String(title)
	return strings.ReplaceAll(title, " ", "_")
}

// Display converts a canonical title into a readable form for embedding
// and terminal output: percent escapes are decoded and underscores become
// spaces. The embedding model sees "New York City", not "New_York_City".
func Display(title string) string {
	if unescaped, err := url.PathUnescape(title); err == nil {
		title = unescaped
	}
	return strings.ReplaceAll(title, "_", " ")
}
