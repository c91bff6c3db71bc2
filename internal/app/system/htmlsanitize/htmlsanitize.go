// Package htmlsanitize cleans rich-text content fields (legal documents, bios,
// descriptions) before they are stored and again before they are served.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// Legal documents use tables and heading anchors.
		policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
		policy.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4")

		policy.AllowElements("u", "s", "sub", "sup", "mark")

		// Links may leave the site.
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return policy
}

// Sanitize removes dangerous elements and attributes from HTML while keeping
// formatting, lists, links and tables.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// IsPlainText reports whether content has no HTML tags.
func IsPlainText(content string) bool {
	if content == "" {
		return true
	}
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}

// PlainTextToHTML escapes text, turns newlines into <br> and wraps it in <p>.
func PlainTextToHTML(text string) string {
	if text == "" {
		return ""
	}
	escaped := strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

// Prepare returns content ready to embed in a page: plain text is converted
// to HTML, HTML is sanitized.
func Prepare(content string) string {
	if content == "" {
		return ""
	}
	if IsPlainText(content) {
		return PlainTextToHTML(content)
	}
	return Sanitize(content)
}
