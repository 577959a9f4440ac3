package render

import (
	"bytes"
	"html/template"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
)

// DescriptionLimit is the about-section teaser length in characters.
const DescriptionLimit = 300

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	sanitizer = newSanitizer()
)

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Truncate cuts s to limit runes, appending an ellipsis. truncated reports
// whether anything was cut.
func Truncate(s string, limit int) (out string, truncated bool) {
	runes := []rune(strings.TrimSpace(s))
	if limit <= 0 || len(runes) <= limit {
		return string(runes), false
	}
	cut := strings.TrimRightFunc(string(runes[:limit]), unicode.IsSpace)
	return cut + "...", true
}

// Markdown renders owner-written text to sanitised HTML.
func Markdown(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

// Excerpt returns up to limit runes of the visible text in an HTML fragment,
// with whitespace collapsed.
func Excerpt(fragment string, limit int) string {
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			out, _ := Truncate(strings.Join(strings.Fields(b.String()), " "), limit)
			return out
		case xhtml.TextToken:
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
}

func titleLabel(s string) string {
	return titleCase(strings.TrimSpace(s))
}

// Initial returns the uppercased first letter of name, used as the avatar
// when no logo is set.
func Initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return strings.ToUpper(string(r))
	}
	return ""
}
