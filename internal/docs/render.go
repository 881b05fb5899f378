// Package docs renders documentation pages from markdown.
package docs

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	policy   = bluemonday.UGCPolicy()
	pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<article>
<h1>{{.Title}}</h1>
{{.Body}}
</article>
</body>
</html>
`))
)

// Render converts markdown to sanitised HTML
func Render(markdown string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	// sanitised above, safe to embed
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}

// Page renders a full HTML page for a document
func Page(title, markdown string) ([]byte, error) {
	body, err := Render(markdown)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, map[string]any{"Title": title, "Body": body}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MaxSlugLength leaves room in the slug column for a numeric suffix
const MaxSlugLength = 190

// Slugify turns a title into a URL-safe slug, transliterating non-Latin scripts
func Slugify(title string) string {
	s := slug.Make(title)
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-_")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
