package pages

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownRenderer converts transcript content to HTML. Raw HTML in the source
// is omitted, so the output is safe to embed.
type MarkdownRenderer struct {
	markdown goldmark.Markdown
}

// NewMarkdownRenderer builds a renderer with GitHub flavored markdown enabled.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Render converts source to HTML.
func (r *MarkdownRenderer) Render(source string) (template.HTML, error) {
	var buffer bytes.Buffer
	if err := r.markdown.Convert([]byte(source), &buffer); err != nil {
		return "", err
	}
	return template.HTML(buffer.String()), nil
}
