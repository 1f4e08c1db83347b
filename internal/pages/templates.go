package pages

import (
	"bytes"
	"embed"
	"html/template"
)

// Template names, one per page.
const (
	HomeTemplate     = "home.tmpl"
	AuthorTemplate   = "author.tmpl"
	ModelTemplate    = "model.tmpl"
	FeedbackTemplate = "feedback.tmpl"
	StatusTemplate   = "status.tmpl"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

// Templates parses the embedded page templates into one set.
func Templates() (*template.Template, error) {
	return template.New("pages").ParseFS(templateFiles, "templates/*.tmpl")
}

// Render executes the named page template into a string.
func Render(templates *template.Template, name string, page any) (string, error) {
	var buffer bytes.Buffer
	if err := templates.ExecuteTemplate(&buffer, name, page); err != nil {
		return "", err
	}
	return buffer.String(), nil
}
