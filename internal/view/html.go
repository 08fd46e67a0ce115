package view

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PageTemplate is the name of the browser storefront template.
const PageTemplate = "storefront"

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New(PageTemplate).ParseFS(templateFS, "templates/*.tmpl")
}
