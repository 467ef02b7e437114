// Package cvtemplate renders CV data into self-contained A4 HTML documents.
package cvtemplate

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"

	"cv-builder/internal/model"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

const DefaultTemplateID = 1

// Layout is one of the built-in CV designs.
type Layout struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	file        string
}

var layouts = []Layout{
	{ID: 1, Name: "Sidebar", Description: "Two columns with a gradient sidebar for contact details, skills and languages", file: "sidebar.html.tmpl"},
	{ID: 2, Name: "Modern", Description: "Blue header band with a grid of competencies and references", file: "modern.html.tmpl"},
	{ID: 3, Name: "Professional", Description: "Serif typography with a two to one content grid", file: "professional.html.tmpl"},
	{ID: 4, Name: "Timeline", Description: "Centered header with experience and education on a vertical timeline", file: "timeline.html.tmpl"},
}

var (
	parseOnce sync.Once
	parsed    map[int]*template.Template
	parseErr  error
)

func load() (map[int]*template.Template, error) {
	parseOnce.Do(func() {
		parsed = make(map[int]*template.Template, len(layouts))
		for _, l := range layouts {
			t, err := template.ParseFS(templateFS, "templates/"+l.file)
			if err != nil {
				parseErr = &TemplateError{Message: fmt.Sprintf("parse %s", l.file), Cause: err}
				return
			}
			parsed[l.ID] = t
		}
	})
	return parsed, parseErr
}

// Templates lists the built-in layouts in id order.
func Templates() []Layout {
	return append([]Layout(nil), layouts...)
}

// Lookup returns the layout for id. Unknown ids fall back to the default
// layout and ok is false.
func Lookup(id int) (l Layout, ok bool) {
	for _, l := range layouts {
		if l.ID == id {
			return l, true
		}
	}
	return layouts[DefaultTemplateID-1], false
}

// Render produces the full HTML document for d using layout id.
func Render(d model.CVData, id int, opts Options) (string, error) {
	tpls, err := load()
	if err != nil {
		return "", err
	}
	l, _ := Lookup(id)
	var buf bytes.Buffer
	if err := tpls[l.ID].Execute(&buf, BuildSections(d, opts)); err != nil {
		return "", &RenderError{Message: fmt.Sprintf("execute %s", l.Name), Cause: err}
	}
	return buf.String(), nil
}
