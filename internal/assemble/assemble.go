package assemble

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// DefaultPlaceholder is the token replaced with the assembled functions
// when a template does not configure its own.
const DefaultPlaceholder = "__SHASSEMBLE_FUNCTIONS__"

// Table resolves function names to their definition text.
type Table interface {
	Lookup(name string) (body string, ok bool)
}

// MissingFunctionError is returned when a selected function is not defined
// in the library.
type MissingFunctionError struct {
	Name string
}

func (e *MissingFunctionError) Error() string {
	return fmt.Sprintf("function %q is not defined in the library", e.Name)
}

// TemplateError is returned when a template does not contain the placeholder.
type TemplateError struct {
	Template    string
	Placeholder string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s does not contain placeholder %q", e.Template, e.Placeholder)
}

// Template is a document with a placeholder token to substitute.
type Template struct {
	// Name identifies the template in errors, usually its path.
	Name        string
	Text        string
	Placeholder string
}

// Assemble joins the trimmed boilerplate and the bodies of the selected
// functions, in selection order, with single newlines. Names may repeat.
// If any name is missing from table nothing is returned.
func Assemble(boilerplate string, table Table, names []string) (string, error) {
	parts := make([]string, 0, len(names)+1)
	parts = append(parts, strings.TrimSpace(boilerplate))
	for _, name := range names {
		body, ok := table.Lookup(name)
		if !ok {
			return "", &MissingFunctionError{Name: name}
		}
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n"), nil
}

// Render replaces every occurrence of the template's placeholder with body.
func Render(tmpl Template, body string) (string, error) {
	placeholder := tmpl.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	if !strings.Contains(tmpl.Text, placeholder) {
		return "", &TemplateError{Template: tmpl.Name, Placeholder: placeholder}
	}
	return strings.ReplaceAll(tmpl.Text, placeholder, body), nil
}

// Build assembles the selected functions and renders them into tmpl.
func Build(boilerplate string, table Table, names []string, tmpl Template) (string, error) {
	body, err := Assemble(boilerplate, table, names)
	if err != nil {
		return "", errors.Wrapf(err, "failed to assemble %s", tmpl.Name)
	}
	out, err := Render(tmpl, body)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return out, nil
}
