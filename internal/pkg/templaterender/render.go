package templaterender

import (
	"bytes"
	"text/template"
)

// MustParse parses a template known at build time. It panics on a syntax
// error, so call it from package-level vars only.
func MustParse(name, src string) *template.Template {
	return template.Must(parse(name, src))
}

// Render executes t into a string.
func Render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func parse(name, src string) (*template.Template, error) {
	return template.New(name).Option("missingkey=zero").Parse(src)
}
