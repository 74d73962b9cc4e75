// Package templates loads the static prompt templates a pipeline substitutes
// stage inputs into.
package templates

import (
	"regexp"
	"sort"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// Template is an immutable piece of text with {{name}} placeholders
type Template struct {
	id           string
	text         string
	placeholders []string
}

// Parse creates a template and records its placeholders in order of first
// appearance.
func Parse(id, text string) *Template {
	t := &Template{id: id, text: text}
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			t.placeholders = append(t.placeholders, m[1])
		}
	}
	return t
}

func (t *Template) ID() string {
	return t.id
}

func (t *Template) Text() string {
	return t.text
}

// Placeholders returns the placeholder names found in the text
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// Has reports whether the template contains {{name}}
func (t *Template) Has(name string) bool {
	for _, p := range t.placeholders {
		if p == name {
			return true
		}
	}
	return false
}

// Token returns the literal placeholder token for name
func Token(name string) string {
	return "{{" + name + "}}"
}

// Render replaces every {{name}} token with bindings[name]. Replacement is
// literal and happens in a single pass, so bound values are never scanned for
// placeholders. Bindings without a matching token are ignored and tokens
// without a binding are left in place.
func (t *Template) Render(bindings map[string]string) string {
	if len(bindings) == 0 {
		return t.text
	}

	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		pairs = append(pairs, Token(name), bindings[name])
	}
	return strings.NewReplacer(pairs...).Replace(t.text)
}
