package template

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"text/template"
)

var (
	shortVarRegex = regexp.MustCompile(`\{\{\s*([A-Za-z_]\w*)\s*\}\}`)
	refRegex      = regexp.MustCompile(`\.([A-Za-z_]\w*)`)
)

// reserved names keep their text/template meaning in the short form.
var reserved = map[string]bool{
	"if": true, "else": true, "end": true, "range": true, "with": true,
	"define": true, "template": true, "block": true, "break": true, "continue": true,
	"nil": true, "true": true, "false": true,
	"upper": true, "lower": true, "trim": true, "default": true,
}

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	"default": func(fallback, v any) any {
		if v == nil {
			return fallback
		}
		if s, ok := v.(string); ok && s == "" {
			return fallback
		}
		return v
	},
}

// Render executes text with vars. Text without any action is returned as is.
func Render(text string, vars map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := parse(text)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExecute, err)
	}
	return b.String(), nil
}

// Validate reports whether text parses.
func Validate(text string) error {
	if !strings.Contains(text, "{{") {
		return nil
	}
	_, err := parse(text)
	return err
}

// Variables returns the sorted, de-duplicated variable names text refers to.
func Variables(text string) []string {
	converted := convert(text)
	var names []string
	for _, action := range actions(converted) {
		for _, m := range refRegex.FindAllStringSubmatch(action, -1) {
			names = append(names, m[1])
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func parse(text string) (*template.Template, error) {
	tmpl, err := template.New("prompt").
		Funcs(funcs).
		Option("missingkey=error").
		Parse(convert(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return tmpl, nil
}

// convert rewrites {{name}} to {{.name}}.
func convert(text string) string {
	return shortVarRegex.ReplaceAllStringFunc(text, func(m string) string {
		name := shortVarRegex.FindStringSubmatch(m)[1]
		if reserved[name] {
			return m
		}
		return "{{." + name + "}}"
	})
}

// actions returns the contents of every {{...}} in text.
func actions(text string) []string {
	var out []string
	for {
		start := strings.Index(text, "{{")
		if start < 0 {
			return out
		}
		end := strings.Index(text[start:], "}}")
		if end < 0 {
			return out
		}
		out = append(out, text[start+2:start+end])
		text = text[start+end+2:]
	}
}
