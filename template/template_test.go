package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars map[string]any
		want string
	}{
		{
			name: "plain text untouched",
			text: "You are terse.",
			want: "You are terse.",
		},
		{
			name: "short form",
			text: "Model: {{model}}, date: {{ date }}",
			vars: map[string]any{"model": "gpt-4o", "date": "2026-10-18"},
			want: "Model: gpt-4o, date: 2026-10-18",
		},
		{
			name: "go syntax",
			text: "{{.model}}",
			vars: map[string]any{"model": "gpt-4o"},
			want: "gpt-4o",
		},
		{
			name: "conditional",
			text: "Hi.{{if .terse}} Be brief.{{end}}",
			vars: map[string]any{"terse": true},
			want: "Hi. Be brief.",
		},
		{
			name: "helpers",
			text: `{{upper .model}} {{default "English" .language}}`,
			vars: map[string]any{"model": "gpt", "language": ""},
			want: "GPT English",
		},
		{
			name: "else is not a variable",
			text: "{{if .x}}a{{else}}b{{end}}",
			vars: map[string]any{"x": false},
			want: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.text, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Errors(t *testing.T) {
	_, err := Render("{{if .x}}", nil)
	assert.ErrorIs(t, err, ErrParse)

	_, err = Render("Hello {{name}}", map[string]any{"model": "gpt-4o"})
	assert.ErrorIs(t, err, ErrExecute)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("no actions"))
	assert.NoError(t, Validate("{{model}}"))
	assert.NoError(t, Validate("{{range .items}}{{.}}{{break}}{{end}}"))

	for _, text := range []string{
		"{{if}}",
		"{{range}}",
		"{{with}}",
		"{{define}}",
		"{{template}}",
		"{{block}}",
		"{{break}}",
		"{{continue}}",
	} {
		t.Run(text, func(t *testing.T) {
			assert.ErrorIs(t, Validate(text), ErrParse)

			_, err := Render(text, map[string]any{})
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestVariables(t *testing.T) {
	got := Variables(`{{model}} {{date}} {{if .terse}}x{{end}} {{upper .model}}`)
	assert.Equal(t, []string{"date", "model", "terse"}, got)

	assert.Empty(t, Variables("nothing here"))
}
