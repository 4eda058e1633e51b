// Package template renders prompt text with variable substitution.
//
// Prompts use a short form where a bare name in braces is a variable:
//
//	You are talking to {{model}}. Today is {{date}}.
//
// The short form is rewritten to Go text/template syntax ({{.model}}) before
// parsing, so the full text/template language still works, along with the
// helpers upper, lower, trim and default:
//
//	{{if .terse}}Answer in one line.{{end}} Reply in {{default "English" .language}}.
//
// Referencing a variable that was not provided is an error.
package template
