package parser

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// CodeBlock is a fenced block from markdown text.
type CodeBlock struct {
	// Language is the info string after the opening fence, lowercased.
	Language string

	// Content is the text between the fences.
	Content string
}

var fenceRegex = regexp.MustCompile("(?s)```([\\w+-]*)[ \\t]*\\r?\\n(.*?)```")

// CodeBlocks returns every fenced block in text, in order.
func CodeBlocks(text string) []CodeBlock {
	matches := fenceRegex.FindAllStringSubmatch(text, -1)
	blocks := make([]CodeBlock, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, CodeBlock{
			Language: strings.ToLower(m[1]),
			Content:  m[2],
		})
	}
	return blocks
}

// ExtractJSON returns the first JSON object or array in text.
//
// The whole text is tried first, then fenced blocks tagged json or untagged,
// then the first balanced {...} or [...] span. The returned value is compact
// and always valid JSON.
func ExtractJSON(text string) (json.RawMessage, bool) {
	if raw, ok := validJSON(text); ok {
		return raw, true
	}

	for _, block := range CodeBlocks(text) {
		if block.Language != "" && block.Language != "json" {
			continue
		}
		if raw, ok := validJSON(block.Content); ok {
			return raw, true
		}
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		end := balancedEnd(text, i)
		if end < 0 {
			continue
		}
		if raw, ok := validJSON(text[i:end]); ok {
			return raw, true
		}
	}
	return nil, false
}

func validJSON(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil, false
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// balancedEnd returns the index just past the bracket that closes text[start],
// or -1. Brackets inside JSON strings are skipped.
func balancedEnd(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
