// Package parser pulls structured payloads out of free-form completion text.
//
// Models asked for JSON without a strict response_format, and most local
// OpenAI-compatible servers, often wrap the object in a fenced block or add a
// sentence before it. ExtractJSON finds the payload in those replies:
//
//	raw, ok := parser.ExtractJSON(resp.Content)
//	if ok {
//	    _ = json.Unmarshal(raw, &answer)
//	}
package parser
