package digest

import "strings"

// maxCompletionLength caps the text handed to the extractor. Completions are
// already bounded by the token budget; this guards against misbehaving
// gateways streaming unbounded output.
const maxCompletionLength = 1 << 20

// ExtractJSONObject locates the first balanced JSON object in free-form
// completion text and returns it. Markdown code fences are stripped first.
//
// A depth-tracking scanner replaces the usual greedy first-{-to-last-}
// match: models routinely append prose after the JSON ("} Hope this
// helps!"), and prose can itself contain braces. The scanner respects JSON
// string and escape state, so braces inside quoted values don't confuse it.
func ExtractJSONObject(text string) (string, bool) {
	if len(text) > maxCompletionLength {
		text = text[:maxCompletionLength]
	}
	text = stripCodeFences(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	// Unbalanced: the completion was likely truncated by the token budget
	return "", false
}

// stripCodeFences removes a surrounding markdown fence (``` or ```json).
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.Join(lines[1:endIdx], "\n")
}
