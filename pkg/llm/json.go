package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSONObject is returned when a reply holds no complete, valid JSON object.
var ErrNoJSONObject = errors.New("no JSON object in model reply")

// reasoningBlock matches a leading <think>...</think> section emitted by reasoning models.
var reasoningBlock = regexp.MustCompile(`(?s)^\s*<think>.*?</think>`)

// ExtractJSONObject returns the first complete JSON object in a model reply. Leading reasoning
// blocks, markdown fences and surrounding prose are ignored; top-level arrays are not objects
// and are skipped.
func ExtractJSONObject(reply string) (string, error) {
	rest := reasoningBlock.ReplaceAllString(reply, "")

	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			return "", ErrNoJSONObject
		}
		end, ok := objectEnd(rest[start:])
		if !ok {
			return "", ErrNoJSONObject
		}
		candidate := rest[start : start+end]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
		rest = rest[start+1:]
	}
}

// objectEnd scans from the opening brace at s[0] and returns the index just past its matching
// closing brace. Braces inside string literals do not count.
func objectEnd(s string) (int, bool) {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// ParseJSONObject extracts the first JSON object from a reply and decodes it into T.
func ParseJSONObject[T any](reply string) (T, error) {
	var result T

	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, err
	}
	return result, nil
}
