package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Model output often arrives wrapped in markdown fences or surrounded by
// prose. All provider responses go through this one extractor so both the
// generation and analysis paths share the same tolerance.

var errNoJSON = errors.New("no JSON payload found in response")

// stripFences removes leading/trailing markdown code-fence markers.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONArray locates the substring between the first '[' and the last
// ']' and parses it into raw elements.
func extractJSONArray(s string) ([]json.RawMessage, error) {
	s = stripFences(s)
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, errNoJSON
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(s[start:end+1]), &elements); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}
	return elements, nil
}

// extractJSONObject locates the substring between the first '{' and the last
// '}' and unmarshals it into v.
func extractJSONObject(s string, v interface{}) error {
	s = stripFences(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return errNoJSON
	}

	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("invalid JSON object: %w", err)
	}
	return nil
}

// flexInt tolerates numbers encoded as JSON numbers or numeric strings, a
// recurring quirk of model output. Set records whether a usable value was
// present.
type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.Value = int(num)
		f.Set = true
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(str), "%f", &parsed); err == nil {
			f.Value = int(parsed)
			f.Set = true
		}
		return nil
	}

	// Unusable shape; leave unset rather than failing the whole recipe.
	return nil
}

// flexFloat is the float counterpart of flexInt.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.Value = num
		f.Set = true
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(str), "%f", &parsed); err == nil {
			f.Value = parsed
			f.Set = true
		}
		return nil
	}

	return nil
}
