// Package importers turns external text (model replies, CSV files) into
// candidate operation lists for the structural validator.
package importers

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/goccy/go-json"
)

// ErrNoOperations is returned when no JSON operation payload can be found.
var ErrNoOperations = errors.New("no operations found")

var fenceRe = regexp.MustCompile("(?s)```[A-Za-z]*[ \t]*\r?\n?(.*?)```")

// ParseOperations extracts a candidate operation list from free-form text
// such as a model reply. It accepts, after stripping any Markdown code
// fence and surrounding prose:
//
//   - a JSON array of operation objects
//   - a single operation object
//   - an object with an "operations" array
//
// The result still has to pass structural validation.
func ParseOperations(text string) ([]map[string]any, error) {
	payload := extractJSON(text)
	if len(payload) == 0 {
		return nil, ErrNoOperations
	}

	if payload[0] == '{' {
		inner, typ, _, err := jsonparser.Get(payload, "operations")
		switch {
		case err == nil && typ == jsonparser.Array:
			payload = inner
		case err == nil:
			return nil, fmt.Errorf("operations field is %s, not an array", typ)
		default:
			var single map[string]any
			if err := json.Unmarshal(payload, &single); err != nil {
				return nil, fmt.Errorf("decode operation: %w", err)
			}
			return []map[string]any{single}, nil
		}
	}

	var items []any
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	out := make([]map[string]any, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("operations[%d] is %T, not an object", i, item)
		}
		out[i] = m
	}
	return out, nil
}

// extractJSON returns the JSON payload of text: the first fenced block if
// there is one, trimmed to the outermost brackets so leading and trailing
// prose is dropped.
func extractJSON(text string) []byte {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	b := bytes.TrimSpace([]byte(text))
	start := bytes.IndexAny(b, "[{")
	if start < 0 {
		return nil
	}
	closer := byte('}')
	if b[start] == '[' {
		closer = ']'
	}
	end := bytes.LastIndexByte(b, closer)
	if end < start {
		return nil
	}
	return b[start : end+1]
}

// Format renders a candidate list as indented JSON.
func Format(list []map[string]any) (string, error) {
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
