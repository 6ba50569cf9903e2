package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Field is one key/value pair of a JSON metadata response, in response order.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var (
	errNotObject    = errors.New("metadata is not a JSON object")
	errTrailingData = errors.New("metadata has data after the JSON object")
)

// StripCodeFences removes a surrounding ```json ... ``` block if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseMetadataFields decodes a metadata response that the model returned as
// a flat JSON object. Key order follows the response. String values are kept
// verbatim, null becomes "", anything else is rendered as compact JSON.
func ParseMetadataFields(text string) ([]Field, error) {
	dec := json.NewDecoder(strings.NewReader(StripCodeFences(text)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	var out []Field
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
		key, _ := kt.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse metadata %q: %w", key, err)
		}
		out = append(out, Field{Key: key, Value: renderValue(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return out, nil
}

// FormatFields renders fields as "key: value" lines.
func FormatFields(fields []Field) string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f.Key+": "+f.Value)
	}
	return strings.Join(lines, "\n")
}

func renderValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
