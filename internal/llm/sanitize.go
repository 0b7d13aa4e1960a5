package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripJSONFences removes a surrounding markdown code fence, if any, and
// returns the inner payload. Providers wrap JSON in ```json ... ``` often
// enough that we tolerate it everywhere we read their output.
func StripJSONFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	// the fence may carry a language tag ("json")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return []byte(strings.TrimSpace(s))
}

// SanitizeDocumentJSON drops optional fields whose values cannot meet the
// stricter schema, so the overall document can still validate. Only
// optionals are touched; required fields stay as-is and fail validation if
// wrong.
func SanitizeDocumentJSON(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string

	// null / empty-string optionals
	for k, v := range m {
		if k == "document_type" {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		case string:
			if strings.TrimSpace(t) == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			}
		}
	}

	// money fields must be numbers; a numeric string is recoverable, anything
	// else goes
	for _, k := range []string{"subtotal", "tax_amount", "total_amount"} {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			// fine
		case string:
			var f float64
			if _, err := fmt.Sscanf(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), "%f", &f); err == nil {
				m[k] = f
			} else {
				delete(m, k)
				dropped = append(dropped, k+"(unparseable)")
			}
		default:
			_ = t
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	if v, ok := m["currency"].(string); ok {
		m["currency"] = strings.ToUpper(strings.TrimSpace(v))
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return b, dropped, nil
}
