package document

import "strconv"

// AttrString safely extracts a string attribute.
func AttrString(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	s, _ := attrs[key].(string)
	return s
}

// AttrInt safely extracts an integer attribute. JSON numbers decode as
// float64, so both forms are accepted.
func AttrInt(attrs map[string]any, key string) int {
	if attrs == nil {
		return 0
	}
	switch v := attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// AttrBool safely extracts a boolean attribute.
func AttrBool(attrs map[string]any, key string) bool {
	if attrs == nil {
		return false
	}
	b, _ := attrs[key].(bool)
	return b
}

// NumericID narrows an attribute to a numeric identifier. Numbers and
// numeric strings parse; anything else (including null) returns ok=false.
// Callers must treat ok=false as an orphaned reference, never coerce it.
func NumericID(attrs map[string]any, key string) (int64, bool) {
	if attrs == nil {
		return 0, false
	}
	switch v := attrs[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
