package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// bufferPrefix marks a params value as a positional reference into the
// request's binary buffer list.
const bufferPrefix = "__buffer."

// BufferRef returns the placeholder string referencing binary buffer n of
// the same call.
func BufferRef(n int) string {
	return bufferPrefix + strconv.Itoa(n)
}

// ParseBufferRef reports whether s is a buffer placeholder and, if so, the
// buffer index it references.
func ParseBufferRef(s string) (int, bool) {
	rest, ok := strings.CutPrefix(s, bufferPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// validateBufferRefs walks sanitized params and checks that every buffer
// placeholder references a valid index into the request's buffer list.
func validateBufferRefs(v any, bufferCount int) error {
	switch val := v.(type) {
	case string:
		if n, ok := ParseBufferRef(val); ok && n >= bufferCount {
			return fmt.Errorf("placeholder %q references buffer %d but only %d attached", val, n, bufferCount)
		}
	case map[string]any:
		for k, elem := range val {
			if err := validateBufferRefs(elem, bufferCount); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
	case []any:
		for i, elem := range val {
			if err := validateBufferRefs(elem, bufferCount); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
	}
	return nil
}
