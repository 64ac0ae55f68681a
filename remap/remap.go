// Package remap rewrites an absolute path prefix across arbitrary JSON value
// trees. It is the transform applied to a staged archive when a session is
// restored on a machine where the session's original working directory does
// not exist.
//
// The rewrite is prefix-anchored with a path-boundary check: a string is
// rewritten only when it equals the old path or continues it with a path
// separator. "/A/B/repo2" is untouched by a remap of "/A/B/repo". Because the
// rule keys on the value and not on field names, it is safe to run uniformly
// over every JSON file in a staged tree rather than only over known schemas.
package remap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// String rewrites a single string value. Returns the input unchanged unless it
// equals oldPath or starts with oldPath followed by a path separator.
func String(s, oldPath, newPath string) string {
	if oldPath == "" || s == "" {
		return s
	}
	if s == oldPath {
		return newPath
	}
	if strings.HasPrefix(s, oldPath+"/") {
		return newPath + s[len(oldPath):]
	}
	return s
}

// Value applies the rewrite recursively over an arbitrary JSON value tree.
// Arrays and objects are rebuilt with every contained value remapped; scalars
// other than strings pass through unchanged.
func Value(v any, oldPath, newPath string) any {
	switch val := v.(type) {
	case string:
		return String(val, oldPath, newPath)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Value(elem, oldPath, newPath)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Value(elem, oldPath, newPath)
		}
		return out
	default:
		// numbers, bools, null
		return v
	}
}

// JSON rewrites a serialized JSON document. Numbers are decoded with
// json.Number so re-encoding does not mangle integer precision.
func JSON(data []byte, oldPath, newPath string) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	remapped := Value(v, oldPath, newPath)

	out, err := json.Marshal(remapped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return out, nil
}

// File rewrites a JSON file in place, preserving its mode.
func File(path, oldPath, newPath string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	out, err := JSON(data, oldPath, newPath)
	if err != nil {
		return fmt.Errorf("failed to remap %s: %w", path, err)
	}

	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
