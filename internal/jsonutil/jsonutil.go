// Package jsonutil provides safe JSON extraction helpers for decoded tool
// output. These functions extract typed values from map[string]any produced
// by encoding/json.Unmarshal. No transformation logic, no validation.
package jsonutil

import "encoding/json"

// GetString safely extracts a string field from a map.
func GetString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

// GetBool safely extracts a boolean field from a map.
func GetBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

// GetMap safely extracts a nested map from a map.
func GetMap(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

// GetStrings extracts a string array field, skipping non-string elements.
func GetStrings(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Object decodes doc as a JSON object. Non-object documents yield nil.
func Object(doc []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil
	}
	return m
}

// IsFinished reports whether doc is a JSON object whose "finished" field is
// the boolean true. Tool output uses it to close one progress phase.
func IsFinished(doc []byte) bool {
	var v struct {
		Finished any `json:"finished"`
	}
	if err := json.Unmarshal(doc, &v); err != nil {
		return false
	}
	b, ok := v.Finished.(bool)
	return ok && b
}
