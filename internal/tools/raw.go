// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import "encoding/json"

// Bag is one loosely-typed record as decoded from an upstream JSON payload:
// string keys over primitives, nested bags, and lists. Accessors take a
// fallback chain of key names because each upstream API names fields
// differently; the first key holding a usable value wins, and a missing
// value is the zero value, never a panic.
type Bag map[string]any

// String returns the first non-empty string value among keys.
func (b Bag) String(keys ...string) string {
	for _, k := range keys {
		if s, ok := b[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Int returns the first numeric value among keys, truncated to int.
// JSON numbers decode as float64; json.Number and int are also accepted.
func (b Bag) Int(keys ...string) int {
	for _, k := range keys {
		switch v := b[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
		}
	}
	return 0
}

// Float returns the first numeric value among keys.
func (b Bag) Float(keys ...string) float64 {
	for _, k := range keys {
		switch v := b[k].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		}
	}
	return 0
}

// Sub returns the nested bag at key, or an empty bag.
func (b Bag) Sub(key string) Bag {
	if m, ok := b[key].(map[string]any); ok {
		return Bag(m)
	}
	return Bag{}
}

// List returns the record list at key; non-record elements are skipped.
func (b Bag) List(key string) []Bag {
	raw, ok := b[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Bag, 0, len(raw))
	for _, e := range raw {
		if m, ok := e.(map[string]any); ok {
			out = append(out, Bag(m))
		}
	}
	return out
}

// Strings returns the string list at key; non-string elements are skipped.
func (b Bag) Strings(key string) []string {
	raw, ok := b[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Result is the uniform wrapper output: either a list of records (Rows),
// a bare identifier list (Values), or both empty. Single-record payloads
// are returned as a one-element Rows slice.
type Result struct {
	Rows   []Bag
	Values []string
}

// Count returns the number of result rows, whichever shape is populated.
func (r Result) Count() int {
	if len(r.Rows) > 0 {
		return len(r.Rows)
	}
	return len(r.Values)
}

// Empty reports whether the result carries no rows at all.
func (r Result) Empty() bool {
	return len(r.Rows) == 0 && len(r.Values) == 0
}
