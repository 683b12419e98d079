package gateway

import (
	"unicode"
	"unicode/utf8"
)

// The backend is not consistent about response shapes: list endpoints answer
// with a bare array, {"data": [...]} or {"result": [...]}, and single-record
// endpoints mix camelCase and PascalCase keys. The helpers below absorb that so
// callers never look at raw shapes.

var wrapperKeys = []string{"data", "result"}

// UnwrapList returns the records of a list response. Unknown shapes yield an
// empty, non-nil slice rather than an error.
func UnwrapList(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		obj, isObj := v.(map[string]any)
		if !isObj {
			return []map[string]any{}
		}
		for _, key := range wrapperKeys {
			if arr, found := obj[key].([]any); found {
				items, ok = arr, true
				break
			}
		}
		if !ok {
			return []map[string]any{}
		}
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if rec, isRec := item.(map[string]any); isRec {
			out = append(out, rec)
		}
	}
	return out
}

// UnwrapRecord returns the record of a single-record response, looking inside a
// "data" or "result" wrapper when present. Non-object bodies yield nil.
func UnwrapRecord(v any) map[string]any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range wrapperKeys {
		if inner, found := obj[key].(map[string]any); found {
			return inner
		}
	}
	return obj
}

// Coalesce returns the first non-nil value found under keys.
func Coalesce(rec map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := rec[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Casings returns name plus its PascalCase twin, deduplicated, followed by
// aliases.
func Casings(name string, aliases ...string) []string {
	keys := []string{name}
	if pascal := Pascal(name); pascal != name {
		keys = append(keys, pascal)
	}
	for _, alias := range aliases {
		dup := false
		for _, k := range keys {
			if k == alias {
				dup = true
				break
			}
		}
		if !dup {
			keys = append(keys, alias)
		}
	}
	return keys
}

// Pascal upper-cases the first rune of name.
func Pascal(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
