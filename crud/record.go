package crud

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one resource row as a field-name to value map.
type Record map[string]any

// Clone returns a shallow copy; slice values are copied too so callers cannot
// mutate manager state through a snapshot.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if s, ok := v.([]string); ok {
			v = append([]string(nil), s...)
		}
		out[k] = v
	}
	return out
}

// ID is the string form of a record id, whether the backend issues integers or
// the client generates tokens.
type ID string

// IDOf converts a decoded id value to an ID. Missing values give "".
func IDOf(v any) ID {
	switch t := v.(type) {
	case nil:
		return ""
	case ID:
		return t
	case string:
		return ID(strings.TrimSpace(t))
	case json.Number:
		return ID(t.String())
	case float64:
		return ID(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return ID(strconv.Itoa(t))
	case int64:
		return ID(strconv.FormatInt(t, 10))
	case uint:
		return ID(strconv.FormatUint(uint64(t), 10))
	default:
		return ID(fmt.Sprint(t))
	}
}

// Number returns the numeric value of the id, 0 when it is not numeric.
func (id ID) Number() float64 {
	return ToNumber(string(id))
}

func (id ID) String() string {
	return string(id)
}

// ToNumber coerces v to a number. Empty, null and unparsable values become 0;
// the same rule applies to every numeric field of every resource.
func ToNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// ToString renders v as text; nil becomes "".
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []string:
		return strings.Join(t, " ")
	default:
		return fmt.Sprint(t)
	}
}

// ToStrings reads a list of strings, also accepting a list of {"url": ...}
// objects as stored by document-style backends.
func ToStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			switch x := item.(type) {
			case string:
				if x != "" {
					out = append(out, x)
				}
			case map[string]any:
				if u := ToString(x["url"]); u != "" {
					out = append(out, u)
				}
			}
		}
		return out
	default:
		return []string{}
	}
}
