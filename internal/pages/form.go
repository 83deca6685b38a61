package pages

import (
	"encoding/json"
	"strconv"
)

// FormValue is a structured form entry: a string, a number, or one level of
// nested fields. Deeper nesting and other JSON types are flattened to text.
type FormValue struct {
	Text   *string              `json:"text,omitempty"`
	Number *float64             `json:"number,omitempty"`
	Fields map[string]FormValue `json:"fields,omitempty"`
}

// FormData maps free-form keys to form values.
type FormData map[string]FormValue

// NormalizeForm converts a decoded JSON object into FormData.
func NormalizeForm(raw map[string]any) FormData {
	if len(raw) == 0 {
		return nil
	}

	form := make(FormData, len(raw))
	for k, v := range raw {
		form[k] = normalizeValue(v, true)
	}
	return form
}

func normalizeValue(v any, nest bool) FormValue {
	switch val := v.(type) {
	case string:
		return FormValue{Text: &val}
	case float64:
		return FormValue{Number: &val}
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return FormValue{Number: &f}
		}
		s := val.String()
		return FormValue{Text: &s}
	case bool:
		s := strconv.FormatBool(val)
		return FormValue{Text: &s}
	case nil:
		s := ""
		return FormValue{Text: &s}
	case map[string]any:
		if nest {
			fields := make(map[string]FormValue, len(val))
			for k, inner := range val {
				fields[k] = normalizeValue(inner, false)
			}
			return FormValue{Fields: fields}
		}
	}

	raw, _ := json.Marshal(v)
	s := string(raw)
	return FormValue{Text: &s}
}
