package contratos

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// DecodeLooseObject decodes a structured mapping delivered as a string.
// The upstream API is inconsistent: nested objects sometimes arrive
// serialized in Python repr form (single quotes, None/True/False) instead
// of JSON. Strict JSON is tried first, then a repr-aware rewrite.
func DecodeLooseObject(s string) (map[string]any, error) {
	trimmed := strings.TrimSpace(s)

	var m map[string]any
	if err := json.Unmarshal([]byte(trimmed), &m); err == nil {
		return m, nil
	}

	if err := json.Unmarshal([]byte(rewriteReprLiteral(trimmed)), &m); err != nil {
		return nil, fmt.Errorf("decode structured value: %w", err)
	}
	return m, nil
}

// rewriteReprLiteral converts a Python-repr object literal into JSON:
// single-quoted strings become double-quoted, and the bare words None,
// True and False become their JSON counterparts. Quote state is tracked
// so replacements never touch string contents.
func rewriteReprLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && inString && i+1 < len(s):
			// \' inside a repr string is a plain quote in JSON.
			if s[i+1] == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte(c)
				b.WriteByte(s[i+1])
			}
			i++
		case c == '\'':
			inString = !inString
			b.WriteByte('"')
		case c == '"' && inString:
			b.WriteString(`\"`)
		case !inString && strings.HasPrefix(s[i:], "None"):
			b.WriteString("null")
			i += len("None") - 1
		case !inString && strings.HasPrefix(s[i:], "True"):
			b.WriteString("true")
			i += len("True") - 1
		case !inString && strings.HasPrefix(s[i:], "False"):
			b.WriteString("false")
			i += len("False") - 1
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// normalizeNested turns a raw nested value into a map. Native objects pass
// through, strings are decoded, null stays empty. Anything else is an
// error the caller downgrades to empty-with-warning.
func normalizeNested(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return t, nil
	case string:
		return DecodeLooseObject(t)
	default:
		return nil, fmt.Errorf("unexpected structured value type %T", v)
	}
}

// lookupPath extracts the value at a 1- or 2-segment path, or nil when any
// segment is absent or not an object.
func lookupPath(m map[string]any, path []string) any {
	v, ok := m[path[0]]
	if !ok {
		return nil
	}
	if len(path) == 1 {
		return v
	}

	inner, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	val, ok := inner[path[1]]
	if !ok {
		return nil
	}
	return val
}

// Flatten hoists the schema's nested fields into flat columns, in place.
// For each record: the source value is normalized to a map (a decode
// failure logs a warning and yields null columns), every mapped path is
// extracted (nil when absent), and the source field is dropped.
//
// Records whose source fields are already absent are left untouched, so
// running Flatten twice over the same records is a no-op.
func (s *Schema) Flatten(records []Record, logger zerolog.Logger) {
	for _, f := range s.fields {
		for _, rec := range records {
			raw, present := rec[f.Source]
			if !present {
				continue
			}

			nested, err := normalizeNested(raw)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("campo", f.Source).
					Msg("Could not parse structured value - emitting null columns")
				nested = map[string]any{}
			}

			for _, m := range f.Mappings {
				rec[m.Column] = lookupPath(nested, m.Path)
			}
			delete(rec, f.Source)
		}
	}
}
