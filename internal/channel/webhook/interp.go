package webhook

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldError reports a template referencing a field the event does not
// carry. It is a configuration problem, recoverable per event.
type FieldError struct {
	Name string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("template references unknown event field %q", e.Name)
}

type ref struct {
	name string
	spec string
}

// parseRefs extracts {field} and {field:spec} references from a format
// string. Doubled braces escape literals.
func parseRefs(tmpl string) ([]ref, error) {
	var refs []ref
	for i := 0; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unbalanced '{' in template %q", tmpl)
			}
			body := tmpl[i+1 : i+end]
			name, spec := body, ""
			if c := strings.IndexByte(body, ':'); c >= 0 {
				name, spec = body[:c], body[c+1:]
			}
			if name == "" {
				return nil, fmt.Errorf("empty field reference in template %q", tmpl)
			}
			refs = append(refs, ref{name: name, spec: spec})
			i += end
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				i++
				continue
			}
			return nil, fmt.Errorf("unbalanced '}' in template %q", tmpl)
		}
	}
	return refs, nil
}

// interpolate renders a format string against the event field map.
// A reference to a missing field returns a *FieldError.
func interpolate(tmpl string, fields map[string]any) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unbalanced '{' in template %q", tmpl)
			}
			body := tmpl[i+1 : i+end]
			name, spec := body, ""
			if c := strings.IndexByte(body, ':'); c >= 0 {
				name, spec = body[:c], body[c+1:]
			}
			v, ok := fields[name]
			if !ok {
				return "", &FieldError{Name: name}
			}
			s, err := renderValue(v, spec)
			if err != nil {
				return "", fmt.Errorf("field %q: %w", name, err)
			}
			b.WriteString(s)
			i += end
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("unbalanced '}' in template %q", tmpl)
		default:
			b.WriteByte(tmpl[i])
		}
	}
	return b.String(), nil
}

// renderValue formats one field value. Supported specs: "", ".Nf", "d".
func renderValue(v any, spec string) (string, error) {
	if spec == "" {
		return plainString(v), nil
	}
	if spec == "d" {
		switch x := v.(type) {
		case int64:
			return strconv.FormatInt(x, 10), nil
		case float64:
			return strconv.FormatInt(int64(x), 10), nil
		default:
			return "", fmt.Errorf("spec %q needs a numeric value", spec)
		}
	}
	if strings.HasPrefix(spec, ".") && strings.HasSuffix(spec, "f") {
		prec, err := strconv.Atoi(spec[1 : len(spec)-1])
		if err != nil || prec < 0 {
			return "", fmt.Errorf("bad precision in spec %q", spec)
		}
		f, ok := toFloat(v)
		if !ok {
			return "", fmt.Errorf("spec %q needs a numeric value", spec)
		}
		return strconv.FormatFloat(f, 'f', prec, 64), nil
	}
	return "", fmt.Errorf("unsupported format spec %q", spec)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func plainString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
