package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrTemplate is the sentinel wrapped by every rendering failure.
var ErrTemplate = errors.New("template error")

// TemplateError lists the placeholders left without a value.
type TemplateError struct {
	Placeholders []string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error: unresolved placeholders %s", strings.Join(e.Placeholders, ", "))
}

func (e *TemplateError) Unwrap() error { return ErrTemplate }

// substitute replaces {name} tokens with values. "{{" and "}}" render as
// literal braces. Tokens without a value are collected into a TemplateError.
func substitute(tmpl string, values map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))
	missing := make(map[string]struct{})

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				b.WriteString(tmpl[i:])
				i = len(tmpl)
				continue
			}
			name := tmpl[i+1 : i+1+end]
			if !isIdentifier(name) {
				b.WriteByte(c)
				continue
			}
			value, ok := values[name]
			if !ok {
				missing[name] = struct{}{}
			}
			b.WriteString(value)
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", &TemplateError{Placeholders: names}
	}
	return b.String(), nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Placeholders returns the distinct placeholder names used in tmpl, in order of first use.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '{' {
			continue
		}
		if i+1 < len(tmpl) && tmpl[i+1] == '{' {
			i++
			continue
		}
		end := strings.IndexByte(tmpl[i+1:], '}')
		if end < 0 {
			break
		}
		name := tmpl[i+1 : i+1+end]
		if isIdentifier(name) && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
