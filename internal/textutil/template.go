package textutil

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTemplateSyntax reports unbalanced braces or an invalid placeholder name.
	ErrTemplateSyntax = errors.New("template syntax")
	// ErrUnknownPlaceholder reports a placeholder missing from the field mapping.
	ErrUnknownPlaceholder = errors.New("unknown placeholder")
)

type segment struct {
	literal     string
	placeholder string
}

// Render substitutes every {name} in tmpl with fields[name].
func Render(tmpl string, fields map[string]string) (string, error) {
	segments, err := parseTemplate(tmpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(tmpl))
	for _, seg := range segments {
		if seg.placeholder == "" {
			b.WriteString(seg.literal)
			continue
		}
		value, ok := fields[seg.placeholder]
		if !ok {
			return "", fmt.Errorf("%w {%s} in %q", ErrUnknownPlaceholder, seg.placeholder, tmpl)
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

// Placeholders lists the placeholder names used by tmpl in order of appearance.
func Placeholders(tmpl string) ([]string, error) {
	segments, err := parseTemplate(tmpl)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, seg := range segments {
		if seg.placeholder != "" {
			names = append(names, seg.placeholder)
		}
	}
	return names, nil
}

func parseTemplate(tmpl string) ([]segment, error) {
	var (
		segments []segment
		literal  strings.Builder
	)
	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{literal: literal.String()})
			literal.Reset()
		}
	}
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				literal.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed '{' at offset %d in %q", ErrTemplateSyntax, i, tmpl)
			}
			name := tmpl[i+1 : i+1+end]
			if !validPlaceholder(name) {
				return nil, fmt.Errorf("%w: invalid placeholder {%s} in %q", ErrTemplateSyntax, name, tmpl)
			}
			flush()
			segments = append(segments, segment{placeholder: name})
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				literal.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: stray '}' at offset %d in %q", ErrTemplateSyntax, i, tmpl)
		default:
			literal.WriteByte(c)
		}
	}
	flush()
	return segments, nil
}

func validPlaceholder(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
