package services

import (
	"fmt"
	"strings"
)

// BuildPrompt substitutes question into the configured template. The
// template must hold exactly one "{}" (or "{0}") slot; "{{" and "}}" stand
// for literal braces.
func BuildPrompt(template, question string) (string, error) {
	var b strings.Builder
	b.Grow(len(template) + len(question))
	slots := 0

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at offset %d", ErrInvalidPromptTemplate, i)
			}
			if field := template[i+1 : i+end]; field != "" && field != "0" {
				return "", fmt.Errorf("%w: unknown placeholder {%s}", ErrInvalidPromptTemplate, field)
			}
			slots++
			b.WriteString(question)
			i += end
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrInvalidPromptTemplate, i)
		default:
			b.WriteByte(c)
		}
	}

	if slots != 1 {
		return "", fmt.Errorf("%w: want exactly one question slot, found %d", ErrInvalidPromptTemplate, slots)
	}
	return b.String(), nil
}
