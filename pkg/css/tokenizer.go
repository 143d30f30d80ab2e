package css

import "strings"

// StripComments removes /* */ comments outside strings. An unterminated
// comment runs to the end of the input and comments do not nest.
func StripComments(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"' || s[i] == '\'':
			end := min(skipString(s, i)+1, len(s))
			b.WriteString(s[i:end])
			i = end - 1
		case strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += 2 + end + 1
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// splitDeclarations splits a declaration list at semicolons outside strings,
// parentheses and brackets.
func splitDeclarations(s string) []string {
	var decls []string
	depth, start := 0, 0
	emit := func(end int) {
		if d := strings.TrimSpace(s[start:end]); d != "" {
			decls = append(decls, d)
		}
	}
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '"' || ch == '\'':
			i = skipString(s, i)
		case ch == '\\':
			i++
		case ch == '(' || ch == '[':
			depth++
		case (ch == ')' || ch == ']') && depth > 0:
			depth--
		case ch == ';' && depth == 0:
			emit(i)
			start = i + 1
		}
	}
	emit(len(s))
	return decls
}

// skipString returns the index of the quote closing the string opened at
// i. An unclosed string ends at the next newline.
func skipString(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote, '\n':
			return j
		}
	}
	return len(src)
}
