package css

import (
	"sort"
	"strings"
)

// Style is a bag of specified declarations, longhands only.
type Style struct {
	Properties map[string]string
}

func NewStyle() *Style {
	return &Style{Properties: make(map[string]string)}
}

func (s *Style) Get(property string) (string, bool) {
	val, ok := s.Properties[property]
	return val, ok
}

func (s *Style) Set(property, value string) {
	s.Properties[property] = value
}

// Names returns the declared property names in a stable order.
func (s *Style) Names() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseInlineStyle parses "prop: value; prop: value" declarations, expanding
// shorthands. Comments are ignored. Declarations without a colon, with an
// invalid property name or with an empty value are dropped.
func ParseInlineStyle(styleAttr string) *Style {
	style := NewStyle()
	for _, decl := range splitDeclarations(StripComments(styleAttr)) {
		property, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if !isIdent(property) || value == "" {
			continue
		}
		expandShorthand(style, property, value)
	}
	return style
}

// isIdent reports a CSS identifier: letters, digits, '-' and '_', not
// starting with a digit or "-digit".
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '-' || r == '_' || r >= 0x80 || ('a' <= r|0x20 && r|0x20 <= 'z'):
		case '0' <= r && r <= '9':
			if i == 0 || (i == 1 && s[0] == '-') {
				return false
			}
		default:
			return false
		}
	}
	return true
}

var sides = [4]string{"top", "right", "bottom", "left"}

func expandShorthand(style *Style, property, value string) {
	switch property {
	case "margin", "padding":
		expandBoxProperty(style, property+"-%s", value)
	case "inset":
		expandBoxProperty(style, "%s", value)
	case "border-width":
		expandBoxProperty(style, "border-%s-width", value)
	case "border-style":
		expandBoxProperty(style, "border-%s-style", value)
	case "border-color":
		expandBoxProperty(style, "border-%s-color", value)
	case "border":
		for _, side := range sides {
			expandBorderProperty(style, "border-"+side, value)
		}
	case "border-top", "border-right", "border-bottom", "border-left":
		expandBorderProperty(style, property, value)
	case "outline":
		expandBorderProperty(style, "outline", value)
	case "border-radius":
		expandRadius(style, value)
	case "flex":
		expandFlex(style, value)
	case "flex-flow":
		for _, part := range strings.Fields(value) {
			if strings.Contains(part, "wrap") {
				style.Set("flex-wrap", part)
			} else {
				style.Set("flex-direction", part)
			}
		}
	case "break-before", "page-break-before":
		style.Set("break-before", legacyBreak(value))
	case "break-after", "page-break-after":
		style.Set("break-after", legacyBreak(value))
	case "page-break-inside":
		style.Set("break-inside", value)
	default:
		style.Set(property, value)
	}
}

func legacyBreak(value string) string {
	if value == "always" {
		return "page"
	}
	return value
}

// expandBoxProperty expands a 1 to 4 value box shorthand.
// The pattern receives the side name through %s.
func expandBoxProperty(style *Style, pattern, value string) {
	parts := strings.Fields(value)
	var top, right, bottom, left string
	switch len(parts) {
	case 1:
		top, right, bottom, left = parts[0], parts[0], parts[0], parts[0]
	case 2:
		top, right, bottom, left = parts[0], parts[1], parts[0], parts[1]
	case 3:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[1]
	case 4:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[3]
	default:
		return
	}
	for i, v := range [4]string{top, right, bottom, left} {
		style.Set(strings.Replace(pattern, "%s", sides[i], 1), v)
	}
}

// expandBorderProperty expands "1px solid black" into width/style/color longhands.
func expandBorderProperty(style *Style, prefix, value string) {
	for _, part := range strings.Fields(value) {
		if _, ok := borderStyleNames[part]; ok {
			style.Set(prefix+"-style", part)
		} else if _, ok := ParseLength(part); ok || part == "thin" || part == "medium" || part == "thick" {
			style.Set(prefix+"-width", part)
		} else {
			style.Set(prefix+"-color", part)
		}
	}
}

var radiusCorners = [4]string{"top-left", "top-right", "bottom-right", "bottom-left"}

func expandRadius(style *Style, value string) {
	horizontal, vertical, _ := strings.Cut(value, "/")
	h := strings.Fields(horizontal)
	v := strings.Fields(vertical)
	if len(v) == 0 {
		v = h
	}
	pick := func(vals []string, i int) string {
		switch len(vals) {
		case 1:
			return vals[0]
		case 2:
			return vals[i%2]
		case 3:
			if i == 3 {
				return vals[1]
			}
			return vals[i]
		}
		return vals[i]
	}
	if len(h) == 0 || len(h) > 4 || len(v) > 4 {
		return
	}
	for i, corner := range radiusCorners {
		style.Set("border-"+corner+"-radius", pick(h, i)+" "+pick(v, i))
	}
}

// expandFlex follows the flex shorthand: none, auto, <grow> [<shrink>] [<basis>].
func expandFlex(style *Style, value string) {
	switch strings.TrimSpace(value) {
	case "none":
		style.Set("flex-grow", "0")
		style.Set("flex-shrink", "0")
		style.Set("flex-basis", "auto")
		return
	case "auto":
		style.Set("flex-grow", "1")
		style.Set("flex-shrink", "1")
		style.Set("flex-basis", "auto")
		return
	case "initial":
		style.Set("flex-grow", "0")
		style.Set("flex-shrink", "1")
		style.Set("flex-basis", "auto")
		return
	}
	grow, shrink, basis := "", "1", "0%"
	numbers := 0
	for _, part := range strings.Fields(value) {
		if isNumber(part) && numbers < 2 {
			if numbers == 0 {
				grow = part
			} else {
				shrink = part
			}
			numbers++
			continue
		}
		basis = part
	}
	if grow == "" {
		grow = "1"
	}
	style.Set("flex-grow", grow)
	style.Set("flex-shrink", shrink)
	style.Set("flex-basis", basis)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for i, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c == '.' && !dot:
			dot = true
		case (c == '-' || c == '+') && i == 0:
		default:
			return false
		}
	}
	return true
}
