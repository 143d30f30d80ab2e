package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripComments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"between declarations", "color: red; /* c */ width: 1px", "color: red;  width: 1px"},
		{"unterminated", "color: red; /* open", "color: red; "},
		{"does not nest", "/* outer /* inner */ still-outside */", " still-outside */"},
		{"declaration-like content", "/* color: red; */", ""},
		{"empty comment", "/**/", ""},
		{"stars", "/*** c ***/", ""},
		{"inside string", `content: "/* kept */"`, `content: "/* kept */"`},
		{"none", "color: red", "color: red"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripComments(tt.input))
		})
	}
}

func TestSplitDeclarations(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a: 1; b: 2", []string{"a: 1", "b: 2"}},
		{" ; a: 1;; ", []string{"a: 1"}},
		{`content: "x;y"; b: 2`, []string{`content: "x;y"`, "b: 2"}},
		{"content: url(a;b); b: 2", []string{"content: url(a;b)", "b: 2"}},
		{`content: "open; b: 2`, []string{`content: "open; b: 2`}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitDeclarations(tt.in))
		})
	}
}

func TestParseInlineStyle_Recovery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{"no colon", `junk; color: red`, map[string]string{"color": "red"}},
		{"empty value", `bad: ; color: green`, map[string]string{"color": "green"}},
		{"numeric property", `123abc: red; color: blue`, map[string]string{"color": "blue"}},
		{"vendor prefix", `-webkit-thing: x; color: red`, map[string]string{"-webkit-thing": "x", "color": "red"}},
		{"important", `width: 10px !important`, map[string]string{"width": "10px"}},
		{"comments", `color: /* not */ red; /* width: 1px; */ height: 2px`, map[string]string{"color": "red", "height": "2px"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInlineStyle(tt.in).Properties)
		})
	}
}
