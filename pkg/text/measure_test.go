package text

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticFont(size float64) Font {
	return Font{Face: NewFontStore().Fallback(), Size: size}
}

func TestSyntheticMetrics(t *testing.T) {
	f := syntheticFont(10)
	m := f.Metrics()
	assert.InDelta(t, 8, m.Ascend, 1e-9)
	assert.InDelta(t, 2, m.Descend, 1e-9)
	assert.InDelta(t, 12, f.LineHeight(), 1e-9)
	assert.InDelta(t, 6, m.ZeroAdvance, 1e-9)
}

func TestAdvance_CountsRunes(t *testing.T) {
	f := syntheticFont(10)
	assert.InDelta(t, 30, f.Advance("hello"), 1e-9)
	// multi-byte runes count once
	assert.InDelta(t, 18, f.Advance("été"), 1e-9)
	assert.Zero(t, f.Advance(""))
}

func TestRunContentWidths(t *testing.T) {
	run := Run{Text: "a bb  ccc", Font: syntheticFont(10)}

	// whitespace collapses to single spaces
	assert.InDelta(t, 48, run.MaxContentWidth(), 1e-9)
	assert.InDelta(t, 18, run.MinContentWidth(), 1e-9)

	hard := Run{Text: "aaaa\nbb", Font: syntheticFont(10)}
	assert.InDelta(t, 24, hard.MaxContentWidth(), 1e-9)
}

func TestBreakLines(t *testing.T) {
	run := Run{Text: "aa bb cc", Font: syntheticFont(10)}

	tests := []struct {
		width    float64
		expected []string
	}{
		{1000, []string{"aa bb cc"}},
		{30, []string{"aa bb", "cc"}},
		{12, []string{"aa", "bb", "cc"}},
		// a word wider than the line still gets its own line
		{5, []string{"aa", "bb", "cc"}},
	}
	for _, tt := range tests {
		lines := run.BreakLines(tt.width)
		got := make([]string, len(lines))
		for i, l := range lines {
			got[i] = l.Text
			assert.InDelta(t, run.Font.Advance(l.Text), l.Width, 1e-9)
		}
		assert.Equal(t, tt.expected, got, "width %g", tt.width)
	}
}

func TestBreakLines_HardBreaks(t *testing.T) {
	run := Run{Text: "one\n\ntwo", Font: syntheticFont(10)}
	lines := run.BreakLines(1000)
	require.Len(t, lines, 3)
	assert.Equal(t, "one", lines[0].Text)
	assert.Equal(t, "", lines[1].Text)
	assert.Equal(t, "two", lines[2].Text)
}

func TestFontConfig_FontPath(t *testing.T) {
	cfg := FontConfig{Regular: "r.ttf", Bold: "b.ttf", Monospace: "m.ttf"}
	assert.Equal(t, "r.ttf", cfg.FontPath(false, false, false))
	assert.Equal(t, "b.ttf", cfg.FontPath(true, false, false))
	// no bold italic face configured
	assert.Equal(t, "b.ttf", cfg.FontPath(true, true, false))
	assert.Equal(t, "r.ttf", cfg.FontPath(false, true, false))
	assert.Equal(t, "m.ttf", cfg.FontPath(true, false, true))
}

func TestFontStore_Lookup(t *testing.T) {
	s := NewFontStore()
	face := s.Lookup([]string{"Helvetica", "sans-serif"}, 400, false)
	assert.Same(t, s.Fallback(), face)
	assert.True(t, face.IsSynthetic())

	_, err := s.Face("Helvetica")
	assert.True(t, errors.Is(err, ErrNoSuchFace))
}

func TestFontStore_LoadErrors(t *testing.T) {
	s := NewFontStore()
	_, err := s.Load("broken", []byte("not a font"), 400, false)
	assert.Error(t, err)

	_, err = s.LoadFile("missing", "/nonexistent/font.ttf", 400, false)
	assert.Error(t, err)

	_, err = NewFontStoreFromConfig(FontConfig{Regular: "/nonexistent/font.ttf"})
	assert.Error(t, err)
}
