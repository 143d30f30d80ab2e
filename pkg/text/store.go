package text

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
)

var ErrNoSuchFace = errors.New("no such font face")

// FontConfig holds paths to font files used for text measurement.
type FontConfig struct {
	Regular    string
	Bold       string
	Italic     string
	BoldItalic string
	Monospace  string
}

// FontPath returns the configured path for the given style combination.
func (fc FontConfig) FontPath(bold, italic, mono bool) string {
	if mono && fc.Monospace != "" {
		return fc.Monospace
	}
	if bold && italic && fc.BoldItalic != "" {
		return fc.BoldItalic
	}
	if bold && fc.Bold != "" {
		return fc.Bold
	}
	if italic && fc.Italic != "" {
		return fc.Italic
	}
	return fc.Regular
}

// FontStore owns every face used by one tree. It is created with the tree
// builder and dropped with it; there is no process-wide font cache.
type FontStore struct {
	mu       sync.RWMutex
	faces    map[string]*Face
	config   FontConfig
	fallback *Face
}

func NewFontStore() *FontStore {
	return &FontStore{
		faces:    make(map[string]*Face),
		fallback: newSyntheticFace("synthetic"),
	}
}

// NewFontStoreFromConfig loads every configured path. A missing path is an error;
// an empty one is skipped.
func NewFontStoreFromConfig(cfg FontConfig) (*FontStore, error) {
	s := NewFontStore()
	s.config = cfg
	for _, p := range []struct {
		path   string
		weight int
		italic bool
	}{
		{cfg.Regular, 400, false},
		{cfg.Bold, 700, false},
		{cfg.Italic, 400, true},
		{cfg.BoldItalic, 700, true},
		{cfg.Monospace, 400, false},
	} {
		if p.path == "" {
			continue
		}
		if _, err := s.LoadFile(p.path, p.path, p.weight, p.italic); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LoadFile parses a TrueType file and registers it under name.
func (s *FontStore) LoadFile(name, path string, weight int, italic bool) (*Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	return s.Load(name, data, weight, italic)
}

// Load parses TrueType data and registers it under name.
func (s *FontStore) Load(name string, data []byte, weight int, italic bool) (*Face, error) {
	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	face := newFace(name, ttf, weight, italic)
	s.mu.Lock()
	s.faces[strings.ToLower(name)] = face
	s.mu.Unlock()
	return face, nil
}

func (s *FontStore) Face(name string) (*Face, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	face, ok := s.faces[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchFace, name)
	}
	return face, nil
}

// Fallback is the face used when nothing matches.
func (s *FontStore) Fallback() *Face { return s.fallback }

// Lookup picks a face for a family list and style. Families are tried by name
// first, then the configured paths, then the synthetic fallback.
func (s *FontStore) Lookup(families []string, weight int, italic bool) *Face {
	for _, family := range families {
		if face, err := s.Face(family); err == nil {
			return face
		}
	}
	mono := false
	for _, family := range families {
		if strings.EqualFold(family, "monospace") {
			mono = true
		}
	}
	if path := s.config.FontPath(weight >= 600, italic, mono); path != "" {
		if face, err := s.Face(path); err == nil {
			return face
		}
	}
	return s.fallback
}
