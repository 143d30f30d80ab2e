// Package scene describes box trees in YAML, TOML or a small JavaScript DSL
// and builds them into layout boxes.
package scene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat = errors.New("scene: unknown format")
	ErrNoRoot        = errors.New("scene: no root node")
	ErrInvalid       = errors.New("scene: invalid node")
)

type Viewport struct {
	Width  float64 `yaml:"width" toml:"width" json:"width"`
	Height float64 `yaml:"height" toml:"height" json:"height"`
}

// Node is one box of a scene. Style holds inline CSS declarations. A node
// has either Text, an Image source or Children.
type Node struct {
	Name  string `yaml:"name,omitempty" toml:"name" json:"name,omitempty"`
	Style string `yaml:"style,omitempty" toml:"style" json:"style,omitempty"`
	Text  string `yaml:"text,omitempty" toml:"text" json:"text,omitempty"`
	Image string `yaml:"image,omitempty" toml:"image" json:"image,omitempty"`

	// RowSpan 0 makes a cell grow down to the end of its row group; unset
	// means 1.
	RowSpan *int `yaml:"rowspan,omitempty" toml:"rowspan" json:"rowspan,omitempty"`
	ColSpan int  `yaml:"colspan,omitempty" toml:"colspan" json:"colspan,omitempty"`
	Span    int  `yaml:"span,omitempty" toml:"span" json:"span,omitempty"`

	Children []*Node `yaml:"children,omitempty" toml:"children" json:"children,omitempty"`
}

type Scene struct {
	Viewport Viewport `yaml:"viewport" toml:"viewport"`
	Root     *Node    `yaml:"root" toml:"root"`

	// Dir resolves relative image paths. Set by Load.
	Dir string `yaml:"-" toml:"-"`
}

// Load reads a scene file, picking the decoder from the extension.
func Load(ctx context.Context, path string, logger *zap.Logger) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	var s *Scene
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		s, err = DecodeYAML(bytes.NewReader(data))
	case ".toml":
		s, err = DecodeTOML(bytes.NewReader(data))
	case ".js":
		s, err = RunScript(ctx, path, string(data), logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

func DecodeYAML(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Scene
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return checkRoot(&s)
}

func DecodeTOML(r io.Reader) (*Scene, error) {
	var s Scene
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode toml: unknown keys %v", undecoded)
	}
	return checkRoot(&s)
}

func checkRoot(s *Scene) (*Scene, error) {
	if s.Root == nil {
		return nil, ErrNoRoot
	}
	return s, nil
}

// Walk visits n and its descendants depth-first.
func (n *Node) Walk(fn func(n *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(n *Node, depth int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}
