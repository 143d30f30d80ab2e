package scene

import (
	"fmt"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"boxflow/pkg/css"
	"boxflow/pkg/images"
	"boxflow/pkg/layout"
)

// Builder turns scene nodes into layout boxes.
type Builder struct {
	Images *images.Store
	Logger *zap.Logger
	// Strict fails on invalid declarations instead of skipping them.
	Strict bool
}

func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{Images: images.NewStore(), Logger: logger}
}

// Build returns the root box of s. Boxes with display: table are wrapped the
// way a tree builder does it.
func (b *Builder) Build(s *Scene) (*layout.Box, error) {
	if s.Root == nil {
		return nil, ErrNoRoot
	}
	return b.node(s.Root, nil, s.Dir, "root")
}

func (b *Builder) node(n *Node, parent *css.Computed, dir, path string) (*layout.Box, error) {
	if n.Name != "" {
		path = n.Name
	}
	style, err := css.ComputeInline(n.Style, parent)
	if err != nil {
		if b.Strict {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		b.Logger.Warn("skipping invalid declarations", zap.String("node", path), zap.Error(err))
	}

	var box *layout.Box
	switch {
	case n.Text != "" && (n.Image != "" || len(n.Children) > 0):
		return nil, fmt.Errorf("%w: %s: text nodes have no image or children", ErrInvalid, path)
	case n.Image != "" && len(n.Children) > 0:
		return nil, fmt.Errorf("%w: %s: image nodes have no children", ErrInvalid, path)
	case n.Text != "":
		box = layout.NewTextBox(style, n.Text)
	case n.Image != "":
		img, err := b.Images.Load(resolvePath(dir, n.Image))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		box = layout.NewImageBox(style, img)
	default:
		box = layout.NewBox(style)
		for i, c := range n.Children {
			child, err := b.node(c, style, dir, path+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			box.Children = append(box.Children, child)
		}
	}

	box.Name = n.Name
	if n.RowSpan != nil {
		if *n.RowSpan < 0 {
			return nil, fmt.Errorf("%w: %s: negative rowspan", ErrInvalid, path)
		}
		box.Attrs.RowSpan = *n.RowSpan
	}
	if n.ColSpan > 0 {
		box.Attrs.ColSpan = n.ColSpan
	}
	if n.Span > 0 {
		box.Attrs.Span = n.Span
	}

	if style.Display == css.DisplayTable {
		return layout.WrapTable(box), nil
	}
	return box, nil
}

func resolvePath(dir, p string) string {
	if images.IsDataURI(p) || images.IsNetworkURL(p) || filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
