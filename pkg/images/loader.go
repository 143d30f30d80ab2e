package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidDataURI = errors.New("invalid data URI")

// Image is a decoded image with its natural size in px.
type Image struct {
	Source string
	Pixels image.Image
	Width  float64
	Height float64
}

func newImage(source string, img image.Image) *Image {
	b := img.Bounds()
	return &Image{Source: source, Pixels: img, Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// AspectRatio is width over height, or 0 for an empty image.
func (i *Image) AspectRatio() float64 {
	if i.Height == 0 {
		return 0
	}
	return i.Width / i.Height
}

// Store caches decoded images for one tree. It is safe for concurrent use;
// concurrent loads of one source decode it once. Fetcher serves http and
// https sources and may be nil.
type Store struct {
	Fetcher Fetcher

	cache  map[string]*Image
	mu     sync.RWMutex
	flight singleflight.Group
}

func NewStore() *Store {
	return &Store{cache: make(map[string]*Image)}
}

// Load returns the image at path, decoding it on first use. Data URIs and
// http(s) URLs are accepted in place of a path.
func (s *Store) Load(path string) (*Image, error) {
	return s.LoadContext(context.Background(), path)
}

func (s *Store) LoadContext(ctx context.Context, path string) (*Image, error) {
	s.mu.RLock()
	if img, ok := s.cache[path]; ok {
		s.mu.RUnlock()
		return img, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.flight.Do(path, func() (any, error) {
		img, err := s.decode(ctx, path)
		if err != nil {
			return nil, err
		}
		res := newImage(path, img)
		s.mu.Lock()
		s.cache[path] = res
		s.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Image), nil
}

func (s *Store) decode(ctx context.Context, path string) (image.Image, error) {
	switch {
	case IsDataURI(path):
		return LoadImageFromDataURI(path)
	case IsNetworkURL(path):
		if s.Fetcher == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoFetcher, path)
		}
		body, _, err := s.Fetcher.Fetch(ctx, path)
		if err != nil {
			return nil, err
		}
		img, _, err := image.Decode(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("decode image %s: %w", path, err)
		}
		return img, nil
	}
	return decodeFile(path)
}

// Add registers an already decoded image under name.
func (s *Store) Add(name string, img image.Image) *Image {
	res := newImage(name, img)
	s.mu.Lock()
	s.cache[name] = res
	s.mu.Unlock()
	return res
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// LoadImageFromDataURI decodes a data:[<mediatype>][;base64],<data> URI.
func LoadImageFromDataURI(uri string) (image.Image, error) {
	if !IsDataURI(uri) {
		return nil, ErrInvalidDataURI
	}
	meta, data, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing ','", ErrInvalidDataURI)
	}

	var raw []byte
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		raw = b
	} else {
		s, err := url.PathUnescape(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		raw = []byte(s)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return img, nil
}
