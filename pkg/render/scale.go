package render

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/disintegration/imaging"
)

// Scale resizes img by factor with a Lanczos filter. A factor of 1 returns
// img unchanged.
func Scale(img image.Image, factor float64) (image.Image, error) {
	if factor <= 0 || math.IsInf(factor, 0) || math.IsNaN(factor) {
		return nil, fmt.Errorf("render: invalid scale factor %g", factor)
	}
	if factor == 1 {
		return img, nil
	}
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*factor)))
	h := max(1, int(math.Round(float64(b.Dy())*factor)))
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// SavePNG writes img to path as PNG whatever the extension.
func SavePNG(img image.Image, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("render: close %s: %w", path, cerr)
		}
	}()
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		return fmt.Errorf("render: encode %s: %w", path, err)
	}
	return nil
}
