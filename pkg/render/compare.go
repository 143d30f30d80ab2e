package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var ErrSizeMismatch = errors.New("render: image dimensions differ")

// CompareResult contains the results of an image comparison.
type CompareResult struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // largest channel difference found
	// Diff is set when CompareOptions.Diff is true: differing pixels in red
	// over a grayscale copy of actual.
	Diff *image.NRGBA
}

// DifferentPercent is the share of differing pixels, in percent.
func (r *CompareResult) DifferentPercent() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.DifferentPixels) / float64(r.TotalPixels) * 100
}

type CompareOptions struct {
	// Tolerance is the maximum allowed difference per channel (0-255).
	Tolerance int

	// FuzzyRadius lets a pixel match any expected pixel within this radius.
	FuzzyRadius int

	// MaxDifferentPercent passes the comparison when at most this share of
	// pixels differ.
	MaxDifferentPercent float64

	Diff bool
}

func DefaultCompareOptions() CompareOptions {
	return CompareOptions{Tolerance: 2}
}

// CompareFiles decodes two images of any supported format and compares them.
func CompareFiles(actualPath, expectedPath string, opts CompareOptions) (*CompareResult, error) {
	actual, err := imaging.Open(actualPath)
	if err != nil {
		return nil, fmt.Errorf("open actual image: %w", err)
	}
	expected, err := imaging.Open(expectedPath)
	if err != nil {
		return nil, fmt.Errorf("open expected image: %w", err)
	}
	return Compare(actual, expected, opts)
}

// Compare compares two images pixel by pixel.
func Compare(actual, expected image.Image, opts CompareOptions) (*CompareResult, error) {
	ab, eb := actual.Bounds(), expected.Bounds()
	if ab.Size() != eb.Size() {
		return &CompareResult{}, fmt.Errorf("%w: actual=%v, expected=%v", ErrSizeMismatch, ab.Size(), eb.Size())
	}
	// work in a shared origin
	act := imaging.Clone(actual)
	exp := imaging.Clone(expected)
	bounds := act.Bounds()

	result := &CompareResult{Match: true, TotalPixels: bounds.Dx() * bounds.Dy()}
	if opts.Diff {
		result.Diff = image.NewNRGBA(bounds)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			a := act.NRGBAAt(x, y)
			diff := channelDiff(a, exp.NRGBAAt(x, y))
			result.MaxDifference = max(result.MaxDifference, diff)

			matched := diff <= opts.Tolerance
			if !matched && opts.FuzzyRadius > 0 {
				matched = fuzzyMatch(a, exp, x, y, opts.FuzzyRadius, opts.Tolerance)
			}
			if !matched {
				result.Match = false
				result.DifferentPixels++
			}
			if result.Diff != nil {
				if matched {
					result.Diff.SetNRGBA(x, y, color.NRGBA{a.R, a.R, a.R, 255})
				} else {
					result.Diff.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
				}
			}
		}
	}

	if !result.Match && opts.MaxDifferentPercent > 0 && result.DifferentPercent() <= opts.MaxDifferentPercent {
		result.Match = true
	}
	return result, nil
}

// fuzzyMatch reports whether a matches any expected pixel within radius of (x, y).
func fuzzyMatch(a color.NRGBA, expected *image.NRGBA, x, y, radius, tolerance int) bool {
	bounds := expected.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			p := image.Pt(x+dx, y+dy)
			if !p.In(bounds) {
				continue
			}
			if channelDiff(a, expected.NRGBAAt(p.X, p.Y)) <= tolerance {
				return true
			}
		}
	}
	return false
}

func channelDiff(a, b color.NRGBA) int {
	return max(
		absInt(int(a.R)-int(b.R)),
		absInt(int(a.G)-int(b.G)),
		absInt(int(a.B)-int(b.B)),
		absInt(int(a.A)-int(b.A)),
	)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
