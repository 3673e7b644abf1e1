package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/pse-mcp/internal/mask"
)

// DefaultLevel is the gray level at or above which a mask pixel counts as
// foreground. Masks exported as 0/255 images split cleanly at the midpoint.
const DefaultLevel = 128

// MaskInfo describes a binarized mask image.
type MaskInfo struct {
	// Width of the mask in pixels.
	Width int `json:"width"`

	// Height of the mask in pixels.
	Height int `json:"height"`

	// Foreground is the number of pixels at or above the threshold level.
	Foreground int `json:"foreground"`

	// Level is the threshold that was applied.
	Level uint8 `json:"level"`
}

// PlaneFromImage binarizes an image into a mask plane.
//
// Parameters:
//   - img: Source mask image (color or grayscale).
//   - level: Gray threshold (0-255). Pixels with luminance >= level are
//     foreground. A level of 0 marks every pixel as foreground.
//
// Returns:
//   - *mask.Plane: Plane with the image's width and height. Pixel (0,0) of
//     the plane is the top-left pixel of img.Bounds(), whatever its origin.
//   - error: Non-nil if the image is empty.
//
// # Algorithm
//
//  1. Grayscale conversion with imaging.Grayscale (luminance weights)
//  2. Threshold with bild's segment.Threshold, giving 255 for foreground
//  3. Every non-zero pixel of the thresholded image becomes a true cell
func PlaneFromImage(img image.Image, level uint8) (*mask.Plane, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("mask image is %dx%d: %w", width, height, mask.ErrInvalidShape)
	}

	gray := imaging.Grayscale(img)
	bin := segment.Threshold(gray, level)

	b := bin.Bounds()
	cells := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cells[y*width+x] = bin.GrayAt(b.Min.X+x, b.Min.Y+y).Y != 0
		}
	}
	return mask.NewPlane(width, height, cells)
}

// LoadPlane loads a mask image through the cache and binarizes it.
func LoadPlane(cache *ImageCache, path string, level uint8) (*mask.Plane, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	p, err := PlaneFromImage(img, level)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize %s: %w", path, err)
	}
	return p, nil
}

// LoadMaskInfo loads and binarizes a mask image and reports its size and
// foreground pixel count.
func LoadMaskInfo(cache *ImageCache, path string, level uint8) (*MaskInfo, error) {
	p, err := LoadPlane(cache, path, level)
	if err != nil {
		return nil, err
	}
	return &MaskInfo{
		Width:      p.Width(),
		Height:     p.Height(),
		Foreground: p.Count(),
		Level:      level,
	}, nil
}

// LoadStack loads one mask image per kernel into a validated stack.
//
// Paths are ordered like the stack itself: the largest kernel first and the
// seed (smallest) kernel last. All images must share the same dimensions.
//
// # Errors
//
//   - mask.ErrEmptyStack if paths is empty
//   - mask.ErrShapeMismatch if the images differ in size
//   - load and decode errors from the cache
func LoadStack(cache *ImageCache, paths []string, level uint8) (mask.Stack, error) {
	if len(paths) == 0 {
		return nil, mask.ErrEmptyStack
	}
	planes := make([]*mask.Plane, 0, len(paths))
	for _, path := range paths {
		p, err := LoadPlane(cache, path, level)
		if err != nil {
			return nil, err
		}
		planes = append(planes, p)
	}
	return mask.NewStack(planes...)
}
