package imaging

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// decoder pairs a file signature with the function that decodes it.
type decoder struct {
	magic  []byte
	decode func(io.Reader) (image.Image, error)
}

// The tga package registers itself with image.RegisterFormat under an empty
// signature, which makes image.Decode hand every file to it. Formats are
// therefore chosen here by signature, and TGA (which has none) by extension.
var decoders = []decoder{
	{[]byte("\x89PNG\r\n\x1a\n"), png.Decode},
	{[]byte("\xff\xd8"), jpeg.Decode},
	{[]byte("GIF8"), gif.Decode},
	{[]byte("BM"), bmp.Decode},
	{[]byte("II*\x00"), tiff.Decode},
	{[]byte("MM\x00*"), tiff.Decode},
}

// decodeImage decodes r by its leading bytes, falling back to TGA for
// .tga paths.
func decodeImage(path string, r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(8)
	for _, d := range decoders {
		if bytes.HasPrefix(head, d.magic) {
			return d.decode(br)
		}
	}
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		return tga.Decode(br)
	}
	return nil, image.ErrFormat
}

// ImageCache provides thread-safe caching of decoded mask images.
//
// Entries are keyed by the cleaned absolute path, so "./a.png" and the
// absolute path of the same file share one entry. Mask stacks are usually
// reloaded with different thresholds while tuning, and the cache spares the
// repeated decode.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until removed via Evict() or Clear().
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and TGA.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not in a supported format
func (c *ImageCache) Load(path string) (image.Image, error) {
	key := cacheKey(path)

	c.mu.RLock()
	if img, ok := c.images[key]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := decodeImage(path, f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes one image from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, cacheKey(path))
	c.mu.Unlock()
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
