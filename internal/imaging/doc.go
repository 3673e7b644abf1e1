// Package imaging connects mask images and label grids to image files.
//
// It covers the two image-facing ends of kernel growth: decoding per-kernel
// mask images into binary planes, and drawing the resulting label grid as a
// color image for inspection.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Images with a non-zero origin are re-based so their top-left pixel is
//     plane cell (0, 0)
//
// # Supported Formats
//
// Mask images may be PNG, JPEG, GIF, BMP, TIFF or TGA. Label grids render to
// PNG or lossless WebP.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Binarization and rendering
// are stateless and can run concurrently on different inputs.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O errors during image loading
//   - Undecodable or empty images
//   - Mask images whose sizes disagree within one stack
//   - Encoding errors during image output
package imaging
