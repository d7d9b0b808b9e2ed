// Package imaging provides the image side of MRZ extraction.
//
// This package loads document images, locates the band that holds the
// machine readable zone, scales it to a bounded working width, optionally
// cleans it up, and binarizes it with Otsu's method so the OCR engine sees
// black glyphs on a white background.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with (0,0) at the
// top-left corner. Every returned image is rebased so its bounds start at
// the origin.
//
// # Pixel Regions
//
// Binarization works on PixelRegion, a row-major byte buffer with 1, 3 or 4
// channels per pixel. FromImage and ToImage convert between regions and
// standard image.Image values. Regions handed to Binarize are never
// modified.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless and may be called concurrently.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Band fractions outside (0, 1]
//   - Files that are missing or cannot be decoded (ErrNotImage)
//   - Encoding errors during image output
//
// Degenerate images (zero width or height) are not errors: they produce
// empty results that later stages treat as "nothing found".
package imaging
