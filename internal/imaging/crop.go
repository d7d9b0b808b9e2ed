package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// DefaultMaxWidth bounds the working width of a document image.
const DefaultMaxWidth = 800

// DefaultBandFraction is the share of the image height, measured from the
// bottom, that holds a passport MRZ.
const DefaultBandFraction = 0.25

// PNGResult contains an encoded image ready to hand to a client.
type PNGResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// ScaleToMaxWidth shrinks an image so it is at most maxWidth pixels wide,
// preserving aspect ratio. Narrower images are returned unchanged; images are
// never enlarged. A maxWidth of zero or less disables scaling.
func ScaleToMaxWidth(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
}

// CropBottomBand extracts the bottom part of an image.
//
// Parameters:
//   - img: The document image.
//   - fraction: Share of the height to keep, in (0, 1]. 1 keeps the full
//     frame.
//
// Returns the band, starting at (0,0). The band height is
// floor(height*fraction); a zero-height result is an empty image rather than
// an error so degenerate input flows through the pipeline as a no-op.
//
// # Errors
//
//   - Returns error if fraction is outside (0, 1]
func CropBottomBand(img image.Image, fraction float64) (image.Image, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("band fraction %.3f outside (0, 1]", fraction)
	}

	bounds := img.Bounds()
	bandHeight := int(float64(bounds.Dy()) * fraction)
	if bandHeight <= 0 || bounds.Dx() <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0)), nil
	}

	rect := image.Rect(bounds.Min.X, bounds.Max.Y-bandHeight, bounds.Max.X, bounds.Max.Y)
	return imaging.Crop(img, rect), nil
}

// EncodePNG encodes an image as base64 PNG.
func EncodePNG(img image.Image) (*PNGResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &PNGResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// PNGBytes encodes an image as raw PNG bytes, the form OCR engines accept.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
