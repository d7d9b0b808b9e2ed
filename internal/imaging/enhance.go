package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
)

// EnhanceOptions configures the optional clean-up pass that runs before
// binarization. The zero value disables it.
type EnhanceOptions struct {
	// MedianRadius removes salt-and-pepper noise from camera captures.
	// 0 disables the filter; 1 or 2 is usually enough.
	MedianRadius float64 `json:"median_radius"`

	// Contrast is a relative change in [-1, 1]. Positive values separate
	// faint print from the background. 0 disables the adjustment.
	Contrast float64 `json:"contrast"`
}

// Enabled reports whether any enhancement step is active.
func (o EnhanceOptions) Enabled() bool {
	return o.MedianRadius > 0 || o.Contrast != 0
}

// Validate checks option ranges.
func (o EnhanceOptions) Validate() error {
	if o.MedianRadius < 0 {
		return fmt.Errorf("median radius %.2f must not be negative", o.MedianRadius)
	}
	if o.Contrast < -1 || o.Contrast > 1 {
		return fmt.Errorf("contrast %.2f outside [-1, 1]", o.Contrast)
	}
	return nil
}

// Enhance applies the median filter and then the contrast adjustment.
//
// Both steps are deterministic. With zero options the input image is
// returned as is.
func Enhance(img image.Image, opts EnhanceOptions) image.Image {
	if img.Bounds().Empty() {
		return img
	}
	if opts.MedianRadius > 0 {
		img = effect.Median(img, opts.MedianRadius)
	}
	if opts.Contrast != 0 {
		img = adjust.Contrast(img, opts.Contrast)
	}
	return img
}
