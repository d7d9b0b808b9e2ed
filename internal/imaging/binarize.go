package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// PixelRegion is a row-major pixel buffer with no stride padding.
//
// Channels is 1 (grayscale), 3 (RGB) or 4 (RGBA). Pix holds
// Width*Height*Channels bytes. The zero value is an empty region.
type PixelRegion struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewPixelRegion allocates a zeroed region.
func NewPixelRegion(width, height, channels int) PixelRegion {
	if width <= 0 || height <= 0 || channels <= 0 {
		return PixelRegion{}
	}
	return PixelRegion{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Empty reports whether the region has no pixels to process.
func (r PixelRegion) Empty() bool {
	return r.Width <= 0 || r.Height <= 0 || r.Channels <= 0 || len(r.Pix) == 0
}

// pixels returns the number of whole pixels actually backed by Pix.
func (r PixelRegion) pixels() int {
	n := r.Width * r.Height
	if avail := len(r.Pix) / r.Channels; avail < n {
		n = avail
	}
	return n
}

// Luma converts an RGB triple to 8-bit luminance using the ITU-R BT.601
// weights 0.299, 0.587 and 0.114, rounded to nearest.
func Luma(r, g, b uint8) uint8 {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
	return uint8(math.Min(255, math.Round(y)))
}

// LumaHistogram counts the luma value of every pixel in the region.
//
// For 1-channel regions the stored value is the luma; otherwise it is
// computed from the first three channels.
func LumaHistogram(region PixelRegion) [256]int {
	var hist [256]int
	if region.Empty() {
		return hist
	}
	ch := region.Channels
	for i, n := 0, region.pixels(); i < n; i++ {
		hist[lumaAt(region.Pix, i*ch, ch)]++
	}
	return hist
}

func lumaAt(pix []uint8, off, ch int) uint8 {
	if ch < 3 {
		return pix[off]
	}
	return Luma(pix[off], pix[off+1], pix[off+2])
}

// OtsuThreshold selects the global threshold that maximizes the
// between-class variance of a 256-bucket histogram.
//
// # Algorithm
//
// For every candidate t in [0,255] pixels split into a background class
// (value < t) and a foreground class (value >= t). With class weights wB, wF
// (pixel counts) and class means mB, mF the score is:
//
//	wB * wF * (mB - mF)^2
//
// Candidates that leave either class empty are skipped. The first candidate
// with the maximum score wins, scanning ascending.
//
// Returns 0 when no candidate splits the histogram (empty or single-valued
// input), which maps every pixel to white.
func OtsuThreshold(hist [256]int) uint8 {
	var total, sum float64
	for v, c := range hist {
		total += float64(c)
		sum += float64(v) * float64(c)
	}

	var (
		wB, sumB  float64
		best      float64
		threshold int
		found     bool
	)
	for t := 0; t < 256; t++ {
		if t > 0 {
			wB += float64(hist[t-1])
			sumB += float64(t-1) * float64(hist[t-1])
		}
		wF := total - wB
		if wB == 0 || wF == 0 {
			continue
		}
		mB := sumB / wB
		mF := (sum - sumB) / wF
		score := wB * wF * (mB - mF) * (mB - mF)
		if !found || score > best {
			best = score
			threshold = t
			found = true
		}
	}
	return uint8(threshold)
}

// Stats describes one binarization run.
type Stats struct {
	// Threshold is the Otsu threshold; luma below it became black.
	Threshold uint8 `json:"threshold"`

	// InkPixels counts pixels mapped to 0, PaperPixels those mapped to 255.
	InkPixels   int `json:"ink_pixels"`
	PaperPixels int `json:"paper_pixels"`

	// InkColor and PaperColor are the mean source colors of each class as
	// "#rrggbb". Empty when the class has no pixels.
	InkColor   string `json:"ink_color,omitempty"`
	PaperColor string `json:"paper_color,omitempty"`

	// Contrast is the CIE Lab distance between the two mean colors. Low
	// values (below ~0.2) usually mean a washed-out or blank crop.
	Contrast float64 `json:"contrast"`
}

// Binarize converts a region to black and white with a global Otsu
// threshold.
//
// Parameters:
//   - region: Source pixels. Never modified and never retained.
//
// Returns a new region of the same dimensions and channel count. The three
// color channels of every pixel are 0 or 255; alpha is copied unchanged. An
// empty region returns an empty region.
//
// # Algorithm
//
//  1. Grayscale: luma = 0.299*R + 0.587*G + 0.114*B, written to all three
//     color channels
//  2. Histogram of luma values
//  3. Threshold selection with OtsuThreshold
//  4. Luma below the threshold becomes 0, everything else 255
//
// Exactly one working copy of the pixel buffer is allocated. The result is
// deterministic for identical input.
func Binarize(region PixelRegion) PixelRegion {
	out, _ := BinarizeWithStats(region)
	return out
}

// BinarizeWithStats is Binarize that also reports the threshold, class sizes
// and mean class colors.
func BinarizeWithStats(region PixelRegion) (PixelRegion, Stats) {
	if region.Empty() {
		return PixelRegion{}, Stats{}
	}

	ch := region.Channels
	n := region.pixels()
	out := PixelRegion{
		Width:    region.Width,
		Height:   region.Height,
		Channels: ch,
		Pix:      make([]uint8, len(region.Pix)),
	}
	copy(out.Pix, region.Pix)

	var hist [256]int
	for i := 0; i < n; i++ {
		off := i * ch
		y := lumaAt(out.Pix, off, ch)
		if ch >= 3 {
			out.Pix[off], out.Pix[off+1], out.Pix[off+2] = y, y, y
		}
		hist[y]++
	}

	t := OtsuThreshold(hist)

	var ink, paper classMean
	for i := 0; i < n; i++ {
		off := i * ch
		v := uint8(255)
		if out.Pix[off] < t {
			v = 0
			ink.add(region.Pix, off, ch)
		} else {
			paper.add(region.Pix, off, ch)
		}
		out.Pix[off] = v
		if ch >= 3 {
			out.Pix[off+1], out.Pix[off+2] = v, v
		}
	}

	stats := Stats{
		Threshold:   t,
		InkPixels:   ink.n,
		PaperPixels: paper.n,
	}
	if ink.n > 0 {
		stats.InkColor = ink.color().Hex()
	}
	if paper.n > 0 {
		stats.PaperColor = paper.color().Hex()
	}
	if ink.n > 0 && paper.n > 0 {
		stats.Contrast = math.Round(ink.color().DistanceLab(paper.color())*1000) / 1000
	}
	return out, stats
}

// classMean accumulates source colors of one threshold class.
type classMean struct {
	r, g, b float64
	n       int
}

func (c *classMean) add(pix []uint8, off, ch int) {
	if ch < 3 {
		v := float64(pix[off])
		c.r, c.g, c.b = c.r+v, c.g+v, c.b+v
	} else {
		c.r += float64(pix[off])
		c.g += float64(pix[off+1])
		c.b += float64(pix[off+2])
	}
	c.n++
}

func (c *classMean) color() colorful.Color {
	d := float64(c.n) * 255
	return colorful.Color{R: c.r / d, G: c.g / d, B: c.b / d}
}

// FromImage copies an image into a 4-channel RGBA region.
//
// The copy goes through imaging.Clone, so the result always starts at (0,0)
// with a tightly packed stride regardless of the source image type.
func FromImage(img image.Image) PixelRegion {
	if img == nil || img.Bounds().Empty() {
		return PixelRegion{}
	}
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return PixelRegion{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: 4,
		Pix:      nrgba.Pix,
	}
}

// ToImage wraps a region as an image.Image without copying 1- and 4-channel
// buffers. 3-channel regions are expanded to opaque NRGBA.
func ToImage(region PixelRegion) image.Image {
	rect := image.Rect(0, 0, region.Width, region.Height)
	if region.Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	switch region.Channels {
	case 1:
		return &image.Gray{Pix: region.Pix, Stride: region.Width, Rect: rect}
	case 4:
		return &image.NRGBA{Pix: region.Pix, Stride: region.Width * 4, Rect: rect}
	default:
		dst := image.NewNRGBA(rect)
		ch := region.Channels
		for i, n := 0, region.pixels(); i < n; i++ {
			y := lumaAt(region.Pix, i*ch, ch)
			if ch >= 3 {
				dst.Pix[i*4], dst.Pix[i*4+1], dst.Pix[i*4+2] = region.Pix[i*ch], region.Pix[i*ch+1], region.Pix[i*ch+2]
			} else {
				dst.Pix[i*4], dst.Pix[i*4+1], dst.Pix[i*4+2] = y, y, y
			}
			dst.Pix[i*4+3] = 255
		}
		return dst
	}
}
