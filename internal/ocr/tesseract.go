package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/mrz-visa-mcp/internal/imaging"
)

// MRZAllowlist is the character set of a machine readable zone.
const MRZAllowlist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// Recognizer turns a prepared image into raw OCR text.
//
// Implementations must be safe for concurrent use; batch scans call
// Recognize from several goroutines at once.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Options configures a TesseractRecognizer.
type Options struct {
	// Language is the Tesseract language code. Defaults to "eng".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	// Empty uses the Tesseract installation default.
	TessdataPrefix string

	// Allowlist restricts the recognized characters. Defaults to
	// MRZAllowlist.
	Allowlist string

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// TesseractRecognizer recognizes MRZ text with Tesseract via gosseract.
//
// Every call creates its own gosseract client, because a client holds a
// single image and is not safe for concurrent use.
type TesseractRecognizer struct {
	opts Options
	log  *slog.Logger
}

// NewTesseractRecognizer creates a recognizer, filling unset options with
// their defaults.
func NewTesseractRecognizer(opts Options) *TesseractRecognizer {
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Allowlist == "" {
		opts.Allowlist = MRZAllowlist
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &TesseractRecognizer{opts: opts, log: log.With("component", "ocr")}
}

// Recognize runs Tesseract over img and returns the recognized text.
//
// The page segmentation mode is PSM_SINGLE_BLOCK: the MRZ band is one
// uniform block of two lines. The image is handed over as PNG bytes so no
// temporary files are created.
//
// # Errors
//
//   - ctx.Err() if the context is already done
//   - Configuration errors from Tesseract (unknown language, bad tessdata)
//   - Recognition failures
func (r *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if img.Bounds().Empty() {
		return "", nil
	}

	data, err := imaging.PNGBytes(img)
	if err != nil {
		return "", err
	}

	client, err := r.newClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	r.log.Debug("recognized text",
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"chars", len(text))
	return text, nil
}

func (r *TesseractRecognizer) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if r.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(r.opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetWhitelist(r.opts.Allowlist); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set allowlist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return client, nil
}

// Info contains information about the OCR subsystem.
type Info struct {
	Available      bool   `json:"available"`
	Version        string `json:"version,omitempty"`
	Backend        string `json:"backend"`
	Language       string `json:"language"`
	TessdataPrefix string `json:"tessdata_prefix,omitempty"`
	Allowlist      string `json:"allowlist"`
}

// Info reports the Tesseract version and the recognizer configuration.
func (r *TesseractRecognizer) Info() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	return Info{
		Available:      version != "",
		Version:        version,
		Backend:        "gosseract",
		Language:       r.opts.Language,
		TessdataPrefix: r.opts.TessdataPrefix,
		Allowlist:      r.opts.Allowlist,
	}
}
