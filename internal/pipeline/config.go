package pipeline

import (
	"errors"
	"fmt"

	"github.com/ironsheep/mrz-visa-mcp/internal/imaging"
	"github.com/ironsheep/mrz-visa-mcp/internal/mrz"
)

// ErrInvalidConfig is returned by Config.Validate and NewScanner.
var ErrInvalidConfig = errors.New("invalid pipeline config")

// Config holds the knobs of the scan pipeline. The zero value is not valid;
// start from DefaultConfig.
type Config struct {
	// CropFraction is the share of the image height, from the bottom, that
	// is searched first. 1 searches the full frame.
	CropFraction float64 `json:"crop_fraction"`

	// MaxWidth bounds the width of the region handed to OCR.
	MaxWidth int `json:"max_width"`

	// MinCandidateLength is the shortest OCR line accepted as an MRZ
	// candidate.
	MinCandidateLength int `json:"min_candidate_length"`

	// Substitutions maps OCR confusions to their intended characters.
	// Nil uses mrz.DefaultSubstitutions; an empty map disables them.
	Substitutions map[byte]byte `json:"-"`

	// SubstitutionScope selects where Substitutions apply.
	SubstitutionScope mrz.Scope `json:"-"`

	// FullFrameFallback retries once on the whole image when the bottom band
	// yields no MRZ.
	FullFrameFallback bool `json:"full_frame_fallback"`

	// Enhance configures the optional clean-up before binarization.
	Enhance imaging.EnhanceOptions `json:"enhance"`
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		CropFraction:       imaging.DefaultBandFraction,
		MaxWidth:           imaging.DefaultMaxWidth,
		MinCandidateLength: mrz.DefaultMinCandidateLength,
		SubstitutionScope:  mrz.ScopeNumericFields,
		FullFrameFallback:  true,
	}
}

// Validate checks every knob and returns an error wrapping
// ErrInvalidConfig for the first one out of range.
func (c Config) Validate() error {
	if c.CropFraction <= 0 || c.CropFraction > 1 {
		return fmt.Errorf("%w: crop fraction %.3f outside (0, 1]", ErrInvalidConfig, c.CropFraction)
	}
	if c.MaxWidth <= 0 {
		return fmt.Errorf("%w: max width %d must be positive", ErrInvalidConfig, c.MaxWidth)
	}
	if c.MinCandidateLength < 1 || c.MinCandidateLength > mrz.LineLength {
		return fmt.Errorf("%w: min candidate length %d outside [1, %d]",
			ErrInvalidConfig, c.MinCandidateLength, mrz.LineLength)
	}
	if c.SubstitutionScope != mrz.ScopeNumericFields && c.SubstitutionScope != mrz.ScopeWholeLine {
		return fmt.Errorf("%w: unknown substitution scope %d", ErrInvalidConfig, c.SubstitutionScope)
	}
	if _, err := c.normalizer(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Enhance.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) normalizer() (*mrz.Normalizer, error) {
	if c.Substitutions == nil {
		return mrz.DefaultNormalizer(), nil
	}
	return mrz.NewNormalizer(c.Substitutions)
}
