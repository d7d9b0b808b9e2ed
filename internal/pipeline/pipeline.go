package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/mrz-visa-mcp/internal/imaging"
	"github.com/ironsheep/mrz-visa-mcp/internal/metrics"
	"github.com/ironsheep/mrz-visa-mcp/internal/mrz"
	"github.com/ironsheep/mrz-visa-mcp/internal/ocr"
	"github.com/ironsheep/mrz-visa-mcp/internal/visa"
)

// Region names reported in Result.Region.
const (
	RegionBand = "band"
	RegionFull = "full"
)

// Result is the outcome of one successful scan.
type Result struct {
	// ScanID identifies the scan in logs.
	ScanID string `json:"scan_id"`

	// Region is RegionBand or RegionFull, whichever produced the MRZ.
	Region string `json:"region"`

	// Candidates are the two OCR lines selected as the MRZ, as read.
	Candidates [2]string `json:"candidates"`

	// Lines are the two canonical 44-character lines that were parsed.
	Lines [2]string `json:"lines"`

	Document mrz.Document  `json:"document"`
	Stats    imaging.Stats `json:"binarization"`
}

// Scanner runs the scan pipeline: crop, scale, binarize, recognize, select
// candidates and parse.
//
// A Scanner holds only read-only configuration and is safe for concurrent
// use.
type Scanner struct {
	cfg     Config
	norm    *mrz.Normalizer
	rec     ocr.Recognizer
	metrics *metrics.Metrics
	log     *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Scanner) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records scan and assessment metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// NewScanner validates cfg and creates a Scanner that recognizes text with
// rec.
func NewScanner(cfg Config, rec ocr.Recognizer, opts ...Option) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: no recognizer", ErrInvalidConfig)
	}
	norm, err := cfg.normalizer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s := &Scanner{
		cfg:  cfg,
		norm: norm,
		rec:  rec,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "pipeline")
	return s, nil
}

// Config returns the scanner configuration.
func (s *Scanner) Config() Config {
	return s.cfg
}

// Prepare crops the bottom band of img, scales it to the configured maximum
// width, applies the optional enhancement and binarizes it.
func (s *Scanner) Prepare(img image.Image) (imaging.PixelRegion, imaging.Stats, error) {
	return s.prepare(img, s.cfg.CropFraction)
}

// PrepareFull is Prepare over the whole frame.
func (s *Scanner) PrepareFull(img image.Image) (imaging.PixelRegion, imaging.Stats, error) {
	return s.prepare(img, 1)
}

func (s *Scanner) prepare(img image.Image, fraction float64) (imaging.PixelRegion, imaging.Stats, error) {
	band, err := imaging.CropBottomBand(img, fraction)
	if err != nil {
		return imaging.PixelRegion{}, imaging.Stats{}, err
	}
	band = imaging.ScaleToMaxWidth(band, s.cfg.MaxWidth)
	if s.cfg.Enhance.Enabled() {
		band = imaging.Enhance(band, s.cfg.Enhance)
	}
	region, stats := imaging.BinarizeWithStats(imaging.FromImage(band))
	return region, stats, nil
}

// Decode selects the MRZ candidates from OCR lines and parses them.
//
// Returns an error wrapping mrz.ErrNoMRZ when fewer than two candidates are
// found. Check digit mismatches are reported on the Document, not as
// errors.
func (s *Scanner) Decode(lines []string) (mrz.Document, error) {
	candidates, err := mrz.SelectCandidates(lines, s.cfg.MinCandidateLength)
	if err != nil {
		return mrz.Document{}, err
	}
	return s.parse(candidates), nil
}

// DecodeLines parses two lines as given, without candidate selection.
func (s *Scanner) DecodeLines(line1, line2 string) mrz.Document {
	return s.parse([2]string{line1, line2})
}

func (s *Scanner) parse(lines [2]string) mrz.Document {
	return mrz.ParseWith(s.norm, s.cfg.SubstitutionScope, lines[0], lines[1])
}

// Scan runs the full pipeline on img.
//
// The bottom band is tried first. When it yields no MRZ and
// FullFrameFallback is set, the whole frame is tried once more. The
// returned error wraps mrz.ErrNoMRZ when neither attempt finds two
// candidate lines, or ctx.Err() when the scan was cancelled.
func (s *Scanner) Scan(ctx context.Context, img image.Image) (*Result, error) {
	start := time.Now()
	scanID := uuid.NewString()
	log := s.log.With("scan_id", scanID)

	res, err := s.attempt(ctx, img, s.cfg.CropFraction, RegionBand)
	if errors.Is(err, mrz.ErrNoMRZ) && s.cfg.FullFrameFallback && s.cfg.CropFraction < 1 {
		log.Debug("no MRZ in bottom band, retrying full frame", "error", err)
		s.metrics.IncrementFallback()
		res, err = s.attempt(ctx, img, 1, RegionFull)
	}

	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveScan(outcomeOf(err), elapsed)
		log.Info("scan failed", "error", err, "elapsed_ms", elapsed.Milliseconds())
		return nil, fmt.Errorf("scan %s: %w", scanID, err)
	}

	res.ScanID = scanID
	s.metrics.ObserveScan(metrics.OutcomeDecoded, elapsed)
	s.recordChecksums(res.Document)
	log.Info("scan decoded",
		"region", res.Region,
		"nationality", res.Document.Nationality,
		"checks_valid", res.Document.AllChecksValid(),
		"threshold", res.Stats.Threshold,
		"elapsed_ms", elapsed.Milliseconds())
	return res, nil
}

func (s *Scanner) attempt(ctx context.Context, img image.Image, fraction float64, region string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prepared, stats, err := s.prepare(img, fraction)
	if err != nil {
		return nil, err
	}
	if prepared.Empty() {
		return nil, fmt.Errorf("%w: empty %s region", mrz.ErrNoMRZ, region)
	}

	text, err := s.rec.Recognize(ctx, imaging.ToImage(prepared))
	if err != nil {
		return nil, fmt.Errorf("recognize %s: %w", region, err)
	}

	lines := mrz.SplitLines(text)
	candidates, err := mrz.SelectCandidates(lines, s.cfg.MinCandidateLength)
	if err != nil {
		return nil, err
	}

	doc := s.parse(candidates)
	return &Result{
		Region:     region,
		Candidates: candidates,
		Lines:      [2]string{doc.Line1, doc.Line2},
		Document:   doc,
		Stats:      stats,
	}, nil
}

func (s *Scanner) recordChecksums(doc mrz.Document) {
	if !doc.PassportNumberValid {
		s.metrics.IncrementChecksumFailure("passport_number")
	}
	if !doc.BirthDateValid {
		s.metrics.IncrementChecksumFailure("birth_date")
	}
	if !doc.ExpiryDateValid {
		s.metrics.IncrementChecksumFailure("expiry_date")
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, mrz.ErrNoMRZ):
		return metrics.OutcomeNoMRZ
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeError
	}
}

// Assess evaluates doc against the current rule snapshot of store.
//
// Errors are those of visa.Store.Assess; a *visa.LookupMissError is
// counted separately from verdicts.
func (s *Scanner) Assess(doc mrz.Document, store *visa.Store, stay visa.StayType) (visa.Assessment, error) {
	a, err := store.Assess(doc, stay)
	if err != nil {
		var miss *visa.LookupMissError
		if errors.As(err, &miss) {
			s.metrics.IncrementLookupMiss()
			s.log.Info("visa rule lookup miss",
				"nationality", miss.Nationality,
				"rules_version", miss.RulesVersion)
		}
		return visa.Assessment{}, err
	}

	s.metrics.IncrementAssessment(string(a.StayType), a.Level)
	return a, nil
}
