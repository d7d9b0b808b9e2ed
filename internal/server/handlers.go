package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/mrz-visa-mcp/internal/imaging"
	"github.com/ironsheep/mrz-visa-mcp/internal/mrz"
	"github.com/ironsheep/mrz-visa-mcp/internal/pipeline"
	"github.com/ironsheep/mrz-visa-mcp/internal/visa"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "mrz_scan", "visa_assess").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// A visa rule lookup miss is not an error; it is a normal result with
// matched=false.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Info("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Image Operations
	case "mrz_prepare":
		return s.handleMRZPrepare(args)
	case "mrz_scan":
		return s.handleMRZScan(ctx, args)

	// Text Operations
	case "mrz_decode":
		return s.handleMRZDecode(args)

	// Visa Rules
	case "visa_assess":
		return s.handleVisaAssess(args)
	case "visa_rules_info":
		return s.handleVisaRulesInfo()
	case "visa_rules_reload":
		return s.handleVisaRulesReload()

	// Diagnostics
	case "ocr_info":
		return s.handleOCRInfo()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

var errNoScanner = errors.New("scanner not configured")

// === Image Operation Handlers ===

type mrzPrepareArgs struct {
	Path         string `json:"path"`
	FullFrame    bool   `json:"full_frame"`
	IncludeImage *bool  `json:"include_image"`
}

type mrzPrepareResult struct {
	Image        imaging.ImageInfo  `json:"image"`
	Region       string             `json:"region"`
	Width        int                `json:"width"`
	Height       int                `json:"height"`
	Binarization imaging.Stats      `json:"binarization"`
	PNG          *imaging.PNGResult `json:"png,omitempty"`
}

func (s *Server) handleMRZPrepare(args json.RawMessage) (interface{}, error) {
	var a mrzPrepareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.scanner == nil {
		return nil, errNoScanner
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	defer s.cache.Evict(a.Path)

	prepare, region := s.scanner.Prepare, pipeline.RegionBand
	if a.FullFrame {
		prepare, region = s.scanner.PrepareFull, pipeline.RegionFull
	}
	prepared, stats, err := prepare(img)
	if err != nil {
		return nil, err
	}

	result := mrzPrepareResult{
		Image:        imaging.Info(img, a.Path),
		Region:       region,
		Width:        prepared.Width,
		Height:       prepared.Height,
		Binarization: stats,
	}
	if (a.IncludeImage == nil || *a.IncludeImage) && !prepared.Empty() {
		result.PNG, err = imaging.EncodePNG(imaging.ToImage(prepared))
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

type mrzScanArgs struct {
	Path     string `json:"path"`
	StayType string `json:"stay_type"`
}

type documentResult struct {
	Document    mrz.Document `json:"document"`
	ChecksValid bool         `json:"checks_valid"`
	Name        string       `json:"name"`
	BirthDate   string       `json:"birth_date_display"`
	ExpiryDate  string       `json:"expiry_date_display"`
}

func newDocumentResult(doc mrz.Document) documentResult {
	return documentResult{
		Document:    doc,
		ChecksValid: doc.AllChecksValid(),
		Name:        doc.FullName(),
		BirthDate:   doc.BirthDateDisplay(),
		ExpiryDate:  doc.ExpiryDateDisplay(),
	}
}

type mrzScanResult struct {
	ScanID       string        `json:"scan_id"`
	Region       string        `json:"region"`
	Candidates   [2]string     `json:"candidates"`
	Lines        [2]string     `json:"lines"`
	Binarization imaging.Stats `json:"binarization"`
	documentResult
	Visa    *assessResult `json:"visa,omitempty"`
	Summary visa.Summary  `json:"summary"`
}

func (s *Server) handleMRZScan(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a mrzScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.scanner == nil {
		return nil, errNoScanner
	}

	var stay visa.StayType
	if a.StayType != "" {
		var err error
		if stay, err = visa.ParseStayType(a.StayType); err != nil {
			return nil, err
		}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	// The decoded image is only needed for this scan.
	defer s.cache.Evict(a.Path)

	res, err := s.scanner.Scan(ctx, img)
	if err != nil {
		return nil, err
	}

	result := mrzScanResult{
		ScanID:         res.ScanID,
		Region:         res.Region,
		Candidates:     res.Candidates,
		Lines:          res.Lines,
		Binarization:   res.Stats,
		documentResult: newDocumentResult(res.Document),
		Summary:        visa.Summarize(res.Document, nil, s.rulesVersion()),
	}
	if stay != "" {
		ar, err := s.assess(res.Document, stay)
		if err != nil {
			return nil, err
		}
		result.Visa = ar
		result.Summary = ar.Summary
	}
	return result, nil
}

// === Text Operation Handlers ===

type mrzDecodeArgs struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	Text  string `json:"text"`
}

func (s *Server) handleMRZDecode(args json.RawMessage) (interface{}, error) {
	var a mrzDecodeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.scanner == nil {
		return nil, errNoScanner
	}

	switch {
	case strings.TrimSpace(a.Text) != "":
		doc, err := s.scanner.Decode(mrz.SplitLines(a.Text))
		if err != nil {
			return nil, err
		}
		return newDocumentResult(doc), nil
	case a.Line1 != "" || a.Line2 != "":
		return newDocumentResult(s.scanner.DecodeLines(a.Line1, a.Line2)), nil
	default:
		return nil, errors.New("either text or line1 and line2 are required")
	}
}

// === Visa Rule Handlers ===

type visaAssessArgs struct {
	Nationality string `json:"nationality"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2"`
	StayType    string `json:"stay_type"`
}

type assessResult struct {
	Matched      bool             `json:"matched"`
	Nationality  string           `json:"nationality"`
	RulesVersion string           `json:"rules_version"`
	Assessment   *visa.Assessment `json:"assessment,omitempty"`
	Message      string           `json:"message,omitempty"`
	Summary      visa.Summary     `json:"summary"`
}

func (s *Server) handleVisaAssess(args json.RawMessage) (interface{}, error) {
	var a visaAssessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	stay, err := visa.ParseStayType(a.StayType)
	if err != nil {
		return nil, err
	}

	var doc mrz.Document
	switch {
	case a.Line1 != "" || a.Line2 != "":
		if s.scanner == nil {
			return nil, errNoScanner
		}
		doc = s.scanner.DecodeLines(a.Line1, a.Line2)
	case a.Nationality != "":
		doc = mrz.Document{Nationality: a.Nationality}
	default:
		return nil, errors.New("either nationality or line1 and line2 are required")
	}

	return s.assess(doc, stay)
}

// assess evaluates doc and folds a lookup miss into a successful result.
func (s *Server) assess(doc mrz.Document, stay visa.StayType) (*assessResult, error) {
	if s.rules == nil {
		return nil, visa.ErrNoRules
	}

	var (
		a   visa.Assessment
		err error
	)
	if s.scanner != nil {
		a, err = s.scanner.Assess(doc, s.rules, stay)
	} else {
		a, err = s.rules.Assess(doc, stay)
	}

	var miss *visa.LookupMissError
	switch {
	case errors.As(err, &miss):
		return &assessResult{
			Matched:      false,
			Nationality:  miss.Nationality,
			RulesVersion: miss.RulesVersion,
			Message:      miss.Error(),
			Summary:      visa.SummarizeMiss(doc, miss),
		}, nil
	case err != nil:
		return nil, err
	}

	return &assessResult{
		Matched:      true,
		Nationality:  a.Nationality,
		RulesVersion: a.RulesVersion,
		Assessment:   &a,
		Summary:      visa.Summarize(doc, &a, a.RulesVersion),
	}, nil
}

func (s *Server) rulesVersion() string {
	if s.rules == nil {
		return ""
	}
	return s.rules.Version()
}

type rulesInfoResult struct {
	Loaded        bool     `json:"loaded"`
	Version       string   `json:"version,omitempty"`
	Entries       int      `json:"entries"`
	Nationalities []string `json:"nationalities"`
}

func (s *Server) handleVisaRulesInfo() (interface{}, error) {
	if s.rules == nil {
		return rulesInfoResult{Nationalities: []string{}}, nil
	}
	table := s.rules.Snapshot()
	if table == nil {
		return rulesInfoResult{Nationalities: []string{}}, nil
	}
	return rulesInfoResult{
		Loaded:        true,
		Version:       table.Version,
		Entries:       table.Len(),
		Nationalities: table.Nationalities(),
	}, nil
}

func (s *Server) handleVisaRulesReload() (interface{}, error) {
	if s.rules == nil {
		return nil, visa.ErrNoRuleSource
	}
	table, err := s.rules.Reload()
	s.metrics.IncrementReload(err == nil)
	if err != nil {
		return nil, err
	}
	return rulesInfoResult{
		Loaded:        true,
		Version:       table.Version,
		Entries:       table.Len(),
		Nationalities: table.Nationalities(),
	}, nil
}

// === Diagnostics Handlers ===

func (s *Server) handleOCRInfo() (interface{}, error) {
	if s.ocrInfo == nil {
		return nil, errors.New("OCR engine info not available")
	}
	return s.ocrInfo(), nil
}
