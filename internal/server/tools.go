package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var (
	pathProperty = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the passport image file",
	}
	stayTypeProperty = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"short", "long"},
		"description": "Stay category to assess: short or long",
	}
	lineProperty = map[string]interface{}{
		"type":        "string",
		"description": "One MRZ line as read (coerced to 44 characters)",
	}
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Operations
		{
			Name:        "mrz_prepare",
			Description: "Crop the bottom band of a passport image, scale it and binarize it with Otsu's method. Returns the black-and-white image as base64 PNG with the threshold and ink/paper statistics. Use this to inspect what the OCR engine will see.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"full_frame": map[string]interface{}{
						"type":        "boolean",
						"description": "Prepare the whole image instead of the bottom band. Default false",
						"default":     false,
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the base64 PNG in the result. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "mrz_scan",
			Description: "Read the machine readable zone of a TD3 passport image: OCR, field parsing and check digit validation. When stay_type is given, also evaluates the visa rules for the document nationality.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty,
					"stay_type": stayTypeProperty,
				},
				"required": []string{"path"},
			},
		},

		// Text Operations
		{
			Name:        "mrz_decode",
			Description: "Parse MRZ text without an image. Pass either line1 and line2, or raw OCR text from which the last two MRZ-like lines are selected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"line1": lineProperty,
					"line2": lineProperty,
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Raw multi-line OCR output",
					},
				},
			},
		},

		// Visa Rules
		{
			Name:        "visa_assess",
			Description: "Evaluate the visa rule for a nationality and stay type. Pass either a three-letter nationality code or two MRZ lines. A nationality missing from the local table is reported with matched=false; consult an authoritative source in that case.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"nationality": map[string]interface{}{
						"type":        "string",
						"description": "Three-letter nationality code as printed in the MRZ (e.g. UTO, D<<)",
					},
					"line1":     lineProperty,
					"line2":     lineProperty,
					"stay_type": stayTypeProperty,
				},
				"required": []string{"stay_type"},
			},
		},
		{
			Name:        "visa_rules_info",
			Description: "Report the loaded visa rule table: version, number of entries and the nationality codes it covers.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "visa_rules_reload",
			Description: "Reload the visa rule files from disk. On failure the previous table stays active.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Diagnostics
		{
			Name:        "ocr_info",
			Description: "Report the OCR engine version, language and character allowlist.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
