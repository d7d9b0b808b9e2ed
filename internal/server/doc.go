// Package server implements the MCP (Model Context Protocol) server for passport MRZ tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the MRZ scan pipeline
// and the visa rule table through the MCP protocol, so that MCP-compatible
// clients can read a passport image and check the holder's visa situation.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Operations:
//   - mrz_prepare: Crop, scale and binarize the MRZ band, returned as PNG
//   - mrz_scan: OCR and parse the MRZ, optionally with a visa assessment
//
// Text Operations:
//   - mrz_decode: Parse MRZ lines or raw OCR text without an image
//
// Visa Rules:
//   - visa_assess: Evaluate the rule for a nationality and stay type
//   - visa_rules_info: Report the loaded rule table version and coverage
//   - visa_rules_reload: Reload the rule files from disk
//
// Diagnostics:
//   - ocr_info: Report the OCR engine version and settings
//
// # Image Caching
//
// Images are decoded through a per-path cache and evicted as soon as the
// mrz_prepare or mrz_scan call finishes, so a long-running server does not
// hold decoded pages between calls.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A nationality missing from the rule table is not an error. visa_assess
// and mrz_scan report it as a result with matched=false and a message
// pointing to an authoritative source.
//
// # Usage
//
//	srv := server.New(server.Options{Scanner: scanner, Rules: store})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
