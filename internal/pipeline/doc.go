// Package pipeline wires image preparation, OCR and MRZ parsing into one
// scan, and evaluates decoded documents against visa rules.
//
// A Scanner is built from a Config and an ocr.Recognizer. Scan crops the
// bottom band of a document image, scales and binarizes it, hands it to the
// recognizer, picks the two MRZ lines out of the recognized text and parses
// them. If the band yields nothing it retries once on the full frame.
//
// Every variation in behavior (crop fraction, width bound, candidate length,
// substitution table and scope, enhancement) is a Config field; there is a
// single code path.
//
// ScanBatch and ScanFiles run independent scans concurrently. They share
// only the Scanner's read-only configuration.
package pipeline
