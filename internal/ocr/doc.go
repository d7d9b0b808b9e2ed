// Package ocr provides Optical Character Recognition (OCR) for machine
// readable zones using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) behind the
// Recognizer interface. The pipeline depends only on the interface, so tests
// and alternative engines can substitute their own implementation.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A trained data directory other than the installation default can be
// selected with Options.TessdataPrefix.
//
// # Recognition Settings
//
// TesseractRecognizer restricts output to the MRZ alphabet (A-Z, 0-9, '<')
// and treats the input as a single uniform block of text. The recognized
// text is returned unmodified; line selection and normalization belong to
// the mrz package.
//
// # Error Handling
//
// Functions return errors for:
//   - Unsupported language codes or missing trained data
//   - Tesseract initialization failures
//   - Cancelled contexts (checked before each recognition)
//
// An empty image is not an error; it yields empty text.
package ocr
