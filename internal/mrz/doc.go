// Package mrz decodes the two-line TD3 machine readable zone printed at the
// bottom of a passport data page (ICAO 9303, part 4).
//
// The package works on text only. Pixels are prepared by package imaging and
// turned into text lines by an OCR engine (package ocr); everything here is a
// pure, synchronous transform that is safe to call from any goroutine.
//
// # Pipeline
//
// Raw OCR output flows through three steps:
//
//  1. SelectCandidates picks the last two lines that look like MRZ text.
//  2. Normalize (or a custom Normalizer) coerces each line to exactly 44
//     characters over the alphabet A-Z, 0-9 and '<'.
//  3. Parse slices the fixed-width fields and validates the passport
//     number, birth date and expiry date against their check digits.
//
// # Character Confusions
//
// OCR engines routinely confuse O/0, I/1, B/8 and S/5. The default
// substitution table rewrites the letter to the digit. Because that is wrong
// for genuine letters, the parser applies it only to numeric positions by
// default (ScopeNumericFields); ScopeWholeLine rewrites every character.
//
// # Error Handling
//
// Parse never fails: malformed input yields empty or zero-coerced fields and
// false validity flags. The only decode failure is ErrNoMRZ, returned when
// fewer than two candidate lines are found.
package mrz
