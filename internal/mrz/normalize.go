package mrz

import (
	"fmt"
	"strings"
)

// LineLength is the width of a TD3 line.
const LineLength = 44

// Filler is the MRZ padding character.
const Filler = '<'

// DefaultSubstitutions maps letters commonly misread by OCR to the digit the
// MRZ most likely printed.
var DefaultSubstitutions = map[byte]byte{
	'O': '0',
	'Q': '0',
	'I': '1',
	'B': '8',
	'S': '5',
}

// Normalizer coerces raw OCR lines into canonical MRZ lines.
//
// A Normalizer is immutable once built and safe for concurrent use.
type Normalizer struct {
	table [256]byte
	subs  map[byte]byte
}

var defaultNormalizer = mustNormalizer(DefaultSubstitutions)

// NewNormalizer builds a Normalizer from a substitution table.
//
// Parameters:
//   - subs: letter to replacement mapping. May be empty to disable the
//     confusion step entirely.
//
// Returns an error if '<' is a source, or if a replacement is outside the MRZ
// alphabet or is itself a substitution source. Any of these would make
// normalization non-idempotent.
func NewNormalizer(subs map[byte]byte) (*Normalizer, error) {
	n := &Normalizer{subs: make(map[byte]byte, len(subs))}
	for i := range n.table {
		n.table[i] = byte(i)
	}
	for from, to := range subs {
		if from == Filler {
			return nil, fmt.Errorf("substitution %q -> %q: filler cannot be substituted", from, to)
		}
		if !IsMRZChar(to) {
			return nil, fmt.Errorf("substitution %q -> %q: target outside MRZ alphabet", from, to)
		}
		if _, chained := subs[to]; chained && to != from {
			return nil, fmt.Errorf("substitution %q -> %q: target is also a source", from, to)
		}
		n.table[from] = to
		n.subs[from] = to
	}
	return n, nil
}

func mustNormalizer(subs map[byte]byte) *Normalizer {
	n, err := NewNormalizer(subs)
	if err != nil {
		panic(err)
	}
	return n
}

// DefaultNormalizer returns the Normalizer built from DefaultSubstitutions.
func DefaultNormalizer() *Normalizer {
	return defaultNormalizer
}

// Substitutions returns a copy of the active substitution table.
func (n *Normalizer) Substitutions() map[byte]byte {
	out := make(map[byte]byte, len(n.subs))
	for k, v := range n.subs {
		out[k] = v
	}
	return out
}

// Line runs the full normalization: confusion substitution, alphabet
// coercion, then right-padding with '<' or truncation to 44 characters.
func (n *Normalizer) Line(raw string) string {
	return pad(coerce(n.Field(raw)))
}

// Field applies only the confusion substitution step.
func (n *Normalizer) Field(s string) string {
	if len(n.subs) == 0 {
		return s
	}
	b := []byte(s)
	for i, c := range b {
		b[i] = n.table[c]
	}
	return string(b)
}

// Normalize coerces a raw OCR line to a canonical 44-character MRZ line
// using DefaultSubstitutions.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	return defaultNormalizer.Line(raw)
}

// IsMRZChar reports whether c belongs to the MRZ alphabet.
func IsMRZChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == Filler
}

// coerce replaces every byte outside the MRZ alphabet with '<'. Multi-byte
// UTF-8 sequences become one '<' per byte.
func coerce(s string) string {
	b := []byte(s)
	for i, c := range b {
		if !IsMRZChar(c) {
			b[i] = Filler
		}
	}
	return string(b)
}

// pad right-pads with '<' or truncates to LineLength.
func pad(s string) string {
	if len(s) >= LineLength {
		return s[:LineLength]
	}
	return s + strings.Repeat(string(Filler), LineLength-len(s))
}
