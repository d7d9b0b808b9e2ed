package mrz

import (
	"fmt"
	"strings"
)

// TD3 field offsets, 0-based half-open ranges.
const (
	docTypeStart, docTypeEnd         = 0, 1
	issuingStart, issuingEnd         = 2, 5
	nameStart                        = 5
	passportStart, passportEnd       = 0, 9
	passportCheck                    = 9
	nationalityStart, nationalityEnd = 10, 13
	birthStart, birthEnd             = 13, 19
	birthCheck                       = 19
	sexStart, sexEnd                 = 20, 21
	expiryStart, expiryEnd           = 21, 27
	expiryCheck                      = 27
)

// Scope selects where the confusion substitution table applies.
type Scope int

const (
	// ScopeNumericFields applies substitutions only to the passport number,
	// the dates and the check digits. Names and country codes are left as
	// read.
	ScopeNumericFields Scope = iota

	// ScopeWholeLine applies substitutions to every character of both lines
	// before slicing. Genuine O, Q, I, B and S letters are lost.
	ScopeWholeLine
)

// String returns the configuration name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeWholeLine:
		return "line"
	default:
		return "numeric"
	}
}

// ParseScope converts a configuration name ("numeric" or "line") to a Scope.
func ParseScope(name string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "numeric", "fields":
		return ScopeNumericFields, nil
	case "line", "whole-line":
		return ScopeWholeLine, nil
	default:
		return ScopeNumericFields, fmt.Errorf("unknown substitution scope %q", name)
	}
}

// Name holds the holder's name split into its MRZ identifiers. '<' separators
// inside each identifier are replaced by spaces.
type Name struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Document is a parsed TD3 record with per-field check digit results.
//
// A Document is a value: it is created once by Parse and never modified.
type Document struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`

	DocumentType string `json:"document_type"`
	IssuingState string `json:"issuing_state"`
	Name         Name   `json:"name"`

	PassportNumber           string `json:"passport_number"`
	PassportNumberCheckDigit string `json:"passport_number_check_digit"`
	PassportNumberValid      bool   `json:"passport_number_valid"`

	Nationality string `json:"nationality"`

	BirthDate           string `json:"birth_date"`
	BirthDateCheckDigit string `json:"birth_date_check_digit"`
	BirthDateValid      bool   `json:"birth_date_valid"`

	Sex string `json:"sex"`

	ExpiryDate           string `json:"expiry_date"`
	ExpiryDateCheckDigit string `json:"expiry_date_check_digit"`
	ExpiryDateValid      bool   `json:"expiry_date_valid"`
}

// AllChecksValid reports whether the passport number, birth date and expiry
// date all match their check digits.
func (d Document) AllChecksValid() bool {
	return d.PassportNumberValid && d.BirthDateValid && d.ExpiryDateValid
}

// FullName joins primary and secondary identifiers with a space.
func (d Document) FullName() string {
	return strings.TrimSpace(d.Name.Primary + " " + d.Name.Secondary)
}

// BirthDateDisplay returns the birth date as DD/MM/YY.
func (d Document) BirthDateDisplay() string {
	return FormatDate(d.BirthDate)
}

// ExpiryDateDisplay returns the expiry date as DD/MM/YY.
func (d Document) ExpiryDateDisplay() string {
	return FormatDate(d.ExpiryDate)
}

// Parse decodes two canonical TD3 lines using the default substitution table
// restricted to numeric fields.
//
// Parse never fails. Lines that are not 44 characters long are coerced
// first, so missing structure shows up as '<'-filled or zeroed fields and
// false validity flags.
func Parse(line1, line2 string) Document {
	return ParseWith(defaultNormalizer, ScopeNumericFields, line1, line2)
}

// ParseWith decodes two TD3 lines with an explicit Normalizer and
// substitution scope.
//
// # Fields
//
// Line 1 carries the document type [0,1), issuing state [2,5) and the name
// field [5,44). Line 2 carries the passport number [0,9) and its check digit
// at 9, nationality [10,13), birth date [13,19) and check digit at 19, sex
// at 20, and expiry date [21,27) with check digit at 27.
//
// # Validation
//
// The passport number check digit is computed over the substituted
// 9-character slice, fillers included. A date is validated only when its six characters
// are all digits; otherwise its flag is false and no arithmetic is done.
// Displayed dates have every non-digit coerced to '0'.
func ParseWith(n *Normalizer, scope Scope, line1, line2 string) Document {
	if n == nil {
		n = defaultNormalizer
	}

	numeric := n.Field
	if scope == ScopeWholeLine {
		line1, line2 = n.Line(line1), n.Line(line2)
		numeric = func(s string) string { return s }
	} else {
		line1, line2 = pad(coerce(line1)), pad(coerce(line2))
	}

	primary, secondary := SplitName(line1[nameStart:])

	rawPassport := numeric(line2[passportStart:passportEnd])
	passportCD := numeric(line2[passportCheck : passportCheck+1])

	rawBirth := numeric(line2[birthStart:birthEnd])
	birthCD := numeric(line2[birthCheck : birthCheck+1])

	rawExpiry := numeric(line2[expiryStart:expiryEnd])
	expiryCD := numeric(line2[expiryCheck : expiryCheck+1])

	return Document{
		Line1: line1,
		Line2: line2,

		DocumentType: line1[docTypeStart:docTypeEnd],
		IssuingState: line1[issuingStart:issuingEnd],
		Name:         Name{Primary: primary, Secondary: secondary},

		PassportNumber:           strings.ReplaceAll(rawPassport, string(Filler), ""),
		PassportNumberCheckDigit: passportCD,
		PassportNumberValid:      CheckDigit(rawPassport, passportCD[0]),

		Nationality: line2[nationalityStart:nationalityEnd],

		BirthDate:           coerceDigits(rawBirth),
		BirthDateCheckDigit: birthCD,
		BirthDateValid:      validDate(rawBirth, birthCD[0]),

		Sex: line2[sexStart:sexEnd],

		ExpiryDate:           coerceDigits(rawExpiry),
		ExpiryDateCheckDigit: expiryCD,
		ExpiryDateValid:      validDate(rawExpiry, expiryCD[0]),
	}
}

// SplitName splits a TD3 name field into primary and secondary identifiers.
//
// Trailing fillers are stripped, the remainder is split on the first "<<",
// and single '<' separators are shown as spaces. A field without "<<" has an
// empty secondary identifier.
func SplitName(field string) (primary, secondary string) {
	field = strings.TrimRight(field, string(Filler))
	parts := strings.SplitN(field, "<<", 2)
	primary = strings.ReplaceAll(parts[0], string(Filler), " ")
	if len(parts) == 2 {
		secondary = strings.ReplaceAll(parts[1], string(Filler), " ")
	}
	return primary, secondary
}

// FormatDate renders a YYMMDD date as DD/MM/YY. Anything that is not six
// digits is returned unchanged.
func FormatDate(yymmdd string) string {
	if len(yymmdd) != 6 || !allDigits(yymmdd) {
		return yymmdd
	}
	return yymmdd[4:6] + "/" + yymmdd[2:4] + "/" + yymmdd[0:2]
}

func validDate(raw string, declared byte) bool {
	if len(raw) != 6 || !allDigits(raw) {
		return false
	}
	return CheckDigit(raw, declared)
}

func coerceDigits(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c < '0' || c > '9' {
			b[i] = '0'
		}
	}
	return string(b)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
