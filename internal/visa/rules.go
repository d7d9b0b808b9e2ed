package visa

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ironsheep/mrz-visa-mcp/internal/mrz"
)

// LevelOK is the outcome level that means no action is required. Every other
// level is advisory.
const LevelOK = "ok"

// UnknownVersion labels rule tables whose version document is missing.
const UnknownVersion = "unknown"

// ErrInvalidStayType is returned when a stay type is neither short nor long.
var ErrInvalidStayType = errors.New("invalid stay type")

// StayType selects which outcome of a rule entry applies.
type StayType string

const (
	StayShort StayType = "short"
	StayLong  StayType = "long"
)

// ParseStayType accepts "short" or "long" (case-insensitive, also with a
// "_stay" suffix).
func ParseStayType(s string) (StayType, error) {
	v := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "_stay")
	switch StayType(v) {
	case StayShort, StayLong:
		return StayType(v), nil
	}
	return "", fmt.Errorf("%w: %q (want short or long)", ErrInvalidStayType, s)
}

// Outcome is the guidance for one stay type.
type Outcome struct {
	Text  string `json:"text"`
	Level string `json:"level"`
}

// OK reports whether the outcome level is "ok".
func (o Outcome) OK() bool {
	return o.Level == LevelOK
}

// RuleEntry holds the outcomes for one nationality.
type RuleEntry struct {
	ShortStay Outcome `json:"short_stay"`
	LongStay  Outcome `json:"long_stay"`
}

// For returns the outcome for a stay type.
func (e RuleEntry) For(stay StayType) (Outcome, error) {
	switch stay {
	case StayShort:
		return e.ShortStay, nil
	case StayLong:
		return e.LongStay, nil
	}
	return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidStayType, string(stay))
}

// RuleTable maps three-letter nationality codes to rule entries.
//
// A RuleTable is read-only once built. Store hands out snapshots that
// concurrent assessments share, so callers must never modify Entries.
type RuleTable struct {
	Version string               `json:"version"`
	Entries map[string]RuleEntry `json:"entries"`
}

// Len returns the number of nationalities in the table.
func (t RuleTable) Len() int {
	return len(t.Entries)
}

// Nationalities returns the table keys in sorted order.
func (t RuleTable) Nationalities() []string {
	keys := make([]string, 0, len(t.Entries))
	for k := range t.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Assessment is the outcome of evaluating one document for one stay type.
type Assessment struct {
	Nationality  string   `json:"nationality"`
	StayType     StayType `json:"stay_type"`
	Text         string   `json:"text"`
	Level        string   `json:"level"`
	RulesVersion string   `json:"rules_version"`
}

// OK reports whether the assessment level is "ok".
func (a Assessment) OK() bool {
	return a.Level == LevelOK
}

// LookupMissError reports a nationality with no entry in the rule table.
// It is an advisory condition, not an approval or a refusal.
type LookupMissError struct {
	Nationality  string
	RulesVersion string
}

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("nationality %q is not defined in visa rules %s; consult an authoritative source",
		e.Nationality, e.RulesVersion)
}

// Assess looks up the document nationality in rules and returns the outcome
// for the stay type.
//
// The nationality must match a table key exactly; there is no case folding
// and no partial match. Text and level are returned verbatim, tagged with
// the table version.
//
// # Errors
//
//   - ErrInvalidStayType if stay is neither StayShort nor StayLong
//   - *LookupMissError if the nationality is not in the table
func Assess(doc mrz.Document, rules RuleTable, stay StayType) (Assessment, error) {
	if stay != StayShort && stay != StayLong {
		return Assessment{}, fmt.Errorf("%w: %q", ErrInvalidStayType, string(stay))
	}

	entry, ok := rules.Entries[doc.Nationality]
	if !ok {
		return Assessment{}, &LookupMissError{
			Nationality:  doc.Nationality,
			RulesVersion: rules.Version,
		}
	}

	outcome, err := entry.For(stay)
	if err != nil {
		return Assessment{}, err
	}

	return Assessment{
		Nationality:  doc.Nationality,
		StayType:     stay,
		Text:         outcome.Text,
		Level:        outcome.Level,
		RulesVersion: rules.Version,
	}, nil
}
