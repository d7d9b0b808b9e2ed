package visa

import (
	"fmt"
	"strings"

	"github.com/ironsheep/mrz-visa-mcp/internal/mrz"
)

// NoVerdict is shown when no assessment has been made.
const NoVerdict = "N/A"

// MissVerdict is shown when the nationality has no rule entry.
const MissVerdict = "Visa rules not defined for this nationality."

// Summary is the operator-facing digest of one check.
type Summary struct {
	Name         string `json:"name"`
	Nationality  string `json:"nationality"`
	Expiry       string `json:"expiry"`
	Verdict      string `json:"verdict"`
	Level        string `json:"level,omitempty"`
	RulesVersion string `json:"rules_version"`
}

// Summarize builds a Summary from a document and an optional assessment.
// A nil assessment gives the verdict NoVerdict. An empty rulesVersion is
// reported as UnknownVersion.
func Summarize(doc mrz.Document, a *Assessment, rulesVersion string) Summary {
	s := Summary{
		Name:         doc.FullName(),
		Nationality:  doc.Nationality,
		Expiry:       doc.ExpiryDateDisplay(),
		Verdict:      NoVerdict,
		RulesVersion: rulesVersion,
	}
	if a != nil {
		s.Verdict = a.Text
		s.Level = a.Level
		if a.RulesVersion != "" {
			s.RulesVersion = a.RulesVersion
		}
	}
	if s.Verdict == "" {
		s.Verdict = NoVerdict
	}
	if s.RulesVersion == "" {
		s.RulesVersion = UnknownVersion
	}
	return s
}

// SummarizeMiss builds a Summary for a nationality without a rule entry.
func SummarizeMiss(doc mrz.Document, miss *LookupMissError) Summary {
	s := Summarize(doc, nil, miss.RulesVersion)
	s.Verdict = MissVerdict
	return s
}

// String renders the summary as labelled lines.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Identity (MRZ): %s\n", s.Name)
	fmt.Fprintf(&b, "Nationality: %s\n", s.Nationality)
	fmt.Fprintf(&b, "Document expiry: %s\n", s.Expiry)
	fmt.Fprintf(&b, "Visa assessment: %s\n", s.Verdict)
	fmt.Fprintf(&b, "Rules used: %s", s.RulesVersion)
	return b.String()
}
