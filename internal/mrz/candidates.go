package mrz

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMinCandidateLength is the shortest OCR line considered an MRZ
// candidate. Lower than LineLength to tolerate dropped characters.
const DefaultMinCandidateLength = 30

// ErrNoMRZ is returned when OCR output holds fewer than two MRZ candidates.
var ErrNoMRZ = errors.New("mrz not detected")

// SplitLines splits raw OCR text into trimmed, non-empty lines.
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// SelectCandidates returns the last two lines that contain at least one '<'
// and are at least minLen characters long, in their original order.
//
// Lines are trimmed before the test and empty lines are ignored. A minLen of
// zero or less uses DefaultMinCandidateLength.
//
// Returns ErrNoMRZ (wrapped with the candidate count) when fewer than two
// lines qualify.
func SelectCandidates(lines []string, minLen int) ([2]string, error) {
	if minLen <= 0 {
		minLen = DefaultMinCandidateLength
	}

	candidates := make([]string, 0, 2)
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if len(l) >= minLen && strings.ContainsRune(l, Filler) {
			candidates = append(candidates, l)
		}
	}

	if len(candidates) < 2 {
		return [2]string{}, fmt.Errorf("%w: %d candidate line(s) of %d", ErrNoMRZ, len(candidates), len(lines))
	}
	last := candidates[len(candidates)-2:]
	return [2]string{last[0], last[1]}, nil
}
