// Package visa evaluates entry guidance for a decoded passport against a
// versioned rule table.
//
// A rule table maps three-letter nationality codes to a pair of outcomes,
// one for short stays and one for long stays. Each outcome carries free
// text and a level; "ok" means no action is required and any other level
// is advisory.
//
// Assess is a pure function over a document, a table and a stay type.
// A nationality that is not in the table yields *LookupMissError so callers
// can tell "no local rule" apart from a verdict.
//
// Rule documents are JSON and are validated against an embedded schema
// before use (ParseRules, LoadRules). Store keeps the current table behind
// an atomic pointer; Reload swaps in a fresh snapshot while assessments in
// flight keep the one they started with.
package visa
