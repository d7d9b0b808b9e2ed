package visa

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/mrz-visa-mcp/internal/mrz"
)

var (
	// ErrNoRules is returned when a Store has no rule table loaded.
	ErrNoRules = errors.New("visa rules not loaded")

	// ErrNoRuleSource is returned by Reload when the Store was not opened
	// from files.
	ErrNoRuleSource = errors.New("visa rules have no file source")
)

// Store holds the current rule table as an immutable snapshot.
//
// Readers take a snapshot with Snapshot and keep using it for the whole
// assessment. Reload and Replace install a new table without disturbing
// readers that hold the old one.
type Store struct {
	rulesPath   string
	versionPath string
	log         *slog.Logger

	reloadMu sync.Mutex
	current  atomic.Pointer[RuleTable]
}

// NewStore creates a Store holding table. It has no file source, so Reload
// fails with ErrNoRuleSource.
func NewStore(table RuleTable, log *slog.Logger) *Store {
	s := &Store{log: storeLogger(log)}
	s.current.Store(&table)
	return s
}

// OpenStore creates a Store backed by rule files and loads them.
//
// A load failure still returns a usable Store. It is empty, and the error is
// returned so callers can decide whether to start without rules.
func OpenStore(rulesPath, versionPath string, log *slog.Logger) (*Store, error) {
	s := &Store{
		rulesPath:   rulesPath,
		versionPath: versionPath,
		log:         storeLogger(log),
	}
	if _, err := s.Reload(); err != nil {
		return s, err
	}
	return s, nil
}

func storeLogger(log *slog.Logger) *slog.Logger {
	if log == nil {
		log = slog.Default()
	}
	return log.With("component", "visa")
}

// Snapshot returns the current rule table, or nil if none is loaded.
func (s *Store) Snapshot() *RuleTable {
	return s.current.Load()
}

// Replace installs table as the current snapshot.
func (s *Store) Replace(table RuleTable) {
	s.current.Store(&table)
	s.log.Info("visa rules replaced", "version", table.Version, "entries", table.Len())
}

// Reload re-reads the rule files and swaps in the new table.
//
// On failure the previous snapshot stays in place.
func (s *Store) Reload() (*RuleTable, error) {
	if s.rulesPath == "" {
		return nil, ErrNoRuleSource
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	table, err := LoadRules(s.rulesPath, s.versionPath)
	if err != nil {
		s.log.Warn("visa rules reload failed", "path", s.rulesPath, "error", err)
		return nil, err
	}

	s.current.Store(&table)
	s.log.Info("visa rules loaded",
		"path", s.rulesPath,
		"version", table.Version,
		"entries", table.Len())
	return &table, nil
}

// Assess evaluates doc against the current snapshot.
func (s *Store) Assess(doc mrz.Document, stay StayType) (Assessment, error) {
	table := s.Snapshot()
	if table == nil {
		return Assessment{}, ErrNoRules
	}
	return Assess(doc, *table, stay)
}

// Version returns the version of the current snapshot, or "" if none is
// loaded.
func (s *Store) Version() string {
	if table := s.Snapshot(); table != nil {
		return table.Version
	}
	return ""
}
