package visa

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed rules.schema.json
var rulesSchemaJSON []byte

var compileRulesSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules.schema.json", bytes.NewReader(rulesSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("rules.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

type versionDocument struct {
	VisaRulesVersion string `json:"visa_rules_version"`
}

// ParseRules builds a RuleTable from a rules document and an optional version
// document.
//
// The rules document is validated against the embedded schema before it is
// decoded: every key must be three characters of A-Z or '<', and every entry
// needs short_stay and long_stay objects with string text and level. A nil
// or empty versionJSON, or one without visa_rules_version, yields
// UnknownVersion.
func ParseRules(rulesJSON, versionJSON []byte) (RuleTable, error) {
	schema, err := compileRulesSchema()
	if err != nil {
		return RuleTable{}, err
	}

	var doc any
	if err := json.Unmarshal(rulesJSON, &doc); err != nil {
		return RuleTable{}, fmt.Errorf("unmarshal rules: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return RuleTable{}, fmt.Errorf("rules do not match schema: %w", err)
	}

	entries := make(map[string]RuleEntry)
	if err := json.Unmarshal(rulesJSON, &entries); err != nil {
		return RuleTable{}, fmt.Errorf("decode rules: %w", err)
	}

	version, err := parseVersion(versionJSON)
	if err != nil {
		return RuleTable{}, err
	}

	return RuleTable{Version: version, Entries: entries}, nil
}

func parseVersion(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return UnknownVersion, nil
	}
	var v versionDocument
	if err := json.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("decode rules version: %w", err)
	}
	if s := strings.TrimSpace(v.VisaRulesVersion); s != "" {
		return s, nil
	}
	return UnknownVersion, nil
}

// LoadRules reads and parses a rules file and an optional version file. An
// empty versionPath yields UnknownVersion.
func LoadRules(rulesPath, versionPath string) (RuleTable, error) {
	rulesJSON, err := os.ReadFile(rulesPath)
	if err != nil {
		return RuleTable{}, fmt.Errorf("read rules: %w", err)
	}

	var versionJSON []byte
	if versionPath != "" {
		versionJSON, err = os.ReadFile(versionPath)
		if err != nil {
			return RuleTable{}, fmt.Errorf("read rules version: %w", err)
		}
	}

	table, err := ParseRules(rulesJSON, versionJSON)
	if err != nil {
		return RuleTable{}, fmt.Errorf("%s: %w", rulesPath, err)
	}
	return table, nil
}
