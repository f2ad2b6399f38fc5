// Package fieldnames maps SmPC record keys to human readable labels.
package fieldnames

import (
	_ "embed"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fieldnames.yaml
var defaultTableYAML []byte

var (
	defaultTable = mustParseTable(defaultTableYAML)

	// leading section number such as "S1_", "S_" or "S10"
	sectionPrefix = regexp.MustCompile(`^S\d*_?`)
	wordStart     = regexp.MustCompile(`\b\w`)

	defaultRegistry = NewRegistry()
)

func mustParseTable(data []byte) map[string]string {
	table, err := parseTable(data)
	if err != nil {
		panic(fmt.Sprintf("fieldnames: invalid embedded table: %v", err))
	}
	return table
}

func parseTable(data []byte) (map[string]string, error) {
	table := make(map[string]string)
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse field name table: %w", err)
	}
	for key, label := range table {
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("field name table has an empty key")
		}
		if strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("field %q has an empty label", key)
		}
	}
	return table, nil
}

// Defaults returns a copy of the built-in label table
func Defaults() map[string]string {
	return maps.Clone(defaultTable)
}

// DisplayName resolves a label with the built-in table
func DisplayName(key string) string {
	return defaultRegistry.DisplayName(key)
}

// Humanize derives a label for a key the table does not know: the section
// prefix is stripped, underscores become spaces and every word is capitalised.
func Humanize(key string) string {
	s := sectionPrefix.ReplaceAllString(key, "")
	s = strings.ReplaceAll(s, "_", " ")
	return wordStart.ReplaceAllStringFunc(s, strings.ToUpper)
}
