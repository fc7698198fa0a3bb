// Package regions maps provider region ids to display names.
package regions

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Unknown is returned for regions without a display name.
const Unknown = "未知地区"

//go:embed regions.yaml
var defaultTable []byte

// Table holds display names keyed by provider and region id.
type Table map[string]map[string]string

// Parse decodes a YAML region table.
func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse region table: %w", err)
	}
	return t, nil
}

// Default returns the embedded region table.
func Default() Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the display name of region for provider, or Unknown.
func (t Table) Name(provider, region string) string {
	if name, ok := t[provider][region]; ok {
		return name
	}
	return Unknown
}
