package enums

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CatalogImportStatus tracks a queued price-list import.
type CatalogImportStatus string

const (
	CatalogImportPending   CatalogImportStatus = "pending"
	CatalogImportSucceeded CatalogImportStatus = "succeeded"
	CatalogImportFailed    CatalogImportStatus = "failed"
)

// IsTerminal reports whether the import finished.
func (s CatalogImportStatus) IsTerminal() bool {
	return s == CatalogImportSucceeded || s == CatalogImportFailed
}

// CatalogFormat is the serialization of an uploaded price list.
type CatalogFormat string

const (
	CatalogFormatYAML CatalogFormat = "yaml"
	CatalogFormatJSON CatalogFormat = "json"
)

// ParseCatalogFormat accepts format names, file names and content types.
// Empty input defaults to YAML.
func ParseCatalogFormat(value string) (CatalogFormat, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return CatalogFormatYAML, nil
	}
	if i := strings.Index(v, ";"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	switch v {
	case "yaml", "yml", "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return CatalogFormatYAML, nil
	case "json", "application/json", "text/json":
		return CatalogFormatJSON, nil
	}
	switch filepath.Ext(v) {
	case ".yaml", ".yml":
		return CatalogFormatYAML, nil
	case ".json":
		return CatalogFormatJSON, nil
	}
	return "", fmt.Errorf("unsupported catalog format %q", value)
}
