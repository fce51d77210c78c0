package output

import (
	"fmt"
	"strings"

	"github.com/quantmind-br/reqscan/internal/domain"
)

// Format selects how a report is rendered
type Format string

const (
	FormatText         Format = "text"
	FormatJSON         Format = "json"
	FormatYAML         Format = "yaml"
	FormatTOML         Format = "toml"
	FormatRequirements Format = "requirements"
)

// Formats lists every supported format
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatTOML, FormatRequirements}

// ParseFormat parses a format name, case-insensitively
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", domain.NewValidationError("format", fmt.Sprintf("unknown format %q", s))
}
