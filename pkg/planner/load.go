// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jllopis/rover/pkg/errors"
)

// LoadFile loads a plan document from a YAML or JSON file.
func LoadFile(path string) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New(errors.CodeInvalidInput, "plan path is required", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("read plans %s", path), err).
			WithContext("path", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return parseDocumentAuto(data)
	}
}

func parseDocumentAuto(data []byte) (*Document, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if doc, err := ParseJSON(data); err == nil {
			return doc, nil
		}
	}
	if doc, err := ParseYAML(data); err == nil {
		return doc, nil
	}
	if doc, err := ParseJSON(data); err == nil {
		return doc, nil
	}
	return nil, errors.New(errors.CodeInvalidInput, "unsupported plan document format", nil)
}
