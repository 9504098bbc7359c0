package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse reads a script file (YAML or JSON by extension, YAML first
// otherwise) and validates it.
func Parse(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseBytes(data, "yaml")
	case ".json":
		return ParseBytes(data, "json")
	default:
		s, yamlErr := ParseBytes(data, "yaml")
		if yamlErr == nil {
			return s, nil
		}
		if s, err := ParseBytes(data, "json"); err == nil {
			return s, nil
		}
		return nil, yamlErr
	}
}

// ParseBytes parses script content in the given format ("yaml" or
// "json"), applies project defaults and runs validation.
func ParseBytes(data []byte, format string) (*Script, error) {
	s := &Script{Project: defaultProject()}

	var err error
	if format == "json" {
		err = json.Unmarshal(data, s)
	} else {
		err = yaml.Unmarshal(data, s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedScript, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ToYAML serializes the script back to its textual form. Parsing the
// result yields an equal Script.
func ToYAML(s *Script) ([]byte, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode script: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode script: %w", err)
	}
	return []byte(sb.String()), nil
}
