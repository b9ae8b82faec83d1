package timeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a timeline file: the clips plus the export settings.
type Document struct {
	Clips  []Clip       `json:"clips" yaml:"clips"`
	Export ExportConfig `json:"export" yaml:"export"`
}

// LoadDocument reads a timeline from a JSON or YAML file, chosen by extension.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	doc, err := DecodeDocument(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// DecodeDocument parses a timeline payload. Format is "json", "yaml" or "yml";
// anything else is sniffed from the first non-space byte.
func DecodeDocument(data []byte, format string) (*Document, error) {
	var doc Document
	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse timeline json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse timeline yaml: %w", err)
		}
	default:
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "{") {
			return DecodeDocument(data, "json")
		}
		return DecodeDocument(data, "yaml")
	}
	return &doc, nil
}

// Encode renders the document as JSON or YAML.
func (d Document) Encode(format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return yaml.Marshal(d)
	default:
		return json.MarshalIndent(d, "", "  ")
	}
}
