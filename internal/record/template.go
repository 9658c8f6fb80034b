package record

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"jobassist-backend/internal/shared/apperr"
)

//go:embed templates/resume.yaml
var defaultTemplate []byte

// Template pairs the literal template text embedded in prompts with the
// schema derived from it.
type Template struct {
	Source string
	Text   string
	Schema *Schema
}

// LoadTemplate returns the embedded template when path is empty and reads
// the file at path otherwise. A missing or malformed file is a
// configuration error.
func LoadTemplate(path string) (*Template, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ParseTemplate("embedded", defaultTemplate)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: schema template %s not found", apperr.ErrConfiguration, path)
		}
		return nil, fmt.Errorf("%w: read schema template %s: %w", apperr.ErrConfiguration, path, err)
	}
	return ParseTemplate(path, data)
}

// DefaultTemplate returns the embedded template.
func DefaultTemplate() *Template {
	t, err := ParseTemplate("embedded", defaultTemplate)
	if err != nil {
		panic(fmt.Sprintf("embedded schema template invalid: %v", err))
	}
	return t
}

// ParseTemplate builds a Template from YAML bytes.
func ParseTemplate(source string, data []byte) (*Template, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("%w: schema template %s is empty", apperr.ErrConfiguration, source)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse schema template %s: %w", apperr.ErrConfiguration, source, err)
	}
	schema, err := NewSchema(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: schema template %s: %w", apperr.ErrConfiguration, source, err)
	}
	return &Template{
		Source: source,
		Text:   strings.TrimSpace(string(data)),
		Schema: schema,
	}, nil
}
