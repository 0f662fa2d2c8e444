package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnknownTextbook is used for subjects missing from the catalog.
const UnknownTextbook = "Unknown Subject"

//go:embed subjects.yaml
var defaultSubjects []byte

// Subject is one catalog entry.
type Subject struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Textbook string `yaml:"textbook"`
}

// Catalog resolves subject codes or names to their reference textbook.
type Catalog struct {
	Subjects []Subject `yaml:"subjects"`
	index    map[string]Subject
}

// LoadCatalog reads the catalog from path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultSubjects
	if path != "" {
		b, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, fmt.Errorf("op=config.LoadCatalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("op=config.ParseCatalog: %w", err)
	}
	c.index = make(map[string]Subject, len(c.Subjects)*2)
	for _, s := range c.Subjects {
		if s.Code == "" {
			return nil, fmt.Errorf("op=config.ParseCatalog: subject without code")
		}
		c.index[strings.ToUpper(s.Code)] = s
		if s.Name != "" {
			c.index[strings.ToUpper(s.Name)] = s
		}
	}
	return &c, nil
}

// Lookup finds a subject by code or name, case-insensitively.
func (c *Catalog) Lookup(subject string) (Subject, bool) {
	if c == nil {
		return Subject{}, false
	}
	s, ok := c.index[strings.ToUpper(strings.TrimSpace(subject))]
	return s, ok
}

// Textbook returns the reference textbook for subject or UnknownTextbook.
func (c *Catalog) Textbook(subject string) string {
	if s, ok := c.Lookup(subject); ok && s.Textbook != "" {
		return s.Textbook
	}
	return UnknownTextbook
}
