// Package ioconnect implements the source connectors: local JSONL
// dumps, local SQLite dumps and the OpenAlex HTTP API. Connector
// instances are declared in sources.yaml and registered explicitly at
// process start.
package ioconnect

import (
	"os"
	"strings"

	"github.com/scholdb/scholdb/pkg/connector"
	"gopkg.in/yaml.v3"
)

// Source declares one connector instance in sources.yaml.
type Source struct {
	// Name is the registry name; it also stamps provenance on every
	// candidate the connector emits.
	Name string `yaml:"name"`

	// Type selects the implementation: "jsonl", "sqlite" or "openalex".
	Type string `yaml:"type"`

	// Path locates the dump file for jsonl and sqlite sources.
	Path string `yaml:"path,omitempty"`

	// URL overrides the API base for openalex sources.
	URL string `yaml:"url,omitempty"`

	// Quality is the source-reliability score for field precedence.
	Quality int `yaml:"quality"`

	// RateLimit caps API requests per second. Zero means the
	// implementation default.
	RateLimit float64 `yaml:"rate_limit,omitempty"`
}

// Sources is the sources.yaml document.
type Sources struct {
	Connectors []Source `yaml:"connectors"`
}

// LoadSources reads and parses a sources.yaml file.
func LoadSources(path string) (*Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, SourcesError(path, err)
	}

	var s Sources
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, SourcesError(path, err)
	}
	return &s, nil
}

// BuildRegistry creates and registers a connector for every declared
// source. An unknown type fails loudly: a typo in sources.yaml should
// not silently drop a source. API connectors resume interrupted
// harvests through the cursor store; nil starts every batch fresh.
func BuildRegistry(
	s *Sources, cursors CursorStore,
) (*connector.Registry, error) {
	reg := connector.NewRegistry()
	for _, src := range s.Connectors {
		var c connector.Connector
		switch src.Type {
		case "jsonl":
			c = NewJSONL(src)
		case "sqlite":
			c = NewSQLite(src)
		case "openalex":
			c = NewOpenAlex(src, cursors)
		default:
			return nil, TypeError(src.Name, src.Type)
		}
		if err := reg.Register(c); err != nil {
			return nil, SourcesError(src.Name, err)
		}
	}
	return reg, nil
}

// matchesSearch is the shared free-text filter of the local dump
// connectors: case-insensitive substring match on the title. An empty
// search matches everything.
func matchesSearch(search, title string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(
		strings.ToLower(title), strings.ToLower(search))
}
