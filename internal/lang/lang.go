// Package lang provides the user-facing message catalogs.
package lang

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed catalogs/*.json
var catalogFS embed.FS

// Catalog resolves message ids to localized text.
type Catalog struct {
	messages map[string]string
	fallback map[string]string
}

// Load reads the catalog for the given language code, falling back to
// English for languages and individual keys that are missing.
func Load(code string) (*Catalog, error) {
	fallback, err := readCatalog("en")
	if err != nil {
		return nil, fmt.Errorf("loading fallback catalog: %w", err)
	}

	messages := fallback
	if code != "" && code != "en" {
		if m, err := readCatalog(code); err == nil {
			messages = m
		}
	}

	return &Catalog{messages: messages, fallback: fallback}, nil
}

// Get returns the message for id. Placeholders of the form {name} are
// substituted from args. A missing id yields the id itself, so a
// forgotten key is visible instead of blank.
func (c *Catalog) Get(id string, args map[string]string) string {
	msg, ok := c.messages[id]
	if !ok {
		msg, ok = c.fallback[id]
	}
	if !ok {
		return id
	}
	for name, value := range args {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}

func readCatalog(code string) (map[string]string, error) {
	data, err := catalogFS.ReadFile("catalogs/" + code + ".json")
	if err != nil {
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", code, err)
	}
	return m, nil
}
