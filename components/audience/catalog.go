package audience

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	catalogVersionV1 = "1"
	// CatalogVersion exposes the current catalog format version for tooling.
	CatalogVersion = catalogVersionV1
)

// EventCatalog lists the tracked events a condition may reference, grouped by
// category in display order.
type EventCatalog struct {
	Version    string          `json:"version" yaml:"version"`
	Categories []EventCategory `json:"categories" yaml:"categories"`
	Source     string          `json:"-" yaml:"-"`
}

// EventCategory is a named list of events. Labels holds translated category
// names keyed by locale.
type EventCategory struct {
	Name   string            `json:"name" yaml:"name"`
	Label  string            `json:"label,omitempty" yaml:"-"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Events []string          `json:"events" yaml:"events"`
}

// DefaultEventCatalog returns the built-in catalog.
func DefaultEventCatalog() *EventCatalog {
	return &EventCatalog{
		Version: catalogVersionV1,
		Categories: []EventCategory{
			{
				Name:   "App Standard",
				Labels: map[string]string{"ko": "앱 표준 이벤트"},
				Events: []string{AnyEvent, "Install (App)", "Open (App)", "Deeplink Open (App)", "Uninstall (App)"},
			},
			{
				Name:   "Custom",
				Labels: map[string]string{"ko": "커스텀 이벤트"},
				Events: []string{"Purchase", "Sign Up", "Add to Cart", "Search", "View Product"},
			},
		},
	}
}

// Contains reports whether event is listed in any category.
func (c *EventCatalog) Contains(event string) bool {
	if c == nil {
		return false
	}
	for _, category := range c.Categories {
		for _, e := range category.Events {
			if e == event {
				return true
			}
		}
	}
	return false
}

// Events returns every event in category order.
func (c *EventCatalog) Events() []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, category := range c.Categories {
		out = append(out, category.Events...)
	}
	return out
}

// Localized returns a copy of the catalog with each category Label resolved
// for locale, falling back to the category name.
func (c *EventCatalog) Localized(locale string) *EventCatalog {
	if c == nil {
		return nil
	}
	out := &EventCatalog{Version: c.Version, Source: c.Source, Categories: make([]EventCategory, len(c.Categories))}
	for i, category := range c.Categories {
		category.Events = append([]string{}, category.Events...)
		category.Label = ResolveLocalizedValue(category.Labels, locale, category.Name)
		out.Categories[i] = category
	}
	return out
}

// ReadEventCatalog loads a catalog file from disk.
func ReadEventCatalog(path string) (*EventCatalog, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("audience: open catalog %s: %w", path, err)
	}
	defer f.Close()
	catalog, err := DecodeEventCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("audience: decode catalog %s: %w", path, err)
	}
	catalog.Source = path
	return catalog, nil
}

// DecodeEventCatalog reads a YAML (or JSON) catalog from any reader.
func DecodeEventCatalog(r io.Reader) (*EventCatalog, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var catalog EventCatalog
	if err := decoder.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("audience: catalog is empty")
		}
		return nil, fmt.Errorf("audience: parse catalog: %w", err)
	}
	if catalog.Version == "" {
		catalog.Version = catalogVersionV1
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate ensures the catalog is usable: a known version, named categories and
// no event listed twice. The Any Event entry is required because synthesized
// base conditions reference it.
func (c *EventCatalog) Validate() error {
	if c.Version != catalogVersionV1 {
		return fmt.Errorf("audience: unsupported catalog version %q", c.Version)
	}
	seen := map[string]struct{}{}
	for idx, category := range c.Categories {
		if category.Name == "" {
			return fmt.Errorf("audience: catalog category at index %d is missing a name", idx)
		}
		for _, event := range category.Events {
			if event == "" {
				return fmt.Errorf("audience: catalog category %s lists an empty event", category.Name)
			}
			if _, ok := seen[event]; ok {
				return fmt.Errorf("audience: catalog duplicates event %s", event)
			}
			seen[event] = struct{}{}
		}
	}
	if _, ok := seen[AnyEvent]; !ok {
		return fmt.Errorf("audience: catalog must list %q", AnyEvent)
	}
	return nil
}
