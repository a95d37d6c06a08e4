// Package catalog loads the static patient-history section catalog and builds
// per-session mutable form copies from it.
//
// The catalog itself is read-only process-wide configuration: it is loaded
// once at startup and never mutated. Sessions never share form state; each
// session gets its own deep copy via NewForm.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// SectionCount is the fixed number of sections in the patient-history form.
const SectionCount = 12

// ErrUnknownSection is returned when an update names a section the catalog
// does not define.
var ErrUnknownSection = errors.New("unknown section")

// Descriptor describes one catalog section: a stable identifier, a display
// label, and the section's field names with their default (empty) values.
type Descriptor struct {
	ID     string         `json:"id"`
	Label  string         `json:"label"`
	Fields map[string]any `json:"fields"`
}

type document struct {
	Sections []Descriptor `json:"sections"`
}

// Catalog is the loaded, immutable section catalog.
type Catalog struct {
	sections []Descriptor
	index    map[string]int
}

// Load reads and validates the catalog document at path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse validates a catalog document supplied as raw JSON.
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if len(doc.Sections) != SectionCount {
		return nil, fmt.Errorf("catalog must define exactly %d sections, got %d", SectionCount, len(doc.Sections))
	}

	index := make(map[string]int, len(doc.Sections))
	for i, s := range doc.Sections {
		if s.ID == "" {
			return nil, fmt.Errorf("catalog section %d has empty id", i)
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("catalog section id %q appears more than once", s.ID)
		}
		if s.Fields == nil {
			return nil, fmt.Errorf("catalog section %q has no fields", s.ID)
		}
		index[s.ID] = i
	}

	return &Catalog{sections: doc.Sections, index: index}, nil
}

// Sections returns the section descriptors in catalog order. Field maps are
// deep-copied so callers cannot mutate the catalog.
func (c *Catalog) Sections() []Descriptor {
	out := make([]Descriptor, len(c.sections))
	for i, s := range c.sections {
		out[i] = Descriptor{
			ID:     s.ID,
			Label:  s.Label,
			Fields: deepCopyMap(s.Fields),
		}
	}
	return out
}

// SectionIDs returns the section identifiers in catalog order.
func (c *Catalog) SectionIDs() []string {
	ids := make([]string, len(c.sections))
	for i, s := range c.sections {
		ids[i] = s.ID
	}
	return ids
}

// Has reports whether id names a catalog section.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// NewForm builds a fresh session form with every section initialized to the
// catalog defaults. The returned form shares no data with the catalog or with
// other forms.
func (c *Catalog) NewForm() *Form {
	sections := make([]*Section, len(c.sections))
	index := make(map[string]*Section, len(c.sections))
	for i, d := range c.sections {
		s := &Section{
			ID:     d.ID,
			Label:  d.Label,
			Fields: deepCopyMap(d.Fields),
		}
		sections[i] = s
		index[d.ID] = s
	}
	return &Form{sections: sections, index: index}
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		// JSON scalars (string, float64, bool, nil) are immutable.
		return v
	}
}
