package catalog

import (
	"fmt"
	"reflect"
)

// Section is one mutable section of a session form.
type Section struct {
	ID           string
	Label        string
	Fields       map[string]any
	Completeness float64
}

// Form holds the mutable per-session copy of all twelve sections. It is not
// safe for concurrent use; the owning session is its sole writer.
type Form struct {
	sections []*Section
	index    map[string]*Section
}

// Section returns the section with the given id.
func (f *Form) Section(id string) (*Section, bool) {
	s, ok := f.index[id]
	return s, ok
}

// Apply merges the given field updates into the named section and raises its
// completeness score by the given increment (clamped to 1.0). It returns a
// snapshot of the section's merged field values.
//
// Merge rules, per field:
//   - list into list: append values not already present
//   - object into object: shallow key merge, incoming keys win
//   - anything else: overwrite
//   - fields not named by the update are left untouched
//
// A set value is only ever overwritten, never removed.
func (f *Form) Apply(sectionID string, fields map[string]any, completeness float64) (map[string]any, error) {
	s, ok := f.index[sectionID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, sectionID)
	}

	for key, incoming := range fields {
		existing, present := s.Fields[key]
		if !present {
			s.Fields[key] = deepCopyValue(incoming)
			continue
		}
		s.Fields[key] = mergeValue(existing, incoming)
	}

	if completeness > 0 {
		s.Completeness += completeness
		if s.Completeness > 1 {
			s.Completeness = 1
		}
	}

	return deepCopyMap(s.Fields), nil
}

func mergeValue(existing, incoming any) any {
	switch ex := existing.(type) {
	case []any:
		in, ok := incoming.([]any)
		if !ok {
			return deepCopyValue(incoming)
		}
		merged := ex
		for _, item := range in {
			if !containsValue(merged, item) {
				merged = append(merged, deepCopyValue(item))
			}
		}
		return merged
	case map[string]any:
		in, ok := incoming.(map[string]any)
		if !ok {
			return deepCopyValue(incoming)
		}
		for k, v := range in {
			ex[k] = deepCopyValue(v)
		}
		return ex
	default:
		return deepCopyValue(incoming)
	}
}

func containsValue(list []any, item any) bool {
	for _, e := range list {
		if reflect.DeepEqual(e, item) {
			return true
		}
	}
	return false
}
