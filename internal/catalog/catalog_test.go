package catalog

import (
	"strings"
	"testing"
)

const shippedCatalogPath = "../../static/patient_history.json"

func loadShipped(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load(shippedCatalogPath)
	if err != nil {
		t.Fatalf("failed to load shipped catalog: %v", err)
	}
	return c
}

func TestLoad_ShippedCatalog(t *testing.T) {
	c := loadShipped(t)

	ids := c.SectionIDs()
	if len(ids) != SectionCount {
		t.Fatalf("expected %d sections, got %d", SectionCount, len(ids))
	}

	for _, want := range []string{
		"illness_timeline",
		"medications_supplements",
		"family_history",
		"immune_inflammatory",
		"mcas_allergic",
		"lifestyle_function",
	} {
		if !c.Has(want) {
			t.Errorf("shipped catalog missing section %q", want)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("testdata/does-not-exist.json"); err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}

func TestParse_RejectsWrongSectionCount(t *testing.T) {
	doc := `{"sections":[{"id":"only_one","label":"Only One","fields":{"a":""}}]}`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for wrong section count")
	}
}

func TestParse_RejectsDuplicateIDs(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"sections":[`)
	for i := 0; i < SectionCount; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"id":"dup","label":"Dup","fields":{"a":""}}`)
	}
	b.WriteString(`]}`)

	if _, err := Parse([]byte(b.String())); err == nil {
		t.Fatal("expected error for duplicate section ids")
	}
}

func TestNewForm_CopiesAreIndependent(t *testing.T) {
	c := loadShipped(t)

	f1 := c.NewForm()
	f2 := c.NewForm()

	if _, err := f1.Apply("illness_timeline", map[string]any{
		"current_dominant_symptoms": []any{"headaches"},
	}, 0.05); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	s2, ok := f2.Section("illness_timeline")
	if !ok {
		t.Fatal("section missing from second form")
	}
	symptoms, ok := s2.Fields["current_dominant_symptoms"].([]any)
	if !ok {
		t.Fatalf("unexpected field type: %T", s2.Fields["current_dominant_symptoms"])
	}
	if len(symptoms) != 0 {
		t.Errorf("second form mutated by first form's update: %v", symptoms)
	}
	if s2.Completeness != 0 {
		t.Errorf("second form completeness changed: %v", s2.Completeness)
	}
}

func TestForm_AllSectionsStartEmpty(t *testing.T) {
	c := loadShipped(t)
	f := c.NewForm()

	for _, id := range c.SectionIDs() {
		s, ok := f.Section(id)
		if !ok {
			t.Fatalf("form missing section %q", id)
		}
		if s.Completeness != 0 {
			t.Errorf("section %q: expected completeness 0, got %v", id, s.Completeness)
		}
		if len(s.Fields) == 0 {
			t.Errorf("section %q: expected default fields", id)
		}
	}
}
