package mapper

import (
	"reflect"
	"testing"
)

func single(t *testing.T, transcript string) Update {
	t.Helper()
	updates := Map(transcript)
	if len(updates) != 1 {
		t.Fatalf("expected exactly one update for %q, got %d: %+v", transcript, len(updates), updates)
	}
	return updates[0]
}

func TestMap_NoTriggerPhrase_ReturnsEmpty(t *testing.T) {
	transcripts := []string{
		"",
		"the weather is nice today",
		"let's review the schedule for next week",
		"nothing medical in this sentence at all",
	}

	for _, tr := range transcripts {
		if updates := Map(tr); len(updates) != 0 {
			t.Errorf("Map(%q): expected no updates, got %+v", tr, updates)
		}
	}
}

func TestMap_Headaches_TargetsIllnessTimeline(t *testing.T) {
	u := single(t, "I have headaches")

	if u.Section != "illness_timeline" {
		t.Errorf("expected illness_timeline, got %s", u.Section)
	}
	if u.Completeness <= 0 {
		t.Errorf("expected completeness > 0, got %v", u.Completeness)
	}
	want := map[string]any{"current_dominant_symptoms": []any{"headaches"}}
	if !reflect.DeepEqual(u.Fields, want) {
		t.Errorf("expected %v, got %v", want, u.Fields)
	}
}

func TestMap_Aspirin_TargetsMedications(t *testing.T) {
	u := single(t, "I take aspirin")

	if u.Section != "medications_supplements" {
		t.Errorf("expected medications_supplements, got %s", u.Section)
	}
	meds, ok := u.Fields["current_meds"].([]any)
	if !ok || len(meds) != 1 {
		t.Fatalf("expected one medication entry, got %v", u.Fields["current_meds"])
	}
	med := meds[0].(map[string]any)
	if med["name"] != "Aspirin" {
		t.Errorf("expected Aspirin, got %v", med["name"])
	}
}

func TestMap_MotherDiabetes_TargetsFamilyHistory(t *testing.T) {
	u := single(t, "My mother has diabetes")

	if u.Section != "family_history" {
		t.Errorf("expected family_history, got %s", u.Section)
	}
	want := map[string]any{"other_chronic": []any{"Mother: diabetes"}}
	if !reflect.DeepEqual(u.Fields, want) {
		t.Errorf("expected %v, got %v", want, u.Fields)
	}
}

func TestMap_CaseInsensitive(t *testing.T) {
	u := single(t, "I Have HEADACHES Again")
	if u.Section != "illness_timeline" {
		t.Errorf("expected illness_timeline, got %s", u.Section)
	}
}

func TestMap_LabValues_ExtractNumericToken(t *testing.T) {
	tests := []struct {
		transcript string
		field      string
		want       float64
	}{
		{"my esr test came back at 15", "esr", 15},
		{"the lab result shows esr of 22", "esr", 22},
		{"my crp came back at 2.5", "crp_mg_l", 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			u := single(t, tt.transcript)
			if u.Section != "immune_inflammatory" {
				t.Fatalf("expected immune_inflammatory, got %s", u.Section)
			}
			labs := u.Fields["known_labs"].(map[string]any)
			if labs[tt.field] != tt.want {
				t.Errorf("expected %s=%v, got %v", tt.field, tt.want, labs[tt.field])
			}
		})
	}
}

func TestMap_LabKeywordWithoutValue_NoUpdate(t *testing.T) {
	if updates := Map("they ran an esr test yesterday"); len(updates) != 0 {
		t.Errorf("expected no update without a numeric value, got %+v", updates)
	}
}

func TestMap_DailySteps_ExtractsCount(t *testing.T) {
	u := single(t, "I'm walking about 7500 steps per day now")

	if u.Section != "lifestyle_function" {
		t.Fatalf("expected lifestyle_function, got %s", u.Section)
	}
	tol := u.Fields["exercise_tolerance"].(map[string]any)
	if tol["avg_steps_per_day"] != float64(7500) {
		t.Errorf("expected 7500 steps, got %v", tol["avg_steps_per_day"])
	}
}

func TestMap_StepsOutOfRange_NoUpdate(t *testing.T) {
	if updates := Map("I only managed 500 steps today"); len(updates) != 0 {
		t.Errorf("expected no update for out-of-range step count, got %+v", updates)
	}
}

func TestMap_AllergyRules(t *testing.T) {
	tests := []struct {
		transcript string
		section    string
		field      string
		item       string
	}{
		{"I'm allergic to peanuts", "mcas_allergic", "food_reactions", "peanuts"},
		{"I'm allergic to shellfish", "mcas_allergic", "food_reactions", "shellfish"},
		{"I get hives when I eat tree nuts", "mcas_allergic", "food_reactions", "tree nuts"},
		{"I'm sensitive to dairy, milk is the worst", "mcas_allergic", "food_reactions", "dairy products"},
		{"I get facial flushing after meals", "mcas_allergic", "skin_symptoms", "facial flushing"},
		{"the rash turned into hives", "mcas_allergic", "skin_symptoms", "hives"},
		{"I'm sensitive to noise and have tinnitus", "mcas_allergic", "neuro_otologic", "ear ringing"},
		{"I get a bad reaction to gluten", "gi_nutrition", "food_intolerances_allergies", "gluten"},
	}

	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			u := single(t, tt.transcript)
			if u.Section != tt.section {
				t.Fatalf("expected section %s, got %s", tt.section, u.Section)
			}
			items, ok := u.Fields[tt.field].([]any)
			if !ok || len(items) == 0 {
				t.Fatalf("expected %s list, got %v", tt.field, u.Fields)
			}
			if items[0] != tt.item {
				t.Errorf("expected %q, got %v", tt.item, items[0])
			}
		})
	}
}

func TestMap_SeasonalAllergies(t *testing.T) {
	u := single(t, "I have seasonal allergies to pollen")

	if u.Section != "mcas_allergic" {
		t.Fatalf("expected mcas_allergic, got %s", u.Section)
	}
	if _, ok := u.Fields["seasonal_sensitivities"]; !ok {
		t.Errorf("expected seasonal_sensitivities, got %v", u.Fields)
	}
}

func TestMap_Infections(t *testing.T) {
	u := single(t, "I had covid again last month")
	if u.Section != "infection_exposure_history" {
		t.Errorf("expected infection_exposure_history, got %s", u.Section)
	}

	u = single(t, "I came down with a strep infection")
	if u.Section != "infection_exposure_history" {
		t.Errorf("expected infection_exposure_history, got %s", u.Section)
	}
}

func TestMap_SleepImproved(t *testing.T) {
	u := single(t, "my sleep has improved significantly")
	if u.Section != "energy_pem_me_cfs" {
		t.Errorf("expected energy_pem_me_cfs, got %s", u.Section)
	}
}

func TestMap_WithinGroup_FirstMatchWins(t *testing.T) {
	// Both the headache and dizziness rules live in the symptom group; only
	// the first matching rule in table order may fire.
	updates := Map("I get headaches and dizziness when standing")

	var symptomUpdates []Update
	for _, u := range updates {
		if u.Section == "illness_timeline" || u.Section == "dysautonomia_pots" {
			symptomUpdates = append(symptomUpdates, u)
		}
	}
	if len(symptomUpdates) != 1 {
		t.Fatalf("expected one symptom-group update, got %+v", symptomUpdates)
	}
	if symptomUpdates[0].Section != "illness_timeline" {
		t.Errorf("expected earlier rule (illness_timeline) to win, got %s", symptomUpdates[0].Section)
	}
}

func TestMap_IndependentGroups_MultipleUpdates(t *testing.T) {
	updates := Map("I have headaches so I take aspirin")

	if len(updates) != 2 {
		t.Fatalf("expected two updates, got %+v", updates)
	}
	// Table declaration order is preserved.
	if updates[0].Section != "illness_timeline" || updates[1].Section != "medications_supplements" {
		t.Errorf("unexpected order: %s then %s", updates[0].Section, updates[1].Section)
	}
}

func TestMap_Deterministic(t *testing.T) {
	transcript := "I have headaches and I take aspirin and my mother has diabetes"

	first := Map(transcript)
	for i := 0; i < 10; i++ {
		if got := Map(transcript); !reflect.DeepEqual(got, first) {
			t.Fatalf("mapping not deterministic: %+v vs %+v", first, got)
		}
	}
}
