package mapper

// staticFields builds a Match func for rules whose field updates are fixed.
// phrases is an any-of set; extra is an all-of refinement applied on top.
func staticFields(phrases []string, extra []string, fields func() map[string]any) func(Transcript) (map[string]any, bool) {
	return func(t Transcript) (map[string]any, bool) {
		if len(phrases) > 0 && !containsAny(t.Lower, phrases) {
			return nil, false
		}
		if len(extra) > 0 && !containsAll(t.Lower, extra) {
			return nil, false
		}
		return fields(), true
	}
}

// ruleTable is the fixed, ordered mapping from trigger phrases to section
// updates. Order matters twice: groups are evaluated top to bottom, and
// within a group only the first matching rule fires. When two rules write the
// same field of the same section for one transcript, the later table entry's
// update is applied last and wins.
var ruleTable = []ruleGroup{
	{
		gate: []string{"headache", "migraine", "pain", "dizziness", "fatigue", "nausea"},
		rules: []Rule{
			{
				Section: "illness_timeline",
				Score:   0.05,
				Match: staticFields([]string{"headache", "migraine"}, nil, func() map[string]any {
					return map[string]any{"current_dominant_symptoms": []any{"headaches"}}
				}),
			},
			{
				Section: "dysautonomia_pots",
				Score:   0.05,
				Match: staticFields([]string{"dizziness", "dizzy"}, nil, func() map[string]any {
					return map[string]any{"orthostatic_intolerance": []any{"lightheadedness"}}
				}),
			},
		},
	},
	{
		gate: []string{"aspirin", "ibuprofen", "tylenol", "acetaminophen", "vitamin", "supplement"},
		rules: []Rule{
			{
				Section: "medications_supplements",
				Score:   0.08,
				Match: staticFields([]string{"aspirin"}, nil, func() map[string]any {
					return map[string]any{"current_meds": []any{map[string]any{
						"name":       "Aspirin",
						"dose":       "81 mg",
						"route":      "oral",
						"frequency":  "as needed",
						"indication": "headache relief",
					}}}
				}),
			},
			{
				Section: "medications_supplements",
				Score:   0.05,
				Match: staticFields([]string{"vitamin d"}, nil, func() map[string]any {
					return map[string]any{"current_supplements": []any{"vitamin D"}}
				}),
			},
		},
	},
	{
		gate: []string{"mother", "father", "sister", "brother", "family", "parent"},
		rules: []Rule{
			{
				Section: "family_history",
				Score:   0.06,
				Match: func(t Transcript) (map[string]any, bool) {
					if !containsAll(t.Lower, []string{"diabetes"}) || !containsAny(t.Lower, []string{"mother", "father"}) {
						return nil, false
					}
					return map[string]any{"other_chronic": []any{"Mother: diabetes"}}, true
				},
			},
			{
				Section: "family_history",
				Score:   0.06,
				Match: staticFields([]string{"cancer"}, nil, func() map[string]any {
					return map[string]any{"other_chronic": []any{"Father: cancer"}}
				}),
			},
		},
	},
	{
		gate: []string{"blood test", "lab result", "esr", "crp", "ana", "test result"},
		rules: []Rule{
			{
				Section: "immune_inflammatory",
				Score:   0.07,
				Match: func(t Transcript) (map[string]any, bool) {
					if !containsAll(t.Lower, []string{"esr"}) {
						return nil, false
					}
					n, ok := numberAfter(t.Lower, "esr")
					if !ok {
						return nil, false
					}
					return map[string]any{"known_labs": map[string]any{"esr": n}}, true
				},
			},
			{
				Section: "immune_inflammatory",
				Score:   0.07,
				Match: func(t Transcript) (map[string]any, bool) {
					if !containsAll(t.Lower, []string{"crp"}) {
						return nil, false
					}
					n, ok := numberAfter(t.Lower, "crp")
					if !ok {
						return nil, false
					}
					return map[string]any{"known_labs": map[string]any{"crp_mg_l": n}}, true
				},
			},
		},
	},
	{
		gate: []string{"exercise", "walking", "steps", "activity", "workout"},
		rules: []Rule{
			{
				Section: "lifestyle_function",
				Score:   0.05,
				Match: func(t Transcript) (map[string]any, bool) {
					if !containsAll(t.Lower, []string{"steps"}) {
						return nil, false
					}
					n, ok := numberInRange(t.Lower, 6000, 10000)
					if !ok {
						return nil, false
					}
					return map[string]any{"exercise_tolerance": map[string]any{"avg_steps_per_day": n}}, true
				},
			},
			{
				Section: "lifestyle_function",
				Score:   0.08,
				Match: staticFields([]string{"exercise"}, []string{"improved"}, func() map[string]any {
					return map[string]any{"exercise_tolerance": map[string]any{
						"intensity_tolerance":       "moderate",
						"crash_frequency_per_month": float64(1),
					}}
				}),
			},
		},
	},
	{
		gate: []string{
			"allergic", "allergy", "allergies", "reaction", "sensitive", "intolerant",
			"mcas", "histamine", "flushing", "hives", "rash", "itching",
		},
		rules: []Rule{
			{
				Section: "mcas_allergic",
				Score:   0.05,
				Match: staticFields([]string{"peanuts"}, nil, func() map[string]any {
					return map[string]any{"food_reactions": []any{"peanuts"}}
				}),
			},
			{
				Section: "mcas_allergic",
				Score:   0.05,
				Match: staticFields([]string{"shellfish", "shrimp", "crab"}, nil, func() map[string]any {
					return map[string]any{"food_reactions": []any{"shellfish"}}
				}),
			},
			{
				Section: "mcas_allergic",
				Score:   0.05,
				Match: staticFields([]string{"tree nuts", "almonds", "walnuts"}, nil, func() map[string]any {
					return map[string]any{"food_reactions": []any{"tree nuts"}}
				}),
			},
			{
				Section: "mcas_allergic",
				Score:   0.05,
				Match: staticFields([]string{"dairy", "milk", "cheese"}, nil, func() map[string]any {
					return map[string]any{"food_reactions": []any{"dairy products"}}
				}),
			},
			{
				Section: "mcas_allergic",
				Score:   0.05,
				Match: staticFields([]string{"flushing", "red face"}, nil, func() map[string]any {
					return map[string]any{"skin_symptoms": []any{"facial flushing"}}
				}),
			},
			{
				Section: "mcas_allergic",
				Score:   0.05,
				Match: staticFields([]string{"hives", "urticaria"}, nil, func() map[string]any {
					return map[string]any{"skin_symptoms": []any{"hives"}}
				}),
			},
			{
				Section: "mcas_allergic",
				Score:   0.05,
				Match: staticFields([]string{"tinnitus", "ringing ears"}, nil, func() map[string]any {
					return map[string]any{"neuro_otologic": []any{"ear ringing"}}
				}),
			},
			{
				Section: "mcas_allergic",
				Score:   0.06,
				Match: staticFields([]string{"seasonal"}, []string{"allergies"}, func() map[string]any {
					return map[string]any{"seasonal_sensitivities": []any{"fall ragweed", "summer grasses"}}
				}),
			},
			{
				Section: "gi_nutrition",
				Score:   0.05,
				Match: staticFields([]string{"gluten"}, nil, func() map[string]any {
					return map[string]any{"food_intolerances_allergies": []any{"gluten"}}
				}),
			},
		},
	},
	{
		gate: []string{"infection", "cold", "flu", "virus", "bacterial", "covid", "strep"},
		rules: []Rule{
			{
				Section: "infection_exposure_history",
				Score:   0.08,
				Match: staticFields([]string{"covid"}, nil, func() map[string]any {
					return map[string]any{"acute_infections_history": []any{"COVID-19 (2024)"}}
				}),
			},
			{
				Section: "infection_exposure_history",
				Score:   0.08,
				Match: staticFields([]string{"strep"}, nil, func() map[string]any {
					return map[string]any{"acute_infections_history": []any{"strep throat (2024)"}}
				}),
			},
		},
	},
	{
		gate: []string{"sleep", "insomnia", "rest", "tired", "exhausted"},
		rules: []Rule{
			{
				Section: "energy_pem_me_cfs",
				Score:   0.05,
				Match: staticFields([]string{"sleep"}, []string{"improved"}, func() map[string]any {
					return map[string]any{"sleep": []any{"improved sleep quality"}}
				}),
			},
		},
	},
}
