// Package mapper maps transcript text onto patient-history section updates.
//
// Matching is deterministic, case-insensitive substring containment against a
// fixed rule table, evaluated in declaration order. There is no natural
// language understanding and no memory of prior transcripts; accumulated form
// state lives in the owning session, not here.
package mapper

import (
	"strconv"
	"strings"
)

// Update is one section update produced by a rule match: the target section,
// the field values to merge, and a completeness increment.
type Update struct {
	Section      string
	Fields       map[string]any
	Completeness float64
}

// Rule is one entry of the rule table. Match inspects the transcript and, on
// a hit, returns the field values to merge into Section. Score is the fixed
// completeness increment the rule contributes.
type Rule struct {
	Section string
	Score   float64
	Match   func(t Transcript) (map[string]any, bool)
}

// ruleGroup gates a run of rules behind an any-of trigger set. Within a group
// the first matching rule wins; groups are independent of each other, so one
// transcript can produce several updates.
type ruleGroup struct {
	gate  []string
	rules []Rule
}

// Transcript is the pre-lowered view of one transcript a rule matches on.
type Transcript struct {
	Raw   string
	Lower string
}

// Map returns the section updates triggered by one transcript, in rule table
// order. A transcript that matches nothing returns an empty slice; that is
// the normal case, not an error.
func Map(transcript string) []Update {
	t := Transcript{
		Raw:   transcript,
		Lower: strings.ToLower(transcript),
	}

	var updates []Update
	for _, g := range ruleTable {
		if !containsAny(t.Lower, g.gate) {
			continue
		}
		for _, r := range g.rules {
			fields, ok := r.Match(t)
			if !ok {
				continue
			}
			updates = append(updates, Update{
				Section:      r.Section,
				Fields:       fields,
				Completeness: r.Score,
			})
			break
		}
	}
	return updates
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func containsAll(lower string, phrases []string) bool {
	for _, p := range phrases {
		if !strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

// numberAfter extracts the first numeric token following the keyword, falling
// back to the first numeric token anywhere in the transcript. Lab and
// lifestyle rules use it to lift spoken values into field updates.
func numberAfter(lower, keyword string) (float64, bool) {
	tokens := tokenize(lower)
	start := 0
	for i, tok := range tokens {
		if strings.Contains(tok, keyword) {
			start = i + 1
			break
		}
	}
	if n, ok := firstNumber(tokens[start:]); ok {
		return n, true
	}
	return firstNumber(tokens)
}

// numberInRange returns the first numeric token in [lo, hi), scanning the
// whole transcript.
func numberInRange(lower string, lo, hi float64) (float64, bool) {
	for _, tok := range tokenize(lower) {
		n, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		if n >= lo && n < hi {
			return n, true
		}
	}
	return 0, false
}

func firstNumber(tokens []string) (float64, bool) {
	for _, tok := range tokens {
		if n, err := strconv.ParseFloat(tok, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		case r == '.':
			return false
		default:
			return true
		}
	})
}
