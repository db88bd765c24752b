// Package extract pulls budget, timeline, constraint, and commitment
// mentions out of normalized message text using pattern rules.
//
// This is deliberately a heuristic classifier, not a parser: it trades
// recall for precision by requiring cue-word co-occurrence rather than
// single keywords. False negatives are expected and acceptable; false
// positives should stay rare.
package extract

import (
	"regexp"
	"strings"
)

// Commitment is a first-person promise of future action found in a
// message. MadeBy is filled in by the caller with the sender of the
// message it came from.
type Commitment struct {
	Text    string `json:"commitment"`
	DueDate string `json:"due_date,omitempty"`
	MadeBy  string `json:"by"`
}

// Patterns is the compiled pattern table. Build it once at startup and
// pass it by reference; it is immutable and safe for concurrent use.
type Patterns struct {
	budget         *regexp.Regexp
	timeline       *regexp.Regexp
	constraint     *regexp.Regexp
	commitmentVerb *regexp.Regexp
	commitmentNoun *regexp.Regexp
	dueDate        *regexp.Regexp
}

// DefaultPatterns returns the built-in pattern table.
func DefaultPatterns() *Patterns {
	return &Patterns{
		// Money cue word followed by an amount-like token within a short window.
		budget: regexp.MustCompile(`(?i)(budget|cost|price|quote|rate)\s*(?:is|of|around|approx|~|\s+)*[\$€£]?\d+(?:[kK]|\d{3})?`),

		// Start/deadline cue, preposition, then a month, relative phrase, or quarter.
		timeline: regexp.MustCompile(`(?i)(start|begin|launch|live|deadline)\s*(by|in|on|before|after)\s*(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec|next week|next month|Q[1-4])`),

		// Dependency/blocker cues; the matched cue phrase is the extracted value.
		constraint: regexp.MustCompile(`(?i)(need|must|have to|blocking|waiting on|approval|sign-off)`),

		// First-person future-action verbs (primary tier).
		commitmentVerb: regexp.MustCompile(`(?i)(I'll|I will|Let me|I can)\s+(send|provide|check|draft|update|follow up)`),

		// Noun-based fallback, only consulted when the verb tier finds nothing.
		commitmentNoun: regexp.MustCompile(`(?i)(expect|look for)\s+(a|the)\s+(draft|proposal|update)`),

		dueDate: regexp.MustCompile(`(?i)(by|on)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday|jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec|next week|next month|tomorrow|tonight|\d{1,2}[/-]\d{1,2})`),
	}
}

// Budget returns the first budget mention, or "" when none is found.
// A miss is a normal outcome, not an error.
func (p *Patterns) Budget(text string) string {
	return p.budget.FindString(text)
}

// Timeline returns the first timeline mention, or "".
func (p *Patterns) Timeline(text string) string {
	return p.timeline.FindString(text)
}

// Constraint returns the first dependency/blocker cue phrase, or "".
func (p *Patterns) Constraint(text string) string {
	return p.constraint.FindString(text)
}

// DueDate returns the first due-date cue in text, or "".
func (p *Patterns) DueDate(text string) string {
	return p.dueDate.FindString(text)
}

// Commitments finds every commitment in text. The verb tier is primary;
// the noun tier is a fallback consulted only when the verb tier matched
// nothing, which also keeps overlapping verb/noun hits from producing
// duplicates. Overlapping verb-tier matches within one sentence are all
// kept.
func (p *Patterns) Commitments(text string) []Commitment {
	var out []Commitment

	for _, loc := range p.commitmentVerb.FindAllStringIndex(text, -1) {
		out = append(out, p.commitmentAt(text, loc[0], loc[1]))
	}
	if len(out) > 0 {
		return out
	}

	for _, loc := range p.commitmentNoun.FindAllStringIndex(text, -1) {
		out = append(out, p.commitmentAt(text, loc[0], loc[1]))
	}
	return out
}

func (p *Patterns) commitmentAt(text string, start, end int) Commitment {
	sentence := sentenceContext(text, start, end)
	return Commitment{
		Text:    sentence,
		DueDate: p.DueDate(sentence),
	}
}

// sentenceContext returns the sentence containing [start,end), bounded by
// the nearest preceding and following period or the text boundaries.
// Known limitation: abbreviations and decimal numbers also end a
// "sentence" under this rule. That is acceptable here; the output is
// human-readable commitment text, not parsed structure.
func sentenceContext(text string, start, end int) string {
	sentStart := strings.LastIndex(text[:start], ".") + 1

	sentEnd := strings.Index(text[end:], ".")
	if sentEnd < 0 {
		return strings.TrimSpace(text[sentStart:])
	}
	return strings.TrimSpace(text[sentStart : end+sentEnd+1])
}
