package curation

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	ReasonTooShort     = "too_short"
	ReasonAllUpper     = "all_upper"
	ReasonCodeMarker   = "code_marker"
	ReasonCitation     = "citation"
	ReasonPublisher    = "publisher"
	ReasonYearTokens   = "year_tokens"
	ReasonPageNumber   = "page_number"
	ReasonSpecialChars = "special_chars"
	ReasonFewWords     = "few_words"
	ReasonNoTerminal   = "no_terminal"
)

type rule struct {
	name   string
	reject func(r *Rules, s, lower string) bool
}

// chain is evaluated in order; the first rule that rejects wins.
var chain = []rule{
	{ReasonTooShort, func(r *Rules, s, _ string) bool {
		return utf8.RuneCountInString(s) < r.MinLength
	}},
	{ReasonAllUpper, func(_ *Rules, s, _ string) bool {
		return isAllUpper(s)
	}},
	{ReasonCodeMarker, func(r *Rules, s, lower string) bool {
		return containsAny(r.CodeMarkers, s, lower)
	}},
	{ReasonCitation, func(r *Rules, s, _ string) bool {
		return r.CitationPattern != nil && r.CitationPattern.MatchString(s)
	}},
	{ReasonPublisher, func(r *Rules, s, lower string) bool {
		return containsAny(r.Publishers, s, lower)
	}},
	{ReasonYearTokens, func(r *Rules, s, _ string) bool {
		return r.YearPattern != nil && len(r.YearPattern.FindAllStringIndex(s, -1)) > r.MaxYearTokens
	}},
	{ReasonPageNumber, func(r *Rules, s, _ string) bool {
		return r.PagePattern != nil && r.PagePattern.MatchString(s)
	}},
	{ReasonSpecialChars, func(r *Rules, s, _ string) bool {
		return specialRatio(s, r.AllowedPunct) > r.MaxSpecialRatio
	}},
	{ReasonFewWords, func(r *Rules, s, _ string) bool {
		return r.WordPattern != nil && len(r.WordPattern.FindAllStringIndex(s, -1)) < r.MinWords
	}},
	{ReasonNoTerminal, func(r *Rules, s, _ string) bool {
		last, _ := utf8.DecodeLastRuneInString(s)
		return !strings.ContainsRune(r.TerminalPunct, last)
	}},
}

type Filter struct {
	rules Rules
}

func NewFilter(rules Rules) *Filter {
	return &Filter{rules: rules}
}

func (f *Filter) Rules() Rules {
	return f.rules
}

// Classify normalizes a candidate and runs the rule chain on the normalized
// form, so whatever is accepted is exactly what gets emitted. The returned
// reason is empty when the sentence is accepted.
func (f *Filter) Classify(candidate string) (string, string) {
	s := Normalize(candidate)
	lower := strings.ToLower(s)
	for _, r := range chain {
		if r.reject(&f.rules, s, lower) {
			return s, r.name
		}
	}
	return s, ""
}

// Filter yields the curated form of every accepted candidate. Each range
// over the result starts from the beginning of candidates.
func (f *Filter) Filter(candidates []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, c := range candidates {
			s, reason := f.Classify(c)
			if reason != "" {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

func isAllUpper(s string) bool {
	hasUpper := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

func containsAny(markers []Marker, s, lower string) bool {
	for _, m := range markers {
		if m.matches(s, lower) {
			return true
		}
	}
	return false
}

func specialRatio(s, allowed string) float64 {
	total, special := 0, 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(allowed, r) {
			continue
		}
		special++
	}
	if total == 0 {
		return 0
	}
	return float64(special) / float64(total)
}
