package curation

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	sentenceBreak  = regexp.MustCompile(`[.!?]\s`)
	spaceBeforeEnd = regexp.MustCompile(`\s+([,.!?])`)
)

// Extract splits text into candidate sentences. The split happens right
// after a terminal mark followed by whitespace, so abbreviations over-split
// and unpunctuated runs under-split; the filter drops what comes out wrong.
func Extract(text string) []string {
	normalized := strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if normalized == "" {
		return nil
	}
	var out []string
	start := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(normalized, -1) {
		end := loc[0] + 1
		if frag := strings.TrimSpace(normalized[start:end]); frag != "" {
			out = append(out, frag)
		}
		start = end
	}
	if frag := strings.TrimSpace(normalized[start:]); frag != "" {
		out = append(out, frag)
	}
	return out
}

// Normalize collapses whitespace and removes the stray space that PDF
// extraction leaves before punctuation. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	return spaceBeforeEnd.ReplaceAllString(s, "$1")
}

// StripPageNoise drops running headers (all upper-case lines) and bare page
// number lines from one page of extracted text.
func StripPageNoise(page string, rules Rules) string {
	lines := strings.Split(page, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isAllUpper(trimmed) && letterCount(trimmed) > 1 {
			continue
		}
		if rules.PagePattern != nil && rules.PagePattern.MatchString(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
