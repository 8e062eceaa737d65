package curation

import (
	"regexp"
	"strings"
)

// Marker is a substring that disqualifies a sentence when present.
type Marker struct {
	Text     string `json:"text"`
	FoldCase bool   `json:"fold_case"`
}

func (m Marker) matches(s, lower string) bool {
	if m.Text == "" {
		return false
	}
	if m.FoldCase {
		return strings.Contains(lower, strings.ToLower(m.Text))
	}
	return strings.Contains(s, m.Text)
}

// Rules holds the thresholds and pattern tables the filter chain reads.
type Rules struct {
	MinLength       int
	CodeMarkers     []Marker
	Publishers      []Marker
	CitationPattern *regexp.Regexp
	YearPattern     *regexp.Regexp
	MaxYearTokens   int
	PagePattern     *regexp.Regexp
	AllowedPunct    string
	MaxSpecialRatio float64
	WordPattern     *regexp.Regexp
	MinWords        int
	TerminalPunct   string
}

var (
	defaultCitationPattern = regexp.MustCompile(`\b[A-Z][a-z]+,\s+[A-Z][a-z]+\b.*\b\d{4}\b`)
	defaultYearPattern     = regexp.MustCompile(`\b\d{4}\b`)
	// Lower-case roman numerals only count after a label; bare ones must be
	// upper case and at least two letters, so "vivid" or "I" stay words.
	defaultPagePattern     = regexp.MustCompile(`^(?:(?i:page|p\.|chapter|chap\.|part|section)\s*(?:[0-9]+|(?i:[ivxlcdm]+))|[0-9]+|[IVXLCDM]{2,})\s*[.:]?$`)
	defaultWordPattern     = regexp.MustCompile(`\b[A-Za-z]{3,}\b`)
)

var defaultCodeMarkers = []Marker{
	{Text: "#include"},
	{Text: "#define"},
	{Text: "#ifdef"},
	{Text: "#ifndef"},
	{Text: "#endif"},
	{Text: "#pragma"},
	{Text: "struct "},
	{Text: "sizeof("},
	{Text: "typedef "},
	{Text: "/*"},
	{Text: "*/"},
	{Text: "//"},
	{Text: "->"},
	{Text: "(cid:"},
	{Text: "�"},
	{Text: "http://", FoldCase: true},
	{Text: "https://", FoldCase: true},
	{Text: "www.", FoldCase: true},
	{Text: "digitized by", FoldCase: true},
	{Text: "intentionally left blank", FoldCase: true},
	{Text: "all rights reserved", FoldCase: true},
	{Text: "isbn", FoldCase: true},
}

var defaultPublishers = []Marker{
	{Text: "Random House"},
	{Text: "University Press"},
	{Text: "Penguin"},
	{Text: "Wiley"},
	{Text: "Springer"},
	{Text: "HarperCollins"},
	{Text: "Basic Books"},
	{Text: "Simon & Schuster"},
	{Text: "Oxford University"},
	{Text: "MIT Press"},
	{Text: "Econometrica"},
	{Text: "Journal of", FoldCase: true},
	{Text: "Review of"},
	{Text: "Proceedings of", FoldCase: true},
	{Text: "Publishing", FoldCase: true},
	{Text: "Publishers", FoldCase: true},
	{Text: "et al."},
	{Text: "Vol."},
	{Text: "pp."},
	{Text: "Ibid", FoldCase: true},
}

// DefaultRules is tuned for OCR'd or PDF-extracted book text. It leans
// toward rejecting: a dropped good sentence is cheap, a garbage seed is not.
func DefaultRules() Rules {
	return Rules{
		MinLength:       20,
		CodeMarkers:     append([]Marker(nil), defaultCodeMarkers...),
		Publishers:      append([]Marker(nil), defaultPublishers...),
		CitationPattern: defaultCitationPattern,
		YearPattern:     defaultYearPattern,
		MaxYearTokens:   2,
		PagePattern:     defaultPagePattern,
		AllowedPunct:    " .,!?;:-'\"",
		MaxSpecialRatio: 0.2,
		WordPattern:     defaultWordPattern,
		MinWords:        3,
		TerminalPunct:   ".!?:;",
	}
}

// WithExtra returns a copy of r with additional code markers and publisher
// substrings appended.
func (r Rules) WithExtra(codeMarkers, publishers []Marker) Rules {
	r.CodeMarkers = append(append([]Marker(nil), r.CodeMarkers...), codeMarkers...)
	r.Publishers = append(append([]Marker(nil), r.Publishers...), publishers...)
	return r
}
