package curation

import (
	"iter"
	"strings"

	"github.com/xxxsen/bookbot/internal/model"
)

// Report counts what happened to each candidate during curation.
type Report struct {
	Pages      int            `json:"pages"`
	Candidates int            `json:"candidates"`
	Accepted   int            `json:"accepted"`
	Duplicates int            `json:"duplicates"`
	Rejected   map[string]int `json:"rejected"`
}

type Pipeline struct {
	filter *Filter
}

func NewPipeline(rules Rules) *Pipeline {
	return &Pipeline{filter: NewFilter(rules)}
}

func (p *Pipeline) Filter() *Filter {
	return p.filter
}

// Text strips page noise and joins the pages so sentences that run across a
// page break are extracted whole. onPage, when set, is called once per page.
func (p *Pipeline) Text(doc model.RawDocument, onPage func(index int)) string {
	rules := p.filter.Rules()
	var sb strings.Builder
	for i, page := range doc.Pages {
		clean := StripPageNoise(page, rules)
		if clean != "" {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(clean)
		}
		if onPage != nil {
			onPage(i)
		}
	}
	return sb.String()
}

// Curate runs extract, filter and de-duplication over doc and returns the
// curated sentences in document order.
func (p *Pipeline) Curate(doc model.RawDocument, onPage func(index int)) ([]string, Report) {
	report := Report{Pages: len(doc.Pages), Rejected: make(map[string]int)}
	candidates := Extract(p.Text(doc, onPage))
	report.Candidates = len(candidates)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		s, reason := p.filter.Classify(c)
		if reason != "" {
			report.Rejected[reason]++
			continue
		}
		if _, ok := seen[s]; ok {
			report.Duplicates++
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	report.Accepted = len(out)
	return out, report
}

// Seeds is the lazy form of Curate without the report.
func (p *Pipeline) Seeds(doc model.RawDocument) iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]struct{})
		for s := range p.filter.Filter(Extract(p.Text(doc, nil))) {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			if !yield(s) {
				return
			}
		}
	}
}
