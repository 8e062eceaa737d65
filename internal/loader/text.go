package loader

import "strings"

const pageBreak = "\f"

// ParseText splits plain text on form feeds, the page separator pdftotext
// writes after every page. Blank pages are kept so page counts match the
// physical book; only the empty tail after the final form feed is dropped.
// Text without form feeds is a single page.
func ParseText(data []byte) []string {
	if len(data) == 0 {
		return []string{}
	}
	pages := strings.Split(string(data), pageBreak)
	if last := len(pages) - 1; last > 0 && strings.TrimSpace(pages[last]) == "" {
		pages = pages[:last]
	}
	return pages
}

func dropBlankPages(pages []string) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
