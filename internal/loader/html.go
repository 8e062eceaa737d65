package loader

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const defaultPageSelector = "body"

// ParseHTML yields one page per element matching selector.
func ParseHTML(r io.Reader, selector string) ([]string, error) {
	if strings.TrimSpace(selector) == "" {
		selector = defaultPageSelector
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, nav").Remove()

	pages := make([]string, 0)
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		page := strings.TrimSpace(sel.Text())
		if page != "" {
			pages = append(pages, page)
		}
	})
	return pages, nil
}
