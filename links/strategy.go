package links

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy picks candidate links out of a parsed page.
type Strategy interface {
	Name() string
	Candidates(doc *goquery.Document) []NavLink
}

// SelectorStrategy collects the anchors matched by a CSS selector. A
// selector that matches containers rather than anchors collects the anchors
// inside them.
type SelectorStrategy struct {
	Selector string
}

// Name returns the selector.
func (s SelectorStrategy) Name() string {
	return s.Selector
}

// Candidates returns the links under the selector in document order.
func (s SelectorStrategy) Candidates(doc *goquery.Document) []NavLink {
	if strings.TrimSpace(s.Selector) == "" {
		return nil
	}
	return collectAnchors(doc.Find(s.Selector))
}

// AllLinks collects every anchor with an href on the page.
type AllLinks struct{}

// Name returns "all links".
func (AllLinks) Name() string {
	return "all links"
}

// Candidates returns every anchor on the page in document order.
func (AllLinks) Candidates(doc *goquery.Document) []NavLink {
	return collectAnchors(doc.Find("a[href]"))
}

// Discover tries each strategy in order and returns the candidates of the
// first one that yields at least one link, along with its name. When none
// does, it falls back to AllLinks.
func Discover(doc *goquery.Document, strategies ...Strategy) ([]NavLink, string) {
	for _, s := range strategies {
		if found := s.Candidates(doc); len(found) > 0 {
			return found, s.Name()
		}
	}
	fallback := AllLinks{}
	return fallback.Candidates(doc), fallback.Name()
}

// Selectors builds a SelectorStrategy per selector, in order.
func Selectors(selectors ...string) []Strategy {
	out := make([]Strategy, 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, SelectorStrategy{Selector: sel})
	}
	return out
}

func collectAnchors(sel *goquery.Selection) []NavLink {
	var found []NavLink
	add := func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		found = append(found, NavLink{Text: a.Text(), Href: href})
	}

	sel.Each(func(i int, s *goquery.Selection) {
		if goquery.NodeName(s) == "a" {
			add(i, s)
			return
		}
		s.Find("a[href]").Each(add)
	})
	return found
}
