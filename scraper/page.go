// Package scraper reads static HTML pages into the link and item snapshots
// the classifiers and the record extractor consume.
package scraper

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/tally/links"
	"github.com/pevans/tally/normalize"
)

// ErrPageNotFound is returned by a PageSource that has no page for a URL.
var ErrPageNotFound = errors.New("page not found")

// Page is a parsed, settled page.
type Page struct {
	URL string
	Doc *goquery.Document
}

// Snapshot is the rendered state of a page: its candidate links and item
// texts, in document order.
type Snapshot struct {
	URL      string          `json:"url"`
	Strategy string          `json:"strategy"`
	Links    []links.NavLink `json:"links"`
	Items    []string        `json:"items"`
}

// ParsePage parses HTML from r.
func ParsePage(url string, r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Page{URL: url, Doc: doc}, nil
}

// Links returns candidate links using the selectors in order, falling back
// to every link on the page, and the name of the strategy used.
func (p *Page) Links(selectors []string) ([]links.NavLink, string) {
	return links.Discover(p.Doc, links.Selectors(selectors...)...)
}

// Items returns the whitespace-normalized text of every element matched by
// selector, skipping empty ones.
func (p *Page) Items(selector string) []string {
	if strings.TrimSpace(selector) == "" {
		return nil
	}

	items := []string{}
	p.Doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := normalize.Whitespace(s.Text()); text != "" {
			items = append(items, text)
		}
	})
	return items
}

// Snapshot captures the page's links and items.
func (p *Page) Snapshot(linkSelectors []string, itemSelector string) Snapshot {
	found, strategy := p.Links(linkSelectors)
	return Snapshot{
		URL:      p.URL,
		Strategy: strategy,
		Links:    found,
		Items:    p.Items(itemSelector),
	}
}
