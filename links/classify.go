package links

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/pevans/tally/dates"
	"github.com/pevans/tally/normalize"
)

// Default folder label bounds, in characters.
const (
	DefaultMinNameLength = 2
	DefaultMaxNameLength = 120
)

// copyToken marks working copies of folders, which are never navigation
// targets.
const copyToken = "copy"

// Classifier filters and types link candidates for one page.
type Classifier struct {
	// Origin is the page URL relative hrefs are resolved against.
	Origin string
	// PathPatterns are URL fragments identifying folder pages. Empty means
	// any URL qualifies.
	PathPatterns []string
	// MinNameLength and MaxNameLength bound folder labels. Zero values mean
	// the defaults.
	MinNameLength int
	MaxNameLength int
	Logger        *slog.Logger
}

// candidate is a NavLink that survived the shared filtering steps.
type candidate struct {
	index int
	text  string
	url   *url.URL
}

// ClassifyFolders returns the folder targets among the candidates, sorted by
// name. No two targets share a URL or a name. Rejected candidates are logged
// and skipped; classification itself never fails.
func (c *Classifier) ClassifyFolders(links []NavLink) []FolderTarget {
	minLen, maxLen := c.MinNameLength, c.MaxNameLength
	if minLen <= 0 {
		minLen = DefaultMinNameLength
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}

	var folders []FolderTarget
	for _, cand := range c.filter(links) {
		abs := cand.url.String()
		if !c.matchesPath(abs) {
			c.skip(cand.index, cand.text, abs, SkipPathMismatch)
			continue
		}
		if n := utf8.RuneCountInString(cand.text); n < minLen || n > maxLen {
			c.skip(cand.index, cand.text, abs, SkipNameLength)
			continue
		}
		folders = append(folders, FolderTarget{Name: cand.text, URL: abs})
	}

	slices.SortStableFunc(folders, func(a, b FolderTarget) int {
		return strings.Compare(a.Name, b.Name)
	})

	c.logger().Info("classified folder links", "origin", c.Origin, "candidates", len(links), "folders", len(folders))
	return folders
}

// ClassifyMonths returns the monthly targets among the candidates, newest
// first. The month comes from the link text or, failing that, from the last
// segment of the URL path. At most one target is kept per month.
func (c *Classifier) ClassifyMonths(links []NavLink) []MonthTarget {
	seenMonth := make(map[[2]int]struct{})

	var months []MonthTarget
	for _, cand := range c.filter(links) {
		abs := cand.url.String()

		year, month, ok := dates.ParseMonthPhrase(cand.text)
		if !ok {
			year, month, ok = dates.ParseMonthPhrase(lastSegment(cand.url))
		}
		if !ok {
			c.skip(cand.index, cand.text, abs, SkipNoMonth)
			continue
		}

		key := [2]int{year, month}
		if _, dup := seenMonth[key]; dup {
			c.skip(cand.index, cand.text, abs, SkipDuplicateMonth)
			continue
		}
		seenMonth[key] = struct{}{}

		months = append(months, MonthTarget{Year: year, Month: month, URL: abs})
	}

	slices.SortStableFunc(months, func(a, b MonthTarget) int {
		return strings.Compare(b.Key(), a.Key())
	})

	c.logger().Info("classified month links", "origin", c.Origin, "candidates", len(links), "months", len(months))
	return months
}

// filter applies the steps shared by folder and month classification:
// drop empty or working-copy candidates, resolve to absolute http(s) URLs,
// normalize text and drop anything whose URL or text was already accepted.
func (c *Classifier) filter(links []NavLink) []candidate {
	base, err := url.Parse(strings.TrimSpace(c.Origin))
	if err != nil {
		c.logger().Warn("invalid origin, only absolute links can resolve", "origin", c.Origin, "error", err)
		base = nil
	}

	seenURL := make(map[string]struct{})
	seenText := make(map[string]struct{})

	var out []candidate
	for i, link := range links {
		text := normalize.Whitespace(link.Text)
		href := strings.TrimSpace(link.Href)

		if text == "" {
			c.skip(i, link.Text, href, SkipEmptyText)
			continue
		}
		if normalize.ContainsFold(text, copyToken) {
			c.skip(i, text, href, SkipWorkingCopy)
			continue
		}
		if href == "" {
			c.skip(i, text, href, SkipEmptyHref)
			continue
		}

		resolved, reason := resolve(base, href)
		if reason != "" {
			c.skip(i, text, href, reason)
			continue
		}

		abs := resolved.String()
		if _, dup := seenURL[abs]; dup {
			c.skip(i, text, abs, SkipDuplicateURL)
			continue
		}
		if _, dup := seenText[text]; dup {
			c.skip(i, text, abs, SkipDuplicateText)
			continue
		}
		seenURL[abs] = struct{}{}
		seenText[text] = struct{}{}

		out = append(out, candidate{index: i, text: text, url: resolved})
	}
	return out
}

// resolve turns href into an absolute http(s) URL without a fragment.
func resolve(base *url.URL, href string) (*url.URL, SkipReason) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, SkipInvalidURL
	}
	if base != nil {
		u = base.ResolveReference(u)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return nil, SkipInvalidURL
	default:
		return nil, SkipUnsupportedScheme
	}
	if u.Host == "" {
		return nil, SkipInvalidURL
	}

	u.Fragment = ""
	u.RawFragment = ""
	return u, ""
}

func (c *Classifier) matchesPath(abs string) bool {
	if len(c.PathPatterns) == 0 {
		return true
	}
	lower := strings.ToLower(abs)
	for _, p := range c.PathPatterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func lastSegment(u *url.URL) string {
	seg := path.Base(strings.TrimRight(u.Path, "/"))
	if seg == "." || seg == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(seg); err == nil {
		return unescaped
	}
	return seg
}

func (c *Classifier) skip(index int, text, href string, reason SkipReason) {
	level := slog.LevelDebug
	if reason == SkipInvalidURL {
		level = slog.LevelWarn
	}
	c.logger().Log(context.Background(), level, "skipped link candidate",
		"index", index, "text", text, "href", href, "reason", string(reason))
}

func (c *Classifier) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
