package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies tally to the pages it fetches.
const DefaultUserAgent = "tally/1.0 (work item tally)"

// HTTPSource fetches static HTML over HTTP. It does not run scripts, so
// pages that load their items lazily must be saved and read with DirSource.
type HTTPSource struct {
	Client    *http.Client
	UserAgent string
	limiter   *rate.Limiter
}

// NewHTTPSource creates an HTTP page source with the given per-request
// timeout and request rate. A non-positive perSecond disables rate limiting.
func NewHTTPSource(timeout time.Duration, perSecond float64) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	return &HTTPSource{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: DefaultUserAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Page fetches and parses the page at pageURL.
func (s *HTTPSource) Page(ctx context.Context, pageURL string) (*Page, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	return ParsePage(pageURL, resp.Body)
}

// DirSource reads pages saved to disk. A URL's path maps to
// <Root>/<path>.html, or <Root>/<path>/index.html for directory-like paths.
type DirSource struct {
	Root string
}

// NewDirSource creates a page source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Root: dir}
}

// Page reads the saved page for pageURL.
func (s *DirSource) Page(ctx context.Context, pageURL string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, candidate := range s.candidates(pageURL) {
		f, err := os.Open(candidate)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open page file: %w", err)
		}
		page, err := ParsePage(pageURL, f)
		f.Close()
		return page, err
	}

	return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageURL)
}

// candidates lists the files that may hold pageURL, most specific first.
func (s *DirSource) candidates(pageURL string) []string {
	p := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		p = u.Path
	}

	// path.Clean on a rooted path never climbs above the root.
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if clean == "" {
		return []string{filepath.Join(s.Root, "index.html")}
	}

	base := filepath.Join(s.Root, filepath.FromSlash(clean))
	if strings.HasSuffix(clean, ".html") {
		return []string{base}
	}
	return []string{base + ".html", filepath.Join(base, "index.html")}
}
