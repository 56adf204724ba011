// Package fetch retrieves requirement text from remote URLs. It respects
// robots.txt by default and extracts visible text from HTML documents so
// requirements published on a wiki or tracker page can be analyzed directly.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/reqclarity/reqclarity/internal/model"
)

const maxRedirects = 3

// Fetcher downloads a page and extracts its visible text.
type Fetcher struct {
	client        *http.Client
	robots        *RobotsChecker
	userAgent     string
	maxBytes      int64
	respectRobots bool
}

// New creates a Fetcher from HTTP configuration.
func New(cfg model.HTTPConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent:     cfg.UserAgent,
		maxBytes:      cfg.MaxBodyBytes,
		respectRobots: cfg.RespectRobots,
	}
	if f.maxBytes <= 0 {
		f.maxBytes = 2 << 20
	}
	if f.respectRobots {
		f.robots = NewRobotsChecker(cfg.UserAgent, timeout)
	}
	return f
}

// FetchText downloads the URL and returns the visible text of the page.
// HTML documents are stripped of markup; other content types are returned
// as-is.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return "", fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return "", fmt.Errorf("fetch %s: disallowed by robots.txt", rawURL)
		}
		if crawlDelay > 0 {
			select {
			case <-time.After(crawlDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		return ExtractVisibleText(string(body)), nil
	}
	return strings.TrimSpace(string(body)), nil
}

// ExtractVisibleText strips HTML markup and returns the readable text
// content. Script, style, and other non-content elements are skipped.
func ExtractVisibleText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head", "nav", "footer":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "br", "tr":
				sb.WriteString("\n")
			}
		}
	}
	walk(doc)

	// Collapse runs of blank lines
	lines := strings.Split(sb.String(), "\n")
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
