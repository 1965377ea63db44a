package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher downloads a web page and extracts its readable text,
// stripping navigation, scripts and styling.
type PageFetcher struct {
	client   *http.Client
	maxChars int
}

// PageFetcherOption configures a PageFetcher
type PageFetcherOption func(*PageFetcher)

// WithFetcherHTTPClient sets the HTTP client used to download pages.
func WithFetcherHTTPClient(client *http.Client) PageFetcherOption {
	return func(f *PageFetcher) {
		f.client = client
	}
}

// WithFetcherMaxChars caps the extracted text length. Zero means no cap.
func WithFetcherMaxChars(n int) PageFetcherOption {
	return func(f *PageFetcher) {
		f.maxChars = n
	}
}

// NewPageFetcher creates a PageFetcher with an 8000 character default cap.
func NewPageFetcher(opts ...PageFetcherOption) *PageFetcher {
	f := &PageFetcher{
		client:   http.DefaultClient,
		maxChars: 8000,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ReadableText downloads the page at pageURL and returns its visible text.
func (f *PageFetcher) ReadableText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside, noscript").Remove()

	var sb strings.Builder
	doc.Find("h1, h2, h3, h4, p, li, td, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	})

	text := strings.TrimSpace(sb.String())
	if text == "" {
		// Fallback for pages without semantic markup.
		text = strings.TrimSpace(doc.Find("body").Text())
	}
	if f.maxChars > 0 && len(text) > f.maxChars {
		text = text[:f.maxChars]
	}
	return text, nil
}
