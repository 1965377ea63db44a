package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/smallnest/ragroute"
	"github.com/smallnest/ragroute/log"
)

// BraveConnector retrieves from the Brave Search API. Brave returns results
// in rank order without a confidence score, so every result carries a nil
// score and passes citation filtering unconditionally.
type BraveConnector struct {
	apiKey  string
	baseURL string
	country string
	lang    string
	count   int

	client       *http.Client
	fetchContent bool
	fetcher      *PageFetcher
	logger       log.Logger
}

var _ ragroute.Connector = (*BraveConnector)(nil)

// BraveOption configures a BraveConnector
type BraveOption func(*BraveConnector)

// WithBraveBaseURL sets the base URL for the Brave Search API.
func WithBraveBaseURL(baseURL string) BraveOption {
	return func(b *BraveConnector) {
		b.baseURL = baseURL
	}
}

// WithBraveCount sets the number of results to return (1-20).
func WithBraveCount(count int) BraveOption {
	return func(b *BraveConnector) {
		if count < 1 {
			count = 1
		}
		if count > 20 {
			count = 20
		}
		b.count = count
	}
}

// WithBraveCountry sets the country code for search results (e.g., "US").
func WithBraveCountry(country string) BraveOption {
	return func(b *BraveConnector) {
		b.country = country
	}
}

// WithBraveLang sets the language code for search results (e.g., "en").
func WithBraveLang(lang string) BraveOption {
	return func(b *BraveConnector) {
		b.lang = lang
	}
}

// WithBraveHTTPClient sets the HTTP client. The client should be created
// once at startup and shared; connectors do not own connection pools.
func WithBraveHTTPClient(client *http.Client) BraveOption {
	return func(b *BraveConnector) {
		b.client = client
	}
}

// WithBravePageContent enables fetching each result page and extracting its
// readable text, replacing the short search snippet with real page content.
func WithBravePageContent(fetcher *PageFetcher) BraveOption {
	return func(b *BraveConnector) {
		b.fetchContent = true
		b.fetcher = fetcher
	}
}

// WithBraveLogger sets the logger
func WithBraveLogger(logger log.Logger) BraveOption {
	return func(b *BraveConnector) {
		b.logger = logger
	}
}

// NewBraveConnector creates a Brave Search connector.
// If apiKey is empty, it tries the BRAVE_API_KEY environment variable.
func NewBraveConnector(apiKey string, opts ...BraveOption) (*BraveConnector, error) {
	if apiKey == "" {
		apiKey = os.Getenv("BRAVE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("BRAVE_API_KEY not set")
	}

	b := &BraveConnector{
		apiKey:  apiKey,
		baseURL: "https://api.search.brave.com/res/v1/web/search",
		country: "US",
		lang:    "en",
		count:   10,
		client:  http.DefaultClient,
		logger:  log.GetDefaultLogger(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// Name identifies this connector in routing decisions and citations
func (b *BraveConnector) Name() string {
	return "web"
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Retrieve executes the web search
func (b *BraveConnector) Retrieve(ctx context.Context, query string, topK int) ([]ragroute.RetrievalResult, error) {
	count := b.count
	if topK > 0 && topK < count {
		count = topK
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", fmt.Sprintf("%d", count))
	if b.country != "" {
		params.Set("country", b.country)
	}
	if b.lang != "" {
		params.Set("search_lang", b.lang)
	}

	reqURL := fmt.Sprintf("%s?%s", b.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave api returned status: %d", resp.StatusCode)
	}

	var result braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]ragroute.RetrievalResult, 0, len(result.Web.Results))
	for i, r := range result.Web.Results {
		content := r.Description
		if b.fetchContent && b.fetcher != nil {
			if text, err := b.fetcher.ReadableText(ctx, r.URL); err != nil {
				b.logger.Warn("failed to fetch page content for %s, keeping snippet: %v", r.URL, err)
			} else if text != "" {
				content = text
			}
		}

		results = append(results, ragroute.RetrievalResult{
			Content: content,
			Source:  b.Name(),
			// Brave reports rank, not confidence: no score.
			Metadata: map[string]any{
				"title": r.Title,
				"url":   r.URL,
				"rank":  i + 1,
			},
		})
	}
	return results, nil
}
