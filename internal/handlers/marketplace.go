package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultMarketplaceBaseURL = "https://api.scrapingdog.com/amazon/search"
	maxMarketplaceResults     = 5
)

// MarketplaceHandler searches Amazon India product listings for farming
// supplies through the scrapingdog API.
type MarketplaceHandler struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewMarketplaceHandler(apiKey, baseURL string) *MarketplaceHandler {
	if baseURL == "" {
		baseURL = defaultMarketplaceBaseURL
	}
	return &MarketplaceHandler{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (h *MarketplaceHandler) Name() string { return "marketplace" }

func (h *MarketplaceHandler) Description() string {
	return "buying farm supplies online: seeds, fertilizers, pesticides, tools"
}

func (h *MarketplaceHandler) Invoke(ctx context.Context, query, convContext string) (string, error) {
	if h.apiKey == "" {
		return "", fmt.Errorf("marketplace service not configured")
	}

	q := url.Values{}
	q.Set("api_key", h.apiKey)
	q.Set("query", query)
	q.Set("page", "1")
	q.Set("domain", "in")
	q.Set("country", "in")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("marketplace request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRetrievalBody))
	if err != nil {
		return "", fmt.Errorf("failed to read marketplace response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("marketplace service error %d: %s", resp.StatusCode, body)
	}

	results := gjson.GetBytes(body, "results")
	if !results.Exists() || len(results.Array()) == 0 {
		return fmt.Sprintf("No products found for %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top products for %q:\n", query)
	for i, item := range results.Array() {
		if i >= maxMarketplaceResults {
			break
		}
		title := item.Get("title").String()
		price := item.Get("price").String()
		link := item.Get("url").String()
		fmt.Fprintf(&b, "%d. %s", i+1, title)
		if price != "" {
			fmt.Fprintf(&b, " (%s)", price)
		}
		if link != "" {
			fmt.Fprintf(&b, "\n   %s", link)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
