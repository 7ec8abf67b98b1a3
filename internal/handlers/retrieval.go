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

const maxRetrievalBody = 256 * 1024

// RetrievalHandler queries an HTTP retrieval service holding agricultural
// advisories and scheme documents.
type RetrievalHandler struct {
	client  *http.Client
	baseURL string
}

func NewRetrievalHandler(baseURL string) *RetrievalHandler {
	return &RetrievalHandler{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (h *RetrievalHandler) Name() string { return "retrieval" }

func (h *RetrievalHandler) Description() string {
	return "advisory documents, crop guides and scheme details from the knowledge base"
}

func (h *RetrievalHandler) Invoke(ctx context.Context, query, convContext string) (string, error) {
	if h.baseURL == "" {
		return "", fmt.Errorf("retrieval service not configured")
	}

	u := h.baseURL + "/retrieve?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("retrieval request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRetrievalBody))
	if err != nil {
		return "", fmt.Errorf("failed to read retrieval response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("retrieval service error %d: %s", resp.StatusCode, body)
	}

	answer := gjson.GetBytes(body, "answer").String()
	if answer == "" {
		return "", fmt.Errorf("retrieval response missing answer")
	}
	return answer, nil
}
