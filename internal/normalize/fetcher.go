package normalize

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxMediaBytes caps a single media download (16 MB, Twilio's MMS ceiling).
const maxMediaBytes = 16 << 20

// MediaFetchError reports a failed media download. Status is the upstream
// HTTP status, or zero when the request never produced a response (connection
// refused, DNS failure, timeout), in which case Err holds the cause.
type MediaFetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *MediaFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("media fetch failed: %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("media fetch failed: %s returned %d", e.URL, e.Status)
}

func (e *MediaFetchError) Unwrap() error { return e.Err }

// HTTPFetcher downloads message media over HTTP. Twilio media URLs require
// basic auth with the account credentials.
type HTTPFetcher struct {
	client    *http.Client
	accountID string
	authToken string
}

// NewHTTPFetcher creates a fetcher authenticating as the given account.
func NewHTTPFetcher(accountID, authToken string) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		accountID: accountID,
		authToken: authToken,
	}
}

// Fetch downloads the media body. Non-2xx responses and transport failures
// both become MediaFetchError so callers can answer with the media apology.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.accountID != "" {
		req.SetBasicAuth(f.accountID, f.authToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &MediaFetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &MediaFetchError{URL: url, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read media body: %w", err)
	}
	return data, nil
}
