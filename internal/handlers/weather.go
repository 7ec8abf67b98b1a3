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

const defaultWeatherBaseURL = "https://api.weatherapi.com/v1"

// WeatherHandler reports current conditions for a location via
// weatherapi.com.
type WeatherHandler struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewWeatherHandler(apiKey, baseURL string) *WeatherHandler {
	if baseURL == "" {
		baseURL = defaultWeatherBaseURL
	}
	return &WeatherHandler{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (h *WeatherHandler) Name() string { return "weather" }

func (h *WeatherHandler) Description() string {
	return "current weather conditions for a named place"
}

// Invoke treats the sub-query as the location to look up.
func (h *WeatherHandler) Invoke(ctx context.Context, query, convContext string) (string, error) {
	if h.apiKey == "" {
		return "", fmt.Errorf("weather service not configured")
	}

	q := url.Values{}
	q.Set("key", h.apiKey)
	q.Set("q", query)
	u := h.baseURL + "/current.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRetrievalBody))
	if err != nil {
		return "", fmt.Errorf("failed to read weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather service error %d: %s", resp.StatusCode, body)
	}

	data := gjson.ParseBytes(body)
	loc := data.Get("location")
	cur := data.Get("current")
	if !cur.Exists() {
		return "", fmt.Errorf("weather response missing current conditions")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weather in %s, %s (as of %s):\n",
		loc.Get("name").String(), loc.Get("region").String(), cur.Get("last_updated").String())
	fmt.Fprintf(&b, "- Condition: %s\n", cur.Get("condition.text").String())
	fmt.Fprintf(&b, "- Temperature: %.1f°C (feels like %.1f°C)\n",
		cur.Get("temp_c").Float(), cur.Get("feelslike_c").Float())
	fmt.Fprintf(&b, "- Humidity: %d%%\n", cur.Get("humidity").Int())
	fmt.Fprintf(&b, "- Wind: %.1f km/h %s\n", cur.Get("wind_kph").Float(), cur.Get("wind_dir").String())
	fmt.Fprintf(&b, "- Precipitation: %.1f mm\n", cur.Get("precip_mm").Float())
	fmt.Fprintf(&b, "- Visibility: %.1f km, UV index %.0f\n", cur.Get("vis_km").Float(), cur.Get("uv").Float())
	if cur.Get("is_day").Int() == 1 {
		b.WriteString("- Daytime\n")
	} else {
		b.WriteString("- Nighttime\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
