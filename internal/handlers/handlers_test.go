package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewWeatherHandler("key", ""))
	r.Register(NewMarketplaceHandler("key", ""))

	if _, ok := r.Get("weather"); !ok {
		t.Error("weather handler not found")
	}
	if _, ok := r.Get("nope"); ok {
		t.Error("unexpected handler for unknown name")
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "weather" || names[1] != "marketplace" {
		t.Errorf("Names = %v, want registration order", names)
	}

	desc := r.Describe()
	if !strings.Contains(desc, "weather:") || !strings.Contains(desc, "marketplace:") {
		t.Errorf("Describe missing entries: %q", desc)
	}
}

func TestRetrievalHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "pm kisan eligibility" {
			t.Errorf("q = %q", got)
		}
		w.Write([]byte(`{"answer": "Small and marginal farmers with cultivable land are eligible."}`))
	}))
	defer srv.Close()

	h := NewRetrievalHandler(srv.URL)
	got, err := h.Invoke(context.Background(), "pm kisan eligibility", "")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(got, "eligible") {
		t.Errorf("answer = %q", got)
	}
}

func TestRetrievalHandlerUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := NewRetrievalHandler(srv.URL)
	if _, err := h.Invoke(context.Background(), "q", ""); err == nil {
		t.Fatal("expected error for upstream 502")
	}
}

func TestWeatherHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Nashik" {
			t.Errorf("q = %q", got)
		}
		if r.URL.Query().Get("key") == "" {
			t.Error("missing api key")
		}
		w.Write([]byte(`{
			"location": {"name": "Nashik", "region": "Maharashtra"},
			"current": {
				"last_updated": "2026-08-31 14:00",
				"temp_c": 27.5, "feelslike_c": 29.1,
				"condition": {"text": "Partly cloudy"},
				"humidity": 68, "wind_kph": 12.2, "wind_dir": "WSW",
				"precip_mm": 0.4, "vis_km": 10.0, "uv": 6, "is_day": 1
			}
		}`))
	}))
	defer srv.Close()

	h := NewWeatherHandler("key", srv.URL)
	got, err := h.Invoke(context.Background(), "Nashik", "")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	for _, want := range []string{"Nashik", "Partly cloudy", "27.5", "68%", "WSW", "Daytime"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestWeatherHandlerUnconfigured(t *testing.T) {
	h := NewWeatherHandler("", "")
	if _, err := h.Invoke(context.Background(), "Pune", ""); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestMarketplaceHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("domain") != "in" || q.Get("country") != "in" {
			t.Errorf("expected India market params, got %v", q)
		}
		w.Write([]byte(`{"results": [
			{"title": "Neem oil pesticide 1L", "price": "₹349", "url": "https://amazon.in/x"},
			{"title": "Organic neem cake 5kg", "price": "₹499", "url": "https://amazon.in/y"}
		]}`))
	}))
	defer srv.Close()

	h := NewMarketplaceHandler("key", srv.URL)
	got, err := h.Invoke(context.Background(), "neem oil", "")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(got, "Neem oil pesticide 1L") || !strings.Contains(got, "₹349") {
		t.Errorf("listing missing product:\n%s", got)
	}
}

func TestMarketplaceHandlerNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	h := NewMarketplaceHandler("key", srv.URL)
	got, err := h.Invoke(context.Background(), "unobtainium", "")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(got, "No products found") {
		t.Errorf("got %q", got)
	}
}
