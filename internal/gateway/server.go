// Package gateway exposes the HTTP surface: the channel webhook, the
// stateless query API, the health check and the metrics endpoint.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/agrimitra/agrimitra/internal/agent"
	"github.com/agrimitra/agrimitra/internal/metrics"
	"github.com/agrimitra/agrimitra/internal/normalize"
	"github.com/agrimitra/agrimitra/internal/session"
)

// Apology texts for the webhook path. Every failure becomes a friendly
// message; raw internal errors never reach the farmer.
const (
	apologyEmptyInput    = "Please send a text or voice message."
	apologyMediaFetch    = "Sorry, I had trouble downloading your media. Please try sending it again."
	apologySessionCreate = "Sorry, I couldn't start a new conversation right now."
	apologyGeneric       = "Sorry, something went wrong while answering. Please try again later."
)

// Server serves the webhook and API endpoints on one listener.
type Server struct {
	orch    *agent.Orchestrator
	server  *http.Server
	timeout time.Duration
}

// NewServer builds the HTTP server. timeout bounds each request's pipeline
// work; zero disables it.
func NewServer(orch *agent.Orchestrator, host string, port int, timeout time.Duration) *Server {
	s := &Server{
		orch:    orch,
		timeout: timeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sms", s.instrument("/sms", s.handleSMS))
	mux.HandleFunc("POST /query", s.instrument("/query", s.handleQuery))
	mux.HandleFunc("GET /health", s.instrument("/health", s.handleHealth))
	mux.Handle("GET /metrics", metrics.Handler())

	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: mux,
	}
	return s
}

// Start begins serving and shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	slog.Info("gateway listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// instrument wraps a handler with request metrics.
func (s *Server) instrument(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(sw.status), time.Since(start))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// handleSMS is the channel webhook. It always answers 200 with a TwiML
// document; failures become apologetic messages.
func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeTwiML(w, apologyGeneric, "")
		return
	}

	in := normalize.Inbound{
		From:             r.FormValue("From"),
		Body:             r.FormValue("Body"),
		MediaURL:         r.FormValue("MediaUrl0"),
		MediaContentType: r.FormValue("MediaContentType0"),
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.orch.HandleTurn(ctx, in)
	if err != nil {
		slog.Warn("webhook turn failed", "from", in.From, "err", err)
		s.writeTwiML(w, apologyFor(err), "")
		return
	}
	s.writeTwiML(w, reply.Text, reply.MediaURL)
}

func apologyFor(err error) string {
	var mfe *normalize.MediaFetchError
	switch {
	case errors.Is(err, normalize.ErrEmptyInput):
		return apologyEmptyInput
	case errors.As(err, &mfe):
		return apologyMediaFetch
	case errors.Is(err, session.ErrCreate):
		return apologySessionCreate
	default:
		return apologyGeneric
	}
}

func (s *Server) writeTwiML(w http.ResponseWriter, body, mediaURL string) {
	doc, err := renderTwiML(body, mediaURL)
	if err != nil {
		slog.Error("failed to render twiml", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.Write(doc)
}

type queryRequest struct {
	Input string `json:"input"`
}

type queryResponse struct {
	Output string `json:"output"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// handleQuery serves the stateless JSON API.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.orch.HandleQuery(ctx, req.Input)
	if err != nil {
		slog.Warn("query failed", "err", err)
		var ae *agent.AnswerError
		switch {
		case errors.Is(err, normalize.ErrEmptyInput):
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "input is required"})
		case errors.As(err, &ae):
			writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: ae.Detail})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "An internal error occurred."})
		}
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Output: out})
}

// handleHealth reports liveness, independent of every other subsystem.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "agrimitra is running",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}
