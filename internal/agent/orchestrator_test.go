package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/agrimitra/agrimitra/internal/dispatch"
	"github.com/agrimitra/agrimitra/internal/handlers"
	"github.com/agrimitra/agrimitra/internal/normalize"
	"github.com/agrimitra/agrimitra/internal/render"
	"github.com/agrimitra/agrimitra/internal/session"
	"github.com/agrimitra/agrimitra/internal/storage"
)

type stubFetcher struct{ data []byte }

func (f *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) { return f.data, nil }

type stubAnalyzer struct{ text string }

func (a *stubAnalyzer) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	return a.text, nil
}

func (a *stubAnalyzer) Describe(ctx context.Context, data []byte, mimeType string) (string, error) {
	return a.text, nil
}

type stubHandler struct {
	name string
	text string
	err  error
}

func (h *stubHandler) Name() string        { return h.name }
func (h *stubHandler) Description() string { return h.name }

func (h *stubHandler) Invoke(ctx context.Context, query, convContext string) (string, error) {
	return h.text, h.err
}

type routeAll struct{ handler string }

func (c *routeAll) Decompose(ctx context.Context, query, convContext string) ([]dispatch.Intent, error) {
	return []dispatch.Intent{{Handler: c.handler, Query: query}}, nil
}

type stubSynth struct{ err error }

func (s *stubSynth) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	return []byte("ogg"), "audio/ogg", s.err
}

type fixture struct {
	orch    *Orchestrator
	manager *session.Manager
	store   *session.MemoryStore
}

func newFixture(t *testing.T, h handlers.Handler, synthErr error) *fixture {
	t.Helper()
	store := session.NewMemoryStore()
	manager := session.NewManager(store)
	t.Cleanup(func() { manager.Close() })

	reg := handlers.NewRegistry()
	reg.Register(h)

	return &fixture{
		orch: NewOrchestrator(
			normalize.NewNormalizer(&stubFetcher{data: []byte("x")}, &stubAnalyzer{text: "voice query"}, nil, 0),
			manager,
			dispatch.NewDispatcher(&routeAll{handler: h.Name()}, reg),
			render.NewRenderer(&stubSynth{err: synthErr}, storage.NewMemoryStore(), nil, 0),
		),
		manager: manager,
		store:   store,
	}
}

func TestHandleTurnTextReply(t *testing.T) {
	f := newFixture(t, &stubHandler{name: "websearch", text: "sow in november"}, nil)

	reply, err := f.orch.HandleTurn(context.Background(), normalize.Inbound{
		From: "whatsapp:+911234", Body: "when to sow wheat?",
	})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if reply.Text != "sow in november" || reply.MediaURL != "" {
		t.Errorf("reply = %+v", reply)
	}

	sessions, _ := f.store.List(context.Background())
	if len(sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions))
	}
	turns, _ := f.manager.History(context.Background(), sessions[0].ID)
	if len(turns) != 2 {
		t.Errorf("expected turn recorded, got %d turns", len(turns))
	}
}

func TestHandleTurnVoiceReply(t *testing.T) {
	f := newFixture(t, &stubHandler{name: "websearch", text: "spray neem oil"}, nil)

	reply, err := f.orch.HandleTurn(context.Background(), normalize.Inbound{
		From:             "whatsapp:+911234",
		MediaURL:         "https://media.example/1",
		MediaContentType: "audio/ogg",
	})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if reply.MediaURL == "" {
		t.Error("voice input should produce a voice note reply")
	}
}

func TestHandleTurnVoiceSynthesisFailure(t *testing.T) {
	f := newFixture(t, &stubHandler{name: "websearch", text: "spray neem oil"}, errors.New("tts down"))

	reply, err := f.orch.HandleTurn(context.Background(), normalize.Inbound{
		From:             "whatsapp:+911234",
		MediaURL:         "https://media.example/1",
		MediaContentType: "audio/ogg",
	})
	if err != nil {
		t.Fatalf("synthesis failure must not fail the turn: %v", err)
	}
	if reply.Text != "spray neem oil" || reply.MediaURL != "" {
		t.Errorf("expected text-only fallback, got %+v", reply)
	}
}

func TestHandleTurnEmptyInput(t *testing.T) {
	f := newFixture(t, &stubHandler{name: "websearch", text: "x"}, nil)

	_, err := f.orch.HandleTurn(context.Background(), normalize.Inbound{From: "u", Body: "  "})
	if !errors.Is(err, normalize.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	sessions, _ := f.store.List(context.Background())
	if len(sessions) != 0 {
		t.Error("empty input must not touch sessions")
	}
}

func TestNormalizeFailureLabel(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"empty input", normalize.ErrEmptyInput, "empty_input"},
		{"wrapped empty input", fmt.Errorf("normalize: %w", normalize.ErrEmptyInput), "empty_input"},
		{"media fetch", &normalize.MediaFetchError{URL: "http://x", Status: 404}, "media_fetch"},
		{"wrapped media fetch", fmt.Errorf("fetch media: %w", &normalize.MediaFetchError{URL: "http://x"}), "media_fetch"},
		{"other", errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		if got := normalizeFailureLabel(tc.err); got != tc.want {
			t.Errorf("%s: label = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestHandleTurnResetPhrase(t *testing.T) {
	f := newFixture(t, &stubHandler{name: "websearch", text: "answer"}, nil)
	ctx := context.Background()

	if _, err := f.orch.HandleTurn(ctx, normalize.Inbound{From: "u", Body: "hello"}); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	before, _ := f.store.List(ctx)

	reply, err := f.orch.HandleTurn(ctx, normalize.Inbound{From: "u", Body: "Create New Session"})
	if err != nil {
		t.Fatalf("reset turn failed: %v", err)
	}
	if reply.Text != resetConfirmation {
		t.Errorf("reset phrase must not be routed, got %q", reply.Text)
	}

	after, _ := f.store.List(ctx)
	if len(after) != 1 {
		t.Fatalf("expected exactly one live session after reset, got %d", len(after))
	}
	if after[0].ID == before[0].ID {
		t.Error("reset must produce a fresh session id")
	}
}

func TestHandleQuerySuccess(t *testing.T) {
	f := newFixture(t, &stubHandler{name: "websearch", text: "ragi is a millet"}, nil)

	out, err := f.orch.HandleQuery(context.Background(), "what is ragi?")
	if err != nil {
		t.Fatalf("HandleQuery failed: %v", err)
	}
	if out != "ragi is a millet" {
		t.Errorf("output = %q", out)
	}
	sessions, _ := f.store.List(context.Background())
	if len(sessions) != 0 {
		t.Error("temporary session must be deleted after the call")
	}
}

func TestHandleQueryHandlerFailureLeavesNoSession(t *testing.T) {
	f := newFixture(t, &stubHandler{name: "websearch", err: errors.New("boom")}, nil)

	// The dispatcher degrades the failure to an inline note, so the call
	// still succeeds with a non-empty output.
	out, err := f.orch.HandleQuery(context.Background(), "test")
	if err != nil {
		t.Fatalf("HandleQuery failed: %v", err)
	}
	if out == "" {
		t.Error("output must not be empty")
	}
	sessions, _ := f.store.List(context.Background())
	if len(sessions) != 0 {
		t.Error("temporary session must be deleted even on handler failure")
	}
}

func TestHandleQueryErrorSentinel(t *testing.T) {
	f := newFixture(t, &stubHandler{name: "websearch", text: "An error occurred while processing your request."}, nil)

	_, err := f.orch.HandleQuery(context.Background(), "test")
	var ae *AnswerError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AnswerError, got %v", err)
	}
	sessions, _ := f.store.List(context.Background())
	if len(sessions) != 0 {
		t.Error("temporary session must be deleted on the error path")
	}
}

func TestHandleQueryEmptyInput(t *testing.T) {
	f := newFixture(t, &stubHandler{name: "websearch", text: "x"}, nil)
	if _, err := f.orch.HandleQuery(context.Background(), "  "); !errors.Is(err, normalize.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}
