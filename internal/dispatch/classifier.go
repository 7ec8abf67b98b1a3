// Package dispatch decomposes a canonical query into intents and fans them
// out to capability handlers, aggregating the sections back into one
// farmer-facing answer in intent order.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agrimitra/agrimitra/internal/handlers"
	"github.com/agrimitra/agrimitra/internal/providers"
)

// Intent maps one sub-span of the query to a capability handler.
type Intent struct {
	Handler string `json:"handler"`
	Query   string `json:"query"`
}

// Classifier decomposes a query into intents.
type Classifier interface {
	Decompose(ctx context.Context, query, convContext string) ([]Intent, error)
}

const classifierPromptFmt = `You route farmer queries to capability handlers. The available handlers are:
%s
Split the query into one or more sub-queries, each assigned to exactly one handler. Use the fewest handlers that cover the whole query. Respond with ONLY a JSON array, no prose:
[{"handler": "<name>", "query": "<focused sub-query>"}]`

// fallbackHandler is the catch-all route when classification yields nothing
// usable.
const fallbackHandler = "websearch"

// LLMClassifier asks the reasoning provider for a strict JSON decomposition.
// Anything unparseable degrades to a single catch-all intent rather than
// failing the turn.
type LLMClassifier struct {
	provider providers.Provider
	model    string
	registry *handlers.Registry
}

func NewLLMClassifier(provider providers.Provider, model string, registry *handlers.Registry) *LLMClassifier {
	return &LLMClassifier{provider: provider, model: model, registry: registry}
}

func (c *LLMClassifier) Decompose(ctx context.Context, query, convContext string) ([]Intent, error) {
	var msgs []providers.Message
	if convContext != "" {
		msgs = append(msgs, providers.Message{
			Role:    "user",
			Content: "Conversation so far:\n" + convContext,
		}, providers.Message{
			Role:    "assistant",
			Content: "Understood.",
		})
	}
	msgs = append(msgs, providers.Message{Role: "user", Content: query})

	resp, err := c.provider.Chat(ctx, providers.ChatRequest{
		Model:        c.model,
		SystemPrompt: fmt.Sprintf(classifierPromptFmt, c.registry.Describe()),
		Messages:     msgs,
	})
	if err != nil {
		return nil, fmt.Errorf("intent classification failed: %w", err)
	}

	intents := parseIntents(resp.Content)
	intents = c.validate(intents, query)
	if len(intents) == 0 {
		slog.Warn("classifier produced no usable intents, falling back", "raw", resp.Content)
		intents = []Intent{{Handler: fallbackHandler, Query: query}}
	}
	return intents, nil
}

// parseIntents extracts the JSON array from the model output, tolerating
// surrounding prose or markdown fences.
func parseIntents(raw string) []Intent {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}

	var intents []Intent
	if err := json.Unmarshal([]byte(raw[start:end+1]), &intents); err != nil {
		return nil
	}
	return intents
}

// validate drops intents naming unknown handlers or carrying empty queries.
func (c *LLMClassifier) validate(intents []Intent, query string) []Intent {
	out := intents[:0]
	for _, it := range intents {
		it.Handler = strings.ToLower(strings.TrimSpace(it.Handler))
		it.Query = strings.TrimSpace(it.Query)
		if it.Query == "" {
			it.Query = query
		}
		if _, ok := c.registry.Get(it.Handler); !ok {
			slog.Warn("classifier named unknown handler", "handler", it.Handler)
			continue
		}
		out = append(out, it)
	}
	return out
}
