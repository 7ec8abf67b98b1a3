package handlers

import (
	"context"
	"fmt"

	"github.com/agrimitra/agrimitra/internal/providers"
)

const websearchSystemPrompt = `You are a web search assistant for Indian farmers. Answer the query with current, factual information: news, government schemes, subsidies, farming techniques, and market developments. Answer in the language the farmer used. Keep the answer short and practical for reading on a phone.`

// WebSearchHandler answers general and current-affairs queries through the
// reasoning provider. It is also the catch-all route when the classifier
// cannot place a query.
type WebSearchHandler struct {
	provider providers.Provider
	model    string
}

func NewWebSearchHandler(provider providers.Provider, model string) *WebSearchHandler {
	return &WebSearchHandler{provider: provider, model: model}
}

func (h *WebSearchHandler) Name() string { return "websearch" }

func (h *WebSearchHandler) Description() string {
	return "general questions, news, government schemes and anything without a more specific capability"
}

func (h *WebSearchHandler) Invoke(ctx context.Context, query, convContext string) (string, error) {
	resp, err := h.provider.Chat(ctx, providers.ChatRequest{
		Model:        h.model,
		SystemPrompt: websearchSystemPrompt,
		Messages:     contextMessages(convContext, query),
	})
	if err != nil {
		return "", fmt.Errorf("websearch failed: %w", err)
	}
	return resp.Content, nil
}

// contextMessages builds the chat turn list, prepending prior conversation
// context when present.
func contextMessages(convContext, query string) []providers.Message {
	var msgs []providers.Message
	if convContext != "" {
		msgs = append(msgs, providers.Message{
			Role:    "user",
			Content: "Conversation so far:\n" + convContext,
		}, providers.Message{
			Role:    "assistant",
			Content: "Understood. I will use that context.",
		})
	}
	return append(msgs, providers.Message{Role: "user", Content: query})
}
