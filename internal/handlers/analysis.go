package handlers

import (
	"context"
	"fmt"

	"github.com/agrimitra/agrimitra/internal/providers"
)

const analysisSystemPrompt = `You are an agricultural data analyst for Indian farmers. Given a question about mandi prices, crop statistics, yields or trends, reason through the figures step by step and give a clear conclusion with the numbers that support it. If the question references data from earlier in the conversation, use it. Answer in the language the farmer used.`

// AnalysisHandler answers data-analysis questions (price trends, yield
// comparisons) through the reasoning provider.
type AnalysisHandler struct {
	provider providers.Provider
	model    string
}

func NewAnalysisHandler(provider providers.Provider, model string) *AnalysisHandler {
	return &AnalysisHandler{provider: provider, model: model}
}

func (h *AnalysisHandler) Name() string { return "analysis" }

func (h *AnalysisHandler) Description() string {
	return "analysis of mandi prices, yields, costs and trends over data"
}

func (h *AnalysisHandler) Invoke(ctx context.Context, query, convContext string) (string, error) {
	resp, err := h.provider.Chat(ctx, providers.ChatRequest{
		Model:        h.model,
		SystemPrompt: analysisSystemPrompt,
		Messages:     contextMessages(convContext, query),
	})
	if err != nil {
		return "", fmt.Errorf("analysis failed: %w", err)
	}
	return resp.Content, nil
}
