package providers

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const imageAnalysisPrompt = `Analyze the following image from an agricultural perspective. Describe what you see in detail. If it's a plant, identify it if possible and comment on its apparent health, noting any visible signs of disease, pests, or nutrient deficiencies. If it's a picture of soil or a field, describe that. Provide a detailed textual description that can be used by an agricultural assistant to provide advice.`

// MediaAnalyzer turns audio and image bytes into text using Gemini
// multimodal models.
type MediaAnalyzer struct {
	client     *genai.Client
	audioModel string
	imageModel string
}

// NewMediaAnalyzer creates an analyzer with the Gemini API backend. The
// models default sensibly when empty.
func NewMediaAnalyzer(ctx context.Context, apiKey, audioModel, imageModel string) (*MediaAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if audioModel == "" {
		audioModel = "gemini-2.5-flash-lite"
	}
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-lite"
	}
	return &MediaAnalyzer{client: client, audioModel: audioModel, imageModel: imageModel}, nil
}

// Transcribe converts spoken audio to text. Silence or unintelligible audio
// yields an empty string, not an error.
func (a *MediaAnalyzer) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	text, err := a.generate(ctx, a.audioModel, data, mimeType, "Transcribe this audio.")
	if err != nil {
		return "", fmt.Errorf("audio transcription failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Describe produces an agronomic description of an image.
func (a *MediaAnalyzer) Describe(ctx context.Context, data []byte, mimeType string) (string, error) {
	text, err := a.generate(ctx, a.imageModel, data, mimeType, imageAnalysisPrompt)
	if err != nil {
		return "", fmt.Errorf("image description failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (a *MediaAnalyzer) generate(ctx context.Context, model string, data []byte, mimeType, prompt string) (string, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: prompt},
		},
	}}

	resp, err := a.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			out.WriteString(part.Text)
		}
	}
	return out.String(), nil
}
