package providers

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// Synthesizer renders reply text as spoken audio. Output is Opus in an OGG
// container, which WhatsApp plays back natively.
type Synthesizer struct {
	client *openai.Client
	model  string
}

// NewSynthesizer creates a text-to-speech synthesizer.
func NewSynthesizer(apiKey, model string) *Synthesizer {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	return &Synthesizer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Synthesize converts text to audio bytes and returns the content type.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.VoiceAlloy,
		ResponseFormat: openai.SpeechResponseFormatOpus,
	})
	if err != nil {
		return nil, "", fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	return data, "audio/ogg", nil
}
