package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agrimitra/agrimitra/internal/normalize"
	"github.com/agrimitra/agrimitra/internal/storage"
)

type fakeSynth struct {
	data []byte
	err  error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	return f.data, "audio/ogg", f.err
}

type failingBlobs struct{}

func (failingBlobs) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestRenderTextModality(t *testing.T) {
	r := NewRenderer(&fakeSynth{data: []byte("ogg")}, storage.NewMemoryStore(), nil, 0)
	reply := r.Render(context.Background(), "sow in november", normalize.ModalityText)
	if reply.Text != "sow in november" || reply.MediaURL != "" {
		t.Errorf("text modality must be text-only, got %+v", reply)
	}
}

func TestRenderPhotoModality(t *testing.T) {
	r := NewRenderer(&fakeSynth{data: []byte("ogg")}, storage.NewMemoryStore(), nil, 0)
	reply := r.Render(context.Background(), "leaf blight detected", normalize.ModalityPhoto)
	if reply.MediaURL != "" {
		t.Errorf("photo modality must not attempt a voice reply, got %+v", reply)
	}
}

func TestRenderVoiceReply(t *testing.T) {
	blobs := storage.NewMemoryStore()
	r := NewRenderer(&fakeSynth{data: []byte("oggbytes")}, blobs, nil, 0)

	reply := r.Render(context.Background(), "spray neem oil", normalize.ModalityVoice)
	if reply.Text != "spray neem oil" {
		t.Errorf("voice reply must still carry the text, got %q", reply.Text)
	}
	if !strings.HasPrefix(reply.MediaURL, "memory://audio-responses/") || !strings.HasSuffix(reply.MediaURL, ".ogg") {
		t.Errorf("MediaURL = %q", reply.MediaURL)
	}
}

func TestRenderSynthesisFailureFallsBack(t *testing.T) {
	r := NewRenderer(&fakeSynth{err: errors.New("tts down")}, storage.NewMemoryStore(), nil, 0)
	reply := r.Render(context.Background(), "spray neem oil", normalize.ModalityVoice)
	if reply.Text != "spray neem oil" {
		t.Errorf("fallback must keep the text, got %q", reply.Text)
	}
	if reply.MediaURL != "" {
		t.Error("failed synthesis must not set MediaURL")
	}
}

func TestRenderUploadFailureFallsBack(t *testing.T) {
	r := NewRenderer(&fakeSynth{data: []byte("ogg")}, failingBlobs{}, nil, 0)
	reply := r.Render(context.Background(), "spray neem oil", normalize.ModalityVoice)
	if reply.Text != "spray neem oil" || reply.MediaURL != "" {
		t.Errorf("upload failure must degrade to text, got %+v", reply)
	}
}

func TestRenderNilSynthesizer(t *testing.T) {
	r := NewRenderer(nil, nil, nil, 0)
	reply := r.Render(context.Background(), "hello", normalize.ModalityVoice)
	if reply.Text != "hello" || reply.MediaURL != "" {
		t.Errorf("disabled voice path must be text-only, got %+v", reply)
	}
}
