// Package render turns an aggregated answer into the outbound reply. Voice
// input gets a best-effort spoken reply; any synthesis or upload failure
// falls back to text so the user always hears back.
package render

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agrimitra/agrimitra/internal/limits"
	"github.com/agrimitra/agrimitra/internal/metrics"
	"github.com/agrimitra/agrimitra/internal/normalize"
	"github.com/agrimitra/agrimitra/internal/storage"
)

// Reply is the outbound message payload. MediaURL, when set, points at a
// playable voice note accompanying the text.
type Reply struct {
	Text     string
	MediaURL string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (data []byte, contentType string, err error)
}

// Renderer builds replies from aggregated answers.
type Renderer struct {
	synth   Synthesizer
	blobs   storage.BlobStore
	sem     *limits.Semaphore
	timeout time.Duration
}

// NewRenderer wires a Renderer. Passing a nil synthesizer or blob store
// disables the voice path entirely.
func NewRenderer(synth Synthesizer, blobs storage.BlobStore, sem *limits.Semaphore, timeout time.Duration) *Renderer {
	if sem == nil {
		sem = limits.NewSemaphore(0)
	}
	return &Renderer{synth: synth, blobs: blobs, sem: sem, timeout: timeout}
}

// Render produces the reply for the given answer text and input modality.
// Only voice input attempts a voice reply, and only additively: the text is
// always present, and no failure on the voice path is ever surfaced.
func (r *Renderer) Render(ctx context.Context, text string, modality normalize.Modality) Reply {
	reply := Reply{Text: text}
	if modality != normalize.ModalityVoice || r.synth == nil || r.blobs == nil {
		return reply
	}

	url, err := r.speak(ctx, text)
	if err != nil {
		metrics.RecordVoiceFallback()
		slog.Warn("voice reply failed, sending text only", "err", err)
		return reply
	}
	reply.MediaURL = url
	return reply
}

// speak synthesizes and uploads the voice note. No retries.
func (r *Renderer) speak(ctx context.Context, text string) (string, error) {
	if err := r.sem.Acquire(ctx); err != nil {
		return "", err
	}
	defer r.sem.Release()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	data, contentType, err := r.synth.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	name := "audio-responses/" + uuid.New().String() + ".ogg"
	return r.blobs.Upload(ctx, name, contentType, data)
}
