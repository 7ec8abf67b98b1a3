// Package normalize reduces every inbound message shape to canonical text.
// Voice notes are transcribed, photos are described agronomically, plain
// text is trimmed. Downstream routing only ever sees text.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agrimitra/agrimitra/internal/limits"
)

// Placeholders substituted when media analysis yields nothing usable. They
// flow through the pipeline as ordinary text so the assistant can respond
// helpfully instead of failing the turn.
const (
	NoSpeechPlaceholder = "(No speech detected in audio)"
	NoImagePlaceholder  = "(Could not describe the image)"
)

// ErrEmptyInput means the message carried neither usable text nor media.
var ErrEmptyInput = errors.New("empty input")

// Modality records what kind of message the canonical text came from. The
// renderer uses it to decide whether the reply should carry a voice note.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityVoice Modality = "voice"
	ModalityPhoto Modality = "photo"
)

// Inbound is a raw incoming message before normalization.
type Inbound struct {
	From             string
	Body             string
	MediaURL         string
	MediaContentType string
}

// Canonical is the normalized form every downstream stage consumes.
type Canonical struct {
	Text     string
	Modality Modality
}

// Analyzer converts media bytes to text.
type Analyzer interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
	Describe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Fetcher downloads message media by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Normalizer converts Inbound messages to Canonical text. Media analysis is
// bounded by a shared semaphore and per-call timeout.
type Normalizer struct {
	fetcher  Fetcher
	analyzer Analyzer
	sem      *limits.Semaphore
	timeout  time.Duration
}

// NewNormalizer wires a Normalizer. A zero timeout disables the per-call
// deadline.
func NewNormalizer(fetcher Fetcher, analyzer Analyzer, sem *limits.Semaphore, timeout time.Duration) *Normalizer {
	if sem == nil {
		sem = limits.NewSemaphore(0)
	}
	return &Normalizer{fetcher: fetcher, analyzer: analyzer, sem: sem, timeout: timeout}
}

// Normalize produces canonical text for the message. Media takes priority
// over any accompanying body text. A failed media download is an error; a
// failed or empty analysis degrades to a placeholder.
func (n *Normalizer) Normalize(ctx context.Context, in Inbound) (Canonical, error) {
	if in.MediaURL != "" {
		if strings.HasPrefix(in.MediaContentType, "audio/") {
			return n.normalizeAudio(ctx, in)
		}
		return n.normalizeImage(ctx, in)
	}

	text := strings.TrimSpace(in.Body)
	if text == "" {
		return Canonical{}, ErrEmptyInput
	}
	return Canonical{Text: text, Modality: ModalityText}, nil
}

func (n *Normalizer) normalizeAudio(ctx context.Context, in Inbound) (Canonical, error) {
	data, err := n.fetchMedia(ctx, in.MediaURL)
	if err != nil {
		return Canonical{}, err
	}

	text, err := n.analyze(ctx, func(ctx context.Context) (string, error) {
		return n.analyzer.Transcribe(ctx, data, in.MediaContentType)
	})
	if err != nil {
		slog.Warn("audio transcription failed", "from", in.From, "err", err)
		text = ""
	}
	if strings.TrimSpace(text) == "" {
		text = NoSpeechPlaceholder
	}
	return Canonical{Text: strings.TrimSpace(text), Modality: ModalityVoice}, nil
}

func (n *Normalizer) normalizeImage(ctx context.Context, in Inbound) (Canonical, error) {
	data, err := n.fetchMedia(ctx, in.MediaURL)
	if err != nil {
		return Canonical{}, err
	}

	text, err := n.analyze(ctx, func(ctx context.Context) (string, error) {
		return n.analyzer.Describe(ctx, data, in.MediaContentType)
	})
	if err != nil {
		slog.Warn("image description failed", "from", in.From, "err", err)
		text = ""
	}
	if strings.TrimSpace(text) == "" {
		text = NoImagePlaceholder
	}
	return Canonical{Text: strings.TrimSpace(text), Modality: ModalityPhoto}, nil
}

func (n *Normalizer) fetchMedia(ctx context.Context, url string) ([]byte, error) {
	data, err := n.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	return data, nil
}

func (n *Normalizer) analyze(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if err := n.sem.Acquire(ctx); err != nil {
		return "", err
	}
	defer n.sem.Release()

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	return fn(ctx)
}
