// Package agent glues the conversation pipeline together: normalize the
// inbound message, resolve the session, route through the capability
// handlers and render the reply.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agrimitra/agrimitra/internal/dispatch"
	"github.com/agrimitra/agrimitra/internal/metrics"
	"github.com/agrimitra/agrimitra/internal/normalize"
	"github.com/agrimitra/agrimitra/internal/render"
	"github.com/agrimitra/agrimitra/internal/session"
)

// resetPhrase, matched case-insensitively against the whole canonical text,
// deletes the user's session before any routing happens.
const resetPhrase = "create new session"

// resetConfirmation is the reply for a reset turn; the phrase itself is
// never routed as a query.
const resetConfirmation = "Started a fresh conversation. Ask me anything about your farm."

// errorSentinel marks an answer that encodes an internal failure; the query
// API surfaces it as a server error instead of a success payload.
const errorSentinel = "An error occurred"

// apiUserID owns the temporary sessions created for stateless API queries.
const apiUserID = "api_user"

// AnswerError reports that the assistant's answer itself encodes a failure.
type AnswerError struct {
	Detail string
}

func (e *AnswerError) Error() string { return e.Detail }

// Orchestrator is the per-turn façade over the conversation pipeline.
type Orchestrator struct {
	normalizer *normalize.Normalizer
	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher
	renderer   *render.Renderer
}

func NewOrchestrator(n *normalize.Normalizer, s *session.Manager, d *dispatch.Dispatcher, r *render.Renderer) *Orchestrator {
	return &Orchestrator{normalizer: n, sessions: s, dispatcher: d, renderer: r}
}

// HandleTurn processes one inbound channel message end to end and returns
// the reply to send back. Normalization and session-creation failures
// propagate; everything downstream degrades instead of failing the turn.
func (o *Orchestrator) HandleTurn(ctx context.Context, in normalize.Inbound) (render.Reply, error) {
	canonical, err := o.normalizer.Normalize(ctx, in)
	if err != nil {
		metrics.RecordNormalization(normalizeFailureLabel(err), "error")
		return render.Reply{}, err
	}
	metrics.RecordNormalization(string(canonical.Modality), "ok")

	if strings.EqualFold(canonical.Text, resetPhrase) {
		o.sessions.Reset(ctx, in.From)
		if _, err := o.sessions.Resolve(ctx, in.From); err != nil {
			return render.Reply{}, err
		}
		return o.renderer.Render(ctx, resetConfirmation, canonical.Modality), nil
	}

	sess, err := o.sessions.Resolve(ctx, in.From)
	if err != nil {
		return render.Reply{}, err
	}

	history, err := o.sessions.History(ctx, sess.ID)
	if err != nil {
		slog.Warn("failed to load history, continuing without context", "session", sess.ID, "err", err)
		history = nil
	}

	agg, err := o.dispatcher.Route(ctx, canonical.Text, history)
	if err != nil {
		return render.Reply{}, fmt.Errorf("route query: %w", err)
	}

	o.sessions.Remember(ctx, sess.ID, canonical.Text, agg.Text)
	return o.renderer.Render(ctx, agg.Text, canonical.Modality), nil
}

// normalizeFailureLabel names a normalization failure for the metric's
// modality label, where no modality was ever established.
func normalizeFailureLabel(err error) string {
	var mfe *normalize.MediaFetchError
	switch {
	case errors.Is(err, normalize.ErrEmptyInput):
		return "empty_input"
	case errors.As(err, &mfe):
		return "media_fetch"
	default:
		return "unknown"
	}
}

// HandleQuery serves the stateless JSON API: a temporary session backs the
// call and is deleted again on every path before returning.
func (o *Orchestrator) HandleQuery(ctx context.Context, input string) (string, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return "", normalize.ErrEmptyInput
	}

	sess, err := o.sessions.Scratch(ctx, apiUserID)
	if err != nil {
		return "", err
	}
	// The cleanup must run even when the caller's context is already gone.
	defer o.sessions.Delete(context.WithoutCancel(ctx), sess.ID)

	agg, err := o.dispatcher.Route(ctx, text, nil)
	if err != nil {
		return "", fmt.Errorf("route query: %w", err)
	}
	if strings.Contains(agg.Text, errorSentinel) {
		return "", &AnswerError{Detail: agg.Text}
	}
	return agg.Text, nil
}
