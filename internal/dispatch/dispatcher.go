package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agrimitra/agrimitra/internal/handlers"
	"github.com/agrimitra/agrimitra/internal/metrics"
	"github.com/agrimitra/agrimitra/internal/session"
)

// Section is one intent's contribution to the aggregated answer.
type Section struct {
	Handler string
	Text    string
	Failed  bool
}

// Aggregate is the combined answer for one query.
type Aggregate struct {
	Sections []Section
	Text     string
}

// Dispatcher routes a canonical query through the classifier and the
// capability handlers.
type Dispatcher struct {
	classifier Classifier
	registry   *handlers.Registry
}

func NewDispatcher(classifier Classifier, registry *handlers.Registry) *Dispatcher {
	return &Dispatcher{classifier: classifier, registry: registry}
}

// Route decomposes the query, invokes each intent's handler concurrently and
// aggregates the sections in the order the intents were identified. A single
// failing handler yields an inline note for its section; it never aborts the
// response.
func (d *Dispatcher) Route(ctx context.Context, query string, history []session.Turn) (*Aggregate, error) {
	convContext := renderContext(history)

	intents, err := d.classifier.Decompose(ctx, query, convContext)
	if err != nil {
		return nil, fmt.Errorf("decompose query: %w", err)
	}

	sections := make([]Section, len(intents))
	g, gctx := errgroup.WithContext(ctx)
	for i, intent := range intents {
		g.Go(func() error {
			sections[i] = d.invoke(gctx, intent, convContext)
			return nil
		})
	}
	// Workers never return errors; sections record their own failures.
	_ = g.Wait()

	return &Aggregate{Sections: sections, Text: combine(sections)}, nil
}

func (d *Dispatcher) invoke(ctx context.Context, intent Intent, convContext string) Section {
	h, ok := d.registry.Get(intent.Handler)
	if !ok {
		slog.Error("no handler registered", "handler", intent.Handler)
		return failedSection(intent.Handler)
	}

	start := time.Now()
	text, err := h.Invoke(ctx, intent.Query, convContext)
	if err != nil {
		metrics.RecordHandlerInvocation(intent.Handler, "error", time.Since(start))
		slog.Warn("handler invocation failed", "handler", intent.Handler, "err", err)
		return failedSection(intent.Handler)
	}
	metrics.RecordHandlerInvocation(intent.Handler, "ok", time.Since(start))
	return Section{Handler: intent.Handler, Text: strings.TrimSpace(text)}
}

func failedSection(handler string) Section {
	return Section{
		Handler: handler,
		Text:    fmt.Sprintf("(could not retrieve %s information right now)", handler),
		Failed:  true,
	}
}

// combine builds the farmer-facing message. One section returns its raw
// text; multiple sections get labeled headings.
func combine(sections []Section) string {
	if len(sections) == 1 {
		return sections[0].Text
	}

	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "*%s*\n%s", capitalize(s.Handler), s.Text)
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// renderContext flattens session turns into a compact transcript for
// handler and classifier prompts.
func renderContext(history []session.Turn) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range history {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
