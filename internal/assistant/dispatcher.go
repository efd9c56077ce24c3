package assistant

import (
	"context"
	"errors"
	"log/slog"
)

// ErrorReply is the fixed apology shown when a dispatch fails. Failures are
// logged but never surface as raw faults, and nothing is retried; the user
// resubmits if they want another attempt.
const ErrorReply = "Sorry, I couldn't reach the betting data right now. Please try again in a moment."

// Dispatcher glues classifier, extractor, data source and formatter into
// the single-query pipeline.
type Dispatcher struct {
	src DataSource
	log *slog.Logger
}

func NewDispatcher(src DataSource, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{src: src, log: log}
}

// Handle resolves one query to a reply. The returned string is always safe
// to show the user: the help intent guarantees classification never fails,
// and fetch or render errors collapse into the fixed apology.
func (d *Dispatcher) Handle(ctx context.Context, text string) string {
	q := Normalize(text)
	rule, entity := classifyRule(q)

	reply, err := rule.handler(ctx, d.src, entity)
	if err != nil {
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			d.log.Error("backend fetch failed",
				"intent", rule.name, "endpoint", netErr.Endpoint, "status", netErr.Status, "error", err)
		} else {
			d.log.Error("dispatch failed", "intent", rule.name, "error", err)
		}
		return ErrorReply
	}

	d.log.Debug("query dispatched", "intent", rule.name, "entity", entity)
	return reply
}
