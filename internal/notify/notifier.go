// Package notify pushes operator alerts for trading events over Telegram
// and Discord. Delivery is best-effort: a failed webhook never interrupts
// the bot.
package notify

import (
	"context"
	"log/slog"
	"strings"
)

// Event types emitted by the bot. The operator chooses which ones reach the
// configured channels.
const (
	EventHedgePlaced   = "hedge_placed"
	EventMergeExecuted = "merge_executed"
	EventOrderFailed   = "order_failed"
	EventFeedDown      = "feed_down"
)

// Sender delivers one notification over one channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier fans notifications out to all configured senders, filtered by
// event type. A nil *Notifier is valid and drops everything, so callers
// never need to branch on whether notifications are configured.
type Notifier struct {
	senders []Sender
	allowed map[string]bool
	log     *slog.Logger
}

// NewNotifier creates a Notifier delivering to senders. Only event types in
// events pass the filter; an empty list allows everything.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		log:     logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers a message to every sender if the event type passes the
// filter. Send failures are logged per channel and never propagated.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) {
	if n == nil {
		return
	}
	if len(n.allowed) > 0 && !n.allowed[event] {
		return
	}

	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.log.Warn("notification delivery failed",
				slog.String("channel", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()))
		}
	}
}
