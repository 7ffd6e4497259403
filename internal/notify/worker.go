package notify

import (
	"context"
	"log/slog"
)

// Worker consumes messages from the outbox channel and delivers them. It
// keeps background processing testable without wiring queue implementations.
type Worker struct {
	sender Sender
	inbox  <-chan Message
	logger *slog.Logger
}

func NewWorker(sender Sender, inbox <-chan Message, logger *slog.Logger) *Worker {
	return &Worker{sender: sender, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context ends. Delivery failures are logged
// and the message is dropped; mail is a courtesy, not a ledger.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-w.inbox:
			if err := w.sender.Send(ctx, msg); err != nil {
				w.logger.WarnContext(ctx, "notify: delivery failed",
					"to", msg.To,
					"subject", msg.Subject,
					"error", err.Error(),
				)
			}
		}
	}
}
