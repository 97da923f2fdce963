package worker

import (
	"context"
	"io"
	"log/slog"

	audit "idledger/pkg/platform/audit"
)

// Worker consumes audit events from a channel and appends them to a store.
// A failed append is logged and skipped; one bad sink must not stall the
// stream behind it.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run processes events until the inbox is closed or ctx is done. A closed
// inbox is drained completely before Run returns nil.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to append audit event",
					"error", err,
					"action", event.Action,
					"event_id", event.ID.String(),
				)
			}
		}
	}
}
