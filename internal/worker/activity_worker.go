// Package worker turns expense lifecycle events into activity feed entries.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"divvy/internal/amqp"
	"divvy/internal/core"
)

// Storage is the slice of the repository the worker needs.
type Storage interface {
	AppendActivity(ctx context.Context, a core.Activity) error
	UnnotifiedExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	MarkNotified(ctx context.Context, id string) error
}

// ActivityWorker consumes expense events and writes feed entries. The
// notified flag on expenses lets ProcessUnnotified recover entries for
// events the broker lost.
type ActivityWorker struct {
	storage   Storage
	batchSize int
}

func NewActivityWorker(storage Storage, batchSize int) *ActivityWorker {
	return &ActivityWorker{
		storage:   storage,
		batchSize: batchSize,
	}
}

// HandleEvent processes one expense event from AMQP.
func (w *ActivityWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"kind", event.Kind,
		"expense_id", event.ExpenseID)

	activity := core.Activity{
		GroupID: event.GroupID,
		Kind:    event.Kind,
		Message: eventMessage(event),
	}
	if err := w.storage.AppendActivity(ctx, activity); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}

	if event.Kind == amqp.KindExpenseCreated {
		if err := w.storage.MarkNotified(ctx, event.ExpenseID); err != nil {
			// The feed entry exists, so the event is handled. A later
			// catch-up pass may duplicate it, which the feed tolerates.
			slog.ErrorContext(ctx, "Failed to mark expense notified",
				"expense_id", event.ExpenseID, "error", err)
		}
	}

	return nil
}

// ProcessUnnotified writes feed entries for expenses whose created event
// never arrived. Runs at startup and on a timer as a backup for AMQP.
func (w *ActivityWorker) ProcessUnnotified(ctx context.Context) error {
	expenses, err := w.storage.UnnotifiedExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("load unnotified expenses: %w", err)
	}

	if len(expenses) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing unnotified expenses", "count", len(expenses))

	successCount := 0
	for _, e := range expenses {
		activity := core.Activity{
			GroupID: e.GroupID,
			Kind:    amqp.KindExpenseCreated,
			Message: fmt.Sprintf("%s added %q (%s)", e.PaidBy, e.Description, core.FormatAmount(e.Amount)),
		}
		if err := w.storage.AppendActivity(ctx, activity); err != nil {
			slog.ErrorContext(ctx, "Failed to append activity", "expense_id", e.ID, "error", err)
			continue
		}
		if err := w.storage.MarkNotified(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark expense notified", "expense_id", e.ID, "error", err)
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Catch-up pass completed",
		"total", len(expenses),
		"processed", successCount)

	return nil
}

func eventMessage(event *amqp.ExpenseEvent) string {
	switch event.Kind {
	case amqp.KindExpenseSettled:
		return fmt.Sprintf("%q (%s) was settled", event.Description, event.Amount)
	default:
		return fmt.Sprintf("%s added %q (%s)", event.PaidBy, event.Description, event.Amount)
	}
}
