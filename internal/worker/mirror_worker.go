// Package worker consumes expense lifecycle events and mirrors them to
// the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/mirror"
)

// ExpenseGetter loads the full expense behind an event. Implemented by
// *storage.SQLiteRepository.
type ExpenseGetter interface {
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
}

// MirrorWorker appends recorded expenses to the mirror sheet. Removal
// events are acknowledged and logged only: the spreadsheet is an
// append-only audit trail, the ledger stays the source of truth.
type MirrorWorker struct {
	storage ExpenseGetter
	sheet   mirror.Appender
}

func NewMirrorWorker(storage ExpenseGetter, sheet mirror.Appender) *MirrorWorker {
	return &MirrorWorker{storage: storage, sheet: sheet}
}

// HandleEvent processes a single lifecycle event from the queue.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event amqp.Event) error {
	switch event.Kind {
	case amqp.EventExpenseRecorded:
		return w.handleRecorded(ctx, event)
	case amqp.EventExpenseRemoved:
		slog.InfoContext(ctx, "Expense removed, keeping mirror rows",
			"user_id", event.UserID,
			"message_id", event.MessageID)
		return nil
	default:
		return fmt.Errorf("unknown event kind: %s", event.Kind)
	}
}

func (w *MirrorWorker) handleRecorded(ctx context.Context, event amqp.Event) error {
	slog.InfoContext(ctx, "Mirroring recorded expense",
		"expense_id", event.ExpenseID,
		"user_id", event.UserID)

	expense, err := w.storage.GetExpense(ctx, event.ExpenseID)
	if errors.Is(err, core.ErrExpenseNotFound) {
		// The record was replaced or deleted before we got here. Nothing
		// to mirror; requeueing would loop forever.
		slog.WarnContext(ctx, "Expense gone before mirroring, skipping",
			"expense_id", event.ExpenseID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.sheet.Append(ctx, expense); err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Expense mirrored",
		"expense_id", event.ExpenseID,
		"category", expense.Category,
		"value", expense.Value.String())
	return nil
}
