// Package services orchestrates the message-to-record pipeline: split,
// extract, store, publish.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/extract"
	"gastos/internal/report"
)

// ErrParseRejected signals that a message does not contain exactly one
// amount next to a label. Surfaced to the user as a formatting
// instruction, not treated as a system fault.
var ErrParseRejected = errors.New("message does not match <amount> <label> or <label> <amount>")

// InboundMessage is one chat event as handed over by the transport layer.
type InboundMessage struct {
	MessageID int64
	ChatID    int64
	UserID    int64
	Text      string
	IsEdit    bool
}

// Ledger is the persistence surface the pipeline writes to.
type Ledger interface {
	AddExpense(ctx context.Context, e core.Expense) (int64, error)
	ReplaceExpense(ctx context.Context, e core.Expense) (int64, error)
	RemoveByMessageID(ctx context.Context, userID, messageID int64) (bool, error)
	ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
}

// Catalog supplies per-user category sets and first-contact registration.
type Catalog interface {
	EnsureRegistered(ctx context.Context, userID int64) error
	Allowed(ctx context.Context, userID int64) ([]string, error)
}

// EventPublisher emits expense lifecycle events. Implemented by
// *amqp.Client; nil disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, event amqp.Event) error
}

type ExpenseService struct {
	ledger    Ledger
	catalog   Catalog
	extractor extract.Extractor
	events    EventPublisher
	now       func() time.Time
}

func NewExpenseService(ledger Ledger, catalog Catalog, extractor extract.Extractor, events EventPublisher) *ExpenseService {
	return &ExpenseService{
		ledger:    ledger,
		catalog:   catalog,
		extractor: extractor,
		events:    events,
		now:       time.Now,
	}
}

// RecordMessage runs the interpretation pipeline for one inbound message.
// Edits replace the record stored for the same (user, message) identity;
// new messages append. The splitter's amount is authoritative; the
// oracle's value is only consulted when the splitter yielded zero.
func (s *ExpenseService) RecordMessage(ctx context.Context, msg InboundMessage) (core.Expense, error) {
	if err := s.catalog.EnsureRegistered(ctx, msg.UserID); err != nil {
		return core.Expense{}, fmt.Errorf("ensure registered: %w", err)
	}

	value, label, ok := core.SplitAmount(msg.Text)
	if !ok {
		return core.Expense{}, ErrParseRejected
	}

	allowed, err := s.catalog.Allowed(ctx, msg.UserID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load allowed categories: %w", err)
	}

	extraction, err := s.extractor.Extract(ctx, label, allowed)
	if err != nil {
		return core.Expense{}, fmt.Errorf("extract expense: %w", err)
	}
	if value.IsZero() {
		value = extraction.Value
	}

	expense := core.Expense{
		MessageID: msg.MessageID,
		ChatID:    msg.ChatID,
		UserID:    msg.UserID,
		Date:      s.now().UTC(),
		Value:     value,
		Category:  extraction.Category,
		Currency:  extraction.Currency,
		Text:      label,
	}

	var id int64
	if msg.IsEdit {
		id, err = s.ledger.ReplaceExpense(ctx, expense)
	} else {
		id, err = s.ledger.AddExpense(ctx, expense)
	}
	if err != nil {
		return core.Expense{}, err
	}
	expense.ID = id

	s.publish(ctx, amqp.NewExpenseRecordedEvent(id, msg.UserID))
	return expense, nil
}

// DeleteByMessageID removes the record stored for (userID, messageID) and
// reports whether one existed. A missing record is not an error.
func (s *ExpenseService) DeleteByMessageID(ctx context.Context, userID, messageID int64) (bool, error) {
	existed, err := s.ledger.RemoveByMessageID(ctx, userID, messageID)
	if err != nil {
		return false, fmt.Errorf("remove expense: %w", err)
	}
	if existed {
		s.publish(ctx, amqp.NewExpenseRemovedEvent(userID, messageID))
	}
	return existed, nil
}

// Report exports the user's ledger as CSV bytes plus a dated filename.
func (s *ExpenseService) Report(ctx context.Context, userID int64) ([]byte, string, error) {
	rows, err := s.ledger.ListExpenses(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("list expenses: %w", err)
	}
	data, err := report.Bytes(rows)
	if err != nil {
		return nil, "", fmt.Errorf("render csv: %w", err)
	}
	return data, report.Filename(s.now()), nil
}

// publish is best effort: the ledger commit already happened, so a broker
// failure must not fail the user's request.
func (s *ExpenseService) publish(ctx context.Context, event amqp.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"kind", event.Kind,
			"expense_id", event.ExpenseID,
			"user_id", event.UserID,
			"error", err)
	}
}
