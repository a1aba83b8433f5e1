package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/amqp"
	"gastos/internal/core"
)

type fakeGetter struct {
	expenses map[int64]core.Expense
	err      error
}

func (f *fakeGetter) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	if f.err != nil {
		return core.Expense{}, f.err
	}
	e, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	return e, nil
}

type fakeAppender struct {
	appended []core.Expense
	err      error
}

func (f *fakeAppender) Append(_ context.Context, e core.Expense) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, e)
	return nil
}

func sampleExpense(id int64) core.Expense {
	return core.Expense{
		ID:        id,
		MessageID: 100,
		ChatID:    5,
		UserID:    1,
		Date:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Value:     decimal.NewFromInt(12),
		Category:  "SUPERMERCADO",
		Currency:  core.DefaultCurrency,
		Text:      "comida",
	}
}

func TestRecordedEventMirrorsExpense(t *testing.T) {
	getter := &fakeGetter{expenses: map[int64]core.Expense{7: sampleExpense(7)}}
	sheet := &fakeAppender{}
	w := NewMirrorWorker(getter, sheet)

	if err := w.HandleEvent(context.Background(), amqp.NewExpenseRecordedEvent(7, 1)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(sheet.appended) != 1 {
		t.Fatalf("appended %d rows, want 1", len(sheet.appended))
	}
	if sheet.appended[0].ID != 7 {
		t.Fatalf("mirrored expense %d, want 7", sheet.appended[0].ID)
	}
}

func TestRemovedEventIsAcknowledgedWithoutMirroring(t *testing.T) {
	sheet := &fakeAppender{}
	w := NewMirrorWorker(&fakeGetter{}, sheet)

	if err := w.HandleEvent(context.Background(), amqp.NewExpenseRemovedEvent(1, 100)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(sheet.appended) != 0 {
		t.Fatalf("removal must not touch the sheet, appended %d rows", len(sheet.appended))
	}
}

func TestMissingExpenseIsSkippedNotRequeued(t *testing.T) {
	sheet := &fakeAppender{}
	w := NewMirrorWorker(&fakeGetter{expenses: map[int64]core.Expense{}}, sheet)

	if err := w.HandleEvent(context.Background(), amqp.NewExpenseRecordedEvent(404, 1)); err != nil {
		t.Fatalf("expected nil for missing expense, got %v", err)
	}
	if len(sheet.appended) != 0 {
		t.Fatalf("nothing should be appended, got %d rows", len(sheet.appended))
	}
}

func TestStorageFailurePropagates(t *testing.T) {
	w := NewMirrorWorker(&fakeGetter{err: errors.New("db timeout")}, &fakeAppender{})

	if err := w.HandleEvent(context.Background(), amqp.NewExpenseRecordedEvent(7, 1)); err == nil {
		t.Fatal("expected error when storage is unavailable")
	}
}

func TestAppendFailurePropagates(t *testing.T) {
	getter := &fakeGetter{expenses: map[int64]core.Expense{7: sampleExpense(7)}}
	w := NewMirrorWorker(getter, &fakeAppender{err: errors.New("quota exceeded")})

	if err := w.HandleEvent(context.Background(), amqp.NewExpenseRecordedEvent(7, 1)); err == nil {
		t.Fatal("expected error when sheet append fails")
	}
}

func TestUnknownEventKindFails(t *testing.T) {
	w := NewMirrorWorker(&fakeGetter{}, &fakeAppender{})

	err := w.HandleEvent(context.Background(), amqp.Event{Kind: "expense.exploded"})
	if err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}
