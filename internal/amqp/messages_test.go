package amqp

import (
	"testing"
	"time"
)

func TestEventFromJSON(t *testing.T) {
	event := NewExpenseRecordedEvent(42, 7)
	body, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := EventFromJSON(body)
	if err != nil {
		t.Fatalf("EventFromJSON: %v", err)
	}
	if got.Kind != EventExpenseRecorded || got.ExpenseID != 42 || got.UserID != 7 {
		t.Fatalf("event = %+v", got)
	}
	if got.Timestamp.IsZero() || time.Since(got.Timestamp) > time.Minute {
		t.Fatalf("timestamp = %v", got.Timestamp)
	}
}

func TestEventFromJSONRejectsUnknownKind(t *testing.T) {
	if _, err := EventFromJSON([]byte(`{"kind":"expense.exploded","user_id":1}`)); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := EventFromJSON([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestRemovedEventCarriesMessageKey(t *testing.T) {
	event := NewExpenseRemovedEvent(7, 100)
	if event.Kind != EventExpenseRemoved || event.UserID != 7 || event.MessageID != 100 {
		t.Fatalf("event = %+v", event)
	}
	if event.ExpenseID != 0 {
		t.Fatalf("removal events carry no expense id, got %d", event.ExpenseID)
	}
}
