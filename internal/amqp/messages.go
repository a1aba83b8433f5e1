package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventKind string

const (
	// EventExpenseRecorded is published after an expense row is committed
	// (new message or winning edit).
	EventExpenseRecorded EventKind = "expense.recorded"
	// EventExpenseRemoved is published after an explicit delete.
	EventExpenseRemoved EventKind = "expense.removed"
)

// Event is the lightweight message consumers receive. It carries keys
// only; the mirror worker resolves the full expense from storage.
type Event struct {
	Kind      EventKind `json:"kind"`
	ExpenseID int64     `json:"expense_id,omitempty"`
	UserID    int64     `json:"user_id"`
	MessageID int64     `json:"message_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseRecordedEvent(expenseID, userID int64) Event {
	return Event{
		Kind:      EventExpenseRecorded,
		ExpenseID: expenseID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func NewExpenseRemovedEvent(userID, messageID int64) Event {
	return Event{
		Kind:      EventExpenseRemoved,
		UserID:    userID,
		MessageID: messageID,
		Timestamp: time.Now(),
	}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	switch e.Kind {
	case EventExpenseRecorded, EventExpenseRemoved:
		return e, nil
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", e.Kind)
	}
}
