package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Op tells the worker what happened to an expense.
type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// ExpenseEvent carries only the expense id; the worker reads the lines
// from the database.
type ExpenseEvent struct {
	ExpenseID string    `json:"expense_id"`
	Op        Op        `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(expenseID string, op Op) *ExpenseEvent {
	return &ExpenseEvent{
		ExpenseID: expenseID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON decodes and validates an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.ExpenseID == "" {
		return nil, fmt.Errorf("missing expense_id")
	}
	switch ev.Op {
	case OpUpsert, OpDelete:
	default:
		return nil, fmt.Errorf("unknown op %q", ev.Op)
	}
	return &ev, nil
}
