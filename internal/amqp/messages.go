package amqp

import (
	"encoding/json"
	"time"
)

const (
	KindExpenseCreated = "expense.created"
	KindExpenseSettled = "expense.settled"
)

// ExpenseEvent is the message published whenever a shared expense is
// created or settled. The worker turns these into activity feed entries.
type ExpenseEvent struct {
	Kind        string    `json:"kind"`
	ExpenseID   string    `json:"expense_id"`
	GroupID     string    `json:"group_id"`
	PaidBy      string    `json:"paid_by"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseEvent(kind, expenseID, groupID, paidBy, amount, description string) *ExpenseEvent {
	return &ExpenseEvent{
		Kind:        kind,
		ExpenseID:   expenseID,
		GroupID:     groupID,
		PaidBy:      paidBy,
		Amount:      amount,
		Description: description,
		Timestamp:   time.Now(),
	}
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
