package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"spendlog/internal/core"
)

// EventType names a ledger change.
type EventType string

const (
	ExpenseCreated EventType = "expense.created"
	ExpenseDeleted EventType = "expense.deleted"
)

// LedgerEvent announces a change to one tenant's ledger.
// Expense.ID is zero for created events since inserts do not report it.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	TenantID  int64     `json:"tenant_id"`
	ExpenseID int64     `json:"expense_id,omitempty"`
	Date      time.Time `json:"date"`
	Name      string    `json:"name"`
	Cost      float64   `json:"cost"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent builds an event stamped with the current time.
func NewLedgerEvent(t EventType, tenantID int64, e core.Expense) *LedgerEvent {
	return &LedgerEvent{
		Type:      t,
		TenantID:  tenantID,
		ExpenseID: e.ID,
		Date:      e.Date.UTC(),
		Name:      e.Name,
		Cost:      e.Cost,
		Timestamp: time.Now().UTC(),
	}
}

// Expense returns the record carried by the event.
func (m *LedgerEvent) Expense() core.Expense {
	return core.Expense{ID: m.ExpenseID, Date: m.Date, Name: m.Name, Cost: m.Cost}
}

// ToJSON converts the event to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event and rejects unknown types.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case ExpenseCreated, ExpenseDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
