// Package events publishes ledger events after a ledger operation commits.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// EventType names a committed ledger change.
type EventType string

const (
	AccountDeposited   EventType = "account.deposited"
	AccountWithdrawn   EventType = "account.withdrawn"
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
	TransferCompleted  EventType = "transfer.completed"
	BudgetRolledOver   EventType = "budget.rolled_over"
)

// LedgerEvent describes one committed ledger change.
type LedgerEvent struct {
	Type              EventType       `json:"type"`
	UserID            string          `json:"user_id"`
	AccountID         string          `json:"account_id,omitempty"`
	TransferAccountID string          `json:"transfer_account_id,omitempty"`
	TransactionID     string          `json:"transaction_id,omitempty"`
	BudgetID          string          `json:"budget_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	OccurredAt        time.Time       `json:"occurred_at"`
}

// Marshal encodes the event as JSON.
func (e LedgerEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes an event produced by Marshal.
func Unmarshal(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher delivers ledger events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, LedgerEvent) error { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []LedgerEvent
	// Err, when set, is returned by every Publish call after recording.
	Err error
}

// Publish records the event.
func (p *MemoryPublisher) Publish(_ context.Context, event LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.Err
}

// Events returns a copy of the recorded events in publish order.
func (p *MemoryPublisher) Events() []LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]LedgerEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Types returns the types of the recorded events in publish order.
func (p *MemoryPublisher) Types() []EventType {
	events := p.Events()
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
