package models

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

const (
	StatusAvailable = "available"
	StatusReserved  = "reserved"
	StatusPaid      = "paid"
)

// Ticket is one numbered unit of the raffle. The pool is seeded once as
// available; only the status field cycles, rows are never deleted.
type Ticket struct {
	Number       int       `json:"number"`
	Status       string    `json:"status"` // available, reserved, paid
	BuyerName    string    `json:"buyer_name,omitempty"`
	BuyerContact string    `json:"buyer_contact,omitempty"`
	OrderID      string    `json:"order_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func TicketFromRecord(r *core.Record) Ticket {
	return Ticket{
		Number:       r.GetInt("number"),
		Status:       r.GetString("status"),
		BuyerName:    r.GetString("buyer_name"),
		BuyerContact: r.GetString("buyer_contact"),
		OrderID:      r.GetString("order_id"),
		CreatedAt:    r.GetDateTime("created").Time(),
		UpdatedAt:    r.GetDateTime("updated").Time(),
	}
}

func ValidStatus(s string) bool {
	return s == StatusAvailable || s == StatusReserved || s == StatusPaid
}

// CheckInvariant verifies the availability bookkeeping rule: available
// tickets carry no buyer fields, reserved/paid tickets always carry a
// contact and an order id.
func (t Ticket) CheckInvariant() error {
	if !ValidStatus(t.Status) {
		return fmt.Errorf("ticket #%d: unknown status %q", t.Number, t.Status)
	}
	if t.Status == StatusAvailable {
		if t.BuyerName != "" || t.BuyerContact != "" || t.OrderID != "" {
			return fmt.Errorf("ticket #%d: available but buyer fields set", t.Number)
		}
		return nil
	}
	if t.BuyerContact == "" || t.OrderID == "" {
		return fmt.Errorf("ticket #%d: %s without buyer contact or order id", t.Number, t.Status)
	}
	return nil
}

// Order groups tickets sold in one reservation transaction. Derived from
// the ticket rows, never stored separately.
type Order struct {
	ID           string          `json:"id"`
	BuyerName    string          `json:"buyer_name"`
	BuyerContact string          `json:"buyer_contact"`
	Numbers      []int           `json:"numbers"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Timestamp    time.Time       `json:"timestamp"`
}

// BuyerSummary aggregates every order sharing a digits-only contact key.
type BuyerSummary struct {
	Key          string          `json:"key"` // normalized contact
	Name         string          `json:"name"`
	Contact      string          `json:"contact"` // raw contact, as reserved
	TotalSpent   decimal.Decimal `json:"total_spent"`
	TotalNumbers int             `json:"total_numbers"`
	Orders       []Order         `json:"orders"`
	HasPending   bool            `json:"has_pending"`
}

type SalesStats struct {
	PaidCount     int             `json:"paid_count"`
	ReservedCount int             `json:"reserved_count"`
	Revenue       decimal.Decimal `json:"revenue"`
}
