package models

import (
	"github.com/shopspring/decimal"
)

// Customer wizard states. my-tickets is reachable from any state once the
// buyer is identified, so it is not part of the linear progression.
const (
	StateIdentify  = "identify"
	StateBrowse    = "browse"
	StateReview    = "review"
	StateSubmitted = "submitted"
)

type Identity struct {
	Name       string `json:"name"`
	Contact    string `json:"contact"`
	Identified bool   `json:"identified"`
}

// ReviewSnapshot is what the review step shows: the pending selection and
// what it would cost.
type ReviewSnapshot struct {
	Numbers []int           `json:"numbers"`
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
}

// MyTickets splits the buyer's tickets by payment state. Membership is an
// exact match on the contact string as it was stored at reservation time.
type MyTickets struct {
	Pending   []Ticket `json:"pending"`
	Confirmed []Ticket `json:"confirmed"`
}
