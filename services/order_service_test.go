package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle-system/models"
)

var unitPrice = decimal.NewFromInt(5)

// The whole pool is seeded in one migration pass, so every row shares
// one creation instant; only the update time moves when a buyer is
// assigned.
func fixtureTickets() []models.Ticket {
	seeded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Ticket{
		{Number: 5, Status: models.StatusReserved, BuyerName: "Ana Silva", BuyerContact: "(11) 90000-0000", OrderID: "ord-1", CreatedAt: seeded, UpdatedAt: seeded.Add(2 * time.Hour)},
		{Number: 17, Status: models.StatusReserved, BuyerName: "Ana Silva", BuyerContact: "(11) 90000-0000", OrderID: "ord-1", CreatedAt: seeded, UpdatedAt: seeded.Add(2 * time.Hour)},
		{Number: 42, Status: models.StatusPaid, BuyerName: "Bruno Costa", BuyerContact: "(21) 98888-7777", OrderID: "ord-2", CreatedAt: seeded, UpdatedAt: seeded.Add(3 * time.Hour)},
		{Number: 100, Status: models.StatusReserved, BuyerName: "Carla", BuyerContact: "(31) 97777-6666", OrderID: "", CreatedAt: seeded, UpdatedAt: seeded.Add(time.Hour)},
		{Number: 200, Status: models.StatusPaid, BuyerName: "", BuyerContact: "", OrderID: "", CreatedAt: seeded, UpdatedAt: seeded},
	}
}

func findOrder(t *testing.T, orders []models.Order, id string) models.Order {
	t.Helper()
	for _, o := range orders {
		if o.ID == id {
			return o
		}
	}
	t.Fatalf("order %q not found", id)
	return models.Order{}
}

func TestGroupOrders_MembershipAndTotals(t *testing.T) {
	orders := GroupOrders(fixtureTickets(), unitPrice)

	require.Len(t, orders, 4)

	ord1 := findOrder(t, orders, "ord-1")
	assert.Equal(t, []int{5, 17}, ord1.Numbers)
	assert.Equal(t, "Ana Silva", ord1.BuyerName)
	assert.Equal(t, models.StatusReserved, ord1.Status)
	assert.Equal(t, "10.00", ord1.Total.StringFixed(2))

	ord2 := findOrder(t, orders, "ord-2")
	assert.Equal(t, []int{42}, ord2.Numbers)
	assert.Equal(t, "5.00", ord2.Total.StringFixed(2))
}

func TestGroupOrders_FallbackKeys(t *testing.T) {
	orders := GroupOrders(fixtureTickets(), unitPrice)

	// No order id: grouped by the buyer contact.
	contactGroup := findOrder(t, orders, "(31) 97777-6666")
	assert.Equal(t, []int{100}, contactGroup.Numbers)

	// Neither order id nor contact: one synthetic group per ticket.
	legacy := findOrder(t, orders, "legacy_200")
	assert.Equal(t, []int{200}, legacy.Numbers)
}

func TestGroupOrders_Idempotent(t *testing.T) {
	tickets := fixtureTickets()

	reversed := make([]models.Ticket, len(tickets))
	for i, ticket := range tickets {
		reversed[len(tickets)-1-i] = ticket
	}

	a := GroupOrders(tickets, unitPrice)
	b := GroupOrders(reversed, unitPrice)

	require.Equal(t, len(a), len(b))
	for _, order := range a {
		assert.Equal(t, order.Numbers, findOrder(t, b, order.ID).Numbers)
	}
}

func TestSortOrders_ReservedFirstThenRecency(t *testing.T) {
	orders := GroupOrders(fixtureTickets(), unitPrice)
	SortOrders(orders)

	// All reserved orders come before any paid order.
	lastReserved := -1
	firstPaid := len(orders)
	for i, o := range orders {
		if o.Status == models.StatusReserved {
			lastReserved = i
		} else if i < firstPaid {
			firstPaid = i
		}
	}
	assert.Less(t, lastReserved, firstPaid)

	// Within the reserved group, most recently assigned first.
	assert.Equal(t, "ord-1", orders[0].ID)
	assert.Equal(t, "(31) 97777-6666", orders[1].ID)
}

func TestSortOrders_UsesAssignmentTimeNotSeedTime(t *testing.T) {
	seeded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tickets := []models.Ticket{
		{Number: 1, Status: models.StatusReserved, BuyerContact: "(11) 91111-1111", OrderID: "old", CreatedAt: seeded, UpdatedAt: seeded.Add(time.Hour)},
		{Number: 999, Status: models.StatusReserved, BuyerContact: "(11) 92222-2222", OrderID: "new", CreatedAt: seeded, UpdatedAt: seeded.Add(48 * time.Hour)},
	}

	orders := GroupOrders(tickets, unitPrice)
	SortOrders(orders)

	require.Len(t, orders, 2)
	assert.Equal(t, "new", orders[0].ID)
	assert.Equal(t, "old", orders[1].ID)
}

func TestBuyerSummaries_Aggregation(t *testing.T) {
	orders := GroupOrders(fixtureTickets(), unitPrice)
	buyers := BuyerSummaries(orders)

	var ana models.BuyerSummary
	for _, b := range buyers {
		if b.Key == "11900000000" {
			ana = b
		}
	}
	require.Equal(t, "11900000000", ana.Key)
	assert.Equal(t, "Ana Silva", ana.Name)
	assert.Equal(t, "10.00", ana.TotalSpent.StringFixed(2))
	assert.Equal(t, 2, ana.TotalNumbers)
	assert.True(t, ana.HasPending)
	assert.Len(t, ana.Orders, 1)
}

func TestBuyerSummaries_PendingFlagClearsAfterConfirmation(t *testing.T) {
	tickets := fixtureTickets()
	// Admin confirmed Ana's order: both members flip to paid.
	for i := range tickets {
		if tickets[i].OrderID == "ord-1" {
			tickets[i].Status = models.StatusPaid
		}
	}

	buyers := BuyerSummaries(GroupOrders(tickets, unitPrice))
	for _, b := range buyers {
		if b.Key == "11900000000" {
			assert.Equal(t, "10.00", b.TotalSpent.StringFixed(2))
			assert.False(t, b.HasPending)
			return
		}
	}
	t.Fatal("buyer 11900000000 not found")
}

func TestBuyerSummaries_SortedByTotalSpent(t *testing.T) {
	buyers := BuyerSummaries(GroupOrders(fixtureTickets(), unitPrice))

	require.NotEmpty(t, buyers)
	for i := 1; i < len(buyers); i++ {
		assert.True(t, buyers[i-1].TotalSpent.GreaterThanOrEqual(buyers[i].TotalSpent))
	}
	assert.Equal(t, "11900000000", buyers[0].Key)
}

func TestFilterOrders(t *testing.T) {
	orders := GroupOrders(fixtureTickets(), unitPrice)

	tests := []struct {
		name         string
		term         string
		statusFilter string
		wantIDs      []string
	}{
		{name: "empty term matches all", term: "", wantIDs: []string{"ord-1", "ord-2", "(31) 97777-6666", "legacy_200"}},
		{name: "name is case insensitive", term: "ana", wantIDs: []string{"ord-1"}},
		{name: "number substring", term: "17", wantIDs: []string{"ord-1"}},
		{name: "status reserved", statusFilter: models.StatusReserved, wantIDs: []string{"ord-1", "(31) 97777-6666"}},
		{name: "status paid with term", term: "42", statusFilter: models.StatusPaid, wantIDs: []string{"ord-2"}},
		{name: "no match", term: "zzz", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterOrders(orders, tt.term, tt.statusFilter)
			ids := make([]string, 0, len(got))
			for _, o := range got {
				ids = append(ids, o.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestFilterBuyers(t *testing.T) {
	buyers := BuyerSummaries(GroupOrders(fixtureTickets(), unitPrice))

	withPending := FilterBuyers(buyers, "", models.StatusReserved)
	for _, b := range withPending {
		assert.True(t, b.HasPending)
	}

	settled := FilterBuyers(buyers, "", models.StatusPaid)
	for _, b := range settled {
		assert.False(t, b.HasPending)
	}

	byContact := FilterBuyers(buyers, "(21)", "")
	require.Len(t, byContact, 1)
	assert.Equal(t, "Bruno Costa", byContact[0].Name)

	byName := FilterBuyers(buyers, "BRUNO", "")
	require.Len(t, byName, 1)
	assert.Equal(t, "21988887777", byName[0].Key)
}
