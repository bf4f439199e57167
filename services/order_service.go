package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"raffle-system/models"
	"raffle-system/utils"
)

// OrderService derives the admin's grouped views (orders, buyer
// summaries, sales stats) from the raw ticket rows. Orders are never
// stored; they are recomputed from scratch on every fetch, which is also
// how the realtime reconciliation works (full re-fetch, not a patch).
type OrderService struct {
	tickets   *TicketService
	app       core.App
	unitPrice decimal.Decimal
}

func NewOrderService(app core.App, tickets *TicketService, unitPrice decimal.Decimal) *OrderService {
	return &OrderService{
		tickets:   tickets,
		app:       app,
		unitPrice: unitPrice,
	}
}

// ActiveOrders returns all non-available tickets grouped and sorted for
// the admin order list.
func (s *OrderService) ActiveOrders(ctx context.Context) ([]models.Order, error) {
	tickets, err := s.tickets.ListActiveTickets(ctx)
	if err != nil {
		return nil, err
	}
	orders := GroupOrders(tickets, s.unitPrice)
	SortOrders(orders)
	return orders, nil
}

// Buyers returns summaries keyed by normalized contact, sorted by total
// spent descending.
func (s *OrderService) Buyers(ctx context.Context) ([]models.BuyerSummary, error) {
	orders, err := s.ActiveOrders(ctx)
	if err != nil {
		return nil, err
	}
	return BuyerSummaries(orders), nil
}

// Stats aggregates paid/reserved counts straight in the database.
func (s *OrderService) Stats(ctx context.Context) (models.SalesStats, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"cnt"`
	}

	err := s.app.DB().
		NewQuery("SELECT status, COUNT(*) AS cnt FROM tickets WHERE status != {:available} GROUP BY status").
		Bind(dbx.Params{"available": models.StatusAvailable}).
		All(&rows)
	if err != nil {
		return models.SalesStats{}, fmt.Errorf("sales stats: %w", err)
	}

	stats := models.SalesStats{Revenue: decimal.Zero}
	for _, row := range rows {
		switch row.Status {
		case models.StatusPaid:
			stats.PaidCount = row.Count
		case models.StatusReserved:
			stats.ReservedCount = row.Count
		}
	}
	stats.Revenue = s.unitPrice.Mul(decimal.NewFromInt(int64(stats.PaidCount)))
	return stats, nil
}

// orderKey picks the grouping key for a ticket: the order id, falling
// back to the buyer contact, falling back to a synthetic per-ticket key
// for legacy rows that predate order ids.
func orderKey(t models.Ticket) string {
	if t.OrderID != "" {
		return t.OrderID
	}
	if t.BuyerContact != "" {
		return t.BuyerContact
	}
	return "legacy_" + strconv.Itoa(t.Number)
}

// GroupOrders folds ticket rows into derived orders. Input order does not
// matter: tickets are sorted by number first so grouping the same set
// twice yields identical membership. The order timestamp is the row's
// last update, which is when the buyer was assigned; creation time is the
// pool seed instant shared by every ticket.
func GroupOrders(tickets []models.Ticket, unitPrice decimal.Decimal) []models.Order {
	sorted := make([]models.Ticket, len(tickets))
	copy(sorted, tickets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	grouped := map[string]*models.Order{}
	var keys []string

	for _, t := range sorted {
		key := orderKey(t)
		order, ok := grouped[key]
		if !ok {
			order = &models.Order{
				ID:           key,
				BuyerName:    t.BuyerName,
				BuyerContact: t.BuyerContact,
				Status:       t.Status,
				Total:        decimal.Zero,
				Timestamp:    t.UpdatedAt,
			}
			grouped[key] = order
			keys = append(keys, key)
		}
		order.Numbers = append(order.Numbers, t.Number)
		order.Total = order.Total.Add(unitPrice)
	}

	orders := make([]models.Order, 0, len(keys))
	for _, key := range keys {
		orders = append(orders, *grouped[key])
	}
	return orders
}

// SortOrders orders the list for the admin view: every reserved order
// before every paid one, most recent first within each status group.
func SortOrders(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].Status != orders[j].Status {
			return orders[i].Status == models.StatusReserved
		}
		return orders[i].Timestamp.After(orders[j].Timestamp)
	})
}

// BuyerSummaries aggregates orders by digits-only contact, sorted by
// total spent descending.
func BuyerSummaries(orders []models.Order) []models.BuyerSummary {
	grouped := map[string]*models.BuyerSummary{}
	var keys []string

	for _, order := range orders {
		key := utils.NormalizeContact(order.BuyerContact)
		summary, ok := grouped[key]
		if !ok {
			summary = &models.BuyerSummary{
				Key:        key,
				Name:       order.BuyerName,
				Contact:    order.BuyerContact,
				TotalSpent: decimal.Zero,
			}
			grouped[key] = summary
			keys = append(keys, key)
		}
		summary.TotalSpent = summary.TotalSpent.Add(order.Total)
		summary.TotalNumbers += len(order.Numbers)
		summary.Orders = append(summary.Orders, order)
		if order.Status == models.StatusReserved {
			summary.HasPending = true
		}
	}

	summaries := make([]models.BuyerSummary, 0, len(keys))
	for _, key := range keys {
		summaries = append(summaries, *grouped[key])
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalSpent.GreaterThan(summaries[j].TotalSpent)
	})
	return summaries
}

// FilterOrders applies the dashboard's free-text and status filters. The
// term matches buyer names case-insensitively or any member number by
// decimal substring; an empty term matches everything.
func FilterOrders(orders []models.Order, term, statusFilter string) []models.Order {
	term = strings.ToLower(term)
	var out []models.Order
	for _, order := range orders {
		if statusFilter != "" && order.Status != statusFilter {
			continue
		}
		if matchesOrder(order, term) {
			out = append(out, order)
		}
	}
	return out
}

func matchesOrder(order models.Order, term string) bool {
	if strings.Contains(strings.ToLower(order.BuyerName), term) {
		return true
	}
	for _, n := range order.Numbers {
		if strings.Contains(strconv.Itoa(n), term) {
			return true
		}
	}
	return false
}

// FilterBuyers applies the buyer tab filters: the term matches names
// case-insensitively or the raw contact by substring; the status filter
// keeps buyers that do ("reserved") or do not ("paid") have a pending
// order.
func FilterBuyers(buyers []models.BuyerSummary, term, statusFilter string) []models.BuyerSummary {
	term = strings.ToLower(term)
	var out []models.BuyerSummary
	for _, buyer := range buyers {
		if statusFilter == models.StatusReserved && !buyer.HasPending {
			continue
		}
		if statusFilter == models.StatusPaid && buyer.HasPending {
			continue
		}
		if strings.Contains(strings.ToLower(buyer.Name), term) || strings.Contains(buyer.Contact, term) {
			out = append(out, buyer)
		}
	}
	return out
}
