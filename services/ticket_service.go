package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"raffle-system/internal/status"
	"raffle-system/models"
	"raffle-system/utils"
)

const ticketsCollection = "tickets"

// ChangeHandler receives the full changed row on every ticket
// insert/update. Delivery is at-least-once; consumers must reconcile by
// ticket number, see ReconcileByNumber.
type ChangeHandler func(t models.Ticket)

// TicketService is the store client for the tickets collection: listing,
// batch reservation, status changes and the change feed.
type TicketService struct {
	app      core.App
	realtime *RealtimeService

	mu          sync.Mutex
	nextSubID   int
	subscribers map[int]ChangeHandler
}

func NewTicketService(app core.App, realtime *RealtimeService) *TicketService {
	return &TicketService{
		app:         app,
		realtime:    realtime,
		subscribers: make(map[int]ChangeHandler),
	}
}

// ListTickets returns the whole pool ordered by number ascending.
func (s *TicketService) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		ticketsCollection,
		"number > 0",
		"+number",
		-1,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return recordsToTickets(records), nil
}

// ListActiveTickets returns every ticket whose status is not available,
// ordered by number ascending. This is the admin's working set.
func (s *TicketService) ListActiveTickets(ctx context.Context) ([]models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		ticketsCollection,
		"status != {:available}",
		"+number",
		-1,
		0,
		dbx.Params{"available": models.StatusAvailable},
	)
	if err != nil {
		return nil, fmt.Errorf("list active tickets: %w", err)
	}
	return recordsToTickets(records), nil
}

// Reserve flips the given numbers to reserved under a fresh order id, all
// or nothing. The write is conditional: inside the transaction every
// requested number is re-read, and if any is no longer available the
// whole batch aborts and the conflicting subset is returned. This closes
// the overselling window that an unconditional batch update would leave
// open when two buyers race for the same number.
func (s *TicketService) Reserve(ctx context.Context, numbers []int, buyerName, buyerContact string) (string, []int, error) {
	if len(numbers) == 0 {
		return "", nil, status.ErrEmptySelection
	}

	orderID := utils.NewOrderID()
	var conflicts []int

	err := s.app.RunInTransaction(func(tx core.App) error {
		records, err := findByNumbers(tx, numbers)
		if err != nil {
			return err
		}

		conflicts = conflictingNumbers(recordsToTickets(records), models.StatusAvailable)
		if len(conflicts) > 0 {
			return status.ErrNumbersTaken
		}

		for _, record := range records {
			record.Set("status", models.StatusReserved)
			record.Set("buyer_name", buyerName)
			record.Set("buyer_contact", buyerContact)
			record.Set("order_id", orderID)
			if err := tx.SaveWithContext(ctx, record); err != nil {
				return fmt.Errorf("reserve #%d: %w", record.GetInt("number"), err)
			}
		}
		return nil
	})
	if err != nil {
		return "", conflicts, err
	}

	slog.Info("reservation accepted",
		"order_id", orderID,
		"numbers", numbers,
		"buyer_contact", buyerContact,
	)
	return orderID, nil, nil
}

// SetStatus sets the status for all given numbers in one transaction.
// clearBuyer wipes buyer name, contact and order id, which is the
// cancellation path returning numbers to the pool. Confirming payment is
// conditional like Reserve: a number that is not currently reserved
// carries no buyer, so flipping it to paid would break the availability
// bookkeeping; the whole batch aborts and the offending subset is
// returned.
func (s *TicketService) SetStatus(ctx context.Context, numbers []int, newStatus string, clearBuyer bool) ([]int, error) {
	if !models.ValidStatus(newStatus) {
		return nil, status.ErrInvalidStatus
	}
	if len(numbers) == 0 {
		return nil, status.ErrEmptySelection
	}

	var conflicts []int

	err := s.app.RunInTransaction(func(tx core.App) error {
		records, err := findByNumbers(tx, numbers)
		if err != nil {
			return err
		}

		if newStatus == models.StatusPaid {
			conflicts = conflictingNumbers(recordsToTickets(records), models.StatusReserved)
			if len(conflicts) > 0 {
				return status.ErrNotReserved
			}
		}

		for _, record := range records {
			record.Set("status", newStatus)
			if clearBuyer {
				record.Set("buyer_name", "")
				record.Set("buyer_contact", "")
				record.Set("order_id", "")
			}
			if err := tx.SaveWithContext(ctx, record); err != nil {
				return fmt.Errorf("set status #%d: %w", record.GetInt("number"), err)
			}
		}
		return nil
	})
	if err != nil {
		return conflicts, err
	}

	slog.Info("status updated", "numbers", numbers, "status", newStatus, "cleared", clearBuyer)
	return nil, nil
}

// Subscribe registers a handler for ticket change notifications and
// returns its unsubscribe function.
func (s *TicketService) Subscribe(handler ChangeHandler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = handler

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// BindHooks attaches the change feed to the backend's record events.
// Every insert/update on the tickets collection fans out to local
// subscribers and is published to connected clients; an update carrying a
// reserved status additionally raises the admin banner event.
func (s *TicketService) BindHooks() {
	s.app.OnRecordAfterCreateSuccess(ticketsCollection).BindFunc(func(e *core.RecordEvent) error {
		s.dispatch(models.TicketFromRecord(e.Record))
		return e.Next()
	})

	s.app.OnRecordAfterUpdateSuccess(ticketsCollection).BindFunc(func(e *core.RecordEvent) error {
		ticket := models.TicketFromRecord(e.Record)
		s.dispatch(ticket)
		if ticket.Status == models.StatusReserved {
			s.realtime.PublishNewReservation(ticket.Number)
		}
		return e.Next()
	})
}

func (s *TicketService) dispatch(ticket models.Ticket) {
	s.realtime.PublishTicketChange(ticket)

	s.mu.Lock()
	handlers := make([]ChangeHandler, 0, len(s.subscribers))
	for _, h := range s.subscribers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(ticket)
	}
}

// ReconcileByNumber merges one changed row into a local cache: the entry
// with the same number is replaced, unknown numbers are appended and the
// cache resorted. Repeated deliveries of the same row are harmless.
func ReconcileByNumber(cache []models.Ticket, changed models.Ticket) []models.Ticket {
	for i := range cache {
		if cache[i].Number == changed.Number {
			cache[i] = changed
			return cache
		}
	}
	cache = append(cache, changed)
	sort.Slice(cache, func(i, j int) bool { return cache[i].Number < cache[j].Number })
	return cache
}

// conflictingNumbers returns, sorted ascending, the numbers whose status
// differs from want. Reserve and the paid transition both gate their
// batch on an empty result, re-read inside the transaction, which is
// what makes them all-or-nothing.
func conflictingNumbers(tickets []models.Ticket, want string) []int {
	var conflicts []int
	for _, t := range tickets {
		if t.Status != want {
			conflicts = append(conflicts, t.Number)
		}
	}
	sort.Ints(conflicts)
	return conflicts
}

// findByNumbers loads the records for the given ticket numbers and fails
// if any of them does not exist in the pool.
func findByNumbers(app core.App, numbers []int) ([]*core.Record, error) {
	exprs := make([]string, len(numbers))
	params := dbx.Params{}
	for i, n := range numbers {
		key := fmt.Sprintf("n%d", i)
		exprs[i] = fmt.Sprintf("number = {:%s}", key)
		params[key] = n
	}

	records, err := app.FindRecordsByFilter(
		ticketsCollection,
		strings.Join(exprs, " || "),
		"+number",
		-1,
		0,
		params,
	)
	if err != nil {
		return nil, fmt.Errorf("find tickets: %w", err)
	}
	if len(records) != len(numbers) {
		return nil, fmt.Errorf("%w: requested %d, found %d", status.ErrUnknownNumber, len(numbers), len(records))
	}
	return records, nil
}

func recordsToTickets(records []*core.Record) []models.Ticket {
	tickets := make([]models.Ticket, len(records))
	for i, r := range records {
		tickets[i] = models.TicketFromRecord(r)
	}
	return tickets
}
