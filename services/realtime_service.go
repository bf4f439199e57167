package services

import (
	"log/slog"

	pubnub "github.com/pubnub/go"

	"raffle-system/models"
)

const (
	// TicketsChannel carries full changed ticket rows for storefront
	// clients reconciling their local grid.
	TicketsChannel = "tickets-live"
	// AdminChannel carries dashboard events, currently the one-shot
	// new-reservation banner.
	AdminChannel = "admin-live"
)

// RealtimeService pushes ticket changes to connected clients. It is a
// fire-and-forget publisher: failures are logged and dropped, clients
// converge on the next full fetch.
type RealtimeService struct {
	pubnub *pubnub.PubNub
}

// NewRealtimeService wraps a PubNub client. A nil client disables
// publishing, which keeps local development working without keys.
func NewRealtimeService(pn *pubnub.PubNub) *RealtimeService {
	return &RealtimeService{pubnub: pn}
}

func (s *RealtimeService) PublishTicketChange(ticket models.Ticket) {
	if s.pubnub == nil {
		return
	}

	_, st, err := s.pubnub.Publish().
		Channel(TicketsChannel).
		Message(map[string]any{
			"type":   "ticket_change",
			"ticket": ticket,
		}).
		Execute()
	if err != nil {
		slog.Error("publish ticket change", "error", err, "number", ticket.Number, "status_code", st.StatusCode)
	}
}

func (s *RealtimeService) PublishNewReservation(number int) {
	if s.pubnub == nil {
		return
	}

	_, st, err := s.pubnub.Publish().
		Channel(AdminChannel).
		Message(map[string]any{
			"type":   "new_reservation",
			"number": number,
		}).
		Execute()
	if err != nil {
		slog.Error("publish reservation banner", "error", err, "number", number, "status_code", st.StatusCode)
	}
}
