package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"raffle-system/config"
	"raffle-system/internal/status"
	"raffle-system/models"
	"raffle-system/monitoring"
	"raffle-system/services"
	"raffle-system/utils"
)

type StorefrontHandler struct {
	app      *pocketbase.PocketBase
	tickets  *services.TicketService
	sessions *services.SessionService
	cfg      *config.Config
}

func NewStorefrontHandler(app *pocketbase.PocketBase, tickets *services.TicketService, sessions *services.SessionService, cfg *config.Config) *StorefrontHandler {
	return &StorefrontHandler{
		app:      app,
		tickets:  tickets,
		sessions: sessions,
		cfg:      cfg,
	}
}

// RaffleInfo - static raffle metadata for the storefront shell
func (h *StorefrontHandler) RaffleInfo(e *core.RequestEvent) error {
	pages := (h.cfg.TotalTickets + h.cfg.TicketsPerPage - 1) / h.cfg.TicketsPerPage
	return e.JSON(http.StatusOK, map[string]any{
		"total_tickets":    h.cfg.TotalTickets,
		"tickets_per_page": h.cfg.TicketsPerPage,
		"pages":            pages,
		"ticket_price":     h.cfg.TicketPrice.StringFixed(2),
		"draw_date":        h.cfg.DrawDate,
		"pix_key_display":  h.cfg.PixKeyDisplay,
	})
}

// BrowseTickets - one page of the number grid
func (h *StorefrontHandler) BrowseTickets(e *core.RequestEvent) error {
	tickets, err := h.tickets.ListTickets(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to load tickets", err)
	}

	page := parsePage(e.Request.URL.Query().Get("page"))
	perPage := h.cfg.TicketsPerPage
	slice, page := pageSlice(tickets, page, perPage)

	label := ""
	if len(slice) > 0 {
		label = utils.FormatNumber(slice[0].Number) + " a " + utils.FormatNumber(slice[len(slice)-1].Number)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"page":    page,
		"pages":   (len(tickets) + perPage - 1) / perPage,
		"label":   label,
		"tickets": slice,
	})
}

// Identify - collect and remember the buyer name and contact
func (h *StorefrontHandler) Identify(e *core.RequestEvent) error {
	var req struct {
		SessionID string `json:"session_id"`
		Name      string `json:"name"`
		Contact   string `json:"contact"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.SessionID == "" {
		return apis.NewBadRequestError("Session id required", nil)
	}

	identity, err := h.sessions.Identify(e.Request.Context(), req.SessionID, req.Name, req.Contact)
	if err != nil {
		if errors.Is(err, status.ErrEmptyName) || errors.Is(err, status.ErrInvalidContact) {
			return apis.NewBadRequestError(err.Error(), nil)
		}
		return apis.NewBadRequestError("Failed to store identity", err)
	}

	return e.JSON(http.StatusOK, identity)
}

// GetIdentity - the remembered buyer for a returning session
func (h *StorefrontHandler) GetIdentity(e *core.RequestEvent) error {
	sessionID := e.Request.URL.Query().Get("session_id")
	if sessionID == "" {
		return apis.NewBadRequestError("Session id required", nil)
	}

	identity, err := h.sessions.Identity(e.Request.Context(), sessionID)
	if err != nil {
		return apis.NewBadRequestError("Failed to load identity", err)
	}
	return e.JSON(http.StatusOK, identity)
}

// ResetIdentity - explicit "not me" action clearing the stored buyer
func (h *StorefrontHandler) ResetIdentity(e *core.RequestEvent) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.sessions.ResetIdentity(e.Request.Context(), req.SessionID); err != nil {
		return apis.NewBadRequestError("Failed to reset identity", err)
	}
	return e.JSON(http.StatusOK, map[string]string{"status": "reset"})
}

// ToggleNumber - select or deselect one grid number
func (h *StorefrontHandler) ToggleNumber(e *core.RequestEvent) error {
	var req struct {
		SessionID string `json:"session_id"`
		Number    int    `json:"number"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ctx := e.Request.Context()
	record, err := h.app.FindFirstRecordByFilter(
		"tickets",
		"number = {:number}",
		dbx.Params{"number": req.Number},
	)
	if err != nil {
		return apis.NewNotFoundError("Unknown ticket number", err)
	}

	selected, err := h.sessions.ToggleNumber(ctx, req.SessionID, req.Number, record.GetString("status"))
	if err != nil {
		return apis.NewBadRequestError("Failed to toggle number", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"number":   req.Number,
		"selected": selected,
	})
}

// Review - pending selection with its total
func (h *StorefrontHandler) Review(e *core.RequestEvent) error {
	sessionID := e.Request.URL.Query().Get("session_id")
	if sessionID == "" {
		return apis.NewBadRequestError("Session id required", nil)
	}

	snapshot, err := h.sessions.Review(e.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, status.ErrEmptySelection) {
			return apis.NewBadRequestError(err.Error(), nil)
		}
		return apis.NewBadRequestError("Failed to load review", err)
	}
	return e.JSON(http.StatusOK, snapshot)
}

// Reserve - submit the pending selection as one reservation
func (h *StorefrontHandler) Reserve(e *core.RequestEvent) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ctx := e.Request.Context()
	identity, err := h.sessions.Identity(ctx, req.SessionID)
	if err != nil {
		return apis.NewBadRequestError("Failed to load identity", err)
	}
	if !identity.Identified {
		return apis.NewBadRequestError(status.ErrNotIdentified.Error(), nil)
	}

	numbers, err := h.sessions.Selection(ctx, req.SessionID)
	if err != nil {
		return apis.NewBadRequestError("Failed to load selection", err)
	}
	if len(numbers) == 0 {
		return apis.NewBadRequestError(status.ErrEmptySelection.Error(), nil)
	}

	orderID, conflicts, err := h.tickets.Reserve(ctx, numbers, identity.Name, identity.Contact)
	if err != nil {
		// Selection stays intact so the buyer can adjust and resubmit.
		if errors.Is(err, status.ErrNumbersTaken) {
			monitoring.RecordReservation(monitoring.ResultConflict)
			return e.JSON(http.StatusConflict, map[string]any{
				"error":         "Some numbers were taken while you were choosing",
				"taken_numbers": conflicts,
			})
		}
		monitoring.RecordReservation(monitoring.ResultError)
		return apis.NewBadRequestError("Reservation failed", err)
	}

	if err := h.sessions.CompleteReservation(ctx, req.SessionID); err != nil {
		// The reservation is committed; a stale selection set only costs
		// the buyer one manual clear.
		e.App.Logger().Error("clear selection after reserve", "error", err)
	}

	monitoring.RecordReservation(monitoring.ResultAccepted)

	total := h.cfg.TicketPrice.Mul(decimal.NewFromInt(int64(len(numbers))))
	return e.JSON(http.StatusOK, map[string]any{
		"order_id": orderID,
		"numbers":  numbers,
		"total":    total.StringFixed(2),
		"payment": map[string]any{
			"pix_key":         h.cfg.PixKey,
			"pix_key_display": h.cfg.PixKeyDisplay,
			"draw_date":       h.cfg.DrawDate,
			"receipt_link":    utils.WhatsAppLink(h.cfg.SupportPhone, utils.ReceiptMessage(identity.Name, numbers, total)),
		},
	})
}

// MyTickets - the buyer's pending and confirmed numbers
func (h *StorefrontHandler) MyTickets(e *core.RequestEvent) error {
	sessionID := e.Request.URL.Query().Get("session_id")
	if sessionID == "" {
		return apis.NewBadRequestError("Session id required", nil)
	}

	ctx := e.Request.Context()
	identity, err := h.sessions.Identity(ctx, sessionID)
	if err != nil {
		return apis.NewBadRequestError("Failed to load identity", err)
	}
	if !identity.Identified {
		return apis.NewBadRequestError(status.ErrNotIdentified.Error(), nil)
	}

	tickets, err := h.tickets.ListTickets(ctx)
	if err != nil {
		return apis.NewBadRequestError("Failed to load tickets", err)
	}

	mine := services.SplitMine(tickets, identity.Contact)
	response := map[string]any{
		"pending":   mine.Pending,
		"confirmed": mine.Confirmed,
	}

	if len(mine.Pending) > 0 {
		numbers := ticketNumbers(mine.Pending)
		total := h.cfg.TicketPrice.Mul(decimal.NewFromInt(int64(len(numbers))))
		response["pending_total"] = total.StringFixed(2)
		response["receipt_link"] = utils.WhatsAppLink(h.cfg.SupportPhone, utils.ReceiptMessage(identity.Name, numbers, total))
	}

	return e.JSON(http.StatusOK, response)
}

// PixQR - the PIX key as a scannable PNG
func (h *StorefrontHandler) PixQR(e *core.RequestEvent) error {
	if h.cfg.PixKey == "" {
		return apis.NewNotFoundError("No PIX key configured", nil)
	}

	png, err := utils.PixQR(h.cfg.PixKey, 256)
	if err != nil {
		return apis.NewBadRequestError("Failed to render QR code", err)
	}

	e.Response.Header().Set("Content-Type", "image/png")
	e.Response.WriteHeader(http.StatusOK)
	_, err = e.Response.Write(png)
	return err
}

func ticketNumbers(tickets []models.Ticket) []int {
	numbers := make([]int, len(tickets))
	for i, t := range tickets {
		numbers[i] = t.Number
	}
	return numbers
}
