package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"raffle-system/config"
	"raffle-system/internal/status"
	"raffle-system/models"
	"raffle-system/monitoring"
	"raffle-system/security"
	"raffle-system/services"
	"raffle-system/utils"
)

type AdminHandler struct {
	app     *pocketbase.PocketBase
	orders  *services.OrderService
	tickets *services.TicketService
	gate    *security.AdminGate
	cfg     *config.Config
}

func NewAdminHandler(app *pocketbase.PocketBase, orders *services.OrderService, tickets *services.TicketService, gate *security.AdminGate, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		app:     app,
		orders:  orders,
		tickets: tickets,
		gate:    gate,
		cfg:     cfg,
	}
}

// Login - exchange the shared password for a session token
func (h *AdminHandler) Login(e *core.RequestEvent) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	token, err := h.gate.Login(e.Request.Context(), e.RealIP(), req.Password)
	if err != nil {
		if errors.Is(err, status.ErrTooManyAttempts) {
			return e.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many attempts. Please wait a minute.",
			})
		}
		return apis.NewUnauthorizedError("Wrong password", nil)
	}

	return e.JSON(http.StatusOK, map[string]string{"token": token})
}

// Logout - drop the session token
func (h *AdminHandler) Logout(e *core.RequestEvent) error {
	if err := h.gate.Logout(e.Request.Context(), adminToken(e)); err != nil {
		return apis.NewBadRequestError("Failed to log out", err)
	}
	return e.JSON(http.StatusOK, map[string]string{"status": "logged_out"})
}

// RequireAdmin guards every dashboard route behind a live token.
func (h *AdminHandler) RequireAdmin(e *core.RequestEvent) error {
	if err := h.gate.Validate(e.Request.Context(), adminToken(e)); err != nil {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}
	return e.Next()
}

func adminToken(e *core.RequestEvent) string {
	if header := e.Request.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return e.Request.Header.Get("X-Admin-Token")
}

// ListOrders - grouped orders with search and status filters
func (h *AdminHandler) ListOrders(e *core.RequestEvent) error {
	statusFilter, err := parseStatusFilter(e.Request.URL.Query().Get("status"))
	if err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}

	orders, err := h.orders.ActiveOrders(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to load orders", err)
	}

	filtered := services.FilterOrders(orders, e.Request.URL.Query().Get("search"), statusFilter)
	return e.JSON(http.StatusOK, map[string]any{
		"orders": filtered,
		"count":  len(filtered),
	})
}

// ListBuyers - per-buyer aggregates with search and pending filters
func (h *AdminHandler) ListBuyers(e *core.RequestEvent) error {
	statusFilter, err := parseStatusFilter(e.Request.URL.Query().Get("status"))
	if err != nil {
		return apis.NewBadRequestError(err.Error(), nil)
	}

	buyers, err := h.orders.Buyers(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to load buyers", err)
	}

	filtered := services.FilterBuyers(buyers, e.Request.URL.Query().Get("search"), statusFilter)
	return e.JSON(http.StatusOK, map[string]any{
		"buyers": filtered,
		"count":  len(filtered),
	})
}

// GetStats - paid/reserved counts and collected revenue
func (h *AdminHandler) GetStats(e *core.RequestEvent) error {
	stats, err := h.orders.Stats(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to load stats", err)
	}
	return e.JSON(http.StatusOK, stats)
}

// ConfirmOrder - mark every member number paid and hand back the
// buyer-facing confirmation link
func (h *AdminHandler) ConfirmOrder(e *core.RequestEvent) error {
	var req struct {
		Numbers      []int  `json:"numbers"`
		BuyerName    string `json:"buyer_name"`
		BuyerContact string `json:"buyer_contact"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if len(req.Numbers) == 0 {
		return apis.NewBadRequestError(status.ErrEmptySelection.Error(), nil)
	}

	invalid, err := h.tickets.SetStatus(e.Request.Context(), req.Numbers, models.StatusPaid, false)
	if err != nil {
		// The dashboard rolls its optimistic state back with a re-fetch.
		if errors.Is(err, status.ErrNotReserved) {
			return e.JSON(http.StatusConflict, map[string]any{
				"error":           "Some numbers are not awaiting confirmation",
				"invalid_numbers": invalid,
			})
		}
		return apis.NewBadRequestError("Failed to confirm payment", err)
	}

	monitoring.RecordConfirmation()

	total := h.cfg.TicketPrice.Mul(decimal.NewFromInt(int64(len(req.Numbers))))
	response := map[string]any{
		"numbers": req.Numbers,
		"status":  models.StatusPaid,
		"total":   total.StringFixed(2),
	}
	if req.BuyerContact != "" {
		phone := h.cfg.CountryCallingCode + utils.Digits(req.BuyerContact)
		message := utils.ConfirmationMessage(req.BuyerName, req.Numbers, total)
		response["confirmation_link"] = utils.WhatsAppLink(phone, message)
	}

	return e.JSON(http.StatusOK, response)
}

// CancelOrder - release every member number back to the pool
func (h *AdminHandler) CancelOrder(e *core.RequestEvent) error {
	var req struct {
		Numbers   []int  `json:"numbers"`
		BuyerName string `json:"buyer_name"`
		Confirm   bool   `json:"confirm"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if len(req.Numbers) == 0 {
		return apis.NewBadRequestError(status.ErrEmptySelection.Error(), nil)
	}
	if !req.Confirm {
		// The dashboard must show the modal naming buyer and numbers
		// before resending with confirm set.
		return apis.NewBadRequestError("Cancellation requires confirmation", nil)
	}

	if _, err := h.tickets.SetStatus(e.Request.Context(), req.Numbers, models.StatusAvailable, true); err != nil {
		return apis.NewBadRequestError("Failed to cancel order", err)
	}

	monitoring.RecordCancellation()

	return e.JSON(http.StatusOK, map[string]any{
		"numbers": req.Numbers,
		"status":  models.StatusAvailable,
	})
}

func parseStatusFilter(raw string) (string, error) {
	switch raw {
	case "", models.StatusReserved, models.StatusPaid:
		return raw, nil
	default:
		return "", errors.New("status filter must be reserved or paid")
	}
}
