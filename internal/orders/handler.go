package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Zeinot/hajar-php-store-sub000/internal/auth"
	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

type Handler struct {
	repo    *OrderRepository
	tracker *Tracker
	logger  *slog.Logger
}

func NewHandler(repo *OrderRepository, tracker *Tracker, logger *slog.Logger) *Handler {
	return &Handler{
		repo:    repo,
		tracker: tracker,
		logger:  logger,
	}
}

// HandleList lists the calling customer's orders.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, auth.CustomerID(r.Context()))
}

// HandleAdminList lists every order.
func (h *Handler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("customer_id"))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, customerID string) {
	orders, err := h.repo.List(r.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOwnOrder(w, r)
	if !ok {
		return
	}

	h.logger.Info("order retrieved", "order_id", order.ID)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOwnOrder(w, r)
	if !ok {
		return
	}

	history, err := h.repo.History(r.Context(), order.ID)
	if err != nil {
		h.logger.Error("failed to get order history", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

func (h *Handler) loadOwnOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return nil, false
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}

	if order == nil || order.CustomerID != auth.CustomerID(r.Context()) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return nil, false
	}

	return order, true
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := h.tracker.Transition(r.Context(), id, domain.OrderStatus(req.Status), req.Notes, auth.CustomerID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidStatus):
			h.writeError(w, http.StatusBadRequest, "invalid status")
		case errors.Is(err, domain.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		default:
			h.logger.Error("failed to update order status", "error", err, "id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil || order == nil {
		h.logger.Error("failed to reload order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

type bulkUpdateRequest struct {
	OrderIDs []string `json:"order_ids"`
	Status   string   `json:"status"`
	Notes    string   `json:"notes"`
}

func (h *Handler) HandleBulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.OrderIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "no orders selected")
		return
	}

	result, err := h.tracker.BulkTransition(r.Context(), req.OrderIDs, domain.OrderStatus(req.Status), req.Notes, auth.CustomerID(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			h.writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		h.logger.Error("failed to bulk update order status", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
