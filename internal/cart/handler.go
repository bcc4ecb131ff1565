package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type itemView struct {
	domain.CartItem
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Items []itemView      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func newCartView(c *domain.Cart) cartView {
	view := cartView{Items: make([]itemView, 0, len(c.Items)), Count: c.Count(), Total: c.Total()}
	for _, item := range c.Items {
		view.Items = append(view.Items, itemView{CartItem: item, Subtotal: item.Subtotal()})
	}
	return view
}

func (h *Handler) session(r *http.Request) *Session {
	return h.service.ForSession(SessionIDFrom(r.Context()))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.respondWithCart(w, r, h.session(r), http.StatusOK)
}

type addItemRequest struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := h.session(r)
	added, err := sess.Add(r.Context(), req.ProductID, req.Quantity, req.Size, req.Color)
	if err != nil {
		h.logger.Error("failed to add cart item", "error", err, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !added {
		h.writeError(w, http.StatusNotFound, "product not available")
		return
	}

	h.respondWithCart(w, r, sess, http.StatusOK)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		h.writeError(w, http.StatusBadRequest, "missing item key")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := h.session(r)
	if err := sess.Update(r.Context(), key, req.Quantity); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "item not in cart")
			return
		}
		h.logger.Error("failed to update cart item", "error", err, "item_key", key)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondWithCart(w, r, sess, http.StatusOK)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		h.writeError(w, http.StatusBadRequest, "missing item key")
		return
	}

	sess := h.session(r)
	if err := sess.Remove(r.Context(), key); err != nil {
		h.logger.Error("failed to remove cart item", "error", err, "item_key", key)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondWithCart(w, r, sess, http.StatusOK)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	if err := sess.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.respondWithCart(w, r, sess, http.StatusOK)
}

func (h *Handler) respondWithCart(w http.ResponseWriter, r *http.Request, sess *Session, status int) {
	c, err := sess.Cart(r.Context())
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, status, newCartView(c))
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
